package backend

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riftdata/pgwire/frontend"
	"github.com/riftdata/pgwire/pkg/pglog"
	"github.com/riftdata/pgwire/wire"
)

var errBoom = errors.New("boom")

func pipeConn(t *testing.T) (server, client net.Conn) {
	t.Helper()
	server, client = net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return server, client
}

// runHandshake drives Conn.Handshake on one end of a net.Pipe and
// frontend.Connect on the other, concurrently so neither side deadlocks
// waiting on the half-duplex pipe.
func runHandshake(t *testing.T, authenticate AuthPredicate, creds frontend.Credentials) (*Conn, *frontend.Session, error, error) {
	t.Helper()
	serverSide, clientSide := pipeConn(t)
	conn := newConn(serverSide, 1234, 5678, pglog.Default())

	type handshakeResult struct {
		err error
	}
	serverDone := make(chan handshakeResult, 1)
	go func() {
		serverDone <- handshakeResult{err: conn.Handshake(authenticate)}
	}()

	sess, clientErr := frontend.Connect(context.Background(), clientSide, creds)
	res := <-serverDone
	return conn, sess, res.err, clientErr
}

func TestHandshakeSuccess(t *testing.T) {
	var gotParams ConnectionParams
	authenticate := func(params ConnectionParams, hash string, salt wire.Byte4) bool {
		gotParams = params
		want := wire.HashMD5Password(params.User, "s3cret", salt)
		return hash == want
	}
	creds := frontend.Credentials{User: "alice", Database: "mydb", Password: "s3cret"}

	conn, sess, serverErr, clientErr := runHandshake(t, authenticate, creds)
	require.NoError(t, serverErr)
	require.NoError(t, clientErr)
	require.NotNil(t, sess)
	require.Equal(t, "alice", gotParams.User)
	require.Equal(t, "mydb", gotParams.Database)
	require.Equal(t, "alice", conn.Params().User)

	version, ok := sess.Param("server_version")
	require.True(t, ok)
	require.Contains(t, version, "pgwire")
	require.Equal(t, conn.pid, sess.BackendPID())
	require.Equal(t, conn.secret, sess.BackendKey())
}

func TestHandshakeAuthFailure(t *testing.T) {
	reject := func(ConnectionParams, string, wire.Byte4) bool { return false }
	creds := frontend.Credentials{User: "bob", Password: "wrong"}

	_, sess, serverErr, clientErr := runHandshake(t, reject, creds)
	require.ErrorIs(t, serverErr, wire.ErrAuthFailed)
	require.Error(t, clientErr)
	require.Nil(t, sess)
}

func TestServeSimpleQueryOrdering(t *testing.T) {
	serverSide, clientSide := pipeConn(t)
	conn := newConn(serverSide, 1, 2, pglog.Default())

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- conn.Handshake(AllowAll)
	}()
	sess, err := frontend.Connect(context.Background(), clientSide, frontend.Credentials{User: "u"})
	require.NoError(t, <-serverDone)
	require.NoError(t, err)

	exec := ExecutorFunc(func(ctx context.Context, sql string) (ExecResult, error) {
		return ExecResult{
			Columns: []wire.ColumnDescription{wire.ColumnDescriptionFor("id", wire.Int4)},
			Rows: [][]wire.ColumnValue{
				{{Data: []byte("1")}},
				{{Data: []byte("2")}},
			},
			Tag: "SELECT 2",
		}, nil
	})

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- conn.Serve(context.Background(), exec, nil)
	}()

	cols, rows, tag, qerr := sess.SimpleQuery(context.Background(), "SELECT * FROM t")
	require.NoError(t, qerr)
	require.Len(t, cols, 1)
	require.Equal(t, "id", string(cols[0].Name))
	require.Len(t, rows, 2)
	require.Equal(t, "SELECT 2", tag)

	require.NoError(t, sess.Close())
	select {
	case err := <-serveDone:
		require.Error(t, err) // connection closed mid-read
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after client closed")
	}
}

func TestServeEmptyRowsSuppressesDataRow(t *testing.T) {
	serverSide, clientSide := pipeConn(t)
	conn := newConn(serverSide, 1, 2, pglog.Default())

	go func() { _ = conn.Handshake(AllowAll) }()
	sess, err := frontend.Connect(context.Background(), clientSide, frontend.Credentials{User: "u"})
	require.NoError(t, err)

	exec := ExecutorFunc(func(ctx context.Context, sql string) (ExecResult, error) {
		return ExecResult{
			Columns: []wire.ColumnDescription{wire.ColumnDescriptionFor("id", wire.Int4)},
			Tag:     "SELECT 0",
		}, nil
	})
	go func() { _ = conn.Serve(context.Background(), exec, nil) }()

	cols, rows, tag, qerr := sess.SimpleQuery(context.Background(), "SELECT * FROM empty")
	require.NoError(t, qerr)
	require.Len(t, cols, 1)
	require.Empty(t, rows)
	require.Equal(t, "SELECT 0", tag)
}

func TestServeExecutorErrorStaysOpen(t *testing.T) {
	serverSide, clientSide := pipeConn(t)
	conn := newConn(serverSide, 1, 2, pglog.Default())

	go func() { _ = conn.Handshake(AllowAll) }()
	sess, err := frontend.Connect(context.Background(), clientSide, frontend.Credentials{User: "u"})
	require.NoError(t, err)

	calls := 0
	exec := ExecutorFunc(func(ctx context.Context, sql string) (ExecResult, error) {
		calls++
		if calls == 1 {
			return ExecResult{}, errBoom
		}
		return ExecResult{Tag: "SELECT 0"}, nil
	})
	go func() { _ = conn.Serve(context.Background(), exec, nil) }()

	_, _, _, qerr := sess.SimpleQuery(context.Background(), "BAD SQL")
	require.Error(t, qerr)
	var queryErr *frontend.QueryError
	require.ErrorAs(t, qerr, &queryErr)

	// The connection must still be usable: a second query round trips fine.
	_, _, tag, qerr2 := sess.SimpleQuery(context.Background(), "SELECT 1")
	require.NoError(t, qerr2)
	require.Equal(t, "SELECT 0", tag)
}

func TestServePanickingExecutorStaysOpen(t *testing.T) {
	serverSide, clientSide := pipeConn(t)
	conn := newConn(serverSide, 1, 2, pglog.Default())

	go func() { _ = conn.Handshake(AllowAll) }()
	sess, err := frontend.Connect(context.Background(), clientSide, frontend.Credentials{User: "u"})
	require.NoError(t, err)

	calls := 0
	exec := ExecutorFunc(func(ctx context.Context, sql string) (ExecResult, error) {
		calls++
		if calls == 1 {
			panic("executor blew up")
		}
		return ExecResult{Tag: "SELECT 0"}, nil
	})
	go func() { _ = conn.Serve(context.Background(), exec, nil) }()

	_, _, _, qerr := sess.SimpleQuery(context.Background(), "BAD SQL")
	require.Error(t, qerr)
	var queryErr *frontend.QueryError
	require.ErrorAs(t, qerr, &queryErr)

	// The connection must still be usable: a second query round trips fine.
	_, _, tag, qerr2 := sess.SimpleQuery(context.Background(), "SELECT 1")
	require.NoError(t, qerr2)
	require.Equal(t, "SELECT 0", tag)
}

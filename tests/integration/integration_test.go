//go:build integration

// Package integration proves wire compatibility in both directions:
// a real driver (jackc/pgx/v5) speaking to our backend, and our
// frontend speaking to a real PostgreSQL server started with
// testcontainers-go/modules/postgres, grounded in
// marmos91-dittofs's test/e2e/framework.PostgresHelper pattern.
package integration

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/riftdata/pgwire/backend"
	"github.com/riftdata/pgwire/frontend"
	"github.com/riftdata/pgwire/wire"
)

// TestPgxClientAgainstOurBackend starts backend.Server and drives it
// with pgx, a real postgres wire driver, over the simple-query protocol
// (pgx's QueryExecModeSimpleProtocol). This proves our backend emits
// frames a real client library actually accepts.
func TestPgxClientAgainstOurBackend(t *testing.T) {
	executor := backend.ExecutorFunc(func(ctx context.Context, sql string) (backend.ExecResult, error) {
		return backend.ExecResult{
			Columns: []wire.ColumnDescription{
				wire.ColumnDescriptionFor("id", wire.Int4),
				wire.ColumnDescriptionFor("name", wire.Text),
			},
			Rows: [][]wire.ColumnValue{
				{{Data: []byte("1")}, {Data: []byte("alice")}},
				{{Data: []byte("2")}, {Data: []byte("bob")}},
			},
			Tag: "SELECT 2",
		}, nil
	})

	srv := backend.NewServer(backend.Config{
		ListenAddr:   "127.0.0.1:0",
		Authenticate: backend.AllowAll,
		Executor:     executor,
	})
	require.NoError(t, srv.Start())
	defer srv.Stop()

	connStr := "postgres://anyuser:anypass@" + srv.Addr().String() + "/testdb?sslmode=disable"
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := pgx.ParseConfig(connStr)
	require.NoError(t, err)
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	conn, err := pgx.ConnectConfig(ctx, cfg)
	require.NoError(t, err)
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, "SELECT id, name FROM users")
	require.NoError(t, err)
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		vals, verr := rows.Values()
		require.NoError(t, verr)
		require.Len(t, vals, 2)
		got = append(got, [2]string{vals[0].(string), vals[1].(string)})
	}
	require.NoError(t, rows.Err())
	require.Equal(t, [][2]string{{"1", "alice"}, {"2", "bob"}}, got)
}

// TestOurFrontendAgainstRealPostgres starts a disposable real postgres
// with testcontainers-go and drives it with package frontend, proving
// our client-side state machine completes the handshake and a simple
// query against an unmodified postgres backend.
func TestOurFrontendAgainstRealPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pgwire_it"),
		postgres.WithUsername("pgwire"),
		postgres.WithPassword("pgwire"),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	defer func() { _ = pgContainer.Terminate(ctx) }()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, mappedPort.Port()))
	require.NoError(t, err)
	defer nc.Close()

	sess, err := frontend.Connect(ctx, nc, frontend.Credentials{
		User:     "pgwire",
		Database: "pgwire_it",
		Password: "pgwire",
	})
	require.NoError(t, err)

	_, _, tag, err := sess.SimpleQuery(ctx, "CREATE TABLE widgets (id int, label text)")
	require.NoError(t, err)
	require.Equal(t, "CREATE TABLE", tag)

	_, _, tag, err = sess.SimpleQuery(ctx, "INSERT INTO widgets VALUES (1, 'gizmo'), (2, 'gadget')")
	require.NoError(t, err)
	require.Equal(t, "INSERT 0 2", tag)

	columns, rows, tag, err := sess.SimpleQuery(ctx, "SELECT id, label FROM widgets ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, "SELECT 2", tag)
	require.Len(t, columns, 2)
	require.Len(t, rows, 2)
	require.Equal(t, "gizmo", string(rows[0][1].Data))
	require.Equal(t, "gadget", string(rows[1][1].Data))
}

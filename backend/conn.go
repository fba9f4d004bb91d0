package backend

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/riftdata/pgwire/pkg/pglog"
	"github.com/riftdata/pgwire/wire"
)

// serverVersion is reported to every client in ParameterStatus. It
// mimics a real postgres version string closely enough that naive
// version-sniffing clients don't choke on it.
const serverVersion = "16.0 (pgwire)"

// Conn is one accepted client connection, driven through the
// startup/auth/simple-query state machine defined in spec.md. It owns no
// network retry or pooling logic — the Server's per-connection handler
// hands it one net.Conn and closes it when Serve returns.
type Conn struct {
	id     uuid.UUID
	nc     net.Conn
	params ConnectionParams
	pid    int32
	secret int32
	log    pglog.Logger
}

// newConn wraps an accepted net.Conn. pid/secret are the values reported
// in BackendKeyData. They are not checked against incoming CancelRequests:
// Handshake rejects every startup-phase request other than StartupMessage.
func newConn(nc net.Conn, pid, secret int32, log pglog.Logger) *Conn {
	return &Conn{id: uuid.New(), nc: nc, pid: pid, secret: secret, log: log}
}

// ID returns the connection's correlation ID, useful for tying together
// log lines and metrics from the same session.
func (c *Conn) ID() uuid.UUID { return c.id }

// Params returns the startup parameters negotiated during Handshake.
func (c *Conn) Params() ConnectionParams { return c.params }

// Close closes the underlying network connection.
func (c *Conn) Close() error { return c.nc.Close() }

// Handshake reads the startup request (declining any SSL/GSSENC
// negotiation offered first, same as the teacher's readStartup loop),
// authenticates the client against authenticate, and on success sends
// AuthenticationOk, BackendKeyData, the standard ParameterStatus set,
// and a ReadyForQuery(Idle).
func (c *Conn) Handshake(authenticate AuthPredicate) error {
	req, err := c.readStartupNegotiating()
	if err != nil {
		return fmt.Errorf("reading startup: %w", err)
	}

	kind, err := req.GetRequestKind()
	if err != nil {
		return err
	}
	if kind != wire.RequestKindStartupMessage {
		return fmt.Errorf("%w: expected StartupMessage, got request kind %d", wire.ErrUnexpectedMessage, kind)
	}
	startup, err := wire.DecodeStartupMessage(req)
	if err != nil {
		return fmt.Errorf("decoding startup message: %w", err)
	}

	user, _ := startup.Get("user")
	database, _ := startup.Get("database")
	if database == "" {
		database = user
	}
	extra := make(map[string]string, len(startup.Parameters.Items))
	for _, p := range startup.Parameters.Items {
		name := string(p.Name)
		if name == "user" || name == "database" {
			continue
		}
		extra[name] = string(p.Value)
	}
	c.params = ConnectionParams{User: user, Database: database, Extra: extra}

	if authenticate != nil {
		if err := c.authenticate(authenticate); err != nil {
			return err
		}
	}

	return c.sendPostAuthMessages()
}

func (c *Conn) readStartupNegotiating() (wire.RawRequest, error) {
	for {
		req, err := wire.ReadRawRequest(c.nc)
		if err != nil {
			return wire.RawRequest{}, err
		}
		kind, err := req.GetRequestKind()
		if err != nil {
			return wire.RawRequest{}, err
		}
		if kind != wire.RequestKindSSLRequest && kind != wire.RequestKindGSSENCRequest {
			return req, nil
		}
		// Decline: a single 'N' byte tells the client to retry in cleartext.
		if _, err := c.nc.Write([]byte{'N'}); err != nil {
			return wire.RawRequest{}, err
		}
	}
}

func (c *Conn) authenticate(authenticate AuthPredicate) error {
	salt, err := newSalt()
	if err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}
	if err := c.writeBackend(wire.KindAuthentication, wire.AuthenticationMD5Password(salt)); err != nil {
		return err
	}

	frame, err := wire.ReadRawFrontendFrame(c.nc)
	if err != nil {
		return fmt.Errorf("reading password message: %w", err)
	}
	if frame.Kind != 'p' {
		return fmt.Errorf("%w: expected PasswordMessage, got kind %q", wire.ErrUnexpectedMessage, frame.Kind)
	}
	pw, err := wire.DecodePasswordMessage(frame.Body)
	if err != nil {
		return fmt.Errorf("decoding password message: %w", err)
	}

	if !authenticate(c.params, string(pw.Password), salt) {
		if c.log != nil {
			c.log.Warn("authentication rejected", "user", c.params.User, "conn", c.id)
		}
		_ = c.sendError('F', "28P01", "Incorrect password or user")
		return wire.ErrAuthFailed
	}
	return nil
}

func (c *Conn) sendPostAuthMessages() error {
	if err := c.writeBackend(wire.KindAuthentication, wire.AuthenticationOk()); err != nil {
		return err
	}
	if err := c.writeBackend(wire.KindBackendKeyData, wire.BackendKeyData{ProcessID: c.pid, SecretKey: c.secret}); err != nil {
		return err
	}

	serverParams := map[string]string{
		"server_version":              serverVersion,
		"server_encoding":             "UTF8",
		"client_encoding":             "UTF8",
		"DateStyle":                   "ISO, MDY",
		"TimeZone":                    "UTC",
		"integer_datetimes":           "on",
		"standard_conforming_strings": "on",
	}
	for name, value := range serverParams {
		if err := c.writeBackend(wire.KindParameterStatus, wire.ParameterStatus{Name: wire.CString(name), Value: wire.CString(value)}); err != nil {
			return err
		}
	}

	return c.writeBackend(wire.KindReadyForQuery, wire.ReadyForQuery{Status: wire.TxIdle})
}

// Serve drives the simple-query loop: read a frontend frame, dispatch it
// to exec for Query messages, reply, and loop until Terminate or a
// connection error. It returns nil when the client issues Terminate; a
// client that disconnects without Terminate surfaces as the read error.
// onQuery, if non-nil, receives each Query's SQL text and the executor
// error sent back in an ErrorResponse (nil when the query succeeded).
func (c *Conn) Serve(ctx context.Context, exec Executor, onQuery func(sql string, err error)) error {
	for {
		frame, err := wire.ReadRawFrontendFrame(c.nc)
		if err != nil {
			return err
		}
		kind, err := frame.GetMessageKind()
		if err != nil {
			if sendErr := c.sendError('E', "08P01", err.Error()); sendErr != nil {
				return sendErr
			}
			continue
		}

		switch kind {
		case wire.KindTerminate:
			if c.log != nil {
				c.log.Debug("client terminated", "conn", c.id)
			}
			return nil
		case wire.KindQuery:
			q, err := wire.DecodeQuery(frame.Body)
			if err != nil {
				return fmt.Errorf("decoding query: %w", err)
			}
			queryErr, err := c.runSimpleQuery(ctx, exec, strings.TrimSpace(string(q.SQL)))
			if onQuery != nil {
				onQuery(string(q.SQL), queryErr)
			}
			if err != nil {
				return err
			}
		default:
			// Extended query protocol and COPY are out of scope for the
			// simple-query loop; reject cleanly rather than hang.
			if err := c.sendError('E', "0A000", fmt.Sprintf("unsupported message kind %q in simple-query loop", frame.Kind)); err != nil {
				return err
			}
			if err := c.writeBackend(wire.KindReadyForQuery, wire.ReadyForQuery{Status: wire.TxIdle}); err != nil {
				return err
			}
		}
	}
}

// runSimpleQuery answers one Query. queryErr is the executor error that
// was reported to the client in an ErrorResponse; err is a failure to
// write the reply.
func (c *Conn) runSimpleQuery(ctx context.Context, exec Executor, sql string) (queryErr, err error) {
	if sql == "" {
		if err := c.writeBackend(wire.KindEmptyQuery, wire.EmptyQueryResponse{}); err != nil {
			return nil, err
		}
		return nil, c.writeBackend(wire.KindReadyForQuery, wire.ReadyForQuery{Status: wire.TxIdle})
	}

	result, execErr := c.callExecutor(ctx, exec, sql)
	if execErr != nil {
		if sendErr := c.sendError('E', "XX000", execErr.Error()); sendErr != nil {
			return execErr, sendErr
		}
		return execErr, c.writeBackend(wire.KindReadyForQuery, wire.ReadyForQuery{Status: wire.TxIdle})
	}

	if result.Columns != nil {
		if err := c.writeBackend(wire.KindRowDescription, wire.RowDescription{Columns: wire.NewVec16(result.Columns)}); err != nil {
			return nil, err
		}
		for _, row := range result.Rows {
			if err := c.writeBackend(wire.KindDataRow, wire.DataRow{Columns: wire.NewVec16(row)}); err != nil {
				return nil, err
			}
		}
	}

	tag := result.Tag
	if tag == "" {
		tag = fmt.Sprintf("SELECT %d", len(result.Rows))
	}
	if err := c.writeBackend(wire.KindCommandComplete, wire.CommandComplete{Tag: wire.CString(tag)}); err != nil {
		return nil, err
	}
	return nil, c.writeBackend(wire.KindReadyForQuery, wire.ReadyForQuery{Status: wire.TxIdle})
}

// callExecutor runs exec.Execute, converting a panic into an error so a
// misbehaving executor can never take the whole process down with it:
// the caller still gets its ErrorResponse + ReadyForQuery(Idle).
func (c *Conn) callExecutor(ctx context.Context, exec Executor, sql string) (result ExecResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			if c.log != nil {
				c.log.Error("executor panicked", "conn", c.id, "recovered", r)
			}
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return exec.Execute(ctx, sql)
}

func (c *Conn) sendError(severity byte, code, message string) error {
	fields := []wire.ErrorField{
		{Code: 'S', Message: severityName(severity)},
		{Code: 'C', Message: wire.CString(code)},
		{Code: 'M', Message: wire.CString(message)},
	}
	return c.writeBackend(wire.KindErrorResponse, wire.ErrorResponse{Fields: wire.NewVecNull(fields)})
}

func severityName(b byte) wire.CString {
	switch b {
	case 'F':
		return "FATAL"
	case 'E':
		return "ERROR"
	default:
		return "ERROR"
	}
}

func (c *Conn) writeBackend(kind wire.BackendMessageKind, payload wire.Encodable) error {
	buf := wire.NewBuffer(int(payload.ByteSize()))
	payload.Encode(buf)
	return wire.WriteRawBackendFrame(c.nc, kind.Byte(), buf.Bytes())
}

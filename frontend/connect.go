// Package frontend implements the client half of the protocol: it
// drives the startup/authentication/simple-query state machine as the
// connecting party, the mirror image of package backend.
package frontend

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/riftdata/pgwire/wire"
)

// timeZero clears a deadline previously set for one call's duration.
var timeZero time.Time

// Credentials is what Connect needs to authenticate: a username,
// target database, and cleartext password used to answer an
// AuthenticationMD5Password challenge.
type Credentials struct {
	User     string
	Database string
	Password string

	// ApplicationName, if set, is sent as the application_name startup
	// parameter.
	ApplicationName string
}

// Session is an authenticated connection ready for simple-query
// traffic. Its zero value is not usable; construct one with Connect.
type Session struct {
	nc          net.Conn
	backendPID  int32
	backendKey  int32
	params      map[string]string
}

// BackendPID and BackendKey return the values from the server's
// BackendKeyData, needed to build a CancelRequest against this session.
func (s *Session) BackendPID() int32 { return s.backendPID }
func (s *Session) BackendKey() int32 { return s.backendKey }

// Param returns a run-time parameter reported during startup
// (server_version, server_encoding, ...).
func (s *Session) Param(name string) (string, bool) {
	v, ok := s.params[name]
	return v, ok
}

// Close closes the underlying connection.
func (s *Session) Close() error { return s.nc.Close() }

// Connect opens nc (already dialed by the caller, so the caller chooses
// tcp/unix/tls) and runs the startup handshake: StartupMessage, then an
// MD5Password reply if challenged, ending with the server's
// BackendKeyData and ParameterStatus set collected onto the Session.
func Connect(ctx context.Context, nc net.Conn, creds Credentials) (*Session, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(dl)
		defer nc.SetDeadline(timeZero)
	}

	if err := sendStartup(nc, creds); err != nil {
		return nil, fmt.Errorf("sending startup message: %w", err)
	}

	sess := &Session{nc: nc, params: make(map[string]string)}
	for {
		frame, err := wire.ReadRawBackendFrame(nc)
		if err != nil {
			return nil, fmt.Errorf("reading backend frame: %w", err)
		}
		kind, err := frame.GetMessageKind()
		if err != nil {
			return nil, err
		}
		switch kind {
		case wire.KindAuthentication:
			done, err := sess.handleAuth(frame.Body, creds)
			if err != nil {
				return nil, err
			}
			if done {
				continue
			}
		case wire.KindBackendKeyData:
			bkd, err := wire.DecodeBackendKeyData(frame.Body)
			if err != nil {
				return nil, fmt.Errorf("decoding backend key data: %w", err)
			}
			sess.backendPID, sess.backendKey = bkd.ProcessID, bkd.SecretKey
		case wire.KindParameterStatus:
			ps, err := wire.DecodeParameterStatus(frame.Body)
			if err != nil {
				return nil, fmt.Errorf("decoding parameter status: %w", err)
			}
			sess.params[string(ps.Name)] = string(ps.Value)
		case wire.KindErrorResponse:
			er, err := wire.DecodeErrorResponse(frame.Body)
			if err != nil {
				return nil, fmt.Errorf("decoding error response: %w", err)
			}
			return nil, fmt.Errorf("%w: %s", wire.ErrAuthFailed, errorMessage(er))
		case wire.KindReadyForQuery:
			return sess, nil
		default:
			// NoticeResponse and NegotiateProtocolVersion can legally
			// appear here too; anything else during startup is a
			// protocol violation.
			if kind != wire.KindNoticeResponse && kind != wire.KindNegotiateProtocolVersion {
				return nil, fmt.Errorf("%w: unexpected message kind %q during startup", wire.ErrUnexpectedMessage, frame.Kind)
			}
		}
	}
}

func (s *Session) handleAuth(body []byte, creds Credentials) (done bool, err error) {
	msg, err := wire.DecodeAuthenticationMessage(body)
	if err != nil {
		return false, err
	}
	switch msg.Kind {
	case wire.AuthKindOk:
		return true, nil
	case wire.AuthKindCleartextPassword:
		pw := wire.PasswordMessage{Password: wire.CString(creds.Password)}
		return false, writeFrontend(s.nc, wire.KindAmbiguousP.Byte(), pw)
	case wire.AuthKindMD5Password:
		hash := wire.HashMD5Password(creds.User, creds.Password, msg.Salt)
		pw := wire.PasswordMessage{Password: wire.CString(hash)}
		return false, writeFrontend(s.nc, wire.KindAmbiguousP.Byte(), pw)
	default:
		return false, fmt.Errorf("%w: unsupported authentication kind %d", wire.ErrUnsupportedKind, msg.Kind)
	}
}

func sendStartup(nc net.Conn, creds Credentials) error {
	pairs := []wire.ParameterPair{
		{Name: "user", Value: wire.CString(creds.User)},
	}
	if creds.Database != "" {
		pairs = append(pairs, wire.ParameterPair{Name: "database", Value: wire.CString(creds.Database)})
	}
	if creds.ApplicationName != "" {
		pairs = append(pairs, wire.ParameterPair{Name: "application_name", Value: wire.CString(creds.ApplicationName)})
	}
	version := wire.ProtocolVersion{Major: 3, Minor: 0}
	body := wire.NewBuffer(64)
	wire.NewVecNull(pairs).Encode(body)
	return wire.WriteRawRequest(nc, version.RequestCode(), body.Bytes())
}

func writeFrontend(nc net.Conn, kind byte, payload wire.Encodable) error {
	buf := wire.NewBuffer(int(payload.ByteSize()))
	payload.Encode(buf)
	return wire.WriteRawFrontendFrame(nc, kind, buf.Bytes())
}

func errorMessage(er wire.ErrorResponse) string {
	for _, f := range er.Fields.Items {
		if f.Code == 'M' {
			return string(f.Message)
		}
	}
	return "authentication failed"
}

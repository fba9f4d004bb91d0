package wire

import "fmt"

// StartupMessage opens a connection: a protocol version followed by a
// null-terminated list of {name, value} run-time parameters (spec.md §3).
// Its request code is ProtocolVersion.RequestCode(), not a fixed constant,
// which is why it's parsed through RawRequest rather than a kind byte.
type StartupMessage struct {
	Version    ProtocolVersion
	Parameters VecNull[ParameterPair]
}

func (m StartupMessage) ByteSize() int32 {
	return m.Version.ByteSize() + m.Parameters.ByteSize()
}

func (m StartupMessage) Encode(buf *Buffer) {
	m.Version.Encode(buf)
	m.Parameters.Encode(buf)
}

// Get returns the value of parameter name, if present.
func (m StartupMessage) Get(name string) (string, bool) {
	for _, p := range m.Parameters.Items {
		if string(p.Name) == name {
			return string(p.Value), true
		}
	}
	return "", false
}

// DecodeStartupMessage decodes a RawRequest already known to be a
// StartupMessage (GetRequestKind() == RequestKindStartupMessage). The
// version is taken from the request code itself, not re-read from Body.
func DecodeStartupMessage(req RawRequest) (StartupMessage, error) {
	major := int16(req.Code >> 16)
	minor := int16(req.Code)
	buf := NewBufferFromBytes(req.Body)
	params, err := DecodeVecNull(buf, DecodeParameterPair)
	if err != nil {
		return StartupMessage{}, fmt.Errorf("startup parameters: %w", err)
	}
	return StartupMessage{Version: ProtocolVersion{Major: major, Minor: minor}, Parameters: params}, nil
}

// CancelRequest asks the backend to cancel the query in progress on the
// connection identified by ProcessID/SecretKey (the pair handed out in
// BackendKeyData). It arrives over its own short-lived connection.
type CancelRequest struct {
	ProcessID int32
	SecretKey int32
}

// DecodeCancelRequest decodes a RawRequest already known to be a
// CancelRequest.
func DecodeCancelRequest(req RawRequest) (CancelRequest, error) {
	buf := NewBufferFromBytes(req.Body)
	pid, err := buf.ReadInt32()
	if err != nil {
		return CancelRequest{}, fmt.Errorf("cancel process id: %w", err)
	}
	secret, err := buf.ReadInt32()
	if err != nil {
		return CancelRequest{}, fmt.Errorf("cancel secret key: %w", err)
	}
	return CancelRequest{ProcessID: pid, SecretKey: secret}, nil
}

func (r CancelRequest) Encode() (code int32, body []byte) {
	buf := NewBuffer(8)
	buf.WriteInt32(r.ProcessID)
	buf.WriteInt32(r.SecretKey)
	return RequestCodeCancel, buf.Bytes()
}

// SSLRequest asks whether the backend will accept a TLS-wrapped
// connection. It carries no body beyond the request code itself.
type SSLRequest struct{}

func (SSLRequest) Encode() (code int32, body []byte) { return RequestCodeSSL, nil }

// GSSENCRequest asks whether the backend will accept a GSSAPI-encrypted
// connection. It carries no body beyond the request code itself.
type GSSENCRequest struct{}

func (GSSENCRequest) Encode() (code int32, body []byte) { return RequestCodeGSSENC, nil }

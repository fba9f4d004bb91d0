package wire

import (
	"fmt"
	"io"
)

// messageHeader is the 5-byte kind+length envelope common to every
// post-startup message, both directions (spec.md §2).
type messageHeader struct {
	Kind   byte
	Length int32
}

// RawBackendFrame is an undecoded backend message: a kind byte plus its
// body (the bytes after the 4-byte length word). Callers project it into
// a concrete message with the matching DecodeXxx function once they know
// (or have checked) its kind.
type RawBackendFrame struct {
	Kind byte
	Body []byte
}

// GetMessageKind resolves the frame's kind byte to a BackendMessageKind.
func (f RawBackendFrame) GetMessageKind() (BackendMessageKind, error) {
	return BackendMessageKindFromByte(f.Kind)
}

// GetAuthMessageKind resolves the Authentication sub-kind embedded in
// the frame's body. It fails with ErrUnexpectedMessage if the frame
// isn't an Authentication frame at all.
func (f RawBackendFrame) GetAuthMessageKind() (AuthenticationMessageKind, error) {
	kind, err := f.GetMessageKind()
	if err != nil {
		return 0, err
	}
	if kind != KindAuthentication {
		return 0, fmt.Errorf("%w: GetAuthMessageKind on %q frame", ErrUnexpectedMessage, f.Kind)
	}
	buf := NewBufferFromBytes(f.Body)
	code, err := buf.ReadInt32()
	if err != nil {
		return 0, fmt.Errorf("authentication sub-kind: %w", err)
	}
	return AuthenticationMessageKindFromInt32(code)
}

// ReadRawBackendFrame reads one backend message's envelope and body from
// r. It is the single point where the wire's 1-byte-kind + 4-byte-length
// framing is parsed; everything downstream works on the returned body.
func ReadRawBackendFrame(r io.Reader) (RawBackendFrame, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return RawBackendFrame{}, fmt.Errorf("%w: reading backend frame header: %v", ErrBufferUnderflow, err)
	}
	length := int32(hdr[1])<<24 | int32(hdr[2])<<16 | int32(hdr[3])<<8 | int32(hdr[4])
	if length < 4 {
		return RawBackendFrame{}, fmt.Errorf("%w: backend frame length %d below minimum 4", ErrMalformed, length)
	}
	body := make([]byte, length-4)
	if _, err := io.ReadFull(r, body); err != nil {
		return RawBackendFrame{}, fmt.Errorf("%w: reading backend frame body: %v", ErrBufferUnderflow, err)
	}
	return RawBackendFrame{Kind: hdr[0], Body: body}, nil
}

// WriteRawBackendFrame writes kind and body as a complete backend frame.
func WriteRawBackendFrame(w io.Writer, kind byte, body []byte) error {
	var hdr [5]byte
	hdr[0] = kind
	length := int32(len(body)) + 4
	hdr[1] = byte(length >> 24)
	hdr[2] = byte(length >> 16)
	hdr[3] = byte(length >> 8)
	hdr[4] = byte(length)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// RawFrontendFrame is an undecoded frontend message issued after the
// startup handshake completes: a kind byte plus its body.
type RawFrontendFrame struct {
	Kind byte
	Body []byte
}

// GetMessageKind resolves the frame's kind byte to a FrontendMessageKind.
func (f RawFrontendFrame) GetMessageKind() (FrontendMessageKind, error) {
	return FrontendMessageKindFromByte(f.Kind)
}

// ReadRawFrontendFrame reads one post-startup frontend message.
func ReadRawFrontendFrame(r io.Reader) (RawFrontendFrame, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return RawFrontendFrame{}, fmt.Errorf("%w: reading frontend frame header: %v", ErrBufferUnderflow, err)
	}
	length := int32(hdr[1])<<24 | int32(hdr[2])<<16 | int32(hdr[3])<<8 | int32(hdr[4])
	if length < 4 {
		return RawFrontendFrame{}, fmt.Errorf("%w: frontend frame length %d below minimum 4", ErrMalformed, length)
	}
	body := make([]byte, length-4)
	if _, err := io.ReadFull(r, body); err != nil {
		return RawFrontendFrame{}, fmt.Errorf("%w: reading frontend frame body: %v", ErrBufferUnderflow, err)
	}
	return RawFrontendFrame{Kind: hdr[0], Body: body}, nil
}

// WriteRawFrontendFrame writes kind and body as a complete frontend frame.
func WriteRawFrontendFrame(w io.Writer, kind byte, body []byte) error {
	var hdr [5]byte
	hdr[0] = kind
	length := int32(len(body)) + 4
	hdr[1] = byte(length >> 24)
	hdr[2] = byte(length >> 16)
	hdr[3] = byte(length >> 8)
	hdr[4] = byte(length)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// RawRequest is an undecoded startup-phase request: StartupMessage,
// CancelRequest, SSLRequest, or GSSENCRequest. These precede the
// connection's first kind byte and so carry only a 4-byte length word
// followed by a 4-byte request code (spec.md §3).
type RawRequest struct {
	Code int32
	Body []byte
}

// GetRequestKind resolves the request's leading code to a
// RequestMessageKind.
func (r RawRequest) GetRequestKind() (RequestMessageKind, error) {
	return RequestMessageKindFromCode(r.Code)
}

// ReadRawRequest reads one startup-phase request: a 4-byte length word,
// then a 4-byte code, then the remaining body.
func ReadRawRequest(r io.Reader) (RawRequest, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return RawRequest{}, fmt.Errorf("%w: reading request length: %v", ErrBufferUnderflow, err)
	}
	length := int32(lenBuf[0])<<24 | int32(lenBuf[1])<<16 | int32(lenBuf[2])<<8 | int32(lenBuf[3])
	if length < 8 {
		return RawRequest{}, fmt.Errorf("%w: request length %d below minimum 8", ErrMalformed, length)
	}
	rest := make([]byte, length-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return RawRequest{}, fmt.Errorf("%w: reading request body: %v", ErrBufferUnderflow, err)
	}
	code := int32(rest[0])<<24 | int32(rest[1])<<16 | int32(rest[2])<<8 | int32(rest[3])
	return RawRequest{Code: code, Body: rest[4:]}, nil
}

// WriteRawRequest writes code and body as a complete startup-phase
// request, computing the leading length word.
func WriteRawRequest(w io.Writer, code int32, body []byte) error {
	length := int32(8) + int32(len(body))
	var out [4]byte
	out[0] = byte(length >> 24)
	out[1] = byte(length >> 16)
	out[2] = byte(length >> 8)
	out[3] = byte(length)
	if _, err := w.Write(out[:]); err != nil {
		return err
	}
	var codeBuf [4]byte
	codeBuf[0] = byte(code >> 24)
	codeBuf[1] = byte(code >> 16)
	codeBuf[2] = byte(code >> 8)
	codeBuf[3] = byte(code)
	if _, err := w.Write(codeBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

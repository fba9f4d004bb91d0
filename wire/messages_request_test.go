package wire

import (
	"bytes"
	"testing"
)

func TestStartupMessageRoundTrip(t *testing.T) {
	msg := StartupMessage{
		Version: ProtocolVersion{Major: 3, Minor: 0},
		Parameters: NewVecNull([]ParameterPair{
			{Name: "user", Value: "alice"},
			{Name: "database", Value: "postgres"},
		}),
	}
	var out bytes.Buffer
	body := NewBuffer(0)
	msg.Parameters.Encode(body)
	if err := WriteRawRequest(&out, msg.Version.RequestCode(), body.Bytes()); err != nil {
		t.Fatalf("WriteRawRequest: %v", err)
	}

	req, err := ReadRawRequest(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadRawRequest: %v", err)
	}
	kind, err := req.GetRequestKind()
	if err != nil || kind != RequestKindStartupMessage {
		t.Fatalf("GetRequestKind() = %v, %v, want RequestKindStartupMessage, nil", kind, err)
	}
	got, err := DecodeStartupMessage(req)
	if err != nil {
		t.Fatalf("DecodeStartupMessage: %v", err)
	}
	if got.Version != msg.Version {
		t.Fatalf("Version = %+v, want %+v", got.Version, msg.Version)
	}
	if user, ok := got.Get("user"); !ok || user != "alice" {
		t.Fatalf("Get(\"user\") = %q, %v, want \"alice\", true", user, ok)
	}
	if db, ok := got.Get("database"); !ok || db != "postgres" {
		t.Fatalf("Get(\"database\") = %q, %v, want \"postgres\", true", db, ok)
	}
}

func TestCancelRequestRoundTrip(t *testing.T) {
	req := CancelRequest{ProcessID: 4242, SecretKey: 99}
	code, body := req.Encode()
	var out bytes.Buffer
	if err := WriteRawRequest(&out, code, body); err != nil {
		t.Fatalf("WriteRawRequest: %v", err)
	}
	raw, err := ReadRawRequest(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadRawRequest: %v", err)
	}
	kind, err := raw.GetRequestKind()
	if err != nil || kind != RequestKindCancelRequest {
		t.Fatalf("GetRequestKind() = %v, %v, want RequestKindCancelRequest, nil", kind, err)
	}
	got, err := DecodeCancelRequest(raw)
	if err != nil || got != req {
		t.Fatalf("decoded = %+v, %v, want %+v, nil", got, err, req)
	}
}

func TestSSLRequestCode(t *testing.T) {
	code, body := SSLRequest{}.Encode()
	if code != RequestCodeSSL || body != nil {
		t.Fatalf("Encode() = %d, %v, want %d, nil", code, body, RequestCodeSSL)
	}
}

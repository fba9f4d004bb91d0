package wire

import (
	"bytes"
	"testing"
)

func TestAuthenticationOkBytes(t *testing.T) {
	msg := AuthenticationOk()
	body := encodeBody(msg)
	var out bytes.Buffer
	if err := WriteRawBackendFrame(&out, KindAuthentication.Byte(), body); err != nil {
		t.Fatalf("WriteRawBackendFrame: %v", err)
	}
	want := []byte{'R', 0, 0, 0, 8, 0, 0, 0, 0}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("bytes = % x, want % x", out.Bytes(), want)
	}

	frame, err := ReadRawBackendFrame(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadRawBackendFrame: %v", err)
	}
	got, err := DecodeAuthenticationMessage(frame.Body)
	if err != nil || got.Kind != AuthKindOk {
		t.Fatalf("decoded = %+v, %v, want Kind=AuthKindOk, nil", got, err)
	}
}

func TestAuthenticationMD5PasswordRoundTrip(t *testing.T) {
	salt := Byte4{0xde, 0xad, 0xbe, 0xef}
	msg := AuthenticationMD5Password(salt)
	body := encodeBody(msg)
	if len(body) != 8 {
		t.Fatalf("body len = %d, want 8", len(body))
	}
	got, err := DecodeAuthenticationMessage(body)
	if err != nil {
		t.Fatalf("DecodeAuthenticationMessage: %v", err)
	}
	if got.Kind != AuthKindMD5Password || got.Salt != salt {
		t.Fatalf("decoded = %+v, want Kind=AuthKindMD5Password Salt=%v", got, salt)
	}
}

func TestReadyForQueryIdleBytes(t *testing.T) {
	msg := ReadyForQuery{Status: TxIdle}
	body := encodeBody(msg)
	var out bytes.Buffer
	if err := WriteRawBackendFrame(&out, KindReadyForQuery.Byte(), body); err != nil {
		t.Fatalf("WriteRawBackendFrame: %v", err)
	}
	want := []byte{'Z', 0, 0, 0, 5, 'I'}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("bytes = % x, want % x", out.Bytes(), want)
	}
}

func TestCommandCompleteBytes(t *testing.T) {
	msg := CommandComplete{Tag: "SELECT 1"}
	body := encodeBody(msg)
	var out bytes.Buffer
	if err := WriteRawBackendFrame(&out, KindCommandComplete.Byte(), body); err != nil {
		t.Fatalf("WriteRawBackendFrame: %v", err)
	}
	want := append([]byte{'C', 0, 0, 0, 13}, []byte("SELECT 1\x00")...)
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("bytes = % x, want % x", out.Bytes(), want)
	}

	frame, err := ReadRawBackendFrame(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadRawBackendFrame: %v", err)
	}
	got, err := DecodeCommandComplete(frame.Body)
	if err != nil || got.Tag != "SELECT 1" {
		t.Fatalf("decoded = %+v, %v, want Tag=\"SELECT 1\", nil", got, err)
	}
}

func TestParameterStatusRoundTrip(t *testing.T) {
	msg := ParameterStatus{Name: "client_encoding", Value: "UTF8"}
	body := encodeBody(msg)
	var out bytes.Buffer
	if err := WriteRawBackendFrame(&out, KindParameterStatus.Byte(), body); err != nil {
		t.Fatalf("WriteRawBackendFrame: %v", err)
	}
	frame, err := ReadRawBackendFrame(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadRawBackendFrame: %v", err)
	}
	got, err := DecodeParameterStatus(frame.Body)
	if err != nil || got.Name != "client_encoding" || got.Value != "UTF8" {
		t.Fatalf("decoded = %+v, %v, want {client_encoding UTF8}, nil", got, err)
	}
}

func TestRowDescriptionRoundTrip(t *testing.T) {
	msg := RowDescription{Columns: NewVec16([]ColumnDescription{
		ColumnDescriptionFor("id", Int4),
		ColumnDescriptionFor("name", Text),
	})}
	body := encodeBody(msg)
	var out bytes.Buffer
	if err := WriteRawBackendFrame(&out, KindRowDescription.Byte(), body); err != nil {
		t.Fatalf("WriteRawBackendFrame: %v", err)
	}
	frame, err := ReadRawBackendFrame(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadRawBackendFrame: %v", err)
	}
	got, err := DecodeRowDescription(frame.Body)
	if err != nil {
		t.Fatalf("DecodeRowDescription: %v", err)
	}
	if len(got.Columns.Items) != 2 {
		t.Fatalf("len(Columns.Items) = %d, want 2", len(got.Columns.Items))
	}
	if got.Columns.Items[0].Name != "id" || got.Columns.Items[0].DatatypeID != OidInt4 {
		t.Fatalf("column 0 = %+v, want Name=id DatatypeID=%d", got.Columns.Items[0], OidInt4)
	}
	if got.Columns.Items[1].Name != "name" || got.Columns.Items[1].DatatypeID != OidText {
		t.Fatalf("column 1 = %+v, want Name=name DatatypeID=%d", got.Columns.Items[1], OidText)
	}
}

func TestRowDescriptionSetConfigBytes(t *testing.T) {
	msg := RowDescription{Columns: NewVec16([]ColumnDescription{
		{
			Name:        "set_config",
			RelationID:  0,
			AttributeID: 1,
			DatatypeID:  25,
			DatatypeLen: -1,
			DatatypeMod: -1,
			Format:      0x99,
		},
	})}
	body := encodeBody(msg)
	var out bytes.Buffer
	if err := WriteRawBackendFrame(&out, KindRowDescription.Byte(), body); err != nil {
		t.Fatalf("WriteRawBackendFrame: %v", err)
	}
	want := []byte{
		0x54, 0x00, 0x00, 0x00, 0x23,
		0x00, 0x01, 0x73, 0x65, 0x74, 0x5F, 0x63, 0x6F, 0x6E, 0x66, 0x69, 0x67, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x19,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x99,
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("bytes = % x, want % x", out.Bytes(), want)
	}
}

func TestDataRowWithNullColumn(t *testing.T) {
	msg := DataRow{Columns: NewVec16([]ColumnValue{
		{Data: []byte("42")},
		NullColumnValue(),
	})}
	body := encodeBody(msg)
	got, err := DecodeDataRow(body)
	if err != nil {
		t.Fatalf("DecodeDataRow: %v", err)
	}
	if len(got.Columns.Items) != 2 {
		t.Fatalf("len(Columns.Items) = %d, want 2", len(got.Columns.Items))
	}
	if got.Columns.Items[0].Null || string(got.Columns.Items[0].Data) != "42" {
		t.Fatalf("column 0 = %+v, want {Null:false Data:\"42\"}", got.Columns.Items[0])
	}
	if !got.Columns.Items[1].Null {
		t.Fatalf("column 1 = %+v, want Null:true", got.Columns.Items[1])
	}
}

func TestErrorResponseRoundTrip(t *testing.T) {
	msg := ErrorResponse{Fields: NewVecNull([]ErrorField{
		{Code: 'S', Message: "ERROR"},
		{Code: 'C', Message: "42601"},
		{Code: 'M', Message: "syntax error"},
	})}
	body := encodeBody(msg)
	got, err := DecodeErrorResponse(body)
	if err != nil {
		t.Fatalf("DecodeErrorResponse: %v", err)
	}
	if len(got.Fields.Items) != 3 || got.Fields.Items[2].Message != "syntax error" {
		t.Fatalf("decoded = %+v, want 3 fields ending in \"syntax error\"", got.Fields.Items)
	}
}

package wire

import "fmt"

// Bind binds a portal to a prepared statement with a set of parameter
// values, per spec.md §4.4.
type Bind struct {
	Portal          CString
	Statement       CString
	ParamFormats    Vec16[Int16]
	ParamValues     Vec16[ColumnValue]
	ResultFormats   Vec16[Int16]
}

func (m Bind) ByteSize() int32 {
	return m.Portal.ByteSize() + m.Statement.ByteSize() +
		m.ParamFormats.ByteSize() + m.ParamValues.ByteSize() + m.ResultFormats.ByteSize()
}

func (m Bind) Encode(buf *Buffer) {
	m.Portal.Encode(buf)
	m.Statement.Encode(buf)
	m.ParamFormats.Encode(buf)
	m.ParamValues.Encode(buf)
	m.ResultFormats.Encode(buf)
}

func DecodeBind(body []byte) (Bind, error) {
	buf := NewBufferFromBytes(body)
	portal, err := DecodeCString(buf)
	if err != nil {
		return Bind{}, fmt.Errorf("bind portal: %w", err)
	}
	statement, err := DecodeCString(buf)
	if err != nil {
		return Bind{}, fmt.Errorf("bind statement: %w", err)
	}
	paramFormats, err := DecodeVec16(buf, DecodeInt16)
	if err != nil {
		return Bind{}, fmt.Errorf("bind param formats: %w", err)
	}
	paramValues, err := DecodeVec16(buf, DecodeColumnValue)
	if err != nil {
		return Bind{}, fmt.Errorf("bind param values: %w", err)
	}
	resultFormats, err := DecodeVec16(buf, DecodeInt16)
	if err != nil {
		return Bind{}, fmt.Errorf("bind result formats: %w", err)
	}
	return Bind{
		Portal: portal, Statement: statement,
		ParamFormats: paramFormats, ParamValues: paramValues, ResultFormats: resultFormats,
	}, nil
}

// CloseTarget distinguishes a prepared statement from a portal in Close
// and Describe.
type CloseTarget byte

const (
	CloseTargetStatement CloseTarget = 'S'
	CloseTargetPortal    CloseTarget = 'P'
)

// Close requests that a prepared statement or portal be discarded.
type Close struct {
	Target CloseTarget
	Name   CString
}

func (m Close) ByteSize() int32    { return 1 + m.Name.ByteSize() }
func (m Close) Encode(buf *Buffer) { buf.WriteByte(byte(m.Target)); m.Name.Encode(buf) }

func DecodeClose(body []byte) (Close, error) {
	buf := NewBufferFromBytes(body)
	target, err := buf.ReadByte()
	if err != nil {
		return Close{}, err
	}
	name, err := DecodeCString(buf)
	if err != nil {
		return Close{}, fmt.Errorf("close name: %w", err)
	}
	return Close{Target: CloseTarget(target), Name: name}, nil
}

// CopyDataFrontend carries one chunk of COPY stream data from the client.
type CopyDataFrontend struct {
	Data []byte
}

func (m CopyDataFrontend) ByteSize() int32    { return int32(len(m.Data)) }
func (m CopyDataFrontend) Encode(buf *Buffer) { buf.WriteBytes(m.Data) }

func DecodeCopyDataFrontend(body []byte) (CopyDataFrontend, error) {
	return CopyDataFrontend{Data: append([]byte(nil), body...)}, nil
}

type CopyDoneFrontend struct{ emptyMessage }

// CopyFail aborts a COPY FROM STDIN with an explanatory message.
type CopyFail struct {
	Message CString
}

func (m CopyFail) ByteSize() int32    { return m.Message.ByteSize() }
func (m CopyFail) Encode(buf *Buffer) { m.Message.Encode(buf) }

func DecodeCopyFail(body []byte) (CopyFail, error) {
	buf := NewBufferFromBytes(body)
	msg, err := DecodeCString(buf)
	if err != nil {
		return CopyFail{}, fmt.Errorf("copy fail message: %w", err)
	}
	return CopyFail{Message: msg}, nil
}

// Describe asks the backend to send back a statement's or portal's shape.
type Describe struct {
	Target CloseTarget
	Name   CString
}

func (m Describe) ByteSize() int32    { return 1 + m.Name.ByteSize() }
func (m Describe) Encode(buf *Buffer) { buf.WriteByte(byte(m.Target)); m.Name.Encode(buf) }

func DecodeDescribe(body []byte) (Describe, error) {
	buf := NewBufferFromBytes(body)
	target, err := buf.ReadByte()
	if err != nil {
		return Describe{}, err
	}
	name, err := DecodeCString(buf)
	if err != nil {
		return Describe{}, fmt.Errorf("describe name: %w", err)
	}
	return Describe{Target: CloseTarget(target), Name: name}, nil
}

// Execute runs a bound portal, optionally limiting the number of rows
// returned (0 means no limit).
type Execute struct {
	Portal  CString
	MaxRows int32
}

func (m Execute) ByteSize() int32    { return m.Portal.ByteSize() + 4 }
func (m Execute) Encode(buf *Buffer) { m.Portal.Encode(buf); buf.WriteInt32(m.MaxRows) }

func DecodeExecute(body []byte) (Execute, error) {
	buf := NewBufferFromBytes(body)
	portal, err := DecodeCString(buf)
	if err != nil {
		return Execute{}, fmt.Errorf("execute portal: %w", err)
	}
	maxRows, err := buf.ReadInt32()
	if err != nil {
		return Execute{}, err
	}
	return Execute{Portal: portal, MaxRows: maxRows}, nil
}

type Flush struct{ emptyMessage }

// FunctionCall invokes a server-side function by object ID.
type FunctionCall struct {
	ObjectID      int32
	ArgFormats    Vec16[Int16]
	ArgValues     Vec16[ColumnValue]
	ResultFormat  int16
}

func (m FunctionCall) ByteSize() int32 {
	return 4 + m.ArgFormats.ByteSize() + m.ArgValues.ByteSize() + 2
}

func (m FunctionCall) Encode(buf *Buffer) {
	buf.WriteInt32(m.ObjectID)
	m.ArgFormats.Encode(buf)
	m.ArgValues.Encode(buf)
	buf.WriteInt16(m.ResultFormat)
}

func DecodeFunctionCall(body []byte) (FunctionCall, error) {
	buf := NewBufferFromBytes(body)
	oid, err := buf.ReadInt32()
	if err != nil {
		return FunctionCall{}, err
	}
	argFormats, err := DecodeVec16(buf, DecodeInt16)
	if err != nil {
		return FunctionCall{}, fmt.Errorf("function call arg formats: %w", err)
	}
	argValues, err := DecodeVec16(buf, DecodeColumnValue)
	if err != nil {
		return FunctionCall{}, fmt.Errorf("function call arg values: %w", err)
	}
	resultFormat, err := buf.ReadInt16()
	if err != nil {
		return FunctionCall{}, err
	}
	return FunctionCall{ObjectID: oid, ArgFormats: argFormats, ArgValues: argValues, ResultFormat: resultFormat}, nil
}

// Parse compiles SQL text into a prepared statement, optionally pinning
// parameter types by object ID.
type Parse struct {
	Statement   CString
	Query       CString
	ParamTypes  Vec16[Int32]
}

func (m Parse) ByteSize() int32 {
	return m.Statement.ByteSize() + m.Query.ByteSize() + m.ParamTypes.ByteSize()
}

func (m Parse) Encode(buf *Buffer) {
	m.Statement.Encode(buf)
	m.Query.Encode(buf)
	m.ParamTypes.Encode(buf)
}

func DecodeParse(body []byte) (Parse, error) {
	buf := NewBufferFromBytes(body)
	statement, err := DecodeCString(buf)
	if err != nil {
		return Parse{}, fmt.Errorf("parse statement name: %w", err)
	}
	query, err := DecodeCString(buf)
	if err != nil {
		return Parse{}, fmt.Errorf("parse query text: %w", err)
	}
	types, err := DecodeVec16(buf, DecodeInt32)
	if err != nil {
		return Parse{}, fmt.Errorf("parse param types: %w", err)
	}
	return Parse{Statement: statement, Query: query, ParamTypes: types}, nil
}

// Query issues a simple-query-protocol SQL string.
type Query struct {
	SQL CString
}

func (m Query) ByteSize() int32    { return m.SQL.ByteSize() }
func (m Query) Encode(buf *Buffer) { m.SQL.Encode(buf) }

func DecodeQuery(body []byte) (Query, error) {
	buf := NewBufferFromBytes(body)
	sql, err := DecodeCString(buf)
	if err != nil {
		return Query{}, fmt.Errorf("query text: %w", err)
	}
	return Query{SQL: sql}, nil
}

type Terminate struct{ emptyMessage }

//--------------------------------------------------------------------------
// The ambiguous 'p' kind byte: PasswordMessage, GSSResponse,
// SASLInitialResponse, SASLResponse all share it. The connection state
// machine, not the codec, knows which one is in flight (spec.md §3).
//--------------------------------------------------------------------------

// PasswordMessage carries a cleartext or MD5-hashed password response.
type PasswordMessage struct {
	Password CString
}

func (m PasswordMessage) ByteSize() int32    { return m.Password.ByteSize() }
func (m PasswordMessage) Encode(buf *Buffer) { m.Password.Encode(buf) }

func DecodePasswordMessage(body []byte) (PasswordMessage, error) {
	buf := NewBufferFromBytes(body)
	pw, err := DecodeCString(buf)
	if err != nil {
		return PasswordMessage{}, fmt.Errorf("password: %w", err)
	}
	return PasswordMessage{Password: pw}, nil
}

// GSSResponse carries one leg of a GSSAPI negotiation.
type GSSResponse struct {
	Data []byte
}

func (m GSSResponse) ByteSize() int32    { return int32(len(m.Data)) }
func (m GSSResponse) Encode(buf *Buffer) { buf.WriteBytes(m.Data) }

func DecodeGSSResponse(body []byte) (GSSResponse, error) {
	return GSSResponse{Data: append([]byte(nil), body...)}, nil
}

// SASLInitialResponse starts a SASL exchange with a chosen mechanism.
type SASLInitialResponse struct {
	Mechanism CString
	Response  []byte // absent (nil) is encoded as a -1-length field
}

func (m SASLInitialResponse) ByteSize() int32 {
	size := m.Mechanism.ByteSize() + 4
	if m.Response != nil {
		size += int32(len(m.Response))
	}
	return size
}

func (m SASLInitialResponse) Encode(buf *Buffer) {
	m.Mechanism.Encode(buf)
	if m.Response == nil {
		buf.WriteInt32(-1)
		return
	}
	buf.WriteInt32(int32(len(m.Response)))
	buf.WriteBytes(m.Response)
}

func DecodeSASLInitialResponse(body []byte) (SASLInitialResponse, error) {
	buf := NewBufferFromBytes(body)
	mechanism, err := DecodeCString(buf)
	if err != nil {
		return SASLInitialResponse{}, fmt.Errorf("SASL mechanism: %w", err)
	}
	length, err := buf.ReadInt32()
	if err != nil {
		return SASLInitialResponse{}, err
	}
	if length < 0 {
		return SASLInitialResponse{Mechanism: mechanism}, nil
	}
	data, err := buf.ReadBytes(int(length))
	if err != nil {
		return SASLInitialResponse{}, err
	}
	return SASLInitialResponse{Mechanism: mechanism, Response: append([]byte(nil), data...)}, nil
}

// SASLResponse carries a subsequent leg of a SASL exchange.
type SASLResponse struct {
	Data []byte
}

func (m SASLResponse) ByteSize() int32    { return int32(len(m.Data)) }
func (m SASLResponse) Encode(buf *Buffer) { buf.WriteBytes(m.Data) }

func DecodeSASLResponse(body []byte) (SASLResponse, error) {
	return SASLResponse{Data: append([]byte(nil), body...)}, nil
}

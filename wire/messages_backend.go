package wire

import "fmt"

// encodeBody runs Encode into a fresh Buffer sized by ByteSize and
// returns its bytes, ready to hand to WriteRawBackendFrame/Frontend.
func encodeBody(e Encodable) []byte {
	buf := NewBuffer(int(e.ByteSize()))
	e.Encode(buf)
	return buf.Bytes()
}

//--------------------------------------------------------------------------
// Authentication (kind 'R') — one struct, tagged by sub-kind, mirroring
// how the wire itself distinguishes the ten Authentication* messages only
// by the int32 that follows the envelope.
//--------------------------------------------------------------------------

// AuthenticationMessage is every Authentication* backend message
// (spec.md §4.4). Which fields are populated depends on Kind: MD5Password
// uses Salt, SASL uses Mechanisms, GSSContinue/SASLContinue/SASLFinal use
// Data; all others carry no payload beyond the sub-kind itself.
type AuthenticationMessage struct {
	Kind       AuthenticationMessageKind
	Salt       Byte4
	Mechanisms []CString
	Data       []byte
}

func AuthenticationOk() AuthenticationMessage {
	return AuthenticationMessage{Kind: AuthKindOk}
}

func AuthenticationMD5Password(salt Byte4) AuthenticationMessage {
	return AuthenticationMessage{Kind: AuthKindMD5Password, Salt: salt}
}

func AuthenticationSASL(mechanisms []CString) AuthenticationMessage {
	return AuthenticationMessage{Kind: AuthKindSASL, Mechanisms: mechanisms}
}

func (m AuthenticationMessage) ByteSize() int32 {
	size := int32(4) // sub-kind
	switch m.Kind {
	case AuthKindMD5Password:
		size += 4
	case AuthKindSASL:
		for _, mech := range m.Mechanisms {
			size += mech.ByteSize()
		}
		size += 1
	case AuthKindGSSContinue, AuthKindSASLContinue, AuthKindSASLFinal:
		size += int32(len(m.Data))
	}
	return size
}

func (m AuthenticationMessage) Encode(buf *Buffer) {
	buf.WriteInt32(int32(m.Kind))
	switch m.Kind {
	case AuthKindMD5Password:
		buf.WriteBytes(m.Salt[:])
	case AuthKindSASL:
		for _, mech := range m.Mechanisms {
			mech.Encode(buf)
		}
		buf.WriteByte(0x00)
	case AuthKindGSSContinue, AuthKindSASLContinue, AuthKindSASLFinal:
		buf.WriteBytes(m.Data)
	}
}

// DecodeAuthenticationMessage decodes the body of an Authentication
// frame (the bytes after the kind byte and length word).
func DecodeAuthenticationMessage(body []byte) (AuthenticationMessage, error) {
	buf := NewBufferFromBytes(body)
	code, err := buf.ReadInt32()
	if err != nil {
		return AuthenticationMessage{}, fmt.Errorf("authentication sub-kind: %w", err)
	}
	kind, err := AuthenticationMessageKindFromInt32(code)
	if err != nil {
		return AuthenticationMessage{}, err
	}
	msg := AuthenticationMessage{Kind: kind}
	switch kind {
	case AuthKindMD5Password:
		salt, err := buf.ReadByte4()
		if err != nil {
			return AuthenticationMessage{}, fmt.Errorf("md5 salt: %w", err)
		}
		msg.Salt = Byte4(salt)
	case AuthKindSASL:
		for {
			if buf.Remaining() == 1 {
				b, err := buf.ReadByte()
				if err != nil {
					return AuthenticationMessage{}, err
				}
				if b != 0x00 {
					return AuthenticationMessage{}, fmt.Errorf("%w: SASL mechanism list missing terminator", ErrMalformed)
				}
				break
			}
			mech, err := DecodeCString(buf)
			if err != nil {
				return AuthenticationMessage{}, fmt.Errorf("SASL mechanism: %w", err)
			}
			msg.Mechanisms = append(msg.Mechanisms, mech)
		}
	case AuthKindGSSContinue, AuthKindSASLContinue, AuthKindSASLFinal:
		data, err := buf.ReadBytes(buf.Remaining())
		if err != nil {
			return AuthenticationMessage{}, err
		}
		msg.Data = append([]byte(nil), data...)
	}
	return msg, nil
}

//--------------------------------------------------------------------------
// Fixed-payload and empty messages
//--------------------------------------------------------------------------

// BackendKeyData carries the cancellation key pair sent once after
// authentication completes.
type BackendKeyData struct {
	ProcessID int32
	SecretKey int32
}

func (m BackendKeyData) ByteSize() int32 { return 8 }
func (m BackendKeyData) Encode(buf *Buffer) {
	buf.WriteInt32(m.ProcessID)
	buf.WriteInt32(m.SecretKey)
}

func DecodeBackendKeyData(body []byte) (BackendKeyData, error) {
	buf := NewBufferFromBytes(body)
	pid, err := buf.ReadInt32()
	if err != nil {
		return BackendKeyData{}, err
	}
	secret, err := buf.ReadInt32()
	if err != nil {
		return BackendKeyData{}, err
	}
	return BackendKeyData{ProcessID: pid, SecretKey: secret}, nil
}

// emptyMessage is the shared shape of the several backend messages whose
// body carries no data at all (BindComplete, CloseComplete,
// EmptyQueryResponse, NoData, ParseComplete, PortalSuspended).
type emptyMessage struct{}

func (emptyMessage) ByteSize() int32    { return 0 }
func (emptyMessage) Encode(buf *Buffer) {}

type BindComplete struct{ emptyMessage }
type CloseComplete struct{ emptyMessage }
type EmptyQueryResponse struct{ emptyMessage }
type NoData struct{ emptyMessage }
type ParseComplete struct{ emptyMessage }
type PortalSuspended struct{ emptyMessage }

// CommandComplete reports the tag of a completed SQL command, e.g.
// "SELECT 1". Its ByteSize always accounts for the CString's own null
// terminator — the documented fix for a length-miscount bug in the
// source this protocol was modeled on, which omitted it.
type CommandComplete struct {
	Tag CString
}

func (m CommandComplete) ByteSize() int32    { return m.Tag.ByteSize() }
func (m CommandComplete) Encode(buf *Buffer) { m.Tag.Encode(buf) }

func DecodeCommandComplete(body []byte) (CommandComplete, error) {
	buf := NewBufferFromBytes(body)
	tag, err := DecodeCString(buf)
	if err != nil {
		return CommandComplete{}, fmt.Errorf("command tag: %w", err)
	}
	return CommandComplete{Tag: tag}, nil
}

// CopyData carries one chunk of COPY stream data, either direction.
type CopyData struct {
	Data []byte
}

func (m CopyData) ByteSize() int32    { return int32(len(m.Data)) }
func (m CopyData) Encode(buf *Buffer) { buf.WriteBytes(m.Data) }

func DecodeCopyData(body []byte) (CopyData, error) {
	return CopyData{Data: append([]byte(nil), body...)}, nil
}

type CopyDone struct{ emptyMessage }

// copyResponse is the shared shape of CopyInResponse/CopyOutResponse/
// CopyBothResponse: an overall format code plus a per-column format list.
type copyResponse struct {
	Format         int16
	ColumnFormats  []int16
}

func (m copyResponse) byteSize() int32 { return 1 + 2 + int32(len(m.ColumnFormats))*2 }

func (m copyResponse) encode(buf *Buffer) {
	buf.WriteByte(byte(m.Format))
	buf.WriteInt16(int16(len(m.ColumnFormats)))
	for _, f := range m.ColumnFormats {
		buf.WriteInt16(f)
	}
}

func decodeCopyResponse(body []byte) (copyResponse, error) {
	buf := NewBufferFromBytes(body)
	format, err := buf.ReadByte()
	if err != nil {
		return copyResponse{}, err
	}
	n, err := buf.ReadInt16()
	if err != nil {
		return copyResponse{}, err
	}
	if n < 0 {
		return copyResponse{}, fmt.Errorf("%w: negative column format count %d", ErrMalformed, n)
	}
	formats := make([]int16, 0, n)
	for i := int16(0); i < n; i++ {
		f, err := buf.ReadInt16()
		if err != nil {
			return copyResponse{}, err
		}
		formats = append(formats, f)
	}
	return copyResponse{Format: int16(format), ColumnFormats: formats}, nil
}

type CopyInResponse struct{ copyResponse }
type CopyOutResponse struct{ copyResponse }
type CopyBothResponse struct{ copyResponse }

func (m CopyInResponse) ByteSize() int32    { return m.copyResponse.byteSize() }
func (m CopyInResponse) Encode(buf *Buffer) { m.copyResponse.encode(buf) }
func DecodeCopyInResponse(body []byte) (CopyInResponse, error) {
	r, err := decodeCopyResponse(body)
	return CopyInResponse{r}, err
}

func (m CopyOutResponse) ByteSize() int32    { return m.copyResponse.byteSize() }
func (m CopyOutResponse) Encode(buf *Buffer) { m.copyResponse.encode(buf) }
func DecodeCopyOutResponse(body []byte) (CopyOutResponse, error) {
	r, err := decodeCopyResponse(body)
	return CopyOutResponse{r}, err
}

func (m CopyBothResponse) ByteSize() int32    { return m.copyResponse.byteSize() }
func (m CopyBothResponse) Encode(buf *Buffer) { m.copyResponse.encode(buf) }
func DecodeCopyBothResponse(body []byte) (CopyBothResponse, error) {
	r, err := decodeCopyResponse(body)
	return CopyBothResponse{r}, err
}

// DataRow carries one row of a query result, one ColumnValue per column.
type DataRow struct {
	Columns Vec16[ColumnValue]
}

func (m DataRow) ByteSize() int32    { return m.Columns.ByteSize() }
func (m DataRow) Encode(buf *Buffer) { m.Columns.Encode(buf) }

func DecodeDataRow(body []byte) (DataRow, error) {
	buf := NewBufferFromBytes(body)
	cols, err := DecodeVec16(buf, DecodeColumnValue)
	if err != nil {
		return DataRow{}, fmt.Errorf("data row columns: %w", err)
	}
	return DataRow{Columns: cols}, nil
}

// ErrorResponse and NoticeResponse both carry a null-terminated list of
// {code, message} fields (spec.md §4.4).
type ErrorResponse struct {
	Fields VecNull[ErrorField]
}

func (m ErrorResponse) ByteSize() int32    { return m.Fields.ByteSize() }
func (m ErrorResponse) Encode(buf *Buffer) { m.Fields.Encode(buf) }

func DecodeErrorResponse(body []byte) (ErrorResponse, error) {
	buf := NewBufferFromBytes(body)
	fields, err := DecodeVecNull(buf, DecodeErrorField)
	if err != nil {
		return ErrorResponse{}, fmt.Errorf("error fields: %w", err)
	}
	return ErrorResponse{Fields: fields}, nil
}

type NoticeResponse struct {
	Fields VecNull[ErrorField]
}

func (m NoticeResponse) ByteSize() int32    { return m.Fields.ByteSize() }
func (m NoticeResponse) Encode(buf *Buffer) { m.Fields.Encode(buf) }

func DecodeNoticeResponse(body []byte) (NoticeResponse, error) {
	buf := NewBufferFromBytes(body)
	fields, err := DecodeVecNull(buf, DecodeErrorField)
	if err != nil {
		return NoticeResponse{}, fmt.Errorf("notice fields: %w", err)
	}
	return NoticeResponse{Fields: fields}, nil
}

// FunctionCallResponse carries the single return value of a function
// call request.
type FunctionCallResponse struct {
	Result ColumnValue
}

func (m FunctionCallResponse) ByteSize() int32    { return m.Result.ByteSize() }
func (m FunctionCallResponse) Encode(buf *Buffer) { m.Result.Encode(buf) }

func DecodeFunctionCallResponse(body []byte) (FunctionCallResponse, error) {
	buf := NewBufferFromBytes(body)
	result, err := DecodeColumnValue(buf)
	if err != nil {
		return FunctionCallResponse{}, fmt.Errorf("function call result: %w", err)
	}
	return FunctionCallResponse{Result: result}, nil
}

// NegotiateProtocolVersion tells the frontend which minor protocol
// version the backend actually supports, plus any startup parameters it
// did not recognize.
type NegotiateProtocolVersion struct {
	NewestMinor        int32
	UnrecognizedOptions Vec32[CString]
}

func (m NegotiateProtocolVersion) ByteSize() int32 {
	return 4 + m.UnrecognizedOptions.ByteSize()
}

func (m NegotiateProtocolVersion) Encode(buf *Buffer) {
	buf.WriteInt32(m.NewestMinor)
	m.UnrecognizedOptions.Encode(buf)
}

func DecodeNegotiateProtocolVersion(body []byte) (NegotiateProtocolVersion, error) {
	buf := NewBufferFromBytes(body)
	minor, err := buf.ReadInt32()
	if err != nil {
		return NegotiateProtocolVersion{}, err
	}
	opts, err := DecodeVec32(buf, DecodeCString)
	if err != nil {
		return NegotiateProtocolVersion{}, fmt.Errorf("unrecognized options: %w", err)
	}
	return NegotiateProtocolVersion{NewestMinor: minor, UnrecognizedOptions: opts}, nil
}

// NotificationResponse delivers a NOTIFY payload to a listening client.
type NotificationResponse struct {
	ProcessID int32
	Channel   CString
	Payload   CString
}

func (m NotificationResponse) ByteSize() int32 {
	return 4 + m.Channel.ByteSize() + m.Payload.ByteSize()
}

func (m NotificationResponse) Encode(buf *Buffer) {
	buf.WriteInt32(m.ProcessID)
	m.Channel.Encode(buf)
	m.Payload.Encode(buf)
}

func DecodeNotificationResponse(body []byte) (NotificationResponse, error) {
	buf := NewBufferFromBytes(body)
	pid, err := buf.ReadInt32()
	if err != nil {
		return NotificationResponse{}, err
	}
	channel, err := DecodeCString(buf)
	if err != nil {
		return NotificationResponse{}, fmt.Errorf("notification channel: %w", err)
	}
	payload, err := DecodeCString(buf)
	if err != nil {
		return NotificationResponse{}, fmt.Errorf("notification payload: %w", err)
	}
	return NotificationResponse{ProcessID: pid, Channel: channel, Payload: payload}, nil
}

// ParameterDescription lists the inferred object IDs of a prepared
// statement's parameters.
type ParameterDescription struct {
	ObjectIDs Vec16[Int32]
}

func (m ParameterDescription) ByteSize() int32    { return m.ObjectIDs.ByteSize() }
func (m ParameterDescription) Encode(buf *Buffer) { m.ObjectIDs.Encode(buf) }

func DecodeParameterDescription(body []byte) (ParameterDescription, error) {
	buf := NewBufferFromBytes(body)
	ids, err := DecodeVec16(buf, DecodeInt32)
	if err != nil {
		return ParameterDescription{}, fmt.Errorf("parameter object ids: %w", err)
	}
	return ParameterDescription{ObjectIDs: ids}, nil
}

// ParameterStatus announces a run-time parameter's current value, e.g.
// server_version.
type ParameterStatus struct {
	Name  CString
	Value CString
}

func (m ParameterStatus) ByteSize() int32    { return m.Name.ByteSize() + m.Value.ByteSize() }
func (m ParameterStatus) Encode(buf *Buffer) { m.Name.Encode(buf); m.Value.Encode(buf) }

func DecodeParameterStatus(body []byte) (ParameterStatus, error) {
	buf := NewBufferFromBytes(body)
	name, err := DecodeCString(buf)
	if err != nil {
		return ParameterStatus{}, fmt.Errorf("parameter status name: %w", err)
	}
	value, err := DecodeCString(buf)
	if err != nil {
		return ParameterStatus{}, fmt.Errorf("parameter status value: %w", err)
	}
	return ParameterStatus{Name: name, Value: value}, nil
}

// TransactionStatus is the single byte reported in every ReadyForQuery.
type TransactionStatus byte

const (
	TxIdle            TransactionStatus = 'I'
	TxInTransaction   TransactionStatus = 'T'
	TxFailed          TransactionStatus = 'E'
)

// ReadyForQuery tells the frontend the backend is ready for a new query
// cycle, and in what transaction state.
type ReadyForQuery struct {
	Status TransactionStatus
}

func (m ReadyForQuery) ByteSize() int32    { return 1 }
func (m ReadyForQuery) Encode(buf *Buffer) { buf.WriteByte(byte(m.Status)) }

func DecodeReadyForQuery(body []byte) (ReadyForQuery, error) {
	buf := NewBufferFromBytes(body)
	status, err := buf.ReadByte()
	if err != nil {
		return ReadyForQuery{}, err
	}
	return ReadyForQuery{Status: TransactionStatus(status)}, nil
}

// RowDescription describes the shape of the rows a query result will
// contain, one ColumnDescription per column.
type RowDescription struct {
	Columns Vec16[ColumnDescription]
}

func (m RowDescription) ByteSize() int32    { return m.Columns.ByteSize() }
func (m RowDescription) Encode(buf *Buffer) { m.Columns.Encode(buf) }

func DecodeRowDescription(body []byte) (RowDescription, error) {
	buf := NewBufferFromBytes(body)
	cols, err := DecodeVec16(buf, DecodeColumnDescription)
	if err != nil {
		return RowDescription{}, fmt.Errorf("row description columns: %w", err)
	}
	return RowDescription{Columns: cols}, nil
}

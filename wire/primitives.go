package wire

import "fmt"

// Encodable is the two-operation half of the primitive codec's
// byte_size/serialize/deserialize triple (spec.md §3). The third
// operation, deserialize, can't be a method that returns Self on an
// interface in Go, so every Encodable type has a matching package-level
// Decode<Name> function instead — the Go equivalent of the Rust crate's
// associated Deserialize::deserialize function.
type Encodable interface {
	ByteSize() int32
	Encode(buf *Buffer)
}

// CString is a null-terminated, non-null-containing string — the
// c-string primitive from spec.md §3.
type CString string

func (s CString) ByteSize() int32    { return int32(len(s)) + 1 }
func (s CString) Encode(buf *Buffer) { buf.WriteCString(string(s)) }

// DecodeCString reads a null-terminated string.
func DecodeCString(buf *Buffer) (CString, error) {
	s, err := buf.ReadCString()
	if err != nil {
		return "", err
	}
	return CString(s), nil
}

// Byte4 is the fixed 4-byte array primitive (used for the MD5 auth salt).
type Byte4 [4]byte

func (b Byte4) ByteSize() int32    { return 4 }
func (b Byte4) Encode(buf *Buffer) { buf.WriteBytes(b[:]) }

// DecodeByte4 reads a fixed 4-byte array.
func DecodeByte4(buf *Buffer) (Byte4, error) {
	raw, err := buf.ReadByte4()
	if err != nil {
		return Byte4{}, err
	}
	return Byte4(raw), nil
}

// Int16 and Int32 are the fixed-width signed integer primitives. They
// exist as Encodable wrapper types only where a message field is
// composed generically (inside Vec16/Vec32/VecNull elements); elsewhere
// message structs call buf.WriteInt16/WriteInt32 directly, the way the
// teacher's compose_* functions do.
type Int16 int16

func (i Int16) ByteSize() int32    { return 2 }
func (i Int16) Encode(buf *Buffer) { buf.WriteInt16(int16(i)) }

// DecodeInt16 reads a big-endian 16-bit signed integer.
func DecodeInt16(buf *Buffer) (Int16, error) {
	v, err := buf.ReadInt16()
	return Int16(v), err
}

type Int32 int32

func (i Int32) ByteSize() int32    { return 4 }
func (i Int32) Encode(buf *Buffer) { buf.WriteInt32(int32(i)) }

// DecodeInt32 reads a big-endian 32-bit signed integer.
func DecodeInt32(buf *Buffer) (Int32, error) {
	v, err := buf.ReadInt32()
	return Int32(v), err
}

//--------------------------------------------------------------------------
// Vec16 / Vec32 / VecNull — the three variable-length array shapes
//--------------------------------------------------------------------------

// Vec16 is a 16-bit-count-prefixed array (spec.md §3, "Vec16").
type Vec16[T Encodable] struct {
	Items []T
}

func NewVec16[T Encodable](items []T) Vec16[T] { return Vec16[T]{Items: items} }

func (v Vec16[T]) ByteSize() int32 {
	size := int32(2)
	for _, it := range v.Items {
		size += it.ByteSize()
	}
	return size
}

func (v Vec16[T]) Encode(buf *Buffer) {
	buf.WriteInt16(int16(len(v.Items)))
	for _, it := range v.Items {
		it.Encode(buf)
	}
}

// DecodeVec16 reads a Vec16, decoding each element with decode.
func DecodeVec16[T Encodable](buf *Buffer, decode func(*Buffer) (T, error)) (Vec16[T], error) {
	n, err := buf.ReadInt16()
	if err != nil {
		return Vec16[T]{}, fmt.Errorf("vec16 count: %w", err)
	}
	if n < 0 {
		return Vec16[T]{}, fmt.Errorf("%w: negative vec16 count %d", ErrMalformed, n)
	}
	items := make([]T, 0, n)
	for i := int16(0); i < n; i++ {
		it, err := decode(buf)
		if err != nil {
			return Vec16[T]{}, fmt.Errorf("vec16 element %d: %w", i, err)
		}
		items = append(items, it)
	}
	return Vec16[T]{Items: items}, nil
}

// Vec32 is a 32-bit-count-prefixed array (spec.md §3, "Vec32").
type Vec32[T Encodable] struct {
	Items []T
}

func NewVec32[T Encodable](items []T) Vec32[T] { return Vec32[T]{Items: items} }

func (v Vec32[T]) ByteSize() int32 {
	size := int32(4)
	for _, it := range v.Items {
		size += it.ByteSize()
	}
	return size
}

func (v Vec32[T]) Encode(buf *Buffer) {
	buf.WriteInt32(int32(len(v.Items)))
	for _, it := range v.Items {
		it.Encode(buf)
	}
}

// DecodeVec32 reads a Vec32, decoding each element with decode.
func DecodeVec32[T Encodable](buf *Buffer, decode func(*Buffer) (T, error)) (Vec32[T], error) {
	n, err := buf.ReadInt32()
	if err != nil {
		return Vec32[T]{}, fmt.Errorf("vec32 count: %w", err)
	}
	if n < 0 {
		return Vec32[T]{}, fmt.Errorf("%w: negative vec32 count %d", ErrMalformed, n)
	}
	items := make([]T, 0, n)
	for i := int32(0); i < n; i++ {
		it, err := decode(buf)
		if err != nil {
			return Vec32[T]{}, fmt.Errorf("vec32 element %d: %w", i, err)
		}
		items = append(items, it)
	}
	return Vec32[T]{Items: items}, nil
}

// VecNull is a null-terminated array with no count prefix: elements are
// concatenated, then a single 0x00 closes the list (spec.md §3, "VecNull").
// It is always the last field of the message that contains it, since
// decoding relies on the buffer being exactly empty after the terminator.
type VecNull[T Encodable] struct {
	Items []T
}

func NewVecNull[T Encodable](items []T) VecNull[T] { return VecNull[T]{Items: items} }

func (v VecNull[T]) ByteSize() int32 {
	size := int32(1)
	for _, it := range v.Items {
		size += it.ByteSize()
	}
	return size
}

func (v VecNull[T]) Encode(buf *Buffer) {
	for _, it := range v.Items {
		it.Encode(buf)
	}
	buf.WriteByte(0x00)
}

// DecodeVecNull reads a VecNull, decoding each element with decode until
// exactly one byte remains, which must be the 0x00 terminator.
func DecodeVecNull[T Encodable](buf *Buffer, decode func(*Buffer) (T, error)) (VecNull[T], error) {
	var items []T
	for {
		switch buf.Remaining() {
		case 0:
			return VecNull[T]{}, fmt.Errorf("%w: missing null terminator in null-terminated vec", ErrMalformed)
		case 1:
			b, err := buf.ReadByte()
			if err != nil {
				return VecNull[T]{}, err
			}
			if b != 0x00 {
				return VecNull[T]{}, fmt.Errorf("%w: incorrect terminator in null-terminated vec", ErrMalformed)
			}
			return VecNull[T]{Items: items}, nil
		default:
			it, err := decode(buf)
			if err != nil {
				return VecNull[T]{}, err
			}
			items = append(items, it)
		}
	}
}

//--------------------------------------------------------------------------
// Composite field types shared by several messages
//--------------------------------------------------------------------------

// ProtocolVersion is the {major, minor} pair at the head of a
// StartupMessage; together they also serve as its request code
// (196608 == major<<16|minor for 3.0).
type ProtocolVersion struct {
	Major int16
	Minor int16
}

func (v ProtocolVersion) ByteSize() int32 { return 4 }

func (v ProtocolVersion) Encode(buf *Buffer) {
	buf.WriteInt16(v.Major)
	buf.WriteInt16(v.Minor)
}

// DecodeProtocolVersion reads a ProtocolVersion.
func DecodeProtocolVersion(buf *Buffer) (ProtocolVersion, error) {
	major, err := buf.ReadInt16()
	if err != nil {
		return ProtocolVersion{}, err
	}
	minor, err := buf.ReadInt16()
	if err != nil {
		return ProtocolVersion{}, err
	}
	return ProtocolVersion{Major: major, Minor: minor}, nil
}

// RequestCode returns the 32-bit request code this version corresponds
// to on the wire (196608 for protocol 3.0).
func (v ProtocolVersion) RequestCode() int32 {
	return int32(v.Major)<<16 | int32(v.Minor)
}

// ParameterPair is one {name, value} entry of a StartupMessage's
// parameter list.
type ParameterPair struct {
	Name  CString
	Value CString
}

func (p ParameterPair) ByteSize() int32 { return p.Name.ByteSize() + p.Value.ByteSize() }

func (p ParameterPair) Encode(buf *Buffer) {
	p.Name.Encode(buf)
	p.Value.Encode(buf)
}

// DecodeParameterPair reads a ParameterPair.
func DecodeParameterPair(buf *Buffer) (ParameterPair, error) {
	name, err := DecodeCString(buf)
	if err != nil {
		return ParameterPair{}, fmt.Errorf("parameter name: %w", err)
	}
	value, err := DecodeCString(buf)
	if err != nil {
		return ParameterPair{}, fmt.Errorf("parameter value: %w", err)
	}
	return ParameterPair{Name: name, Value: value}, nil
}

// ErrorField is one {code, message} entry of an ErrorResponse/
// NoticeResponse field list (spec.md §4.4).
type ErrorField struct {
	Code    byte
	Message CString
}

func (f ErrorField) ByteSize() int32 { return 1 + f.Message.ByteSize() }

func (f ErrorField) Encode(buf *Buffer) {
	buf.WriteByte(f.Code)
	f.Message.Encode(buf)
}

// DecodeErrorField reads an ErrorField.
func DecodeErrorField(buf *Buffer) (ErrorField, error) {
	code, err := buf.ReadByte()
	if err != nil {
		return ErrorField{}, err
	}
	msg, err := DecodeCString(buf)
	if err != nil {
		return ErrorField{}, fmt.Errorf("error field message: %w", err)
	}
	return ErrorField{Code: code, Message: msg}, nil
}

// ColumnDescription describes one column of a RowDescription
// (spec.md §4.4).
type ColumnDescription struct {
	Name        CString
	RelationID  int32
	AttributeID int16
	DatatypeID  int32
	DatatypeLen int16
	DatatypeMod int32
	Format      int16
}

func (c ColumnDescription) ByteSize() int32 {
	return c.Name.ByteSize() + 4 + 2 + 4 + 2 + 4 + 2
}

func (c ColumnDescription) Encode(buf *Buffer) {
	c.Name.Encode(buf)
	buf.WriteInt32(c.RelationID)
	buf.WriteInt16(c.AttributeID)
	buf.WriteInt32(c.DatatypeID)
	buf.WriteInt16(c.DatatypeLen)
	buf.WriteInt32(c.DatatypeMod)
	buf.WriteInt16(c.Format)
}

// DecodeColumnDescription reads a ColumnDescription.
func DecodeColumnDescription(buf *Buffer) (ColumnDescription, error) {
	name, err := DecodeCString(buf)
	if err != nil {
		return ColumnDescription{}, fmt.Errorf("column name: %w", err)
	}
	relID, err := buf.ReadInt32()
	if err != nil {
		return ColumnDescription{}, err
	}
	attrID, err := buf.ReadInt16()
	if err != nil {
		return ColumnDescription{}, err
	}
	typeID, err := buf.ReadInt32()
	if err != nil {
		return ColumnDescription{}, err
	}
	typeLen, err := buf.ReadInt16()
	if err != nil {
		return ColumnDescription{}, err
	}
	typeMod, err := buf.ReadInt32()
	if err != nil {
		return ColumnDescription{}, err
	}
	format, err := buf.ReadInt16()
	if err != nil {
		return ColumnDescription{}, err
	}
	return ColumnDescription{
		Name: name, RelationID: relID, AttributeID: attrID,
		DatatypeID: typeID, DatatypeLen: typeLen, DatatypeMod: typeMod,
		Format: format,
	}, nil
}

// ColumnValue is one column slot of a DataRow. A Null value is encoded
// as a 32-bit length of -1 with no following bytes; this sentinel is
// preserved exactly rather than collapsed into an empty byte slice, per
// spec.md §4.4.
type ColumnValue struct {
	Null bool
	Data []byte
}

// NullColumnValue is the SQL NULL column value.
func NullColumnValue() ColumnValue { return ColumnValue{Null: true} }

func (c ColumnValue) ByteSize() int32 {
	if c.Null {
		return 4
	}
	return 4 + int32(len(c.Data))
}

func (c ColumnValue) Encode(buf *Buffer) {
	if c.Null {
		buf.WriteInt32(-1)
		return
	}
	buf.WriteInt32(int32(len(c.Data)))
	buf.WriteBytes(c.Data)
}

// DecodeColumnValue reads a ColumnValue.
func DecodeColumnValue(buf *Buffer) (ColumnValue, error) {
	length, err := buf.ReadInt32()
	if err != nil {
		return ColumnValue{}, err
	}
	if length < 0 {
		return ColumnValue{Null: true}, nil
	}
	data, err := buf.ReadBytes(int(length))
	if err != nil {
		return ColumnValue{}, err
	}
	// Copy out: the element backs onto the frame's shared body slice.
	out := make([]byte, len(data))
	copy(out, data)
	return ColumnValue{Data: out}, nil
}

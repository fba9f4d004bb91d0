package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestBufferWriteReadRoundTrip(t *testing.T) {
	buf := NewBuffer(16)
	buf.WriteByte('Q')
	buf.WriteInt16(-7)
	buf.WriteInt32(123456)
	buf.WriteBytes([]byte{1, 2, 3})
	buf.WriteCString("hello")

	read := NewBufferFromBytes(buf.Bytes())

	b, err := read.ReadByte()
	if err != nil || b != 'Q' {
		t.Fatalf("ReadByte() = %v, %v, want 'Q', nil", b, err)
	}
	i16, err := read.ReadInt16()
	if err != nil || i16 != -7 {
		t.Fatalf("ReadInt16() = %v, %v, want -7, nil", i16, err)
	}
	i32, err := read.ReadInt32()
	if err != nil || i32 != 123456 {
		t.Fatalf("ReadInt32() = %v, %v, want 123456, nil", i32, err)
	}
	raw, err := read.ReadBytes(3)
	if err != nil || !bytes.Equal(raw, []byte{1, 2, 3}) {
		t.Fatalf("ReadBytes(3) = %v, %v, want [1 2 3], nil", raw, err)
	}
	s, err := read.ReadCString()
	if err != nil || s != "hello" {
		t.Fatalf("ReadCString() = %q, %v, want \"hello\", nil", s, err)
	}
	if read.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", read.Remaining())
	}
}

func TestBufferReadPastEndIsBufferUnderflow(t *testing.T) {
	cases := []struct {
		name string
		run  func(*Buffer) error
	}{
		{"byte", func(b *Buffer) error { _, err := b.ReadByte(); return err }},
		{"int16", func(b *Buffer) error { _, err := b.ReadInt16(); return err }},
		{"int32", func(b *Buffer) error { _, err := b.ReadInt32(); return err }},
		{"bytes", func(b *Buffer) error { _, err := b.ReadBytes(4); return err }},
		{"cstring", func(b *Buffer) error { _, err := b.ReadCString(); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := NewBufferFromBytes(nil)
			err := tc.run(buf)
			if !errors.Is(err, ErrBufferUnderflow) {
				t.Fatalf("err = %v, want ErrBufferUnderflow", err)
			}
		})
	}
}

func TestBufferReadCStringMissingTerminatorLeavesPositionUnchanged(t *testing.T) {
	buf := NewBufferFromBytes([]byte("no terminator here"))
	_, err := buf.ReadCString()
	if !errors.Is(err, ErrBufferUnderflow) {
		t.Fatalf("err = %v, want ErrBufferUnderflow", err)
	}
	if buf.Position() != 0 {
		t.Fatalf("Position() = %d, want 0 (unchanged on failure)", buf.Position())
	}
}

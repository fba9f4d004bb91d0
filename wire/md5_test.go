package wire

import "testing"

func TestHashMD5PasswordSpecVector(t *testing.T) {
	got := HashMD5Password("md5user", "md5pass", Byte4{0x01, 0x02, 0x03, 0x04})
	want := "md5b5dfd8fbdd6fc9174cc8e85dfa598fa2"
	if got != want {
		t.Fatalf("HashMD5Password() = %q, want %q", got, want)
	}
}

func TestHashMD5PasswordShapeAndSaltSensitivity(t *testing.T) {
	// inner = md5("s3cret" + "alice"), outer = md5(hex(inner) + salt)
	got := HashMD5Password("alice", "s3cret", Byte4{0x01, 0x02, 0x03, 0x04})
	if len(got) != 35 || got[:3] != "md5" {
		t.Fatalf("HashMD5Password() = %q, want 35-char string starting with \"md5\"", got)
	}
	// deterministic: same inputs, same output
	again := HashMD5Password("alice", "s3cret", Byte4{0x01, 0x02, 0x03, 0x04})
	if got != again {
		t.Fatalf("HashMD5Password() not deterministic: %q != %q", got, again)
	}
	// different salt, different output
	diff := HashMD5Password("alice", "s3cret", Byte4{0x05, 0x06, 0x07, 0x08})
	if got == diff {
		t.Fatalf("HashMD5Password() ignored salt")
	}
}

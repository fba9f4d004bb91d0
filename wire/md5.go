package wire

import (
	"crypto/md5"
	"encoding/hex"
)

// HashMD5Password computes the value a client must send back in a
// PasswordMessage after receiving AuthenticationMD5Password: adapted
// from the teacher's pgwire.MD5Password, unchanged in algorithm —
// "md5" || lowerhex(MD5(lowerhex(MD5(password||user)) || salt)).
func HashMD5Password(user, password string, salt Byte4) string {
	inner := md5.Sum([]byte(password + user))
	innerHex := hex.EncodeToString(inner[:])
	outer := md5.Sum(append([]byte(innerHex), salt[:]...))
	return "md5" + hex.EncodeToString(outer[:])
}

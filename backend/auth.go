// Package backend implements the server half of the protocol: it speaks
// the wire types in github.com/riftdata/pgwire/wire to drive the
// startup/authentication/simple-query state machine a real postgres
// backend drives, fronted by a caller-supplied Executor instead of a
// storage engine.
package backend

import (
	"crypto/rand"

	"github.com/riftdata/pgwire/wire"
)

// ConnectionParams is the startup information a connecting client sent:
// its username, the database it asked for, and any other run-time
// parameters it supplied (application_name, client_encoding, ...).
type ConnectionParams struct {
	User     string
	Database string
	Extra    map[string]string
}

// AuthPredicate decides whether a client may proceed, given its startup
// params and the MD5 hash it sent back in its PasswordMessage. Unlike a
// zero-argument "always true" stub, it's handed enough to actually check
// a credential: build the expected hash with wire.HashMD5Password(user,
// password, salt) and compare.
type AuthPredicate func(params ConnectionParams, md5Hash string, salt wire.Byte4) bool

// AllowAll is an AuthPredicate that accepts every connection. Useful for
// local development and tests; never wire this into
// anything that accepts connections from an untrusted network.
func AllowAll(ConnectionParams, string, wire.Byte4) bool { return true }

// newSalt draws a fresh 4-byte MD5 salt from a CSPRNG. A fixed or
// predictable salt would let an attacker precompute the hash for a
// captured password, so this never falls back to a static value.
func newSalt() (wire.Byte4, error) {
	var salt wire.Byte4
	if _, err := rand.Read(salt[:]); err != nil {
		return wire.Byte4{}, err
	}
	return salt, nil
}

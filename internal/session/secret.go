package session

import (
	"time"

	"github.com/keepsafe-dev/keepsafe/internal/common"
)

// secret is the in-memory cached session password. It lives only inside the
// Manager, carries a mandatory absolute expiry, and is wiped on every exit
// path (logout, timeout, replacement). It is never written to durable
// storage.
type secret struct {
	password  []byte
	username  string
	expiresAt time.Time
}

func newSecret(password []byte, username string, expiresAt time.Time) *secret {
	return &secret{
		password:  append([]byte(nil), password...),
		username:  username,
		expiresAt: expiresAt,
	}
}

// valid reports whether the secret can still be used at the given instant.
func (s *secret) valid(now time.Time) bool {
	return s != nil && len(s.password) > 0 && now.Before(s.expiresAt)
}

// clear wipes the password bytes. The secret must not be used afterwards.
func (s *secret) clear() {
	if s == nil {
		return
	}
	common.WipeByteArray(s.password)
	s.password = nil
}

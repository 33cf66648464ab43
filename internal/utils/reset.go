package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// ResetTokens issues and checks password reset tokens.  A token is
// "<base36 issue time>-<hex HMAC>" where the MAC covers the user id, the
// issue time and the user's current password hash.  The recipient learns
// nothing from it, it expires after TTL, and it stops working the moment
// the password changes, which makes it single-use.
type ResetTokens struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
}

func (r ResetTokens) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Make returns a reset token for the user.
func (r ResetTokens) Make(userID uint64, passwordHash string) string {
	ts := strconv.FormatInt(r.now().Unix(), 36)
	return ts + "-" + r.mac(userID, passwordHash, ts)
}

// Check reports whether token was issued for this user and password hash
// and is still within its lifetime.
func (r ResetTokens) Check(userID uint64, passwordHash, token string) bool {
	ts, mac, ok := strings.Cut(token, "-")
	if !ok || ts == "" || mac == "" {
		return false
	}
	issued, err := strconv.ParseInt(ts, 36, 64)
	if err != nil {
		return false
	}
	if !hmac.Equal([]byte(mac), []byte(r.mac(userID, passwordHash, ts))) {
		return false
	}
	age := r.now().Sub(time.Unix(issued, 0))
	return age >= 0 && age <= r.TTL
}

func (r ResetTokens) mac(userID uint64, passwordHash, ts string) string {
	h := hmac.New(sha256.New, []byte(r.Secret))
	h.Write([]byte("password-reset|" + strconv.FormatUint(userID, 10) + "|" + passwordHash + "|" + ts))
	return hex.EncodeToString(h.Sum(nil))[:40]
}

// EncodeUID renders a user id for use in a URL path segment.
func EncodeUID(id uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(id, 10)))
}

// DecodeUID reverses EncodeUID.  Padded input is accepted as well.
func DecodeUID(s string) (uint64, bool) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

package sharing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"holabox/internal/auth"
	"holabox/internal/models"
)

// tokenBytes is the raw entropy of a share token. 32 bytes encode to a
// 43-character URL-safe string.
const tokenBytes = 32

func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

type VerifyResult int

const (
	// Valid means the share exists, is active, not expired, and the
	// password gate (if any) passed.
	Valid VerifyResult = iota
	// NotFoundOrExpired covers unknown tokens, revoked shares and expired
	// shares alike, so a caller cannot tell them apart.
	NotFoundOrExpired
	WrongPassword
)

// Verify is the single access gate for shared files. Both the metadata
// and the download entry points must go through it before touching any
// counter or file content. Expiry wins over the password check.
func Verify(share *models.Share, password string, now time.Time) VerifyResult {
	if share == nil || !share.IsActive {
		return NotFoundOrExpired
	}

	if share.ExpiresAt != nil && share.ExpiresAt.Before(now) {
		return NotFoundOrExpired
	}

	if share.PasswordHash != nil {
		if password == "" {
			return WrongPassword
		}
		if !auth.CheckPasswordHash(password, *share.PasswordHash) {
			return WrongPassword
		}
	}

	return Valid
}

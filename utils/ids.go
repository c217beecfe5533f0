package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewRecordID builds a collection-unique id from the current millisecond
// timestamp plus a short random hex suffix. There is no uniqueness check
// against existing records; collisions require two ids in the same
// millisecond with the same 3-byte suffix.
func NewRecordID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + randomHex(3)
}

// NewOTPCode returns a 6-digit numeric verification code.
func NewOTPCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the platform RNG is broken; fall back
		// to a time-derived code rather than panicking mid-signup.
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// NewResetToken returns an opaque password-reset token.
func NewResetToken() string {
	return uuid.New().String()
}

func randomHex(nBytes int) string {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(b)
}

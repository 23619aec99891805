// Package webhook verifies the voice vendor's server-to-server events.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// ReplayWindow is the maximum accepted age of a webhook timestamp.
const ReplayWindow = 180 * time.Second

// ValidateHmacSignature checks the hex HMAC-SHA256 of the timestamp and
// payload computed with the vendor API key as secret. The timestamp is
// part of the signed input so a captured payload cannot be replayed under
// a fresher timestamp. The comparison is timing safe.
func ValidateHmacSignature(timestamp string, payload []byte, signature, secret string) error {
	if secret == "" {
		return fmt.Errorf("webhook secret is not configured")
	}
	if signature == "" {
		return fmt.Errorf("missing webhook signature")
	}

	expected := Sign(timestamp, payload, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("webhook signature mismatch")
	}
	return nil
}

// ValidateTimestamp rejects timestamps outside the replay window in either
// direction. ts is unix seconds as sent by the vendor.
func ValidateTimestamp(ts string, now time.Time) error {
	if ts == "" {
		return fmt.Errorf("missing webhook timestamp")
	}
	seconds, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed webhook timestamp: %w", err)
	}
	sent := time.Unix(seconds, 0)
	skew := now.Sub(sent)
	if skew < 0 {
		skew = -skew
	}
	if skew > ReplayWindow {
		return fmt.Errorf("webhook timestamp outside replay window")
	}
	return nil
}

// Sign computes the hex signature over timestamp + "." + payload. Used by
// tests and by the local development sender.
func Sign(timestamp string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

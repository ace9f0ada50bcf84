package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	headerSignature = "X-Slack-Signature"
	headerTimestamp = "X-Slack-Request-Timestamp"
	signatureScheme = "v0"
)

// Signature verification failures.
var (
	ErrMissingSignature = errors.New("missing slack signature headers")
	ErrStaleRequest     = errors.New("slack request timestamp outside replay window")
	ErrBadSignature     = errors.New("slack signature mismatch")
)

// Sign computes the v0 signature Slack sends for body at timestamp.
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%d:", signatureScheme, timestamp)
	mac.Write(body)
	return signatureScheme + "=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyRequest checks the signature headers of a request whose body has
// already been read.
func VerifyRequest(secret string, header http.Header, body []byte, now time.Time, window time.Duration) error {
	signature := strings.TrimSpace(header.Get(headerSignature))
	rawTimestamp := strings.TrimSpace(header.Get(headerTimestamp))
	if signature == "" || rawTimestamp == "" {
		return ErrMissingSignature
	}
	timestamp, err := strconv.ParseInt(rawTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp %q", ErrMissingSignature, rawTimestamp)
	}
	age := now.Sub(time.Unix(timestamp, 0))
	if age < 0 {
		age = -age
	}
	if age > window {
		return ErrStaleRequest
	}
	expected := Sign(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

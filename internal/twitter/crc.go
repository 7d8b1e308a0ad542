// Package twitter implements the X (Twitter) Account Activity webhook
// contract: the CRC ownership handshake and the typed event payload.
package twitter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// ErrMissingSecret is returned when no consumer secret is configured.
var ErrMissingSecret = errors.New("twitter: consumer secret is not configured")

// CRCResponse is the body answered to a CRC challenge.
type CRCResponse struct {
	ResponseToken string `json:"response_token"`
}

// ResponseToken computes "sha256=" + base64(HMAC-SHA256(crcToken, secret)).
func ResponseToken(secret, crcToken string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(crcToken))
	return "sha256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Package highscore implements the signed high-score submission protocol:
// challenge issuance, HMAC request signing, nonce replay protection,
// per-client rate limiting and the leaderboard, over HTTP.
package highscore

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// Challenge is issued to a client before it may submit scores.
type Challenge struct {
	SessionID               string `json:"sessionId"`
	SubmitToken             string `json:"submitToken"`
	ExpiresAt               int64  `json:"expiresAt"`
	MaxTimestampSkewSeconds int    `json:"maxTimestampSkewSeconds"`
}

// Submission is the signed body of a score POST.
type Submission struct {
	Initials  string   `json:"initials"`
	Score     int64    `json:"score"`
	SessionID string   `json:"sessionId"`
	Timestamp int64    `json:"timestamp"`
	Nonce     string   `json:"nonce"`
	Signature string   `json:"signature"`
	Metadata  Metadata `json:"metadata,omitempty"`
}

// Entry is one leaderboard row as served to clients.
type Entry struct {
	Initials  string `json:"initials"`
	Score     int64  `json:"score"`
	CreatedAt string `json:"createdAt"`
}

// Metadata is a small flat map of scalar values attached to a score.
// Values must be string, bool or an integer type.
type Metadata map[string]any

// Canonical returns the serialization both signer and verifier hash:
// compact JSON, keys sorted, no HTML escaping. Empty metadata is "".
func (m Metadata) Canonical() (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding/json writes map keys in sorted order
	if err := enc.Encode(map[string]any(m)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// StringToSign joins the signed fields of s. metadataCanonical must be the
// output of Metadata.Canonical.
func StringToSign(s Submission, metadataCanonical string) string {
	sum := sha256.Sum256([]byte(metadataCanonical))
	return strings.Join([]string{
		s.SessionID,
		strconv.FormatInt(s.Timestamp, 10),
		s.Nonce,
		s.Initials,
		strconv.FormatInt(s.Score, 10),
		hex.EncodeToString(sum[:]),
	}, "|")
}

// Sign computes the lowercase hex HMAC-SHA256 of s keyed by the session token.
func Sign(token string, s Submission) (string, error) {
	canonical, err := s.Metadata.Canonical()
	if err != nil {
		return "", err
	}
	return sign(token, StringToSign(s, canonical)), nil
}

func sign(token, message string) string {
	mac := hmac.New(sha256.New, []byte(token))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// verify compares signatures case-insensitively in constant time.
func verify(token, message, signature string) bool {
	expected := sign(token, message)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

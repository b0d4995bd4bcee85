package highscore

import (
	"encoding/json"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/vovakirdan/dude-platformer/internal/config"
)

const (
	maxMetadataKeys    = 8
	maxMetadataString  = 64
	maxMetadataBytes   = 512
	maxSessionIDLength = 64
	maxSignatureLength = 128
	maxSafeInteger     = 1<<53 - 1
)

var (
	initialsPattern = regexp.MustCompile(`^[A-Z]{1,3}$`)
	noncePattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)
	metaKeyPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,31}$`)
)

// NormalizeInitials strips everything but ASCII letters and uppercases
// the rest. The result may still be empty or too long.
func NormalizeInitials(raw string) string {
	letters := strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			return r
		}
		return -1
	}, raw)
	return strings.ToUpper(letters)
}

// submitRequest is the wire shape of a POST body. Numbers stay as
// json.Number so that non-integers can be told apart from type errors.
type submitRequest struct {
	Initials  string         `json:"initials"`
	Score     json.Number    `json:"score"`
	SessionID string         `json:"sessionId"`
	Timestamp json.Number    `json:"timestamp"`
	Nonce     string         `json:"nonce"`
	Signature string         `json:"signature"`
	Metadata  map[string]any `json:"metadata"`
}

// check validates field shapes and absolute score bounds and returns the
// normalized submission together with its canonical metadata.
func (r submitRequest) check(rules config.ScoreRules) (Submission, string, error) {
	sub := Submission{
		Initials:  NormalizeInitials(r.Initials),
		SessionID: r.SessionID,
		Nonce:     r.Nonce,
		Signature: r.Signature,
	}

	if !initialsPattern.MatchString(sub.Initials) {
		return sub, "", invalid("initials must be 1-3 letters (A-Z)")
	}

	score, err := strconv.ParseInt(r.Score.String(), 10, 64)
	if err != nil {
		return sub, "", invalid("score must be an integer")
	}
	if score < rules.Min || score > rules.Max {
		return sub, "", invalid("score must be between %d and %d", rules.Min, rules.Max)
	}
	sub.Score = score

	ts, err := strconv.ParseInt(r.Timestamp.String(), 10, 64)
	if err != nil {
		return sub, "", invalid("timestamp must be an integer unix time")
	}
	sub.Timestamp = ts

	switch {
	case sub.SessionID == "" || len(sub.SessionID) > maxSessionIDLength:
		return sub, "", invalid("sessionId is required")
	case !noncePattern.MatchString(sub.Nonce):
		return sub, "", invalid("nonce must be 8-128 characters of [A-Za-z0-9_-]")
	case sub.Signature == "" || len(sub.Signature) > maxSignatureLength:
		return sub, "", invalid("signature is required")
	}

	meta, err := checkMetadata(r.Metadata)
	if err != nil {
		return sub, "", err
	}
	sub.Metadata = meta

	canonical, err := meta.Canonical()
	if err != nil {
		return sub, "", invalid("metadata cannot be encoded")
	}
	if len(canonical) > maxMetadataBytes {
		return sub, "", invalid("metadata exceeds %d bytes", maxMetadataBytes)
	}
	return sub, canonical, nil
}

// checkMetadata accepts a flat map of strings, bools and safe integers.
// Integers are converted to int64 so the canonical form has no exponent.
func checkMetadata(raw map[string]any) (Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw) > maxMetadataKeys {
		return nil, invalid("metadata allows at most %d keys", maxMetadataKeys)
	}

	keys := lo.Keys(raw)
	slices.Sort(keys)

	meta := make(Metadata, len(raw))
	for _, key := range keys {
		if !metaKeyPattern.MatchString(key) {
			return nil, invalid("metadata key %q is not allowed", key)
		}
		switch v := raw[key].(type) {
		case bool:
			meta[key] = v
		case string:
			if len(v) > maxMetadataString || !utf8.ValidString(v) || strings.ContainsAny(v, "\u2028\u2029") {
				return nil, invalid("metadata value for %q is not an allowed string", key)
			}
			meta[key] = v
		case json.Number:
			n, err := strconv.ParseInt(v.String(), 10, 64)
			if err != nil || n > maxSafeInteger || n < -maxSafeInteger {
				return nil, invalid("metadata value for %q must be a safe integer", key)
			}
			meta[key] = n
		default:
			return nil, invalid("metadata value for %q must be a string, boolean or integer", key)
		}
	}
	return meta, nil
}

// withinSkew reports whether ts is at most skew seconds away from now.
func withinSkew(now, ts, skew int64) bool {
	d := now - ts
	if d == math.MinInt64 {
		return false
	}
	if d < 0 {
		d = -d
	}
	return d <= skew
}

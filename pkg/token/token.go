// Package token encodes and decodes the opaque unsubscribe token carried in
// emailed links.
//
// The token is base64-encoded JSON and is NOT signed: anyone holding the link
// can change that user's email preferences. That is an accepted trade-off for
// a low-stakes opt-out toggle and must not be reused for anything that needs
// authentication; higher-stakes actions require an HMAC'd token with a
// server-side key.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrInvalid = errors.New("token: invalid")
	ErrExpired = errors.New("token: expired")
)

// Payload is the decoded token content. EmailType empty means the token
// unsubscribes the user from all email types.
type Payload struct {
	UserID    string `json:"user_id"`
	EmailType string `json:"email_type,omitempty"`
	Exp       int64  `json:"exp"`
}

// Encode produces a token that expires ttl from now.
func Encode(userID, emailType string, ttl time.Duration) string {
	p := Payload{
		UserID:    userID,
		EmailType: emailType,
		Exp:       time.Now().Add(ttl).Unix(),
	}
	raw, _ := json.Marshal(p)
	return base64.URLEncoding.EncodeToString(raw)
}

// Decode parses and validates a token. It fails closed: any malformed input,
// missing field or past expiry yields an error, never a panic. The token
// arrives from an untrusted emailed link, so errors carry no detail about
// which check failed beyond expired vs invalid.
func Decode(tok string) (*Payload, error) {
	if tok == "" {
		return nil, ErrInvalid
	}

	raw, err := base64.URLEncoding.DecodeString(tok)
	if err != nil {
		return nil, ErrInvalid
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrInvalid
	}

	if p.UserID == "" || p.Exp == 0 {
		return nil, ErrInvalid
	}

	if time.Now().Unix() > p.Exp {
		return nil, ErrExpired
	}

	return &p, nil
}

// Package linkcodec encodes acknowledgement link payloads into URL-safe
// tokens and back.
//
// The token is transport encoding, not encryption: base64url over a small
// JSON document. The baseline codec performs structural validation only and
// does not authenticate the token against tampering; SigningCodec adds that.
package linkcodec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Decision values carried in a link payload.
const (
	DecisionAck = "ack"
	DecisionNak = "nak"
)

// Payload is the acknowledgement link content: which policy, which recipient,
// which decision the link represents. Field names match the wire format.
type Payload struct {
	PolicyID int64  `json:"policy_id"`
	Email    string `json:"email"`
	Status   string `json:"status"`
}

// DecodeError distinguishes a structurally invalid token from infrastructure
// failures. Reason is a short machine-friendly tag. Malformed marks tokens
// that fail transport decoding (not base64, not JSON) as opposed to tokens
// that decode but carry an invalid payload.
type DecodeError struct {
	Reason    string
	Malformed bool
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode link token: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode link token: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var payloadSchema = gojsonschema.NewGoLoader(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"policy_id", "email", "status"},
	"properties": map[string]interface{}{
		"policy_id": map[string]interface{}{"type": "integer", "minimum": 1},
		"email":     map[string]interface{}{"type": "string", "minLength": 3},
		"status":    map[string]interface{}{"type": "string", "enum": []interface{}{DecisionAck, DecisionNak}},
	},
})

// Codec round-trips payloads through URL-safe tokens.
type Codec interface {
	Encode(p Payload) (string, error)
	Decode(token string) (*Payload, error)
}

// Base64Codec is the baseline unsigned codec.
type Base64Codec struct{}

// NewCodec returns the baseline codec.
func NewCodec() *Base64Codec {
	return &Base64Codec{}
}

// Encode serializes p and base64url-encodes it.
func (c *Base64Codec) Encode(p Payload) (string, error) {
	if p.Status != DecisionAck && p.Status != DecisionNak {
		return "", fmt.Errorf("encode link token: invalid status %q", p.Status)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode link token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode, rejecting malformed or structurally invalid tokens
// with a *DecodeError.
func (c *Base64Codec) Decode(token string) (*Payload, error) {
	if token == "" {
		return nil, &DecodeError{Reason: "empty token"}
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64", Malformed: true, Err: err}
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &DecodeError{Reason: "invalid json", Malformed: true, Err: err}
	}

	result, err := gojsonschema.Validate(payloadSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, &DecodeError{Reason: "schema validation", Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, &DecodeError{Reason: "invalid payload: " + strings.Join(msgs, "; ")}
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &DecodeError{Reason: "invalid payload", Err: err}
	}
	return &p, nil
}

// SigningCodec appends an HMAC-SHA256 tag to each token and verifies it on
// decode. Opt-in; the default configuration ships unsigned.
type SigningCodec struct {
	inner Codec
	key   []byte
}

// NewSigningCodec wraps inner with HMAC signing under key.
func NewSigningCodec(inner Codec, key []byte) *SigningCodec {
	return &SigningCodec{inner: inner, key: key}
}

func (c *SigningCodec) sign(token string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(token))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// Encode produces "<token>.<signature>".
func (c *SigningCodec) Encode(p Payload) (string, error) {
	token, err := c.inner.Encode(p)
	if err != nil {
		return "", err
	}
	return token + "." + c.sign(token), nil
}

// Decode verifies the signature before delegating to the inner codec.
func (c *SigningCodec) Decode(token string) (*Payload, error) {
	idx := strings.LastIndex(token, ".")
	if idx < 0 {
		return nil, &DecodeError{Reason: "missing signature"}
	}
	body, sig := token[:idx], token[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(c.sign(body))) {
		return nil, &DecodeError{Reason: "signature mismatch"}
	}
	return c.inner.Decode(body)
}

// Package shl implements the recipient-facing SMART Health Link formats: the
// link payload handed to the holder at issuance, the shlink: URI encoding of
// that payload, and the JWE compact token returned on retrieval.
package shl

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// URIPrefix is the scheme prefix of an encoded health link.
const URIPrefix = "shlink:/"

// FlagNoPasscode marks a link that can be redeemed without a passcode.
const FlagNoPasscode = "U"

// Link is the payload a holder receives at issuance. It is never persisted.
type Link struct {
	URL   string `json:"url"`
	Flag  string `json:"flag"`
	Key   string `json:"key"`
	Exp   int64  `json:"exp"`
	Label string `json:"label"`
}

// EncodeURI serializes a link payload as a shlink: URI.
func EncodeURI(l *Link) (string, error) {
	payload, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("shl: marshal link payload: %w", err)
	}
	return URIPrefix + base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeURI parses a shlink: URI back into its link payload.
func DecodeURI(uri string) (*Link, error) {
	if len(uri) <= len(URIPrefix) || uri[:len(URIPrefix)] != URIPrefix {
		return nil, fmt.Errorf("shl: not a %s URI", URIPrefix)
	}
	payload, err := base64.RawURLEncoding.DecodeString(uri[len(URIPrefix):])
	if err != nil {
		return nil, fmt.Errorf("shl: decode link payload: %w", err)
	}
	var l Link
	if err := json.Unmarshal(payload, &l); err != nil {
		return nil, fmt.Errorf("shl: unmarshal link payload: %w", err)
	}
	return &l, nil
}

// EncodeKey base64url-encodes a raw encryption key without padding, the form
// embedded in the link payload.
func EncodeKey(key []byte) string {
	return base64.RawURLEncoding.EncodeToString(key)
}

// BuildToken produces the JWE compact serialization returned to a recipient:
// direct symmetric key management (the 256-bit key is the content encryption
// key, no wrapping step), A256GCM, and a cty header naming the payload type.
// This is a separate encryption context from the at-rest envelope cipher and
// uses go-jose's own nonce generation.
func BuildToken(plaintext, key []byte, contentType string) (string, error) {
	encrypter, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.DIRECT, Key: key},
		(&jose.EncrypterOptions{}).WithContentType(jose.ContentType(contentType)),
	)
	if err != nil {
		return "", fmt.Errorf("shl: create encrypter: %w", err)
	}

	obj, err := encrypter.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("shl: encrypt token: %w", err)
	}

	token, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("shl: serialize token: %w", err)
	}
	return token, nil
}

// OpenToken decrypts a compact token built by BuildToken. Used by tests and
// diagnostic tooling; recipients normally decrypt with their own JOSE stack.
func OpenToken(token string, key []byte) ([]byte, error) {
	obj, err := jose.ParseEncrypted(token,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return nil, fmt.Errorf("shl: parse token: %w", err)
	}
	plaintext, err := obj.Decrypt(key)
	if err != nil {
		return nil, fmt.Errorf("shl: decrypt token: %w", err)
	}
	return plaintext, nil
}

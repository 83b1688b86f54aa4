package shl

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("read random: %v", err)
	}
	return key
}

func TestBuildToken_RoundTrip(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte(`{"resourceType":"Bundle","type":"collection","entry":[]}`)

	token, err := BuildToken(plaintext, key, "application/fhir+json")
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	// Compact serialization: five dot-separated segments, empty encrypted-key
	// segment in direct mode.
	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		t.Fatalf("expected 5 compact segments, got %d", len(parts))
	}
	if parts[1] != "" {
		t.Errorf("expected empty encrypted key segment in dir mode, got %q", parts[1])
	}

	got, err := OpenToken(token, key)
	if err != nil {
		t.Fatalf("open token: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch: got %s", got)
	}
}

func TestBuildToken_HeaderDeclaresDirA256GCMAndContentType(t *testing.T) {
	key := randomKey(t)
	token, err := BuildToken([]byte("payload"), key, "application/fhir+json")
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	headerSegment := strings.SplitN(token, ".", 2)[0]
	raw, err := base64.RawURLEncoding.DecodeString(headerSegment)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}

	var header struct {
		Alg string `json:"alg"`
		Enc string `json:"enc"`
		Cty string `json:"cty"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if header.Alg != "dir" {
		t.Errorf("alg = %q, want dir", header.Alg)
	}
	if header.Enc != "A256GCM" {
		t.Errorf("enc = %q, want A256GCM", header.Enc)
	}
	if header.Cty != "application/fhir+json" {
		t.Errorf("cty = %q, want application/fhir+json", header.Cty)
	}
}

func TestOpenToken_WrongKeyFails(t *testing.T) {
	token, err := BuildToken([]byte("payload"), randomKey(t), "application/fhir+json")
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	if _, err := OpenToken(token, randomKey(t)); err == nil {
		t.Error("expected decryption failure with wrong key")
	}
}

func TestEncodeURI_RoundTrip(t *testing.T) {
	link := &Link{
		URL:   "https://example.org/api/v1/healthlinks/abc",
		Flag:  FlagNoPasscode,
		Key:   EncodeKey(randomKey(t)),
		Exp:   1735689600,
		Label: "Jessica Argonaut's health summary",
	}

	uri, err := EncodeURI(link)
	if err != nil {
		t.Fatalf("encode uri: %v", err)
	}
	if !strings.HasPrefix(uri, URIPrefix) {
		t.Fatalf("uri %q missing %s prefix", uri, URIPrefix)
	}

	got, err := DecodeURI(uri)
	if err != nil {
		t.Fatalf("decode uri: %v", err)
	}
	if *got != *link {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, link)
	}
}

func TestDecodeURI_RejectsForeignSchemes(t *testing.T) {
	for _, bad := range []string{"", "shlink:/", "https://example.org", "shlink:!!!"} {
		if _, err := DecodeURI(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestEncodeKey_Is43CharsUnpadded(t *testing.T) {
	encoded := EncodeKey(randomKey(t))
	if len(encoded) != 43 {
		t.Errorf("encoded key length = %d, want 43", len(encoded))
	}
	if strings.ContainsAny(encoded, "+/=") {
		t.Errorf("encoded key %q contains non-url-safe characters", encoded)
	}
}

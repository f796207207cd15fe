package dispatch

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"go.aocore.tech/internal/common/secrets"
	"go.aocore.tech/internal/platform/webhook"
)

const (
	// SignatureHeader carries hex HMAC-SHA256(timestamp + body).
	SignatureHeader = "X-AOCORE-SIGNATURE"

	// TimestampHeader carries the timestamp that was signed.
	TimestampHeader = "X-AOCORE-TIMESTAMP"

	// ExecutionIDHeader carries the ledger record id.
	ExecutionIDHeader = "X-AOCORE-EXECUTION-ID"

	hkdfSalt = "aocore-webhook-signing-v1"
)

// Signer computes outbound request signatures. The key for an endpoint is
// its signing_secret_ref resolved through the secrets provider, or else a
// key derived from the master secret and the endpoint id.
type Signer struct {
	secrets secrets.Provider
	master  []byte
	now     func() time.Time
}

// NewSigner creates a Signer. provider may be nil; an empty masterSecret
// leaves endpoints without a secret ref unsigned.
func NewSigner(provider secrets.Provider, masterSecret string) *Signer {
	return &Signer{
		secrets: provider,
		master:  []byte(masterSecret),
		now:     time.Now,
	}
}

// Headers returns the headers for one outbound call. The execution id
// header is always present; signature headers only when a key is available.
func (s *Signer) Headers(ctx context.Context, endpoint *webhook.Endpoint, executionID string, body []byte) (map[string]string, error) {
	headers := map[string]string{ExecutionIDHeader: executionID}
	if s == nil {
		return headers, nil
	}

	key, err := s.keyFor(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return headers, nil
	}

	timestamp := FormatTimestamp(s.now())
	headers[TimestampHeader] = timestamp
	headers[SignatureHeader] = Sign(body, timestamp, key)
	return headers, nil
}

func (s *Signer) keyFor(ctx context.Context, endpoint *webhook.Endpoint) ([]byte, error) {
	if ref := endpoint.SigningSecretRef(); ref != "" && s.secrets != nil {
		secret, err := s.secrets.Get(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("resolve signing secret %q via %s: %w", ref, s.secrets.Name(), err)
		}
		return []byte(secret), nil
	}
	if len(s.master) == 0 {
		return nil, nil
	}
	return DeriveEndpointKey(s.master, endpoint.ID)
}

// DeriveEndpointKey derives a 32-byte per-endpoint key with HKDF-SHA256.
func DeriveEndpointKey(master []byte, endpointID string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, master, []byte(hkdfSalt), []byte(endpointID))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

// Sign returns the lowercase hex HMAC-SHA256 of timestamp + body.
func Sign(body []byte, timestamp string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature in constant time.
func Verify(body []byte, timestamp, signature string, key []byte) bool {
	expected := Sign(body, timestamp, key)
	return hmac.Equal([]byte(expected), []byte(signature))
}

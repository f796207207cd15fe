package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidRole      = errors.New("invalid role claim")
	ErrInvalidKeyFormat = errors.New("invalid key format")
)

// Config holds token verification settings.
type Config struct {
	// Disabled skips verification and injects AnonymousPrincipal. Dev only.
	Disabled bool `toml:"disabled"`

	// HMACSecret enables HS256 verification.
	HMACSecret string `toml:"hmac_secret"`

	// PublicKeyPEM or PublicKeyPath enables RS256 verification.
	PublicKeyPEM  string `toml:"public_key_pem"`
	PublicKeyPath string `toml:"public_key_path"`

	// Issuer and Audience are checked when set.
	Issuer   string `toml:"issuer"`
	Audience string `toml:"audience"`

	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration `toml:"leeway"`
}

// Claims are the token claims issued by the auth system.
type Claims struct {
	jwt.RegisteredClaims
	OrgID  string   `json:"org_id,omitempty"`
	Role   string   `json:"role"`
	Brands []string `json:"brands,omitempty"`
}

// Verifier validates bearer tokens.
type Verifier struct {
	hmacSecret []byte
	publicKey  *rsa.PublicKey
	parser     *jwt.Parser
}

// NewVerifier builds a verifier. At least one of HMACSecret or a public key is required.
func NewVerifier(cfg Config) (*Verifier, error) {
	v := &Verifier{}
	var methods []string

	if cfg.HMACSecret != "" {
		v.hmacSecret = []byte(cfg.HMACSecret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}

	pemData := []byte(cfg.PublicKeyPEM)
	if len(pemData) == 0 && cfg.PublicKeyPath != "" {
		data, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		pemData = data
	}
	if len(pemData) > 0 {
		key, err := ParseRSAPublicKey(pemData)
		if err != nil {
			return nil, err
		}
		v.publicKey = key
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}

	if len(methods) == 0 {
		return nil, errors.New("auth: an HMAC secret or RSA public key is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// Verify validates tokenString and returns the principal it identifies.
func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.key)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	role, ok := ParseRole(claims.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	return &Principal{
		UserID: claims.Subject,
		OrgID:  claims.OrgID,
		Role:   role,
		Brands: claims.Brands,
	}, nil
}

func (v *Verifier) key(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.hmacSecret == nil {
			return nil, ErrInvalidToken
		}
		return v.hmacSecret, nil
	case *jwt.SigningMethodRSA:
		if v.publicKey == nil {
			return nil, ErrInvalidToken
		}
		return v.publicKey, nil
	}
	return nil, ErrInvalidToken
}

// ParseRSAPublicKey parses a PEM encoded PKIX or PKCS1 RSA public key.
func ParseRSAPublicKey(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, ErrInvalidKeyFormat
	}

	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, ErrInvalidKeyFormat
		}
		return key, nil
	}

	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

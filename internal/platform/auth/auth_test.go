package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-hmac-secret"

func claims(sub, role string, exp time.Duration) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "https://auth.test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp)),
		},
		OrgID:  "org-1",
		Role:   role,
		Brands: []string{"acme"},
	}
}

func hsToken(t *testing.T, c Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestVerify_HS256(t *testing.T) {
	v, err := NewVerifier(Config{HMACSecret: testSecret, Issuer: "https://auth.test"})
	require.NoError(t, err)

	p, err := v.Verify(hsToken(t, claims("user-1", "manager", time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "org-1", p.OrgID)
	assert.Equal(t, RoleManager, p.Role)
	assert.Equal(t, []string{"acme"}, p.Brands)
}

func TestVerify_Rejections(t *testing.T) {
	v, err := NewVerifier(Config{HMACSecret: testSecret, Issuer: "https://auth.test"})
	require.NoError(t, err)

	_, err = v.Verify(hsToken(t, claims("user-1", "staff", -time.Minute)))
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = v.Verify(hsToken(t, claims("user-1", "superuser", time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = v.Verify(hsToken(t, claims("", "staff", time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := claims("user-1", "staff", time.Hour)
	wrongIssuer.Issuer = "https://evil.test"
	_, err = v.Verify(hsToken(t, wrongIssuer))
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims("user-1", "staff", time.Hour)).SignedString([]byte("other"))
	_, err = v.Verify(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	v, err := NewVerifier(Config{PublicKeyPEM: string(pubPEM)})
	require.NoError(t, err)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims("user-2", "owner", time.Hour)).SignedString(key)
	require.NoError(t, err)
	p, err := v.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, p.Role)

	// An HS256 token must not verify against an RS256-only configuration.
	_, err = v.Verify(hsToken(t, claims("user-2", "owner", time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewVerifier_RequiresKey(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.Error(t, err)

	_, err = NewVerifier(Config{PublicKeyPEM: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)
}

func TestPrincipal_Policy(t *testing.T) {
	acme, other := "acme", "other"
	staff := &Principal{UserID: "u", Role: RoleStaff, Brands: []string{"acme"}}
	admin := &Principal{UserID: "a", Role: RoleAdmin, Brands: []string{"acme"}}

	assert.False(t, staff.IsAdmin())
	assert.True(t, admin.IsAdmin())
	assert.True(t, staff.CanAccessBrand(&acme))
	assert.False(t, staff.CanAccessBrand(&other))
	assert.True(t, staff.CanAccessBrand(nil))
	assert.True(t, admin.CanAccessBrand(&other))
	assert.True(t, (&Principal{Role: RoleStaff}).CanAccessBrand(&other))

	var none *Principal
	assert.False(t, none.HasRole(RoleOwner))
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier(Config{HMACSecret: testSecret})
	require.NoError(t, err)
	m := NewMiddleware(v, false)

	var seen *Principal
	handler := m.Authenticate(m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"bad scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"staff forbidden", "Bearer " + hsToken(t, claims("u", "staff", time.Hour)), http.StatusForbidden},
		{"admin allowed", "Bearer " + hsToken(t, claims("u", "admin", time.Hour)), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/webhooks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	require.NotNil(t, seen)
	assert.Equal(t, RoleAdmin, seen.Role)
}

func TestMiddleware_Disabled(t *testing.T) {
	m := NewMiddleware(nil, true)

	var seen *Principal
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, seen)
	assert.Equal(t, "anonymous", seen.UserID)
	assert.True(t, seen.IsAdmin())
}

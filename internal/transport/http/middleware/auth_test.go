package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, issuer, uid string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func callProtected(auth *AuthMiddleware, header string) (*httptest.ResponseRecorder, string) {
	var gotUID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID = UserID(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	auth.Require(next).ServeHTTP(rr, req)
	return rr, gotUID
}

func TestAuth_ValidToken(t *testing.T) {
	auth := NewAuth(testSecret, "storefront")
	tok := signToken(t, testSecret, "storefront", "u1", time.Now().Add(time.Hour))

	rr, uid := callProtected(auth, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", uid)
}

func TestAuth_Rejections(t *testing.T) {
	auth := NewAuth(testSecret, "storefront")

	cases := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"not_bearer", "Basic abc"},
		{"garbage_token", "Bearer not.a.jwt"},
		{"wrong_secret", "Bearer " + signToken(t, "other-secret", "storefront", "u1", time.Now().Add(time.Hour))},
		{"wrong_issuer", "Bearer " + signToken(t, testSecret, "someone-else", "u1", time.Now().Add(time.Hour))},
		{"expired", "Bearer " + signToken(t, testSecret, "storefront", "u1", time.Now().Add(-time.Hour))},
		{"missing_uid", "Bearer " + signToken(t, testSecret, "storefront", "", time.Now().Add(time.Hour))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, _ := callProtected(auth, tc.header)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Contains(t, rr.Body.String(), "unauthorized")
		})
	}
}

func TestAuth_EmptyIssuerSkipsIssuerCheck(t *testing.T) {
	auth := NewAuth(testSecret, "")
	tok := signToken(t, testSecret, "anything", "u1", time.Now().Add(time.Hour))

	rr, uid := callProtected(auth, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", uid)
}

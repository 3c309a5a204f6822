package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"recert/pkg/requestcontext"
	"recert/pkg/testutil"
)

type fakeValidator struct {
	claims *JWTClaims
	err    error
}

func (f fakeValidator) ValidateToken(string) (*JWTClaims, error) {
	return f.claims, f.err
}

func TestRequireAuth(t *testing.T) {
	logger := testutil.NewTestLogger()

	var gotReviewerID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReviewerID = requestcontext.ReviewerID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes claims into context", func(t *testing.T) {
		mw := RequireAuth(fakeValidator{claims: &JWTClaims{ReviewerID: "rev-1"}}, logger)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")

		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "rev-1", gotReviewerID)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		mw := RequireAuth(fakeValidator{claims: &JWTClaims{}}, logger)
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		mw := RequireAuth(fakeValidator{claims: &JWTClaims{}}, logger)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		mw := RequireAuth(fakeValidator{err: errors.New("expired")}, logger)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")

		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apothio/storefront-reco/internal/application/affinity"
	"github.com/apothio/storefront-reco/internal/application/reco"
	"github.com/apothio/storefront-reco/internal/config"
	"github.com/apothio/storefront-reco/internal/domain"
	"github.com/apothio/storefront-reco/internal/transport/http/handlers"
	authmw "github.com/apothio/storefront-reco/internal/transport/http/middleware"
)

type stubClock struct{}

func (stubClock) Now() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

type stubRepo struct{}

func (stubRepo) Insert(ctx context.Context, i *domain.Interaction) error {
	i.ID = "int_1"
	i.CreatedAt = time.Now().UTC()
	return nil
}

type stubProfiles struct{}

func (stubProfiles) GetProfile(ctx context.Context, userID string) (map[string]float64, error) {
	return map[string]float64{}, nil
}

type stubCatalog struct{}

func (stubCatalog) ListByTags(ctx context.Context, tags []string, limit int) ([]domain.Product, error) {
	return nil, nil
}

type stubRefresher struct{}

func (stubRefresher) RecomputeUser(ctx context.Context, userID string) (int, error) { return 0, nil }
func (stubRefresher) RecomputeAll(ctx context.Context) (affinity.Summary, error) {
	return affinity.Summary{}, nil
}

type stubInvalidator struct{}

func (stubInvalidator) Invalidate(ctx context.Context, userID string) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := reco.New(stubProfiles{}, stubCatalog{}, stubClock{}, time.Second)
	return New(
		handlers.NewInteractionsHandler(stubRepo{}, handlers.NoopPublisher{}),
		handlers.NewRecommendationsHandler(svc),
		handlers.NewRefreshHandler(stubRefresher{}, stubInvalidator{}),
		authmw.NewAuth("secret", "storefront"),
		&config.Config{RLEnabled: false},
	)
}

func bearer(t *testing.T) string {
	t.Helper()
	claims := authmw.Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "storefront",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestRouter_Routing(t *testing.T) {
	r := newTestRouter(t)

	t.Run("healthz_is_public", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("api_requires_auth", func(t *testing.T) {
		for _, route := range []struct{ method, path string }{
			{http.MethodPost, "/api/v1/interactions"},
			{http.MethodGet, "/api/v1/recommendations"},
			{http.MethodPost, "/api/v1/recommendations/refresh"},
		} {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(route.method, route.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code, route.path)
		}
	})

	t.Run("authorized_interaction", func(t *testing.T) {
		body := `{"user_id":"u1","event_type":"view","item_id":"p","item_type":"product"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/interactions", strings.NewReader(body))
		req.Header.Set("Authorization", bearer(t))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("authorized_recommendations", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?user_id=u1", nil)
		req.Header.Set("Authorization", bearer(t))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown_route_404", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("wrong_method_405", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/recommendations", nil)
		req.Header.Set("Authorization", bearer(t))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("security_headers_present", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.NotEmpty(t, rr.Header().Get("X-Content-Type-Options"))
	})
}

func TestRouter_RateLimit(t *testing.T) {
	svc := reco.New(stubProfiles{}, stubCatalog{}, stubClock{}, time.Second)
	r := New(
		handlers.NewInteractionsHandler(stubRepo{}, handlers.NoopPublisher{}),
		handlers.NewRecommendationsHandler(svc),
		handlers.NewRefreshHandler(stubRefresher{}, stubInvalidator{}),
		authmw.NewAuth("secret", "storefront"),
		&config.Config{RLEnabled: true, RLLimit: 2, RLWindow: time.Minute},
	)

	var last int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		last = rr.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

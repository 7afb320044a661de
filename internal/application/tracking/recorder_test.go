package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apothio/storefront-reco/internal/domain"
)

func TestHTTPRecorder_Record(t *testing.T) {
	var gotAuth string
	var gotBody recordBody

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/interactions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rec := NewHTTPRecorder(srv.Client(), srv.URL, "tok-123")
	err := rec.Record(context.Background(), domain.Interaction{
		UserID:    "u1",
		EventType: domain.EventClick,
		ItemID:    "prod-1",
		ItemType:  domain.ItemProduct,
		Tags:      []string{"ceramics"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "click", gotBody.EventType)
	assert.Equal(t, []string{"ceramics"}, gotBody.Tags)
}

func TestHTTPRecorder_NonCreatedStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	rec := NewHTTPRecorder(srv.Client(), srv.URL, "")
	err := rec.Record(context.Background(), domain.Interaction{
		UserID:    "u1",
		EventType: domain.EventView,
		ItemID:    "prod-1",
		ItemType:  domain.ItemProduct,
	})
	assert.ErrorContains(t, err, "unexpected status 401")
}

func TestTrackerWithHTTPRecorder(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rec := NewHTTPRecorder(srv.Client(), srv.URL, "tok")
	tr := New(Session{UserID: "u1"}, rec, fakeClock{}, 1)
	defer tr.Close()

	tr.Track(domain.EventPurchase, "prod-1", domain.ItemProduct, nil)
	tr.Flush()

	assert.Equal(t, 1, hits)
}

package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/apothio/storefront-reco/internal/domain"
)

// HTTPRecorder delivers interactions to the ingest endpoint over HTTP.
// It is the Recorder used by embedding applications; server-side code
// talks to the repository directly.
type HTTPRecorder struct {
	client  *http.Client
	baseURL string
	token   string
}

func NewHTTPRecorder(client *http.Client, baseURL, bearerToken string) *HTTPRecorder {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRecorder{client: client, baseURL: baseURL, token: bearerToken}
}

type recordBody struct {
	UserID    string   `json:"user_id"`
	EventType string   `json:"event_type"`
	ItemID    string   `json:"item_id"`
	ItemType  string   `json:"item_type"`
	Tags      []string `json:"tags,omitempty"`
}

func (r *HTTPRecorder) Record(ctx context.Context, i domain.Interaction) error {
	body, err := json.Marshal(recordBody{
		UserID:    i.UserID,
		EventType: string(i.EventType),
		ItemID:    i.ItemID,
		ItemType:  string(i.ItemType),
		Tags:      i.Tags,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/api/v1/interactions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("record interaction: unexpected status %d", resp.StatusCode)
	}
	return nil
}

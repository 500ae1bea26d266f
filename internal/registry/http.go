package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPResolver reads the sensor objects of a measurement object from the
// collector's REST endpoint.
type HTTPResolver struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

type sensorObject struct {
	ID         int `json:"id"`
	LocationID int `json:"sensorObjectLocationId"`
}

// NewHTTPResolver creates a resolver for url; a nil client uses http.DefaultClient.
func NewHTTPResolver(url string, client *http.Client, timeout time.Duration) *HTTPResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPResolver{url: url, client: client, timeout: timeout}
}

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context) (map[int]int, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sensor ids: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sensor ids: HTTP %d", resp.StatusCode)
	}

	var objects []sensorObject
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("decode sensor ids: %w", err)
	}
	ids := make(map[int]int, len(objects))
	for _, o := range objects {
		ids[o.LocationID] = o.ID
	}
	return ids, nil
}

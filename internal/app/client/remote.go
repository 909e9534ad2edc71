package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/exp/slog"

	"studiosync/internal/app/client/config"
	"studiosync/internal/domain/entity"
)

// RemoteClient talks to the sync server over HTTP. It implements
// sync.RemoteStore; every call carries the caller's bounded context.
type RemoteClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	userAgent string
}

func NewRemoteClient(cfg *config.Config, log *slog.Logger) *RemoteClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}
	return &RemoteClient{
		client:    client,
		log:       log.With("component", "remote_client"),
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "StudioSync-Client/1.0",
	}
}

func (c *RemoteClient) Upsert(ctx context.Context, env entity.Envelope) error {
	body, err := json.Marshal(upsertRequest{
		Payload:   env.Payload,
		UpdatedAt: env.UpdatedAt,
		Deleted:   env.Deleted,
	})
	if err != nil {
		return fmt.Errorf("encode upsert: %w", err)
	}

	path := fmt.Sprintf("/api/sync/entities/%s/%s", env.Type, url.PathEscape(env.ID))
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *RemoteClient) Delete(ctx context.Context, typ entity.Type, id string) error {
	path := fmt.Sprintf("/api/sync/entities/%s/%s", typ, url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *RemoteClient) ListUpdatedSince(ctx context.Context, typ entity.Type, since time.Time) ([]entity.Envelope, error) {
	path := fmt.Sprintf("/api/sync/entities/%s?since=%s", typ, url.QueryEscape(since.UTC().Format(time.RFC3339Nano)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var out struct {
		Rows []entity.Envelope `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Rows, nil
}

// Ping is the reachability probe; any transport error means offline.
func (c *RemoteClient) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

type upsertRequest struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
	Deleted   bool            `json:"deleted"`
}

func (c *RemoteClient) do(ctx context.Context, method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: server returned status %d", method, path, resp.StatusCode)
	}
	return nil
}

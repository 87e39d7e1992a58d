package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/config"
)

// ObjectStore abstracts the file storage backend. Implementations must treat
// object paths as opaque keys; original filenames are metadata only.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, content []byte, contentType string) error
	SignedURL(ctx context.Context, bucket, path string, expires time.Duration) (string, error)
	Remove(ctx context.Context, bucket string, paths []string) error
}

// Client talks to a Supabase-compatible storage HTTP API.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a storage client from configuration. A missing base URL is
// tolerated so the service can boot without storage in development; calls
// will fail with a clear error.
func NewClient(cfg config.StorageConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		logger.Warn("STORAGE_URL not provided; object storage calls will fail")
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Upload stores content at bucket/path. Existing objects are not overwritten.
func (c *Client) Upload(ctx context.Context, bucket, path string, content []byte, contentType string) error {
	endpoint, err := c.objectURL("object", bucket, path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return c.apiError("upload", resp)
	}
	return nil
}

// SignedURL creates a time-limited retrieval URL for bucket/path.
func (c *Client) SignedURL(ctx context.Context, bucket, path string, expires time.Duration) (string, error) {
	endpoint, err := c.objectURL("object/sign", bucket, path)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(map[string]int{"expiresIn": int(expires.Seconds())})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", c.apiError("sign", resp)
	}

	var payload struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.SignedURL == "" {
		return "", errors.New("storage: empty signed url in response")
	}
	return c.baseURL + "/storage/v1" + payload.SignedURL, nil
}

// Remove deletes the given objects from a bucket.
func (c *Client) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if c.baseURL == "" {
		return errors.New("storage: base url not configured")
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s", c.baseURL, url.PathEscape(bucket))
	body, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return c.apiError("remove", resp)
	}
	return nil
}

func (c *Client) objectURL(prefix, bucket, path string) (string, error) {
	if c.baseURL == "" {
		return "", errors.New("storage: base url not configured")
	}
	escaped := make([]string, 0, 4)
	for _, segment := range strings.Split(path, "/") {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return fmt.Sprintf("%s/storage/v1/%s/%s/%s",
		c.baseURL, prefix, url.PathEscape(bucket), strings.Join(escaped, "/")), nil
}

func (c *Client) apiError(op string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.logger.Warn("storage api error",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", detail),
	)
	return fmt.Errorf("storage %s failed: status %d", op, resp.StatusCode)
}

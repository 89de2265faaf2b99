// Package remote is the HTTP adapter of the remote progress store
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vocabtrainer/backend/internal/models"
	"go.uber.org/zap"
)

const (
	progressPath = "/api/v1/progress/"
	// maxErrorBody bounds the part of an error response kept for logging
	maxErrorBody = 512
)

// Config holds the client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client reads and writes progress documents on the progress server.
//
// 404 maps to models.ErrNotFound, 401 and 403 to models.ErrUnauthorized, and any other failure
// to models.ErrTransport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new progress server client
func NewClient(config Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Get fetches the progress document of the learner
func (c *Client) Get(ctx context.Context, identity models.Identity) (models.ProgressDocument, error) {
	resp, err := c.do(ctx, http.MethodGet, identity, nil)
	if err != nil {
		return models.ProgressDocument{}, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, http.MethodGet); err != nil {
		return models.ProgressDocument{}, err
	}

	var doc models.ProgressDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return models.ProgressDocument{}, fmt.Errorf("%w: failed to decode progress: %v", models.ErrTransport, err)
	}
	return doc, nil
}

// Put replaces the progress document of the learner
func (c *Client) Put(ctx context.Context, identity models.Identity, doc models.ProgressDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, identity, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.checkStatus(resp, http.MethodPut)
}

// Delete removes the progress document of the learner. A missing document is not an error.
func (c *Client) Delete(ctx context.Context, identity models.Identity) error {
	resp, err := c.do(ctx, http.MethodDelete, identity, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return c.checkStatus(resp, http.MethodDelete)
}

func (c *Client) do(ctx context.Context, method string, identity models.Identity, body []byte) (*http.Response, error) {
	if !identity.Authenticated() {
		return nil, fmt.Errorf("%w: identity has no credential", models.ErrUnauthorized)
	}

	endpoint := c.baseURL + progressPath + url.PathEscape(identity.ID)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", models.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+identity.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("progress request failed",
			zap.String("method", method),
			zap.String("learner_id", identity.ID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	return resp, nil
}

// checkStatus converts a non-2xx response into a sentinel error
func (c *Client) checkStatus(resp *http.Response, method string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	c.logger.Debug("progress server returned an error",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(snippet)))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d", models.ErrUnauthorized, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", models.ErrTransport, resp.StatusCode)
	}
}

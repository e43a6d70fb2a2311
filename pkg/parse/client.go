package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Client calls an external part-of-speech tagging service over HTTP. The
// service accepts raw text and returns tagged sentences; results are cached
// for the lifetime of the client since tagging the same text is deterministic
// within one service version.
type Client struct {
	baseURL    string
	httpClient *http.Client

	cache   map[string][]Sentence
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewClientParams contains configuration for creating a tagger Client.
type NewClientParams struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a tagger client for the service at BaseURL.
func NewClient(params NewClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      map[string][]Sentence{},
	}
}

type tagRequest struct {
	Text string `json:"text"`
}

type tagResponse struct {
	Sentences []Sentence `json:"sentences"`
}

// TagText sends text to the tagging service and returns the tagged sentences.
func (c *Client) TagText(ctx context.Context, text string) ([]Sentence, error) {
	c.cacheMu.RLock()
	if cached, ok := c.cache[text]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	result, err, _ := c.group.Do(text, func() (any, error) {
		c.cacheMu.RLock()
		if cached, ok := c.cache[text]; ok {
			c.cacheMu.RUnlock()
			return cached, nil
		}
		c.cacheMu.RUnlock()

		body, err := json.Marshal(tagRequest{Text: text})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tag", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to reach tagging service: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("tagging service returned status %d", resp.StatusCode)
		}

		var tagged tagResponse
		if err := json.NewDecoder(resp.Body).Decode(&tagged); err != nil {
			return nil, fmt.Errorf("failed to decode tagging response: %w", err)
		}

		c.cacheMu.Lock()
		c.cache[text] = tagged.Sentences
		c.cacheMu.Unlock()

		return tagged.Sentences, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]Sentence), nil
}

// Package wikipedia fetches encyclopedia pages through the MediaWiki API
// and reduces them to plain-text paragraphs.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/sync/singleflight"

	"github.com/scivar-kg/backend/pkg/logger"
)

const searchLimit = 5

// Page is the readable content of one encyclopedia article.
type Page struct {
	Title          string
	RedirectTitle  string
	Disambiguation bool
	Paragraphs     []string
}

// Client talks to a MediaWiki api.php endpoint. Fetched pages are cached for
// the client's lifetime and concurrent fetches of the same term are
// deduplicated.
type Client struct {
	apiURL     string
	httpClient *http.Client

	cache   map[string]Page
	cacheMu sync.RWMutex
	group   singleflight.Group
}

type NewClientParams struct {
	// APIURL is the api.php endpoint, e.g. https://en.wikipedia.org/w/api.php.
	APIURL string
	// Timeout per HTTP request. Defaults to 30 seconds.
	Timeout time.Duration
}

func NewClient(params NewClientParams) *Client {
	if params.Timeout <= 0 {
		params.Timeout = 30 * time.Second
	}
	return &Client{
		apiURL:     params.APIURL,
		httpClient: &http.Client{Timeout: params.Timeout},
		cache:      make(map[string]Page),
	}
}

type searchResult struct {
	PageID        int    `json:"pageid"`
	Title         string `json:"title"`
	RedirectTitle string `json:"redirecttitle"`
	SectionTitle  string `json:"sectiontitle"`
}

type searchResponse struct {
	Query struct {
		Search []searchResult `json:"search"`
	} `json:"query"`
}

type parseResponse struct {
	Parse struct {
		Title string `json:"title"`
		Text  struct {
			Content string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
}

// GetPage searches for term and returns the best matching article. Search
// results whose title, redirect title, or section title equals the term are
// preferred over the relevance order.
func (c *Client) GetPage(ctx context.Context, term string) (Page, error) {
	key := strings.ToLower(strings.TrimSpace(term))

	c.cacheMu.RLock()
	if page, ok := c.cache[key]; ok {
		c.cacheMu.RUnlock()
		return page, nil
	}
	c.cacheMu.RUnlock()

	result, err, _ := c.group.Do(key, func() (any, error) {
		page, err := c.fetchPage(ctx, key)
		if err != nil {
			return Page{}, err
		}
		c.cacheMu.Lock()
		c.cache[key] = page
		c.cacheMu.Unlock()
		return page, nil
	})
	if err != nil {
		return Page{}, err
	}
	return result.(Page), nil
}

func (c *Client) fetchPage(ctx context.Context, term string) (Page, error) {
	results, err := c.search(ctx, term)
	if err != nil {
		return Page{}, err
	}
	if len(results) == 0 {
		return Page{}, fmt.Errorf("no article found for %q", term)
	}
	chosen := chooseResult(results, term)

	html, title, err := c.parse(ctx, chosen.PageID)
	if err != nil {
		return Page{}, err
	}
	page := Page{
		Title:          title,
		RedirectTitle:  chosen.RedirectTitle,
		Disambiguation: strings.Contains(html, "disambigbox") || strings.Contains(html, "disambiguation-pages"),
	}
	if page.Disambiguation {
		return page, nil
	}

	article, err := readability.FromReader(strings.NewReader(html), &url.URL{})
	if err != nil {
		return Page{}, fmt.Errorf("failed to extract article text: %w", err)
	}
	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return Page{}, fmt.Errorf("failed to render article text: %w", err)
	}
	for _, block := range strings.Split(builder.String(), "\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			page.Paragraphs = append(page.Paragraphs, block)
		}
	}
	return page, nil
}

func (c *Client) search(ctx context.Context, term string) ([]searchResult, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", term)
	params.Set("srwhat", "text")
	params.Set("srsort", "relevance")
	params.Set("srlimit", fmt.Sprintf("%d", searchLimit))
	params.Set("srprop", "redirecttitle|sectiontitle")

	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("article search for %q failed: %w", term, err)
	}
	return resp.Query.Search, nil
}

func (c *Client) parse(ctx context.Context, pageID int) (html, title string, err error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("format", "json")
	params.Set("pageid", fmt.Sprintf("%d", pageID))
	params.Set("prop", "text")

	var resp parseResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", "", fmt.Errorf("fetching page %d failed: %w", pageID, err)
	}
	return resp.Parse.Text.Content, resp.Parse.Title, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// chooseResult prefers a result whose title, redirect title, or section
// title equals the search term, in that order, falling back to the first
// (most relevant) result.
func chooseResult(results []searchResult, term string) searchResult {
	match := func(s string) bool {
		return strings.EqualFold(strings.TrimSpace(s), term)
	}
	for _, r := range results {
		if match(r.Title) {
			return r
		}
	}
	for _, r := range results {
		if match(r.RedirectTitle) {
			return r
		}
	}
	for _, r := range results {
		if match(r.SectionTitle) {
			logger.Debug("using section title match", "term", term, "title", r.Title)
			return r
		}
	}
	return results[0]
}

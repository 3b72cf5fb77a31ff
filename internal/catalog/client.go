// Package catalog talks to the external movie catalog (a TMDB-compatible
// REST API).  Calls go through a circuit breaker so a failing provider is
// reported as an upstream error quickly instead of holding requests open.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/iliyamo/cinelog/internal/config"
	"github.com/iliyamo/cinelog/internal/model"
)

// Source is the provenance tag stored on imported movies.
const Source = "tmdb"

// maxSearchResults caps the hits returned by Search.
const maxSearchResults = 20

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("catalog api key is not configured")
	// ErrNotFound is returned when the provider has no movie with the id.
	ErrNotFound = errors.New("catalog movie not found")
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api error (%d): %s", e.Status, e.Message)
}

// SearchResult is one page of normalized search hits.
type SearchResult struct {
	Movies []model.ExternalMovie
	Total  int
}

// Client is the catalog API client.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	imageBase string
	language  string
	breaker   *breaker
}

// New builds a Client from configuration.
func New(cfg config.CatalogConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		imageBase: cfg.ImageBase,
		language:  cfg.Language,
		breaker:   newBreaker("tmdb-api"),
	}
}

// Source returns the provenance tag for movies fetched by this client.
func (c *Client) Source() string { return Source }

type movieJSON struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

func (m movieJSON) title() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

type searchJSON struct {
	Results      []movieJSON `json:"results"`
	TotalResults int         `json:"total_results"`
}

// Search queries the provider and returns at most 20 hits that have a title.
// Genre is left empty on search hits; only Detail carries genres.
func (c *Client) Search(ctx context.Context, query string) (SearchResult, error) {
	body, err := c.get(ctx, "search", "search/movie", url.Values{
		"query":         {query},
		"include_adult": {"false"},
		"page":          {"1"},
	})
	if err != nil {
		return SearchResult{}, err
	}
	var raw searchJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return SearchResult{}, fmt.Errorf("decode search response: %w", err)
	}

	out := SearchResult{Movies: make([]model.ExternalMovie, 0, maxSearchResults), Total: raw.TotalResults}
	for _, m := range raw.Results {
		if m.title() == "" {
			continue
		}
		if len(out.Movies) == maxSearchResults {
			break
		}
		out.Movies = append(out.Movies, model.ExternalMovie{
			ExternalID:  strconv.FormatInt(m.ID, 10),
			Title:       m.title(),
			Year:        yearOf(m.ReleaseDate),
			Description: m.Overview,
			PosterURL:   c.posterURL(m.PosterPath),
		})
	}
	return out, nil
}

// Detail fetches one movie and maps it to the columns of a new catalog row
// tagged with its provenance.
func (c *Client) Detail(ctx context.Context, externalID string) (model.NewMovie, error) {
	body, err := c.get(ctx, "detail", "movie/"+url.PathEscape(externalID), nil)
	if err != nil {
		return model.NewMovie{}, err
	}
	var raw movieJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.NewMovie{}, fmt.Errorf("decode detail response: %w", err)
	}

	names := make([]string, 0, len(raw.Genres))
	for _, g := range raw.Genres {
		names = append(names, g.Name)
	}
	src := Source
	id := externalID
	if raw.ID != 0 {
		id = strconv.FormatInt(raw.ID, 10)
	}
	return model.NewMovie{
		Title:          raw.title(),
		Year:           yearOf(raw.ReleaseDate),
		Genre:          strings.Join(names, ", "),
		Description:    raw.Overview,
		PosterURL:      c.posterURL(raw.PosterPath),
		ExternalSource: &src,
		ExternalID:     &id,
	}, nil
}

// get performs one GET through the breaker and returns the body of a 2xx
// response.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		observe(endpoint, "not_configured")
		return nil, ErrNotConfigured
	}
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)
	if c.language != "" {
		q.Set("language", c.language)
	}
	u := c.baseURL + "/" + path + "?" + q.Encode()

	body, err := c.breaker.execute(func() ([]byte, error) {
		return c.do(ctx, u)
	})
	switch {
	case err == nil:
		observe(endpoint, "success")
	case errors.Is(err, ErrNotFound):
		observe(endpoint, "not_found")
	default:
		observe(endpoint, "failure")
	}
	return body, err
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.Unmarshal(body, &e)
		if e.StatusMessage == "" {
			e.StatusMessage = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: e.StatusMessage}
	}
	return body, nil
}

func (c *Client) posterURL(path string) *string {
	if path == "" {
		return nil
	}
	u := c.imageBase + path
	return &u
}

// yearOf parses the leading four digits of a YYYY-MM-DD release date.
func yearOf(releaseDate string) *int {
	if len(releaseDate) < 4 {
		return nil
	}
	y, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return nil
	}
	return &y
}

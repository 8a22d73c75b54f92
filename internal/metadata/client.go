package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reeltier/reeltier/internal/domain"
)

// ErrNotFound is returned when upstream cannot find the requested title.
var ErrNotFound = errors.New("metadata: not found")

// Client defines the contract for the external title-metadata service. The
// lookup only populates denormalized display fields and never affects score
// math.
type Client interface {
	Lookup(ctx context.Context, tmdbID int64, mediaType domain.MediaType) (*domain.MovieDetails, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a new HTTP-backed metadata client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse metadata url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Lookup retrieves display metadata for a title.
func (c *HTTPClient) Lookup(ctx context.Context, tmdbID int64, mediaType domain.MediaType) (*domain.MovieDetails, error) {
	rel := &url.URL{Path: "/titles/" + strconv.FormatInt(tmdbID, 10)}
	q := rel.Query()
	q.Set("mediaType", string(mediaType))
	rel.RawQuery = q.Encode()
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode metadata response: %w", err)
		}
		return convertToDetails(tmdbID, payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Printf("metadata: unexpected status %d for title %d", resp.StatusCode, tmdbID)
		return nil, fmt.Errorf("metadata: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	Title       string   `json:"title"`
	Name        string   `json:"name"`
	PosterPath  *string  `json:"posterPath"`
	Genres      []string `json:"genres"`
	ReleaseDate *string  `json:"releaseDate"`
}

func convertToDetails(tmdbID int64, payload apiResponse) *domain.MovieDetails {
	// Series payloads carry the display name under "name".
	title := payload.Title
	if title == "" {
		title = payload.Name
	}

	details := &domain.MovieDetails{
		TmdbID:     tmdbID,
		Title:      title,
		PosterPath: payload.PosterPath,
		Genres:     payload.Genres,
	}
	if payload.ReleaseDate != nil {
		if parsed, err := time.Parse("2006-01-02", *payload.ReleaseDate); err == nil {
			details.ReleaseDate = &parsed
		}
	}
	return details
}

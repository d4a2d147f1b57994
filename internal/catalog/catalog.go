// Package catalog is the thin client for the external music-file provider.
// The core never inspects file bytes or MIME types; it only ever carries
// the opaque {id, name, duration?} triple into session state.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jamshare/backend/internal/store"
)

// Folder is a browsable container in the provider's hierarchy.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// File is a playable entry as reported by the provider.
type File struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"mimeType,omitempty"`
	DurationMs *int64 `json:"durationMs,omitempty"`
}

// Listing is the contents of one folder.
type Listing struct {
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

// StreamInfo locates the audio bytes for a file. Delivery itself is the
// provider's concern.
type StreamInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size,omitempty"`
}

// Song converts a catalog file into the opaque value sessions store.
func (f File) Song() store.Song {
	return store.Song{ID: f.ID, Name: f.Name, DurationMs: f.DurationMs}
}

// Client talks to the provider's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the provider at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListFiles returns the folders and music files under folderID. An empty
// folderID lists the provider's root.
func (c *Client) ListFiles(ctx context.Context, folderID string) (*Listing, error) {
	path := "/files"
	if folderID != "" {
		path += "/" + url.PathEscape(folderID)
	}
	var listing Listing
	if err := c.getJSON(ctx, path, nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Search finds music files matching the query, optionally scoped to a
// folder.
func (c *Client) Search(ctx context.Context, query, folderID string) ([]File, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	params := url.Values{}
	params.Set("q", query)
	if folderID != "" {
		params.Set("folderId", folderID)
	}
	var result struct {
		Files []File `json:"files"`
	}
	if err := c.getJSON(ctx, "/search", params, &result); err != nil {
		return nil, err
	}
	return result.Files, nil
}

// StreamURL resolves the streaming location for a file.
func (c *Client) StreamURL(ctx context.Context, fileID string) (*StreamInfo, error) {
	if fileID == "" {
		return nil, fmt.Errorf("file id is required")
	}
	var info StreamInfo
	if err := c.getJSON(ctx, "/stream/"+url.PathEscape(fileID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("catalog returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}

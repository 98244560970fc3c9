// Package jellyfin talks to a Jellyfin server: item queries, playback
// info negotiation, media segments, and playstate reporting.
package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
)

const (
	clientName    = "Cadenza"
	clientVersion = "0.1"
)

// Options configures a Client. URL, Token and UserID are required;
// DeviceID should be stable across runs so the server recognizes the
// device.
type Options struct {
	URL        string
	Token      string
	UserID     string
	DeviceID   string
	DeviceName string
	Log        zerolog.Logger
}

// Client provides access to the Jellyfin API. It implements
// catalog.Service and catalog.Reporter.
type Client struct {
	baseURL    string
	token      string
	userID     string
	deviceID   string
	deviceName string
	httpClient *http.Client
	log        zerolog.Logger
}

var (
	_ catalog.Service  = (*Client)(nil)
	_ catalog.Reporter = (*Client)(nil)
)

// NewClient creates a new Jellyfin API client.
func NewClient(opts Options) *Client {
	name := opts.DeviceName
	if name == "" {
		name = clientName
	}
	return &Client{
		baseURL:    trimSlash(opts.URL),
		token:      opts.Token,
		userID:     opts.UserID,
		deviceID:   opts.DeviceID,
		deviceName: name,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        opts.Log,
	}
}

func trimSlash(u string) string {
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf(
		`MediaBrowser Token=%q, Client=%q, Device=%q, DeviceId=%q, Version=%q`,
		c.token, clientName, c.deviceName, c.deviceID, clientVersion))
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// postJSON performs a POST with a JSON body. out may be nil for
// endpoints that return no content.
func (c *Client) postJSON(ctx context.Context, path string, params url.Values, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API status %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// ImageURL builds the primary artwork URL for an item, or "" when the
// item carries no image tag.
func (c *Client) ImageURL(item catalog.PlayableItem, maxWidth int) string {
	if item.ImageTag == "" {
		return ""
	}
	params := url.Values{}
	params.Set("tag", item.ImageTag)
	if maxWidth > 0 {
		params.Set("maxWidth", strconv.Itoa(maxWidth))
	}
	return fmt.Sprintf("%s/Items/%s/Images/Primary?%s", c.baseURL, item.ID, params.Encode())
}

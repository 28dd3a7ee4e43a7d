// Package client talks to a scene server. Client implements
// store.SceneStore, so an editing session can save to a remote server the
// same way it saves to a local backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ritzau/dataflows/pkg/graph"
	"github.com/ritzau/dataflows/pkg/logging"
	"github.com/ritzau/dataflows/pkg/model"
	"github.com/ritzau/dataflows/pkg/scene"
)

// DefaultEndpoint is used when no endpoint is configured
const DefaultEndpoint = "http://127.0.0.1:8080"

// Client is the scene server client
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client. endpoint defaults to DefaultEndpoint if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Endpoint returns the server base URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// do sends a request and returns the response body for 2xx responses.
// Transport failures wrap ErrNetwork; 404 maps to ErrSceneNotFound and
// 400 or 413 to ErrInvalidScene.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := logging.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	req.Header.Set("X-Request-ID", requestID)

	logging.TraceContext(ctx, "sending request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, model.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w: %s", method, path, model.ErrSceneNotFound, strings.TrimSpace(string(data)))
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusRequestEntityTooLarge:
		return nil, fmt.Errorf("%s %s: %w: %s", method, path, model.ErrInvalidScene, strings.TrimSpace(string(data)))
	}
	return nil, fmt.Errorf("%s %s: %w: unexpected status %d", method, path, model.ErrNetwork, resp.StatusCode)
}

func scenePath(id int) string {
	return "/scenes/" + strconv.Itoa(id)
}

// Fetch downloads one scene
func (c *Client) Fetch(ctx context.Context, id int) (*scene.Scene, error) {
	data, err := c.do(ctx, http.MethodGet, scenePath(id), nil)
	if err != nil {
		return nil, err
	}
	s, err := scene.Deserialize(data)
	if err != nil {
		return nil, err
	}
	s.ID = id
	return s, nil
}

// FetchAll downloads every scene
func (c *Client) FetchAll(ctx context.Context) ([]*scene.Scene, error) {
	data, err := c.do(ctx, http.MethodGet, "/scenes/", nil)
	if err != nil {
		return nil, err
	}
	return scene.DeserializeList(data)
}

// Save uploads a scene: POST for new scenes, PUT otherwise
func (c *Client) Save(ctx context.Context, s *scene.Scene, isNew bool) (int, error) {
	payload, err := s.Marshal()
	if err != nil {
		return 0, err
	}

	if !isNew {
		if _, err := c.do(ctx, http.MethodPut, scenePath(s.ID), payload); err != nil {
			return 0, err
		}
		return s.ID, nil
	}

	data, err := c.do(ctx, http.MethodPost, "/scenes/", payload)
	if err != nil {
		return 0, err
	}
	created, err := scene.Deserialize(data)
	if err != nil {
		return 0, err
	}
	if created.ID == scene.NoID {
		return 0, fmt.Errorf("%w: server did not assign an id", model.ErrInvalidScene)
	}
	return created.ID, nil
}

// Delete removes a scene
func (c *Client) Delete(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, scenePath(id), nil)
	return err
}

// Summary fetches the topology summary of a scene
func (c *Client) Summary(ctx context.Context, id int) (graph.Summary, error) {
	data, err := c.do(ctx, http.MethodGet, scenePath(id)+"/summary", nil)
	if err != nil {
		return graph.Summary{}, err
	}
	var summary graph.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return graph.Summary{}, fmt.Errorf("failed to decode summary: %w", err)
	}
	return summary, nil
}

// Path asks the server for the shortest route between two devices
func (c *Client) Path(ctx context.Context, id, from, to int) (graph.Route, error) {
	q := url.Values{}
	q.Set("from", strconv.Itoa(from))
	q.Set("to", strconv.Itoa(to))

	data, err := c.do(ctx, http.MethodGet, scenePath(id)+"/path?"+q.Encode(), nil)
	if err != nil {
		return graph.Route{}, err
	}
	var route graph.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return graph.Route{}, fmt.Errorf("failed to decode route: %w", err)
	}
	return route, nil
}

// Ping checks the health of the server
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

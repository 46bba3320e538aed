package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PlayerCommands is the transport-command surface the engine consumes.
type PlayerCommands interface {
	State(ctx context.Context, userID int) (*PlayerState, error)
	PlayTrack(ctx context.Context, userID int, trackID string) (*PlayerState, error)
	PlayFromSearch(ctx context.Context, userID int, trackID, searchTerm string, indexInSearch int) (*PlayerState, error)
	Play(ctx context.Context, userID int) (*PlayerState, error)
	Pause(ctx context.Context, userID int) (*PlayerState, error)
	Next(ctx context.Context, userID int) (*PlayerState, error)
	Previous(ctx context.Context, userID int) (*PlayerState, error)
	SetVolume(ctx context.Context, userID, volume int) (*PlayerState, error)
	SetPosition(ctx context.Context, userID int, positionSeconds int) (*PlayerState, error)
	ToggleFavorite(ctx context.Context, userID int) (*FavoriteResult, error)
}

// QueueCommands is the queue-command surface the engine consumes.
type QueueCommands interface {
	Queue(ctx context.Context, userID int) (*QueueSnapshot, error)
	Append(ctx context.Context, userID int, trackIDs []string, playNow bool) (*QueueResult, error)
	RemoveItem(ctx context.Context, userID, index int) (*QueueResult, error)
	Clear(ctx context.Context, userID int) error
	Reorder(ctx context.Context, userID, fromIndex, toIndex int) (*QueueResult, error)
	SetMode(ctx context.Context, userID int, mode PlaybackMode) (*QueueResult, error)
}

// Client talks to the backend player API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Verify Client implements both command surfaces at compile time.
var (
	_ PlayerCommands = (*Client)(nil)
	_ QueueCommands  = (*Client)(nil)
)

// NewClient creates a player API client. The transport is expected to
// attach authorization; the client itself never sees credentials.
func NewClient(baseURL string, transport http.RoundTripper) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// BaseURL returns the configured API base URL. Used to resolve relative
// playback URLs delivered by the backend.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// State fetches the current authoritative player state.
func (c *Client) State(ctx context.Context, userID int) (*PlayerState, error) {
	return c.getState(ctx, fmt.Sprintf("%s/api/v1/player/state/%d", c.baseURL, userID))
}

// PlayTrack asks the backend to start playing a track. The response is
// the initial state; the resolved stream URL typically arrives later via
// the READY push event.
func (c *Client) PlayTrack(ctx context.Context, userID int, trackID string) (*PlayerState, error) {
	body := map[string]any{"userId": userID, "trackId": trackID}
	return c.postState(ctx, c.baseURL+"/api/v1/player/play", body)
}

// PlayFromSearch starts playback of a track within a search-result
// context so the backend can build the queue from the remaining results.
func (c *Client) PlayFromSearch(ctx context.Context, userID int, trackID, searchTerm string, indexInSearch int) (*PlayerState, error) {
	body := map[string]any{
		"userId":        userID,
		"trackId":       trackID,
		"searchTerm":    searchTerm,
		"indexInSearch": indexInSearch,
	}
	return c.postState(ctx, c.baseURL+"/api/v1/player/play/from-search", body)
}

// Play resumes server-side playback.
func (c *Client) Play(ctx context.Context, userID int) (*PlayerState, error) {
	return c.transport(ctx, userID, "play")
}

// Pause pauses server-side playback.
func (c *Client) Pause(ctx context.Context, userID int) (*PlayerState, error) {
	return c.transport(ctx, userID, "pause")
}

// Next advances to the next queue entry.
func (c *Client) Next(ctx context.Context, userID int) (*PlayerState, error) {
	return c.transport(ctx, userID, "next")
}

// Previous moves back to the previous queue entry.
func (c *Client) Previous(ctx context.Context, userID int) (*PlayerState, error) {
	return c.transport(ctx, userID, "previous")
}

func (c *Client) transport(ctx context.Context, userID int, action string) (*PlayerState, error) {
	body := map[string]any{"userId": userID}
	return c.postState(ctx, c.baseURL+"/api/v1/player/transport/"+action, body)
}

// SetVolume persists the session volume (0-100).
func (c *Client) SetVolume(ctx context.Context, userID, volume int) (*PlayerState, error) {
	body := map[string]any{"userId": userID, "volume": volume}
	return c.postState(ctx, c.baseURL+"/api/v1/player/volume", body)
}

// SetPosition reports the playback position to the backend.
func (c *Client) SetPosition(ctx context.Context, userID, positionSeconds int) (*PlayerState, error) {
	body := map[string]any{"userId": userID, "positionSeconds": positionSeconds}
	return c.postState(ctx, c.baseURL+"/api/v1/player/position", body)
}

// ToggleFavorite flips the favorite flag of the current track.
func (c *Client) ToggleFavorite(ctx context.Context, userID int) (*FavoriteResult, error) {
	body := map[string]any{"userId": userID}
	var result FavoriteResult
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/v1/player/favorite/toggle", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getState(ctx context.Context, url string) (*PlayerState, error) {
	var state PlayerState
	if err := c.do(ctx, http.MethodGet, url, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) postState(ctx context.Context, url string, body any) (*PlayerState, error) {
	var state PlayerState
	if err := c.do(ctx, http.MethodPost, url, body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
)

// Queue fetches the current server-side queue.
func (c *Client) Queue(ctx context.Context, userID int) (*QueueSnapshot, error) {
	var queue QueueSnapshot
	url := fmt.Sprintf("%s/api/v1/player/queue/%d", c.baseURL, userID)
	if err := c.do(ctx, http.MethodGet, url, nil, &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

// Append adds tracks to the end of the queue. With playNow set the first
// added track starts playing immediately.
func (c *Client) Append(ctx context.Context, userID int, trackIDs []string, playNow bool) (*QueueResult, error) {
	body := map[string]any{"userId": userID, "trackIds": trackIDs, "playNow": playNow}
	return c.queueCommand(ctx, http.MethodPost, c.baseURL+"/api/v1/player/queue/append", body)
}

// RemoveItem removes the queue entry at index.
func (c *Client) RemoveItem(ctx context.Context, userID, index int) (*QueueResult, error) {
	body := map[string]any{"userId": userID, "index": index}
	return c.queueCommand(ctx, http.MethodDelete, c.baseURL+"/api/v1/player/queue/item", body)
}

// Clear empties the queue. Unlike the other queue commands the response
// carries no queue payload.
func (c *Client) Clear(ctx context.Context, userID int) error {
	body := map[string]any{"userId": userID}
	return c.do(ctx, http.MethodDelete, c.baseURL+"/api/v1/player/queue", body, nil)
}

// Reorder moves the entry at fromIndex to toIndex.
func (c *Client) Reorder(ctx context.Context, userID, fromIndex, toIndex int) (*QueueResult, error) {
	body := map[string]any{"userId": userID, "fromIndex": fromIndex, "toIndex": toIndex}
	return c.queueCommand(ctx, http.MethodPost, c.baseURL+"/api/v1/player/queue/reorder", body)
}

// SetMode changes the playback mode of the queue.
func (c *Client) SetMode(ctx context.Context, userID int, mode PlaybackMode) (*QueueResult, error) {
	body := map[string]any{"userId": userID, "mode": mode}
	return c.queueCommand(ctx, http.MethodPost, c.baseURL+"/api/v1/player/queue/mode", body)
}

func (c *Client) queueCommand(ctx context.Context, method, url string, body any) (*QueueResult, error) {
	var result QueueResult
	if err := c.do(ctx, method, url, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Package chat adapts the chat platform: a REST client for message
// CRUD and a websocket gateway for incoming interaction events.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lolvely/blibot/internal/core"
	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/render"
)

// Client implements core.ChatClient over the platform's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type wireMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

func (c *Client) FetchMessage(ctx context.Context, channel domain.ChannelID, id domain.MessageID) (core.Message, error) {
	var w wireMessage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/channels/%s/messages/%s", channel, id), nil, &w)
	if err != nil {
		return core.Message{}, err
	}
	return core.Message{ID: domain.MessageID(w.ID), Channel: domain.ChannelID(w.ChannelID)}, nil
}

type announcePayload struct {
	Embed      render.Embed `json:"embed"`
	Components []Component  `json:"components,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, channel domain.ChannelID, view render.Embed) (core.Message, error) {
	payload := announcePayload{Embed: view, Components: AnnouncementButtons()}
	var w wireMessage
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/channels/%s/messages", channel), payload, &w)
	if err != nil {
		return core.Message{}, err
	}
	return core.Message{ID: domain.MessageID(w.ID), Channel: domain.ChannelID(w.ChannelID)}, nil
}

func (c *Client) EditMessage(ctx context.Context, msg core.Message, view render.Embed) error {
	payload := announcePayload{Embed: view, Components: AnnouncementButtons()}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/channels/%s/messages/%s", msg.Channel, msg.ID), payload, nil)
}

func (c *Client) Notify(ctx context.Context, user domain.UserID, text string) error {
	payload := map[string]string{"content": text}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/users/%s/notices", user), payload, nil)
}

// RespondPanel answers an interaction with the private settings panel.
func (c *Client) RespondPanel(ctx context.Context, interactionID string, content string, components []Component) error {
	payload := struct {
		Content    string      `json:"content"`
		Components []Component `json:"components,omitempty"`
		Ephemeral  bool        `json:"ephemeral"`
	}{Content: content, Components: components, Ephemeral: true}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/interactions/%s/respond", interactionID), payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, core.ErrMessageNotFound)
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

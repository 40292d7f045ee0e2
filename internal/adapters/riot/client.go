// Package riot looks up riot accounts for registration verification.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lolvely/blibot/internal/app"
)

// Client implements app.AccountVerifier against the account-v1 API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type accountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

func (c *Client) Verify(ctx context.Context, gameName, tagLine string) (app.VerifiedAccount, error) {
	endpoint := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.baseURL, url.PathEscape(gameName), url.PathEscape(tagLine))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return app.VerifiedAccount{}, fmt.Errorf("build account lookup: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return app.VerifiedAccount{}, fmt.Errorf("account lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return app.VerifiedAccount{}, fmt.Errorf("%s#%s: %w", gameName, tagLine, app.ErrAccountNotFound)
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return app.VerifiedAccount{}, fmt.Errorf("account lookup status %d: %s", resp.StatusCode, raw)
	}

	var body accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return app.VerifiedAccount{}, fmt.Errorf("decode account lookup: %w", err)
	}
	return app.VerifiedAccount{GameName: body.GameName, TagLine: body.TagLine, PUUID: body.PUUID}, nil
}

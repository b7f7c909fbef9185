package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	lichessBaseURL = "https://lichess.org"

	// The game export endpoint holds the connection open while it streams an
	// account's full history, so the stream client gets a much longer timeout
	// than the one used for token and account lookups.
	lichessStreamTimeout = 300 * time.Second
)

// LichessTokenResponse is the body returned by the OAuth token endpoint.
type LichessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   *int   `json:"expires_in,omitempty"`
}

// LichessAccount is the subset of the account endpoint the system relies on.
// Raw keeps the full payload for the profile snapshot.
type LichessAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Raw      json.RawMessage
}

// LichessClient talks to the Lichess HTTP API.
type LichessClient struct {
	baseURL      string
	client       *http.Client
	streamClient *http.Client
}

// NewLichessClient constructs a LichessClient.
func NewLichessClient(client *http.Client) *LichessClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &LichessClient{
		baseURL:      lichessBaseURL,
		client:       client,
		streamClient: &http.Client{Timeout: lichessStreamTimeout},
	}
}

// AuthorizeURL builds the Lichess OAuth authorization redirect for the PKCE flow.
func (c *LichessClient) AuthorizeURL(redirectURI, challenge, state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", os.Getenv("LICHESS_CLIENT_ID"))
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", "preference:read")
	params.Set("code_challenge_method", "S256")
	params.Set("code_challenge", challenge)
	params.Set("state", state)
	return c.baseURL + "/oauth?" + params.Encode()
}

// ExchangeCode trades an authorization code plus PKCE verifier for a bearer token.
func (c *LichessClient) ExchangeCode(ctx context.Context, code, verifier, redirectURI string) (*LichessTokenResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":    "authorization_code",
		"redirect_uri":  redirectURI,
		"client_id":     os.Getenv("LICHESS_CLIENT_ID"),
		"code":          code,
		"code_verifier": verifier,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/token", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("lichess token exchange failed: status %d body %s", resp.StatusCode, string(body))
	}

	var token LichessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("lichess token exchange returned no access_token")
	}
	return &token, nil
}

// GetAccount fetches the authenticated user's Lichess account.
func (c *LichessClient) GetAccount(ctx context.Context, accessToken string) (*LichessAccount, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/account", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("lichess account lookup failed: status %d body %s", resp.StatusCode, string(body))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var account LichessAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decode account response: %w", err)
	}
	if account.ID == "" {
		return nil, fmt.Errorf("lichess account response missing id")
	}
	account.Raw = raw
	return &account, nil
}

// StreamGames opens the NDJSON game export for one account. The caller owns
// the returned body; it is a live stream and cannot be replayed once read.
// maxGames caps the number of records requested when greater than zero.
func (c *LichessClient) StreamGames(ctx context.Context, username, accessToken string, maxGames int) (io.ReadCloser, error) {
	reqURL, err := url.Parse(fmt.Sprintf("%s/api/games/user/%s", c.baseURL, url.PathEscape(username)))
	if err != nil {
		return nil, err
	}

	// Compact export: no move text, clock or eval detail.
	query := reqURL.Query()
	query.Set("pgnInJson", "false")
	query.Set("clocks", "false")
	query.Set("evals", "false")
	query.Set("opening", "false")
	if maxGames > 0 {
		query.Set("max", strconv.Itoa(maxGames))
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("lichess api error: status %d body %s", resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

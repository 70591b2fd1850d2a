// ABOUTME: HTTP client for agent profile metadata
// ABOUTME: GET {api}/agent-data/{id} decoded into a Profile
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Position is where the widget is anchored on screen
type Position string

const (
	PositionRight  Position = "right"
	PositionLeft   Position = "left"
	PositionCenter Position = "center"
)

// Profile is the agent metadata shown by the widget
type Profile struct {
	AvatarURL    string   `json:"avatarUrl"`
	DisplayName  string   `json:"displayName"`
	IntroMessage string   `json:"introMessage"`
	CalendlyURL  *string  `json:"calendlyUrl"`
	Position     Position `json:"position"`
}

// Client fetches agent profiles
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the agent API at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchProfile loads the profile for agentID
func (c *Client) FetchProfile(ctx context.Context, agentID string) (*Profile, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	endpoint := fmt.Sprintf("%s/agent-data/%s", c.baseURL, url.PathEscape(agentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log.Printf("Fetching agent data: %s", endpoint)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent data request failed: HTTP %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse agent data: %w", err)
	}

	switch profile.Position {
	case PositionRight, PositionLeft, PositionCenter:
	case "":
		profile.Position = PositionRight
	default:
		log.Printf("Unknown widget position %q, using right", profile.Position)
		profile.Position = PositionRight
	}

	return &profile, nil
}

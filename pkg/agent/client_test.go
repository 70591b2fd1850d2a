// ABOUTME: Tests for the agent profile client
// ABOUTME: Uses httptest to serve agent-data responses
package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agent-data/agent-42" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"avatarUrl": "https://cdn.example.com/a.png",
			"displayName": "Ada",
			"introMessage": "Hi, ask me anything",
			"calendlyUrl": "https://calendly.com/ada",
			"position": "left"
		}`))
	}))
	defer server.Close()

	profile, err := NewClient(server.URL+"/").FetchProfile(context.Background(), "agent-42")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if profile.DisplayName != "Ada" {
		t.Errorf("expected display name Ada, got %q", profile.DisplayName)
	}
	if profile.IntroMessage != "Hi, ask me anything" {
		t.Errorf("unexpected intro message: %q", profile.IntroMessage)
	}
	if profile.CalendlyURL == nil || *profile.CalendlyURL != "https://calendly.com/ada" {
		t.Errorf("unexpected calendly url: %v", profile.CalendlyURL)
	}
	if profile.Position != PositionLeft {
		t.Errorf("expected left, got %q", profile.Position)
	}
}

func TestFetchProfileDefaults(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Position
	}{
		{name: "missing position", body: `{"displayName":"A","calendlyUrl":null}`, want: PositionRight},
		{name: "unknown position", body: `{"displayName":"A","position":"top"}`, want: PositionRight},
		{name: "center", body: `{"displayName":"A","position":"center"}`, want: PositionCenter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			profile, err := NewClient(server.URL).FetchProfile(context.Background(), "a")
			if err != nil {
				t.Fatalf("fetch failed: %v", err)
			}
			if profile.Position != tt.want {
				t.Errorf("expected %q, got %q", tt.want, profile.Position)
			}
			if profile.CalendlyURL != nil {
				t.Errorf("expected nil calendly url, got %q", *profile.CalendlyURL)
			}
		})
	}
}

func TestFetchProfileErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		agentID string
		errPart string
	}{
		{name: "not found", status: http.StatusNotFound, agentID: "a", errPart: "HTTP 404"},
		{name: "bad json", status: http.StatusOK, body: `{`, agentID: "a", errPart: "parse"},
		{name: "empty id", status: http.StatusOK, agentID: "", errPart: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).FetchProfile(context.Background(), tt.agentID)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("expected error containing %q, got %v", tt.errPart, err)
			}
		})
	}
}

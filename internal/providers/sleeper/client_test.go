package sleeper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sleeper-players-service/internal/providers"
)

const samplePlayersBody = `{
	"4046": {
		"player_id": "4046",
		"first_name": "Patrick",
		"last_name": "Mahomes",
		"full_name": "Patrick Mahomes",
		"position": "QB",
		"fantasy_positions": ["QB"],
		"team": "KC",
		"age": 29,
		"height": "74",
		"weight": "225",
		"years_exp": 7,
		"college": "Texas Tech",
		"number": 15,
		"status": "Active",
		"injury_status": null
	},
	"KC": {
		"player_id": "KC",
		"first_name": "Kansas City",
		"last_name": "Chiefs",
		"position": "DEF",
		"fantasy_positions": ["DEF"],
		"team": "KC",
		"number": null
	},
	"9999": {
		"first_name": "No",
		"last_name": "Id",
		"position": "WR",
		"age": "31",
		"number": "88",
		"weight": 200
	}
}`

func TestFetchPlayersHitsAPIAndMapsResponse(t *testing.T) {
	var capturedPath, capturedAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, samplePlayersBody)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1/"})
	dict, err := client.FetchPlayers(context.Background(), " NFL ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if capturedPath != "/v1/players/nfl" {
		t.Fatalf("unexpected path %s", capturedPath)
	}
	if capturedAccept != "application/json" {
		t.Fatalf("expected json accept header, got %q", capturedAccept)
	}
	if dict.Len() != 3 {
		t.Fatalf("expected 3 players, got %d", dict.Len())
	}

	mahomes := dict["4046"]
	if mahomes.FullName != "Patrick Mahomes" || mahomes.Team != "KC" || mahomes.Age != 29 || mahomes.Number != 15 {
		t.Fatalf("unexpected mapping %+v", mahomes)
	}
	if mahomes.InjuryStatus != "" || len(mahomes.FantasyPositions) != 1 {
		t.Fatalf("unexpected optional fields %+v", mahomes)
	}

	def := dict["KC"]
	if def.FullName != "" || def.Position != "DEF" || def.Number != 0 {
		t.Fatalf("unexpected defense mapping %+v", def)
	}

	noID, ok := dict["9999"]
	if !ok || noID.ID != "9999" {
		t.Fatalf("expected map key to fill missing id, got %+v", noID)
	}
	if noID.Age != 31 || noID.Number != 88 || noID.Weight != "200" {
		t.Fatalf("expected tolerant numeric decoding, got %+v", noID)
	}
}

func TestFetchPlayersDefaultsSport(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	dict, err := NewClient(Config{BaseURL: srv.URL}).FetchPlayers(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if capturedPath != "/players/nfl" {
		t.Fatalf("expected default sport path, got %s", capturedPath)
	}
	if dict.Len() != 0 {
		t.Fatalf("expected empty dictionary")
	}
}

func TestFetchPlayersHandlesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).FetchPlayers(context.Background(), "nfl")
	rlErr, ok := providers.AsRateLimitError(err)
	if !ok {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if rlErr.RetryAfter != 7*time.Second || rlErr.Provider != "sleeper" {
		t.Fatalf("unexpected rate limit error %+v", rlErr)
	}
}

func TestFetchPlayersHandlesNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, " upstream down ")
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).FetchPlayers(context.Background(), "nfl")
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway || statusErr.Body != "upstream down" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestFetchPlayersHandlesDecodeError(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		_ = req
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("{bad json")),
			Header:     make(http.Header),
		}, nil
	})

	client := NewClient(Config{BaseURL: "http://example.com", HTTPClient: &http.Client{Transport: rt}})
	if _, err := client.FetchPlayers(context.Background(), "nfl"); err == nil || !strings.Contains(err.Error(), "decode players") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestFetchPlayersWrapsTransportError(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	client := NewClient(Config{BaseURL: "http://example.com", HTTPClient: &http.Client{Transport: rt}})
	if _, err := client.FetchPlayers(context.Background(), "nfl"); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewClientSetsDefaultHTTPClient(t *testing.T) {
	c := NewClient(Config{})
	httpClient, ok := c.httpClient.(*http.Client)
	if !ok {
		t.Fatalf("expected default http client")
	}
	if httpClient.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected default timeout, got %s", httpClient.Timeout)
	}
	if c.baseURL != defaultBaseURL {
		t.Fatalf("expected default base url, got %s", c.baseURL)
	}
}

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestMapPlayersKeysByResponseKey(t *testing.T) {
	dict := mapPlayers(playersResponse{
		"4046": {PlayerID: "stale-4046", FullName: "Patrick Mahomes"},
		" ":    {PlayerID: "6794", FullName: "Justin Jefferson"},
		"":     {FullName: "Nobody"},
	})
	if len(dict) != 2 {
		t.Fatalf("expected 2 players, got %d", len(dict))
	}
	if p, ok := dict["4046"]; !ok || p.ID != "4046" {
		t.Fatalf("expected player keyed and identified by map key, got %+v", dict)
	}
	if _, ok := dict["stale-4046"]; ok {
		t.Fatalf("expected player_id to be ignored when the key is present")
	}
	if p, ok := dict["6794"]; !ok || p.ID != "6794" {
		t.Fatalf("expected blank key to fall back to player_id, got %+v", dict)
	}
}

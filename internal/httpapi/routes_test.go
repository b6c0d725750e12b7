package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campaignwiki/internal/campaign"
	"campaignwiki/internal/encounter"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
	"campaignwiki/internal/store/memory"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	registry, err := rules.DefaultRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	loot, err := rules.DefaultLoot()
	if err != nil {
		t.Fatalf("loot: %v", err)
	}

	updated := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := memory.New()
	s.Hydrate(
		[]store.Document{
			{ID: "road", Title: "King's Road", Body: "Bandits watch the road.", WorkspaceID: "ws", UpdatedAt: updated},
		},
		[]store.Tag{{DocID: "road", Namespace: "travel", Value: "road"}},
		nil,
		nil,
	)
	svc := campaign.New(s, campaign.Options{
		WorkspaceID: "ws",
		Registry:    registry,
		Loot:        loot,
		Party:       encounter.Party{Size: 4, Level: 3, Difficulty: encounter.DifficultyMedium},
	})
	return New(Config{Addr: ":0"}, svc).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestContextRoute(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, http.MethodGet, "/api/docs/road/context", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snapshot struct {
		CurrentDoc struct {
			ID string `json:"id"`
		} `json:"currentDoc"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.CurrentDoc.ID != "road" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	rec = do(t, h, http.MethodGet, "/api/docs/missing/context", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPrepRoute(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, http.MethodGet, "/api/docs/road/prep?level=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var helpers struct {
		SuggestEncounter struct {
			Logic struct {
				TableSource string          `json:"tableSource"`
				Party       encounter.Party `json:"party"`
			} `json:"logic"`
		} `json:"suggestEncounter"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&helpers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if helpers.SuggestEncounter.Logic.TableSource != encounter.SourceTravel {
		t.Fatalf("expected travel table, got %q", helpers.SuggestEncounter.Logic.TableSource)
	}
	if helpers.SuggestEncounter.Logic.Party.Level != 5 || helpers.SuggestEncounter.Logic.Party.Size != 4 {
		t.Fatalf("unexpected party: %+v", helpers.SuggestEncounter.Logic.Party)
	}

	for _, target := range []string{"/api/docs/road/prep?since=yesterday", "/api/docs/road/prep?level=x"} {
		if rec := do(t, h, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestGeneratorRoutes(t *testing.T) {
	h := setupServer(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		want   string
	}{
		{name: "encounter", target: "/api/encounter", body: `{"tags":["terrain:forest"],"seed":"s"}`, status: http.StatusOK, want: `"results"`},
		{name: "encounter missing doc", target: "/api/encounter", body: `{"doc":"missing"}`, status: http.StatusNotFound},
		{name: "treasure", target: "/api/treasure", body: `{"monsters":[{"name":"Goblin","cr":"1/4"},{"name":"Ogre","cr":2}],"seed":"s"}`, status: http.StatusOK, want: `"coins"`},
		{name: "treasure bad cr", target: "/api/treasure", body: `{"monsters":[{"name":"Odd","cr":"x"}]}`, status: http.StatusBadRequest},
		{name: "initiative", target: "/api/initiative", body: `{"players":[{"name":"Aria","dexMod":2}],"seed":"s"}`, status: http.StatusOK, want: `"Aria"`},
		{name: "invalid json", target: "/api/initiative", body: `{`, status: http.StatusBadRequest},
		{name: "oversized monster group", target: "/api/initiative", body: `{"monsters":[{"name":"Rat","count":1000000000}],"seed":"s"}`, status: http.StatusBadRequest, want: `exceeds 100`},
		{name: "provided roll source", target: "/api/initiative", body: `{"players":[{"name":"Aria","roll":15}],"seed":"s"}`, status: http.StatusOK, want: `"source":"provided"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.want != "" && !strings.Contains(rec.Body.String(), tt.want) {
				t.Fatalf("expected body to contain %s, got %s", tt.want, rec.Body.String())
			}
		})
	}
}

func TestSearchRoute(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, http.MethodGet, "/api/search?q=bandits", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"road"`) {
		t.Fatalf("unexpected search response %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/api/search", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, setupServer(t), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

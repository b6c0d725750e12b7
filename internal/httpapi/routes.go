package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"campaignwiki/internal/campaign"
	"campaignwiki/internal/encounter"
	"campaignwiki/internal/initiative"
	"campaignwiki/internal/treasure"
)

const maxBodyBytes = 1 << 20

func registerRoutes(r chi.Router, svc *campaign.Service) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/docs/{ref}/context", handleContext(svc))
		r.Get("/docs/{ref}/prep", handlePrep(svc))
		r.Get("/search", handleSearch(svc))
		r.Post("/encounter", handleEncounter(svc))
		r.Post("/treasure", handleTreasure(svc))
		r.Post("/initiative", handleInitiative(svc))
	})
}

func handleContext(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := svc.Context(r.Context(), chi.URLParam(r, "ref"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func handlePrep(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := campaign.PrepRequest{Seed: q.Get("seed")}

		if v := q.Get("since"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody("since must be RFC 3339"))
				return
			}
			req.Since = &t
		}
		party, err := partyFromQuery(q.Get("size"), q.Get("level"), q.Get("difficulty"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		req.Party = party

		helpers, err := svc.Prep(r.Context(), chi.URLParam(r, "ref"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, helpers)
	}
}

func handleSearch(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := strings.TrimSpace(q.Get("q"))
		if query == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
			return
		}
		limit := 0
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		results, err := svc.Search(r.Context(), query, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

type encounterBody struct {
	Doc   string           `json:"doc"`
	Tags  []string         `json:"tags"`
	Party *encounter.Party `json:"party"`
	Seed  string           `json:"seed"`
	Limit int              `json:"limit"`
}

func handleEncounter(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body encounterBody
		if !decodeBody(w, r, &body) {
			return
		}
		result, err := svc.Encounter(r.Context(), campaign.EncounterRequest{
			Tags:   body.Tags,
			DocRef: body.Doc,
			Party:  body.Party,
			Seed:   body.Seed,
			Limit:  body.Limit,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type treasureMonster struct {
	Name string          `json:"name"`
	CR   json.RawMessage `json:"cr"`
}

type treasureBody struct {
	Monsters []treasureMonster `json:"monsters"`
	Mode     string            `json:"mode"`
	Seed     string            `json:"seed"`
}

func handleTreasure(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body treasureBody
		if !decodeBody(w, r, &body) {
			return
		}
		monsters := make([]treasure.Monster, 0, len(body.Monsters))
		for _, m := range body.Monsters {
			cr, ok := treasure.ParseCR(strings.Trim(string(m.CR), `"`))
			if !ok {
				writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("monster %q has invalid cr %s", m.Name, m.CR)))
				return
			}
			monsters = append(monsters, treasure.Monster{Name: m.Name, CR: cr})
		}
		result := svc.Treasure(treasure.Request{
			Monsters: monsters,
			Mode:     treasure.NormalizeMode(body.Mode),
			Seed:     body.Seed,
		})
		writeJSON(w, http.StatusOK, result)
	}
}

type initiativeBody struct {
	Players  []initiative.Player  `json:"players"`
	Monsters []initiative.Monster `json:"monsters"`
	Seed     string               `json:"seed"`
}

func handleInitiative(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body initiativeBody
		if !decodeBody(w, r, &body) {
			return
		}
		req := initiative.Request{
			Players:  body.Players,
			Monsters: body.Monsters,
			Seed:     body.Seed,
		}
		if err := initiative.CheckLimits(req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, svc.Initiative(req))
	}
}

func partyFromQuery(size, level, difficulty string) (*encounter.Party, error) {
	if size == "" && level == "" && difficulty == "" {
		return nil, nil
	}
	party := &encounter.Party{Difficulty: difficulty}
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return nil, fmt.Errorf("size must be an integer")
		}
		party.Size = n
	}
	if level != "" {
		n, err := strconv.Atoi(level)
		if err != nil {
			return nil, fmt.Errorf("level must be an integer")
		}
		party.Level = n
	}
	return party, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, campaign.ErrSearchUnsupported):
		writeJSON(w, http.StatusNotImplemented, errorBody(err.Error()))
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

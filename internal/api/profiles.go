package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
)

type AppDeps struct {
	Coach *Coach
	Token string
}

// NewAppHandler returns the local REST API. Everything except /health sits
// behind bearer auth.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/profiles", handleListProfiles(deps))
		r.Route("/profiles/{id}", func(r chi.Router) {
			r.Get("/", handleGetProfile(deps))
			r.Patch("/", handlePatchProfile(deps))
			r.Post("/messages", handlePostMessage(deps))
			r.Post("/plans/regenerate", handleRegeneratePlans(deps))
			r.Get("/history", handleHistory(deps))
		})
	})

	return r
}

type changeView struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type rejectionView struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

type updateResponse struct {
	Applied           []changeView      `json:"applied"`
	Rejected          []rejectionView   `json:"rejected"`
	Regenerated       bool              `json:"regenerated"`
	RegenerationError string            `json:"regeneration_error,omitempty"`
	Reply             string            `json:"reply,omitempty"`
	Profile           *profile.Snapshot `json:"profile,omitempty"`
}

func newUpdateResponse(res reconcile.Result, regenerated bool, regenErr error) updateResponse {
	out := updateResponse{
		Applied:     make([]changeView, 0, len(res.Applied)),
		Rejected:    make([]rejectionView, 0, len(res.Rejected)),
		Regenerated: regenerated,
	}
	for _, c := range res.Applied {
		out.Applied = append(out.Applied, changeView{Field: string(c.Field), From: c.From.String(), To: c.To.String()})
	}
	for _, r := range res.Rejected {
		out.Rejected = append(out.Rejected, rejectionView{Field: string(r.Field), Value: r.Raw, Reason: r.Reason.Error()})
	}
	if regenErr != nil {
		out.RegenerationError = regenErr.Error()
	}
	return out
}

type profileRefView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func handleListProfiles(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, err := deps.Coach.Profiles(r.Context())
		if err != nil {
			writeError(w, "listing profiles", err)
			return
		}
		out := make([]profileRefView, len(refs))
		for i, ref := range refs {
			out[i] = profileRefView{ID: ref.ID, Name: ref.Name, UpdatedAt: ref.UpdatedAt}
		}
		writeJSON(w, out)
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Coach.Profile(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, "loading profile", err)
			return
		}
		writeJSON(w, profile.NewSnapshot(p, false))
	}
}

// handlePatchProfile accepts a flat object of field names to values, e.g.
// {"weight_kg": 80, "fitness_goal": "Muscle Gain"}. ?regenerate=true also
// regenerates plans when anything changed.
func handlePatchProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(fields) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one field is required")
			return
		}
		raw := make(map[string]string, len(fields))
		for k, v := range fields {
			switch v := v.(type) {
			case string:
				raw[k] = v
			case float64:
				raw[k] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				httpError(w, http.StatusBadRequest, "invalid_request_error", "field %q must be a string or number", k)
				return
			}
		}

		regenerate, _ := strconv.ParseBool(r.URL.Query().Get("regenerate"))
		res, err := deps.Coach.SetFields(r.Context(), chi.URLParam(r, "id"), raw, regenerate)
		if err != nil {
			writeError(w, "updating profile", err)
			return
		}
		out := newUpdateResponse(res.Reconciled, res.Regenerated, res.RegenErr)
		snap := profile.NewSnapshot(res.Profile, false)
		out.Profile = &snap
		writeJSON(w, out)
	}
}

type messageRequest struct {
	Message    string `json:"message"`
	Regenerate bool   `json:"regenerate"`
}

func handlePostMessage(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		out, err := deps.Coach.Message(r.Context(), chi.URLParam(r, "id"), req.Message, req.Regenerate)
		if err != nil {
			writeError(w, "processing message", err)
			return
		}
		resp := newUpdateResponse(out.Reconciled, out.Regenerated, out.RegenErr)
		resp.Reply = out.Reply
		writeJSON(w, resp)
	}
}

func handleRegeneratePlans(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Coach.Regenerate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, "regenerating plans", err)
			return
		}
		snap := profile.NewSnapshot(p, false)
		writeJSON(w, map[string]any{
			"workout_plan": snap.WorkoutPlan,
			"diet_plan":    snap.DietPlan,
		})
	}
}

func handleHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 10, 500)
		turns, err := deps.Coach.History(r.Context(), chi.URLParam(r, "id"), limit)
		if err != nil {
			writeError(w, "loading history", err)
			return
		}
		writeJSON(w, profile.TurnViews(turns))
	}
}

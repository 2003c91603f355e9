// Package gateway exposes the advisor over HTTP and WebSocket.
package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/advisor"
	"github.com/Aryok23/garden-advisor/core"
)

// Gateway routes requests to the advisor.
type Gateway struct {
	advisor *advisor.Advisor
	log     zerolog.Logger
}

// New creates a gateway.
func New(adv *advisor.Advisor) *Gateway {
	return &Gateway{
		advisor: adv,
		log:     log.With().Str("component", "gateway").Logger(),
	}
}

// Router builds the HTTP routing table.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(g.requestLogger)

	r.Get("/health", g.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", g.handleChat)
		r.Get("/help", g.handleHelp)
		r.Get("/weather", g.handleWeather)
		r.Get("/ws", g.handleWS)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/plants", g.handlePlants)
			r.Get("/reminders", g.handleReminders)
			r.Delete("/history", g.handleClearHistory)
		})
	})

	return r
}

func (g *Gateway) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		g.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// chatRequest is the POST /v1/chat body.
type chatRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// chatResponse is the reply for chat over HTTP and WebSocket.
type chatResponse struct {
	Text      string               `json:"text"`
	State     string               `json:"state"`
	ToolsUsed []core.ToolExecution `json:"tools_used,omitempty"`
}

func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "user_id and text are required")
		return
	}

	answer := g.advisor.Process(r.Context(), core.Message{
		UserID:  req.UserID,
		Text:    req.Text,
		Channel: "http",
	})

	status := http.StatusOK
	if answer.State == core.StateFailed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, chatResponse{
		Text:      answer.Text,
		State:     string(answer.State),
		ToolsUsed: answer.ToolsUsed,
	})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleHelp(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"help": g.advisor.Help()})
}

func (g *Gateway) handlePlants(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	text, err := g.advisor.Plants(r.Context(), userID)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", userID).Msg("plants lookup failed")
		writeError(w, http.StatusInternalServerError, "could not list plants")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": text})
}

func (g *Gateway) handleReminders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	text, err := g.advisor.Reminders(r.Context(), userID)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", userID).Msg("reminder listing failed")
		writeError(w, http.StatusInternalServerError, "could not list reminders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": text})
}

func (g *Gateway) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := g.advisor.ClearHistory(r.Context(), userID); err != nil {
		g.log.Error().Err(err).Str("user_id", userID).Msg("history clear failed")
		writeError(w, http.StatusInternalServerError, "could not clear history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "history cleared"})
}

func (g *Gateway) handleWeather(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}
	text, err := g.advisor.WeatherLookup(r.Context(), location)
	if err != nil {
		writeError(w, http.StatusBadGateway, "weather lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": text})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

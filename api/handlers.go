// Package api serves the screening endpoints used by the patient client.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"text2phenotype.com/sdoh/screenings"
	"text2phenotype.com/sdoh/types"
)

const maxBodyBytes = 64 << 10

type screeningStore interface {
	Get(ctx context.Context, token string) (*screenings.Record, error)
	Patch(ctx context.Context, token string, payload types.UpdatePayload) (*screenings.Record, error)
}

type submitter interface {
	Process(ctx context.Context, token string) (*types.SubmitResponse, error)
}

type Server struct {
	screenings  screeningStore
	submissions submitter
	apiLogger   zerolog.Logger
}

func NewServer(store *screenings.Client, submissions submitter) *Server {
	return &Server{screenings: store, submissions: submissions, apiLogger: defaultLogger}
}

func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", server.route(server.health))
	mux.HandleFunc("GET /public/screening/{token}", server.route(server.getScreening))
	mux.HandleFunc("PATCH /public/screening/{token}", server.route(server.patchScreening))
	mux.HandleFunc("POST /public/screening/{token}/submit", server.route(server.submitScreening))
	return mux
}

func (server *Server) route(handler http.HandlerFunc) http.HandlerFunc {
	return withRequestLogging(server.apiLogger, handler)
}

func (server *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (server *Server) getScreening(w http.ResponseWriter, r *http.Request) {
	record, err := server.screenings.Get(r.Context(), r.PathValue("token"))
	if err != nil {
		server.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record.Response())
}

func (server *Server) patchScreening(w http.ResponseWriter, r *http.Request) {
	var payload types.UpdatePayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if payload.Empty() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "nothing to update"})
		return
	}
	if _, err := server.screenings.Patch(r.Context(), r.PathValue("token"), payload); err != nil {
		server.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (server *Server) submitScreening(w http.ResponseWriter, r *http.Request) {
	response, err := server.submissions.Process(r.Context(), r.PathValue("token"))
	if err != nil {
		server.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if !response.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, response)
}

type errorBody struct {
	Error string `json:"error"`
}

func (server *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, screenings.ErrUnknownToken):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "screening not found"})
	case errors.Is(err, screenings.ErrClosed), errors.Is(err, screenings.ErrExpired):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, screenings.ErrInvalidUpdate):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		requestLogger := makeRequestLogger(server.apiLogger, r)
		requestLogger.Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

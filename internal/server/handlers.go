package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sdrasco/freedact/internal/pipeline"
	"github.com/sdrasco/freedact/internal/verify"
)

// SanitizeResponse is the API payload for a successful run. The audit
// bundle never leaves the server.
type SanitizeResponse struct {
	Sanitized    string         `json:"sanitized_text"`
	Verification *verify.Report `json:"verification"`
	Warnings     []string       `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSanitize(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-API-Key")
	if caller == "" {
		caller = r.RemoteAddr
	}
	if err := s.limiter.Acquire(caller); err != nil {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reading request body"})
		return
	}
	if len(body) > maxBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "document too large"})
		return
	}

	res, err := pipeline.Run(r.Context(), string(body), s.cfg, s.secret, pipeline.Providers{})
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrVerification):
		// Strict mode: report the residuals with a conflict status so
		// callers can distinguish policy failure from server error.
		writeJSON(w, http.StatusConflict, SanitizeResponse{
			Sanitized:    "",
			Verification: res.Verification,
			Warnings:     res.Warnings,
		})
		return
	case errors.Is(err, pipeline.ErrConfig):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "configuration error"})
		return
	default:
		log.Error().Err(err).Msg("sanitize failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "pipeline error"})
		return
	}

	writeJSON(w, http.StatusOK, SanitizeResponse{
		Sanitized:    res.Sanitized,
		Verification: res.Verification,
		Warnings:     res.Warnings,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

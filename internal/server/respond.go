package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"postboard/internal/model"
	"postboard/internal/store"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writePosts(w http.ResponseWriter, posts []model.Post) {
	if posts == nil {
		posts = []model.Post{}
	}
	s.writeJSON(w, http.StatusOK, posts)
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps store errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidArgument):
		s.writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		s.writeMessage(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("Request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
		s.writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

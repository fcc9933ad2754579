package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"postboard/internal/model"
	"postboard/internal/store"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errNoInput = fmt.Errorf("%w: no input data provided", store.ErrInvalidArgument)

// decodePatch reads a JSON object body. Missing, malformed, non-object and
// empty bodies all count as no input.
func decodePatch(w http.ResponseWriter, r *http.Request) (model.PostPatch, error) {
	var patch model.PostPatch

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return patch, fmt.Errorf("%w: request body too large (max %d bytes)", store.ErrInvalidArgument, tooLarge.Limit)
		}
		return patch, errNoInput
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return patch, errNoInput
	}
	if err := json.Unmarshal(body, &patch); err != nil {
		return patch, fmt.Errorf("%w: title and content must be strings", store.ErrInvalidArgument)
	}
	return patch, nil
}

// postID parses the {id} route variable. Values that overflow are treated as
// ids that do not exist.
func postID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %s", store.ErrNotFound, raw)
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOptions{Sort: store.SortField(q.Get("sort"))}
	// An explicit direction must be valid, even when empty
	if q.Has("direction") {
		dir, err := store.ParseDirection(q.Get("direction"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		opts.Direction = dir
	}

	posts, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePosts(w, posts)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	post, err := s.store.Create(r.Context(), lo.FromPtr(patch.Title), lo.FromPtr(patch.Content))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("Post created",
		zap.String("request_id", RequestID(r.Context())),
		zap.Int64("id", post.ID))
	s.writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := decodePatch(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	post, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	post, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("Post deleted",
		zap.String("request_id", RequestID(r.Context())),
		zap.Int64("id", post.ID))
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := s.store.Search(r.Context(), store.SearchOptions{
		Title:   q.Get("title"),
		Content: q.Get("content"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePosts(w, posts)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeMessage(w, http.StatusNotFound, "not found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"postboard/internal/model"
	"postboard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer() (*Server, *store.MemoryStore) {
	st := store.NewMemoryStore(store.WithSeed(model.SeedPosts()...))
	return NewServer(st, zap.NewNop()), st
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodePosts(t *testing.T, rec *httptest.ResponseRecorder) []model.Post {
	t.Helper()
	var posts []model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	return posts
}

func decodePost(t *testing.T, rec *httptest.ResponseRecorder) model.Post {
	t.Helper()
	var p model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Error
}

func TestServer_List(t *testing.T) {
	s, _ := newTestServer()

	rec := do(t, s, "GET", "/api/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	posts := decodePosts(t, rec)
	require.Len(t, posts, 2)
	assert.Equal(t, "First post", posts[0].Title)

	rec = do(t, s, "GET", "/api/posts?sort=title&direction=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	posts = decodePosts(t, rec)
	assert.Equal(t, "Second post", posts[0].Title)
}

func TestServer_List_BadParams(t *testing.T) {
	s, _ := newTestServer()

	rec := do(t, s, "GET", "/api/posts?sort=id", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "invalid sort field")

	rec = do(t, s, "GET", "/api/posts?sort=title&direction=up", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "invalid direction")
}

func TestServer_Create(t *testing.T) {
	s, st := newTestServer()

	rec := do(t, s, "POST", "/api/posts", `{"title":"T","content":"C"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	p := decodePost(t, rec)
	assert.Equal(t, model.Post{ID: 3, Title: "T", Content: "C"}, p)
	assert.Equal(t, 3, st.Len())
}

func TestServer_Create_Rejects(t *testing.T) {
	s, st := newTestServer()

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"no body", "", "no input data provided"},
		{"not json", "title=x", "no input data provided"},
		{"empty object", "{}", "no input data provided"},
		{"array", `["x"]`, "no input data provided"},
		{"missing content", `{"title":"T"}`, "missing title or content"},
		{"null title", `{"title":null,"content":"C"}`, "missing title or content"},
		{"wrong type", `{"title":1,"content":"C"}`, "must be strings"},
		{"too long", `{"title":"` + strings.Repeat("x", 1001) + `","content":"C"}`, "title too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, "POST", "/api/posts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorMessage(t, rec), tt.msg)
		})
	}
	assert.Equal(t, 2, st.Len())
}

func TestServer_Update(t *testing.T) {
	s, _ := newTestServer()

	rec := do(t, s, "PUT", "/api/posts/1", `{"content":"edited"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodePost(t, rec)
	assert.Equal(t, "First post", p.Title)
	assert.Equal(t, "edited", p.Content)

	rec = do(t, s, "PUT", "/api/posts/99", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "post not found")

	rec = do(t, s, "PUT", "/api/posts/1", `{"other":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "at least one of title or content")

	rec = do(t, s, "PUT", "/api/posts/abc", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, "PUT", "/api/posts/99999999999999999999", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Delete(t *testing.T) {
	s, _ := newTestServer()

	rec := do(t, s, "DELETE", "/api/posts/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decodePost(t, rec).ID)

	rec = do(t, s, "DELETE", "/api/posts/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, "GET", "/api/posts", "")
	posts := decodePosts(t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].ID)
}

func TestServer_Search(t *testing.T) {
	s, _ := newTestServer()

	rec := do(t, s, "GET", "/api/posts/search?title=First", "")
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decodePosts(t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, "First post", posts[0].Title)

	rec = do(t, s, "GET", "/api/posts/search", "")
	assert.Len(t, decodePosts(t, rec), 2)

	// No match encodes as an empty array, not null
	rec = do(t, s, "GET", "/api/posts/search?content=nothing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServer_CORSAndRequestID(t *testing.T) {
	s, _ := newTestServer()

	rec := do(t, s, "GET", "/api/posts", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = do(t, s, "OPTIONS", "/api/posts/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	out := httptest.NewRecorder()
	s.Handler().ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "abc-123", out.Header().Get(requestIDHeader))
}

func TestServer_UnknownRoutes(t *testing.T) {
	s, _ := newTestServer()

	rec := do(t, s, "GET", "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "not found", errorMessage(t, rec))

	rec = do(t, s, "PATCH", "/api/posts/1", `{"title":"x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type brokenStore struct {
	store.Store
}

func (brokenStore) List(context.Context, store.ListOptions) ([]model.Post, error) {
	return nil, errors.New("disk on fire")
}

func TestServer_InternalError(t *testing.T) {
	s := NewServer(brokenStore{Store: store.NewMemoryStore()}, zap.NewNop())

	rec := do(t, s, "GET", "/api/posts", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", errorMessage(t, rec))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0", time.Second) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServer_Run_ListenError(t *testing.T) {
	// Hold the port so ListenAndServe fails immediately
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s, _ := newTestServer()
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), ln.Addr().String(), time.Second) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not report the listen error")
	}
}

func TestServer_Create_BodyTooLarge(t *testing.T) {
	s, st := newTestServer()

	body := `{"title":"` + strings.Repeat("x", 2<<20) + `","content":"C"}`
	rec := do(t, s, "POST", "/api/posts", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "request body too large")
	assert.Equal(t, 2, st.Len())
}

func TestServer_List_EmptyDirection(t *testing.T) {
	s, _ := newTestServer()

	rec := do(t, s, "GET", "/api/posts?direction=", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "invalid direction")

	// Omitting the parameter still means ascending
	rec = do(t, s, "GET", "/api/posts?sort=title", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "First post", decodePosts(t, rec)[0].Title)
}

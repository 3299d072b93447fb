// Package httpapi exposes the application service over HTTP, translating the
// domain error taxonomy into response codes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"pressfeed/internal/service"
	"pressfeed/pkg/press"
)

type contextKey string

const contextKeyUserID contextKey = "httpapi.user_id"

// Option mutates server configuration.
type Option func(*Server)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(server *Server) {
		if logger != nil {
			server.logger = logger
		}
	}
}

// Server routes HTTP requests to the application service.
type Server struct {
	logger   *slog.Logger
	news     *service.News
	identity press.Identity
	mux      *http.ServeMux
}

// New builds the HTTP surface over the application service.
func New(news *service.News, identity press.Identity, options ...Option) *Server {
	server := &Server{
		logger:   slog.Default(),
		news:     news,
		identity: identity,
		mux:      http.NewServeMux(),
	}
	for _, option := range options {
		option(server)
	}
	server.routes()

	return server
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	s.logger.DebugContext(r.Context(), "request received",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
	)
	w.Header().Set("X-Request-Id", requestID)
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /v1/news", s.authenticated(s.handleGetNews))
	s.mux.HandleFunc("GET /v1/search", s.authenticated(s.handleSearch))
	s.mux.HandleFunc("GET /v1/briefing", s.authenticated(s.handleBriefing))
	s.mux.HandleFunc("POST /v1/articles/read", s.authenticated(s.handleMarkRead))
	s.mux.HandleFunc("GET /v1/articles/read", s.authenticated(s.handleReadArticles))
	s.mux.HandleFunc("POST /v1/articles/favorites", s.authenticated(s.handleMarkFavorite))
	s.mux.HandleFunc("GET /v1/articles/favorites", s.authenticated(s.handleFavoriteArticles))
	s.mux.HandleFunc("DELETE /v1/articles/favorites/{id}", s.authenticated(s.handleRemoveFavorite))
	s.mux.HandleFunc("GET /v1/stats", s.authenticated(s.handleStats))
	s.mux.HandleFunc("GET /v1/preferences", s.authenticated(s.handleGetPreferences))
	s.mux.HandleFunc("PUT /v1/preferences", s.authenticated(s.handleSetPreferences))
}

// authenticated resolves the bearer credential and stashes the user id in the
// request context before invoking next.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeError(w, r, fmt.Errorf("missing bearer token: %w", press.ErrUnauthenticated))
			return
		}

		userID, err := s.identity.ResolveToken(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyUserID, userID)))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)

	return token, token != ""
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(contextKeyUserID).(string)

	return id
}

func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	feed, err := s.news.GetNews(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	response, err := s.news.SearchNews(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	generated, err := s.news.Briefing(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, generated)
}

// trackRequest is the body shape shared by mark-read and mark-favorite: either
// a full article payload or a bare article id.
type trackRequest struct {
	ID      string         `json:"id"`
	Article *press.Article `json:"article"`
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var body trackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	switch {
	case body.Article != nil:
		receipt, err := s.news.MarkRead(r.Context(), userID(r), *body.Article)
		if err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, receipt)
	case strings.TrimSpace(body.ID) != "":
		receipt, err := s.news.MarkReadID(r.Context(), userID(r), strings.TrimSpace(body.ID))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, receipt)
	default:
		s.writeErrorMessage(w, http.StatusBadRequest, "either id or article is required")
	}
}

func (s *Server) handleMarkFavorite(w http.ResponseWriter, r *http.Request) {
	var body trackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	switch {
	case body.Article != nil:
		receipt, err := s.news.MarkFavorite(r.Context(), userID(r), *body.Article)
		if err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, receipt)
	case strings.TrimSpace(body.ID) != "":
		receipt, err := s.news.MarkFavoriteID(r.Context(), userID(r), strings.TrimSpace(body.ID))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, receipt)
	default:
		s.writeErrorMessage(w, http.StatusBadRequest, "either id or article is required")
	}
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	articleID := r.PathValue("id")
	if err := s.news.RemoveFavorite(r.Context(), userID(r), articleID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"removed": articleID})
}

func (s *Server) handleReadArticles(w http.ResponseWriter, r *http.Request) {
	articles := s.news.ReadArticles(r.Context(), userID(r))
	s.writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

func (s *Server) handleFavoriteArticles(w http.ResponseWriter, r *http.Request) {
	favorites := s.news.FavoriteArticles(r.Context(), userID(r))
	s.writeJSON(w, http.StatusOK, map[string]any{"favorites": favorites})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.news.Stats(r.Context(), userID(r)))
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	topics, err := s.news.Preferences(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]string{"topics": topics})
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topics []string `json:"topics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.news.SetPreferences(r.Context(), userID(r), body.Topics); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]string{"topics": body.Topics})
}

// writeError maps domain errors onto response codes. Internal failure detail
// stays in logs; clients get a safe message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, press.ErrUnauthenticated):
		status = http.StatusUnauthorized
		message = "unauthenticated"
	case errors.Is(err, press.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, press.ErrNotConfigured):
		status = http.StatusServiceUnavailable
		message = "upstream provider is not configured"
	default:
		if searchErr, ok := press.AsSearchError(err); ok {
			status = searchErr.Kind.HTTPStatus()
			message = "upstream search failed: " + string(searchErr.Kind)
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	s.writeErrorMessage(w, status, message)
}

func (s *Server) writeErrorMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

// Package remote serves a store.Store over HTTP and provides the matching client.
//
// Routes:
//
//	GET    /v1/info
//	GET    /v1/{collection}?where=field:value&order=createdAt&desc=true&after=...&limit=N
//	POST   /v1/{collection}
//	GET    /v1/{collection}/{id}
//	PATCH  /v1/{collection}/{id}
//	DELETE /v1/{collection}/{id}
//
// Every route except /v1/info requires a bearer token issued by IssueToken.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

// APIVersion is the wire protocol version reported by /v1/info.
const APIVersion = "1.0.0"

// HeaderRequestID carries the request identifier on every response.
const HeaderRequestID = "X-Request-ID"

// Error codes in error response bodies.
const (
	CodeInvalidQuery  = "invalid_query"
	CodeInvalidCursor = "invalid_cursor"
	CodeUnauthorized  = "unauthorized"
	CodeNotFound      = "not_found"
	CodeAlreadyExists = "already_exists"
	CodeIndexRequired = "index_required"
	CodeInternal      = "internal"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	maxBodyBytes      = 1 << 20
)

// Info is the body of GET /v1/info.
type Info struct {
	APIVersion      string `json:"apiVersion"`
	CompoundQueries bool   `json:"compoundQueries"`
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// QueryResponse is the body of a collection listing.
type QueryResponse struct {
	Records []record.Record `json:"records"`
	Next    string          `json:"next,omitempty"`
}

type sessionKey struct{}

// SessionFromContext returns the authenticated session of a request.
func SessionFromContext(ctx context.Context) (access.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(access.Session)
	return s, ok
}

// Server exposes a store over HTTP.
type Server struct {
	store          store.Store
	secret         []byte
	allowedOrigins []string
	logger         zerolog.Logger
}

// NewServer creates a Server for s, verifying tokens with secret.
func NewServer(s store.Store, secret []byte) *Server {
	return &Server{
		store:  s,
		secret: secret,
		logger: zerolog.Nop(),
	}
}

// WithAllowedOrigins sets the CORS origins. Empty allows any origin.
func (s *Server) WithAllowedOrigins(origins []string) *Server {
	s.allowedOrigins = origins
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(logger zerolog.Logger) *Server {
	s.logger = logging.ComponentLogger(logger, "remote")
	return s
}

// Handler builds the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestContext)

	r.HandleFunc("/v1/info", s.handleInfo).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.authenticate)
	api.HandleFunc("/{collection}", s.handleQuery).Methods(http.MethodGet)
	api.HandleFunc("/{collection}", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/{collection}/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/{collection}/{id}", s.handleUpdate).Methods(http.MethodPatch)
	api.HandleFunc("/{collection}/{id}", s.handleDelete).Methods(http.MethodDelete)

	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
	})
	return c.Handler(r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("serving")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestContext assigns the request ID, attaches the logger, and logs the request.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := logging.ContextWithTraceID(r.Context(), requestID)
		ctx = s.logger.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.Debug().
			Ctx(ctx).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || bearer == "" {
			s.writeError(w, r, fmt.Errorf("%w: missing bearer token", ErrUnauthorized))
			return
		}
		session, err := ParseToken(s.secret, bearer)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Info{
		APIVersion:      APIVersion,
		CompoundQueries: s.store.Capabilities().CompoundQueries,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(mux.Vars(r)["collection"], r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.store.Query(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Records: res.Records, Next: res.Next})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.store.Create(r.Context(), mux.Vars(r)["collection"], rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created.Normalize())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rec, err := s.store.Get(r.Context(), vars["collection"], vars["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Normalize())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	updated, err := s.store.Update(r.Context(), vars["collection"], vars["id"], patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated.Normalize())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.store.Delete(r.Context(), vars["collection"], vars["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseQuery reads a store.Query from the URL parameters.
func parseQuery(collection string, r *http.Request) (store.Query, error) {
	params := r.URL.Query()
	q := store.Query{
		Collection: collection,
		OrderBy:    params.Get("order"),
		StartAfter: params.Get("after"),
	}
	for _, w := range params["where"] {
		field, value, ok := strings.Cut(w, ":")
		if !ok {
			return store.Query{}, fmt.Errorf("%w: where %q is not field:value", store.ErrInvalidQuery, w)
		}
		q.Where = append(q.Where, store.Eq(field, value))
	}
	if v := params.Get("desc"); v != "" {
		desc, err := strconv.ParseBool(v)
		if err != nil {
			return store.Query{}, fmt.Errorf("%w: desc %q", store.ErrInvalidQuery, v)
		}
		q.Descending = desc
	}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return store.Query{}, fmt.Errorf("%w: limit %q", store.ErrInvalidQuery, v)
		}
		q.Limit = limit
	}
	return q, nil
}

func decodeBody(r *http.Request) (record.Record, error) {
	var rec record.Record
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %w", store.ErrInvalidQuery, err)
	}
	return rec, nil
}

// statusFor maps an error onto its HTTP status and wire code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict, CodeAlreadyExists
	case errors.Is(err, store.ErrIndexRequired):
		return http.StatusConflict, CodeIndexRequired
	case errors.Is(err, store.ErrInvalidCursor):
		return http.StatusBadRequest, CodeInvalidCursor
	case errors.Is(err, store.ErrInvalidQuery):
		return http.StatusBadRequest, CodeInvalidQuery
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	event := logging.FromContext(r.Context()).Warn()
	if status == http.StatusInternalServerError {
		event = logging.FromContext(r.Context()).Error()
	}
	event.Ctx(r.Context()).
		Str("component", "remote").
		Str("operation", "serve").
		Str("code", code).
		Err(err).
		Msg("request failed")

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, ErrorBody{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

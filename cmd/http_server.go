package cmd

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog"
	"github.com/vfaronov/httpheader"
	"gopkg.in/yaml.v3"

	"github.com/snip-links/snip/internal/config"
	"github.com/snip-links/snip/internal/core"
	"github.com/snip-links/snip/internal/events"
	"github.com/snip-links/snip/internal/keygen"
	"github.com/snip-links/snip/internal/metrics"
	"github.com/snip-links/snip/internal/store"
	"github.com/snip-links/snip/internal/urlcheck"
	"github.com/snip-links/snip/internal/utils"
)

const (
	redirectCacheControl = "max-age=180, public"
	maxImportBytes       = 10 << 20
)

var payloadValidator = validator.New(validator.WithRequiredStructEnabled())

// APIHandler handles HTTP API requests
type APIHandler struct {
	service  *core.LocalRedirectService
	settings *config.Settings
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(service *core.LocalRedirectService, settings *config.Settings) *APIHandler {
	return &APIHandler{
		service:  service,
		settings: settings,
	}
}

// CreateRequest is the body of POST /api/redirect. An empty key asks the
// server to generate one.
type CreateRequest struct {
	Key string `json:"key" validate:"max=64"`
	URL string `json:"url" validate:"required"`
}

// UpdateRequest is the body of PUT /api/redirect.
type UpdateRequest struct {
	Key string `json:"key" validate:"required,max=64"`
	URL string `json:"url" validate:"required"`
}

// DeleteRequest is the body of DELETE /api/redirect.
type DeleteRequest struct {
	Key string `json:"key" validate:"required,max=64"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Debug("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	var keyErr keygen.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrKeyExists):
		return http.StatusConflict
	case errors.Is(err, urlcheck.ErrInvalidURL), errors.As(err, &keyErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		utils.Debug("Request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

// decodeBody reads a JSON body into v and validates it.
func decodeBody(r *http.Request, v any) error {
	defer func() {
		if err := r.Body.Close(); err != nil {
			utils.Debug("Error closing body: %v", err)
		}
	}()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := payloadValidator.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return fmt.Errorf("field '%s' failed validation: %s", strings.ToLower(fe.Field()), fe.Tag())
		}
		return err
	}
	return nil
}

// Healthcheck endpoint (Public)
func (h *APIHandler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Ok")
}

// Root serves the banner on "/" and follows short links everywhere else.
func (h *APIHandler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "snip URL shortener\n\nShort links are served from %s/<key>\n", config.GetHostURI(h.settings))
		return
	}
	h.Redirect(w, r)
}

// Redirect endpoint (Public)
func (h *APIHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/")
	if key == "" || strings.Contains(key, "/") {
		metrics.RecordRedirect(metrics.ResultMiss)
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	redirect, err := h.service.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			utils.Debug("Lookup of %s failed: %v", key, err)
		}
		metrics.RecordRedirect(metrics.ResultMiss)
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	// Counting is not on the response path
	go func() {
		if err := h.service.RecordVisit(key); err != nil {
			utils.Debug("Failed to record visit for %s: %v", key, err)
		}
	}()

	metrics.RecordRedirect(metrics.ResultHit)
	w.Header().Set("Cache-Control", redirectCacheControl)
	http.Redirect(w, r, redirect.URL, http.StatusTemporaryRedirect)
}

// Redirects endpoint (Protected)
func (h *APIHandler) Redirects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if key := r.URL.Query().Get("key"); key != "" {
			redirect, err := h.service.Get(key)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, redirect)
			return
		}
		list, err := h.service.List()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		var req CreateRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		redirect, err := h.service.Create(req.Key, req.URL)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "Redirect created successfully",
			"key":     redirect.Key,
			"url":     redirect.URL,
		})

	case http.MethodPut:
		var req UpdateRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		redirect, err := h.service.Update(req.Key, req.URL)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Redirect updated successfully",
			"key":     redirect.Key,
			"url":     redirect.URL,
		})

	case http.MethodDelete:
		var req DeleteRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.service.Delete(req.Key); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Redirect deleted successfully"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Export endpoint (Protected)
func (h *APIHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list, err := h.service.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := yaml.Marshal(list)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode export: "+err.Error())
		return
	}

	filename := fmt.Sprintf("snip-export-%s.yaml", time.Now().UTC().Format("20060102"))
	httpheader.SetContentDisposition(w.Header(), "attachment", filename, nil)
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(data)
}

// parseRedirects decodes a JSON array or a YAML document into redirects.
func parseRedirects(data []byte) ([]store.Redirect, error) {
	var list []store.Redirect
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return list, nil
	}
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return list, nil
}

// Import endpoint (Protected)
func (h *APIHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Import too large")
		return
	}

	// Binary uploads (archives, images, databases) are refused outright
	if kind, _ := filetype.Match(data); kind != filetype.Unknown {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported file type: "+kind.MIME.Value)
		return
	}

	list, err := parseRedirects(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.service.Import(list)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

// RandomKey endpoint (Protected)
func (h *APIHandler) RandomKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key, err := h.service.RandomKey()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"shortened_url": key})
}

// Events endpoint (Protected)
func (h *APIHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	stream, cleanup, err := h.service.StreamEvents(r.Context())
	if err != nil {
		http.Error(w, "Failed to subscribe to events", http.StatusInternalServerError)
		return
	}
	defer cleanup()

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	done := r.Context().Done()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-stream:
			if !ok {
				return
			}
			eventType, ok := events.Type(msg)
			if !ok {
				continue
			}
			data, err := json.Marshal(msg)
			if err != nil {
				utils.Debug("Error marshaling event: %v", err)
				continue
			}

			// SSE Format:
			// event: <type>
			// data: <json>
			// \n
			_, _ = fmt.Fprintf(w, "event: %s\n", eventType)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// newServerHandler wires the routes and middleware chain.
func newServerHandler(service *core.LocalRedirectService, settings *config.Settings, authToken string) http.Handler {
	handler := NewAPIHandler(service, settings)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthcheck", handler.Healthcheck)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/redirect", handler.Redirects)
	mux.HandleFunc("/api/redirect/export", handler.Export)
	mux.HandleFunc("/api/redirect/import", handler.Import)
	mux.HandleFunc("/api/events", handler.Events)
	mux.HandleFunc("/ui/redirect_url_input", handler.RandomKey)
	mux.HandleFunc("/", handler.Root)

	limiter := newClientLimiter(settings.Limits.WritesPerSecond, settings.Limits.WriteBurst)

	// CORS sits outside auth so 401 answers carry the headers
	return observeMiddleware(corsMiddleware(rateLimitMiddleware(limiter, authMiddleware(authToken, mux))))
}

// startHTTPServer serves on ln in the background. Shut the returned server
// down to stop it.
func startHTTPServer(ln net.Listener, service *core.LocalRedirectService, settings *config.Settings) *http.Server {
	server := &http.Server{
		Handler:           newServerHandler(service, settings, ensureAuthToken()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Debug("HTTP server error: %v", err)
		}
	}()
	return server
}

func shutdownHTTPServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		utils.Debug("HTTP server shutdown: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS, PUT")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isProtected reports whether path needs the bearer token. Short links, the
// banner, the healthcheck and metrics stay public.
func isProtected(path string) bool {
	return strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/ui/")
}

func authMiddleware(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtected(r.URL.Path) || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			providedToken := strings.TrimPrefix(authHeader, "Bearer ")
			if len(providedToken) == len(token) && subtle.ConstantTimeCompare([]byte(providedToken), []byte(token)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}

		writeError(w, http.StatusUnauthorized, "Unauthorized")
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

func rateLimitMiddleware(limiter *clientLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isWrite(r.Method) && !limiter.Allow(clientIP(r)) {
			metrics.RecordRateLimited(routeLabel(r.URL.Path))
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// routeLabel collapses short links into one label to bound metric cardinality.
func routeLabel(path string) string {
	switch path {
	case "/", "/healthcheck", "/metrics", "/api/redirect", "/api/redirect/export",
		"/api/redirect/import", "/api/events", "/ui/redirect_url_input":
		return path
	}
	if isProtected(path) {
		return "other"
	}
	return "/{key}"
}

// observeMiddleware writes the access log and records request metrics.
// Healthchecks are logged at trace level to keep probes out of the debug log.
func observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.RecordRequest(routeLabel(r.URL.Path), r.Method, rec.status, elapsed)

		lvl := zerolog.DebugLevel
		if r.URL.Path == "/healthcheck" {
			lvl = zerolog.TraceLevel
		}
		l := utils.Logger()
		l.WithLevel(lvl).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("latency", elapsed).
			Str("client", clientIP(r)).
			Msg("request")
	})
}

func tokenPath() string {
	return filepath.Join(config.GetSnipDir(), "token")
}

// ensureAuthToken returns $SNIP_TOKEN, the stored token, or a newly
// generated one that is saved for later runs.
func ensureAuthToken() string {
	if token := strings.TrimSpace(os.Getenv(config.EnvToken)); token != "" {
		return token
	}

	data, err := os.ReadFile(tokenPath())
	if err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}

	// Generate new token
	token := uuid.New().String()
	if err := os.MkdirAll(config.GetSnipDir(), 0o755); err != nil {
		utils.Debug("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(tokenPath(), []byte(token), 0o600); err != nil {
		utils.Debug("Failed to write token file: %v", err)
	}
	return token
}

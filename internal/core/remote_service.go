package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/snip-links/snip/internal/events"
	"github.com/snip-links/snip/internal/metrics"
	"github.com/snip-links/snip/internal/store"
	"github.com/snip-links/snip/internal/utils"
)

// ErrBadRequest mirrors a 400 answer from the server.
var ErrBadRequest = errors.New("bad request")

// ErrPublishRemote is returned by RemoteRedirectService.Publish.
var ErrPublishRemote = errors.New("events can only be published by the server")

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps well known status codes back to store errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusConflict:
		return store.ErrKeyExists
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		return nil
	}
}

// RemoteRedirectService implements RedirectService against a running server.
type RemoteRedirectService struct {
	BaseURL string
	Token   string
	Client  *http.Client
	breaker *gobreaker.CircuitBreaker
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRemoteRedirectService creates a new remote service instance.
func NewRemoteRedirectService(baseURL string, token string) *RemoteRedirectService {
	ctx, cancel := context.WithCancel(context.Background())
	return &RemoteRedirectService{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
		breaker: newBreaker("snip-remote"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors mean the server is healthy
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			utils.Debug("Circuit breaker %s: %s -> %s", name, from, to)
			metrics.RecordCircuitBreakerState(name, to)
		},
	})
}

func (s *RemoteRedirectService) doRequest(method, path string, body any) (*http.Response, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.send(method, path, body)
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

func (s *RemoteRedirectService) send(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, s.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		// Limit error body read to 1KB to prevent DoS
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(bodyBytes)}
	}

	return resp, nil
}

// errorMessage extracts {"error": "..."} bodies and falls back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

func (s *RemoteRedirectService) decode(method, path string, body any, out any) error {
	resp, err := s.doRequest(method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// List returns every redirect known to the server.
func (s *RemoteRedirectService) List() ([]store.Redirect, error) {
	var list []store.Redirect
	if err := s.decode(http.MethodGet, "/api/redirect", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Get looks up key on the server.
func (s *RemoteRedirectService) Get(key string) (*store.Redirect, error) {
	var r store.Redirect
	if err := s.decode(http.MethodGet, "/api/redirect?key="+url.QueryEscape(key), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create stores a redirect on the server.
func (s *RemoteRedirectService) Create(key, rawURL string) (*store.Redirect, error) {
	var result map[string]string
	req := map[string]string{"key": key, "url": rawURL}
	if err := s.decode(http.MethodPost, "/api/redirect", req, &result); err != nil {
		return nil, err
	}
	return &store.Redirect{Key: result["key"], URL: result["url"]}, nil
}

// Update points key at a new URL.
func (s *RemoteRedirectService) Update(key, rawURL string) (*store.Redirect, error) {
	req := map[string]string{"key": key, "url": rawURL}
	if err := s.decode(http.MethodPut, "/api/redirect", req, nil); err != nil {
		return nil, err
	}
	return s.Get(key)
}

// Delete removes key from the server.
func (s *RemoteRedirectService) Delete(key string) error {
	return s.decode(http.MethodDelete, "/api/redirect", map[string]string{"key": key}, nil)
}

// Import uploads redirects in bulk.
func (s *RemoteRedirectService) Import(list []store.Redirect) (int, error) {
	var result struct {
		Imported int `json:"imported"`
	}
	if err := s.decode(http.MethodPost, "/api/redirect/import", list, &result); err != nil {
		return 0, err
	}
	return result.Imported, nil
}

// RandomKey asks the server for an unused key.
func (s *RemoteRedirectService) RandomKey() (string, error) {
	var result map[string]string
	if err := s.decode(http.MethodGet, "/ui/redirect_url_input", nil, &result); err != nil {
		return "", err
	}
	return result["shortened_url"], nil
}

// Publish is not supported on a client.
func (s *RemoteRedirectService) Publish(any) error {
	return ErrPublishRemote
}

// Shutdown stops the service.
func (s *RemoteRedirectService) Shutdown() error {
	s.cancel()
	return nil
}

// StreamEvents returns a channel that receives real-time redirect events via SSE.
func (s *RemoteRedirectService) StreamEvents(ctx context.Context) (<-chan any, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)

	ch := make(chan any, 100)
	go s.streamWithReconnect(ctx, ch)

	return ch, func() {
		stop()
		cancel()
	}, nil
}

func (s *RemoteRedirectService) streamWithReconnect(ctx context.Context, ch chan any) {
	defer close(ch)
	backoff := 1 * time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := s.connectSSE(ctx, ch)
		if err == nil {
			return // Clean shutdown
		}
		utils.Debug("Event stream disconnected: %v", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *RemoteRedirectService) connectSSE(ctx context.Context, ch chan any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/api/events", nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	// The stream outlives the request timeout of s.Client
	client := &http.Client{Transport: s.Client.Transport}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to connect to event stream: %s", resp.Status)
	}

	return readEvents(ctx, resp.Body, ch)
}

// readEvents parses "event:" / "data:" pairs until r ends.
func readEvents(ctx context.Context, r io.Reader, ch chan<- any) error {
	reader := bufio.NewReader(r)
	eventType := ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && ctx.Err() != nil {
				return nil
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			msg, err := events.Decode(eventType, []byte(data))
			if err != nil {
				continue
			}
			// Non-blocking send
			select {
			case ch <- msg:
			default:
			}
		case line == "":
			eventType = ""
		}
	}
}

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snip-links/snip/internal/events"
	"github.com/snip-links/snip/internal/store"
)

func newRemote(t *testing.T, h http.HandlerFunc) *RemoteRedirectService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	svc := NewRemoteRedirectService(srv.URL+"/", "secret")
	t.Cleanup(func() { _ = svc.Shutdown() })
	return svc
}

func TestRemoteRedirectService_SendsTokenAndDecodes(t *testing.T) {
	svc := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/redirect" && r.URL.Query().Get("key") == "":
			_ = json.NewEncoder(w).Encode([]store.Redirect{{Key: "a", URL: "https://a.example", Visits: 2}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/redirect":
			_ = json.NewEncoder(w).Encode(store.Redirect{Key: r.URL.Query().Get("key"), URL: "https://b.example"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/redirect":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"message": "Redirect created successfully",
				"key":     body["key"],
				"url":     "http://" + body["url"],
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/redirect/import":
			var list []store.Redirect
			_ = json.NewDecoder(r.Body).Decode(&list)
			_ = json.NewEncoder(w).Encode(map[string]int{"imported": len(list)})
		case r.URL.Path == "/ui/redirect_url_input":
			_ = json.NewEncoder(w).Encode(map[string]string{"shortened_url": "zx81"})
		default:
			http.NotFound(w, r)
		}
	})

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].Visits)

	r, err := svc.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", r.URL)

	created, err := svc.Create("c", "c.example")
	require.NoError(t, err)
	assert.Equal(t, "c", created.Key)
	assert.Equal(t, "http://c.example", created.URL)

	n, err := svc.Import([]store.Redirect{{Key: "x"}, {Key: "y"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	key, err := svc.RandomKey()
	require.NoError(t, err)
	assert.Equal(t, "zx81", key)

	assert.ErrorIs(t, svc.Publish(events.RedirectDeletedMsg{}), ErrPublishRemote)
}

func TestRemoteRedirectService_MapsErrors(t *testing.T) {
	svc := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"redirect not found"}`))
		case http.MethodPost:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"redirect key already exists"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`plain failure`))
		}
	})

	err := svc.Delete("nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.EqualError(t, err, "API error 404: redirect not found")

	_, err = svc.Create("dup", "https://example.com")
	assert.ErrorIs(t, err, store.ErrKeyExists)

	_, err = svc.Update("k", "https://example.com")
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Contains(t, err.Error(), "plain failure")
}

func TestRemoteRedirectService_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	svc := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := svc.List()
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, svc.breaker.State())

	_, err := svc.List()
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), hits.Load())
}

func TestRemoteRedirectService_ClientErrorsKeepBreakerClosed(t *testing.T) {
	svc := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	for i := 0; i < 8; i++ {
		_, err := svc.Get("missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, svc.breaker.State())
}

func TestRemoteRedirectService_StreamEvents(t *testing.T) {
	svc := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", events.TypeCreated, `{"key":"new","url":"https://n.example"}`)
		fmt.Fprintf(w, "event: bogus\ndata: {}\n\n")
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", events.TypeVisited, `{"key":"new","visits":4}`)
		flusher.Flush()
		<-r.Context().Done()
	})

	stream, cleanup, err := svc.StreamEvents(context.Background())
	require.NoError(t, err)
	defer cleanup()

	var got []any
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-stream:
			got = append(got, msg)
		case <-deadline:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, events.RedirectCreatedMsg{Key: "new", URL: "https://n.example"}, got[0])
	assert.Equal(t, events.RedirectVisitedMsg{Key: "new", Visits: 4}, got[1])

	cleanup()
	select {
	case _, ok := <-stream:
		for ok {
			_, ok = <-stream
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream should close after cleanup")
	}
}

func TestReadEvents_HandlesCRLF(t *testing.T) {
	body := strings.NewReader("event: deleted\r\ndata: {\"key\":\"gone\"}\r\n\r\n")
	ch := make(chan any, 1)
	err := readEvents(context.Background(), body, ch)
	assert.Error(t, err, "EOF without cancellation is reported")
	assert.Equal(t, events.RedirectDeletedMsg{Key: "gone"}, <-ch)
}

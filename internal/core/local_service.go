package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/user"
	"sync"

	"github.com/snip-links/snip/internal/config"
	"github.com/snip-links/snip/internal/events"
	"github.com/snip-links/snip/internal/keygen"
	"github.com/snip-links/snip/internal/metrics"
	"github.com/snip-links/snip/internal/store"
	"github.com/snip-links/snip/internal/urlcheck"
	"github.com/snip-links/snip/internal/utils"
)

const randomKeyAttempts = 5

// LocalRedirectService implements RedirectService on top of the local store.
type LocalRedirectService struct {
	InputCh chan any

	// Broadcast fields
	listeners  []chan any
	listenerMu sync.Mutex

	inputMu sync.RWMutex
	closed  bool

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	settings   *config.Settings
	settingsMu sync.RWMutex

	createdBy string
}

// NewLocalRedirectService creates a service backed by the configured store.
// A nil settings value falls back to the defaults.
func NewLocalRedirectService(settings *config.Settings) *LocalRedirectService {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &LocalRedirectService{
		InputCh:   make(chan any, 100),
		listeners: make([]chan any, 0),
		ctx:       ctx,
		cancel:    cancel,
		settings:  settings,
		createdBy: currentUser(),
	}

	go s.broadcastLoop()

	return s
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "snip"
}

// ReloadSettings reloads settings from disk
func (s *LocalRedirectService) ReloadSettings() error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	s.settingsMu.Lock()
	s.settings = settings
	s.settingsMu.Unlock()
	return nil
}

func (s *LocalRedirectService) currentSettings() *config.Settings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

func (s *LocalRedirectService) broadcastLoop() {
	for msg := range s.InputCh {
		s.listenerMu.Lock()
		for _, ch := range s.listeners {
			// Non-blocking send to avoid stalling if a client is slow
			select {
			case ch <- msg:
			default:
			}
		}
		s.listenerMu.Unlock()
	}
	// Close all listeners when input closes
	s.listenerMu.Lock()
	for _, ch := range s.listeners {
		close(ch)
	}
	s.listeners = nil
	s.listenerMu.Unlock()
}

// StreamEvents returns a channel that receives real-time redirect events.
func (s *LocalRedirectService) StreamEvents(ctx context.Context) (<-chan any, func(), error) {
	ch := make(chan any, 100)

	s.inputMu.RLock()
	closed := s.closed
	s.inputMu.RUnlock()
	if closed {
		return nil, func() {}, ErrServiceClosed
	}

	s.listenerMu.Lock()
	s.listeners = append(s.listeners, ch)
	s.listenerMu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() { s.removeListener(ch) })
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-s.ctx.Done():
		}
		cleanup()
	}()

	return ch, cleanup, nil
}

// removeListener closes ch if it is still registered.
func (s *LocalRedirectService) removeListener(ch chan any) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	for i, listener := range s.listeners {
		if listener == ch {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish queues msg for every listener. Messages are dropped when the
// queue is full.
func (s *LocalRedirectService) Publish(msg any) error {
	s.inputMu.RLock()
	defer s.inputMu.RUnlock()
	if s.closed {
		return ErrServiceClosed
	}
	select {
	case s.InputCh <- msg:
	default:
		utils.Debug("Event queue full, dropping %T", msg)
	}
	return nil
}

// Shutdown stops the service.
func (s *LocalRedirectService) Shutdown() error {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	// Stop listeners and broadcaster
	s.cancel()
	close(s.InputCh)
	return nil
}

// List returns every stored redirect.
func (s *LocalRedirectService) List() ([]store.Redirect, error) {
	return store.ListRedirects()
}

// Get looks up key.
func (s *LocalRedirectService) Get(key string) (*store.Redirect, error) {
	return store.GetRedirect(key)
}

// Create validates and stores a redirect.
func (s *LocalRedirectService) Create(key, rawURL string) (*store.Redirect, error) {
	if err := urlcheck.Validate(rawURL); err != nil {
		return nil, err
	}
	target := urlcheck.Normalize(rawURL)

	if key != "" {
		if err := keygen.Validate(key); err != nil {
			return nil, err
		}
		return s.save(key, target)
	}

	// Generated keys may collide with existing ones
	for attempt := 0; attempt < randomKeyAttempts; attempt++ {
		generated, err := keygen.Generate(s.currentSettings().General.KeyLength)
		if err != nil {
			return nil, err
		}
		r, err := s.save(generated, target)
		if errors.Is(err, store.ErrKeyExists) {
			continue
		}
		return r, err
	}
	return nil, fmt.Errorf("no free key after %d attempts: %w", randomKeyAttempts, store.ErrKeyExists)
}

func (s *LocalRedirectService) save(key, target string) (*store.Redirect, error) {
	r, err := store.SaveRedirect(key, target, s.redirectHost(), s.createdBy)
	if err != nil {
		return nil, err
	}

	utils.Debug("Created redirect %s -> %s", key, target)
	metrics.RecordChange(metrics.ActionCreated, 1)
	_ = s.Publish(events.RedirectCreatedMsg{Key: r.Key, URL: r.URL})
	return r, nil
}

// redirectHost returns the host short links are served from.
func (s *LocalRedirectService) redirectHost() string {
	u, err := url.Parse(config.GetHostURI(s.currentSettings()))
	if err != nil {
		return ""
	}
	return u.Host
}

// Update points key at a new URL.
func (s *LocalRedirectService) Update(key, rawURL string) (*store.Redirect, error) {
	if err := urlcheck.Validate(rawURL); err != nil {
		return nil, err
	}
	target := urlcheck.Normalize(rawURL)

	r, err := store.UpdateRedirect(key, target)
	if err != nil {
		return nil, err
	}

	utils.Debug("Updated redirect %s -> %s", key, target)
	metrics.RecordChange(metrics.ActionUpdated, 1)
	_ = s.Publish(events.RedirectUpdatedMsg{Key: r.Key, URL: r.URL})
	return r, nil
}

// Delete removes key.
func (s *LocalRedirectService) Delete(key string) error {
	if err := store.DeleteRedirect(key); err != nil {
		return err
	}

	utils.Debug("Deleted redirect %s", key)
	metrics.RecordChange(metrics.ActionDeleted, 1)
	_ = s.Publish(events.RedirectDeletedMsg{Key: key})
	return nil
}

// Import validates every entry before storing any of them.
func (s *LocalRedirectService) Import(list []store.Redirect) (int, error) {
	host := s.redirectHost()
	clean := make([]store.Redirect, 0, len(list))
	for i, r := range list {
		if err := keygen.Validate(r.Key); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if err := urlcheck.Validate(r.URL); err != nil {
			return 0, fmt.Errorf("entry %d (%s): %w", i+1, r.Key, err)
		}
		r.URL = urlcheck.Normalize(r.URL)
		if r.RedirectHost == "" {
			r.RedirectHost = host
		}
		if r.CreatedBy == "" {
			r.CreatedBy = s.createdBy
		}
		clean = append(clean, r)
	}

	n, err := store.ImportRedirects(clean)
	if err != nil {
		return 0, err
	}

	utils.Debug("Imported %d of %d redirects", n, len(list))
	metrics.RecordChange(metrics.ActionImported, n)
	if n > 0 {
		_ = s.Publish(events.RedirectsImportedMsg{Count: n})
	}
	return n, nil
}

// RandomKey returns a generated key that is not yet in use.
func (s *LocalRedirectService) RandomKey() (string, error) {
	for attempt := 0; attempt < randomKeyAttempts; attempt++ {
		key, err := keygen.Generate(s.currentSettings().General.KeyLength)
		if err != nil {
			return "", err
		}
		if _, err := store.GetRedirect(key); errors.Is(err, store.ErrNotFound) {
			return key, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free key after %d attempts: %w", randomKeyAttempts, store.ErrKeyExists)
}

// RecordVisit counts one visit to key and announces the new total.
func (s *LocalRedirectService) RecordVisit(key string) error {
	if err := store.IncVisits(key); err != nil {
		return err
	}
	r, err := store.GetRedirect(key)
	if err != nil {
		return err
	}
	_ = s.Publish(events.RedirectVisitedMsg{Key: key, Visits: r.Visits})
	return nil
}

package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snip-links/snip/internal/events"
	"github.com/snip-links/snip/internal/store"
	"github.com/snip-links/snip/internal/urlcheck"
	"github.com/snip-links/snip/internal/utils"
)

var ansiEscapeRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type fakeService struct {
	mu         sync.Mutex
	redirects  []store.Redirect
	created    []store.Redirect
	deleted    []string
	nextKey    string
	serverKey  string
	createErr  error
	randomHits int
}

func (f *fakeService) List() ([]store.Redirect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Redirect(nil), f.redirects...), nil
}

func (f *fakeService) Get(key string) (*store.Redirect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.redirects {
		if r.Key == key {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeService) Create(key, url string) (*store.Redirect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if key == "" {
		key = f.serverKey
	}
	r := store.Redirect{Key: key, URL: url}
	f.created = append(f.created, r)
	f.redirects = append([]store.Redirect{r}, f.redirects...)
	return &r, nil
}

func (f *fakeService) Update(key, url string) (*store.Redirect, error) {
	return &store.Redirect{Key: key, URL: url}, nil
}

func (f *fakeService) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeService) Import(list []store.Redirect) (int, error) { return len(list), nil }

func (f *fakeService) RandomKey() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.randomHits++
	return f.nextKey, nil
}

func (f *fakeService) StreamEvents(context.Context) (<-chan any, func(), error) {
	return nil, func() {}, nil
}

func (f *fakeService) Publish(any) error { return nil }
func (f *fakeService) Shutdown() error   { return nil }

type clipboardSpy struct {
	writes []string
	err    error
}

func (c *clipboardSpy) write(text string) error {
	c.writes = append(c.writes, text)
	return c.err
}

func newTestModel(t *testing.T) (RootModel, *fakeService, *clipboardSpy) {
	t.Helper()
	svc := &fakeService{nextKey: "zz99"}
	spy := &clipboardSpy{}
	m := InitialRootModel(svc, "http://localhost:8080", nil)
	m.writeClipboard = spy.write
	m.form.SetValue(FieldURL, "")
	return m, svc, spy
}

// runCmd executes cmd, expanding batches, and returns every message produced
// within a short window. Slow commands such as toast timers are dropped.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	out := make(chan tea.Msg, 16)
	var pending sync.WaitGroup
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		pending.Add(1)
		go func() {
			defer pending.Done()
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, sub := range batch {
					if sub != nil {
						run(sub)
					}
				}
				return
			}
			out <- msg
		}()
	}
	run(cmd)

	var msgs []tea.Msg
	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case msg := <-out:
			msgs = append(msgs, msg)
		case <-deadline:
			return msgs
		}
	}
}

func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m RootModel, msg tea.Msg) (RootModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	rm, ok := next.(RootModel)
	require.True(t, ok)
	return rm, cmd
}

func TestHandleRequestCompleted_IgnoresOtherPaths(t *testing.T) {
	paths := []string{"", "/api/redirect/import", "/ui/redirect_url_input", "/api/redirect/", "/API/REDIRECT"}

	for _, path := range paths {
		for _, successful := range []bool{true, false} {
			m, svc, spy := newTestModel(t)
			m.form.SetValue(FieldURL, "example.com")
			m.form.SetValue(FieldRedirectKey, "ab12")

			cmd := m.HandleRequestCompleted(events.RequestCompletedMsg{RequestPath: path, Successful: successful})

			assert.Nil(t, cmd, "path %q", path)
			assert.Empty(t, m.toasts, "path %q", path)
			assert.Empty(t, spy.writes, "path %q", path)
			assert.Equal(t, "example.com", m.form.Value(FieldURL))
			assert.Equal(t, "ab12", m.form.Value(FieldRedirectKey))
			assert.Zero(t, svc.randomHits)
		}
	}
}

func TestHandleRequestCompleted_Success(t *testing.T) {
	m, svc, spy := newTestModel(t)
	m.form.SetValue(FieldURL, "example.com")
	m.form.SetValue(FieldRedirectKey, "ab12")

	cmd := m.HandleRequestCompleted(events.RequestCompletedMsg{RequestPath: CreateRedirectPath, Successful: true})
	require.NotNil(t, cmd)

	assert.Equal(t, []string{"ab12"}, spy.writes)
	require.Len(t, m.toasts, 1)
	assert.True(t, m.toasts[0].success)
	assert.Equal(t, "Shortend URL copied to clipboard", m.toasts[0].message)
	assert.Equal(t, "", m.form.Value(FieldURL))

	msgs := runCmd(cmd)
	rk, ok := findMsg[randomKeyMsg](msgs)
	require.True(t, ok, "expected a new random key to be requested")
	assert.Equal(t, "zz99", rk.key)
	assert.Equal(t, 1, svc.randomHits)

	m, _ = update(t, m, rk)
	assert.Equal(t, "zz99", m.form.Value(FieldRedirectKey))
}

func TestHandleRequestCompleted_ClipboardFailureStillSucceeds(t *testing.T) {
	m, _, spy := newTestModel(t)
	spy.err = errors.New("no clipboard utilities available")
	m.form.SetValue(FieldURL, "example.com")
	m.form.SetValue(FieldRedirectKey, "ab12")

	m.HandleRequestCompleted(events.RequestCompletedMsg{RequestPath: CreateRedirectPath, Successful: true})

	require.Len(t, m.toasts, 1)
	assert.True(t, m.toasts[0].success)
	assert.Equal(t, "", m.form.Value(FieldURL))
}

func TestHandleRequestCompleted_Failure(t *testing.T) {
	m, svc, spy := newTestModel(t)
	m.form.SetValue(FieldURL, "example.com")
	m.form.SetValue(FieldRedirectKey, "ab12")

	cmd := m.HandleRequestCompleted(events.RequestCompletedMsg{RequestPath: CreateRedirectPath, Successful: false})
	require.NotNil(t, cmd)

	require.Len(t, m.toasts, 1)
	assert.False(t, m.toasts[0].success)
	assert.Equal(t, "Failed to create redirect", m.toasts[0].message)
	assert.Empty(t, spy.writes)
	assert.Equal(t, "example.com", m.form.Value(FieldURL))
	assert.Zero(t, svc.randomHits)
}

func TestToast_ExpiresAfterTick(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Toast(true, "first")
	m.Toast(false, "second")
	require.Len(t, m.toasts, 2)

	m, _ = update(t, m, toastExpiredMsg{id: m.toasts[0].id})
	require.Len(t, m.toasts, 1)
	assert.Equal(t, "second", m.toasts[0].message)

	// Unknown ids are ignored
	m, _ = update(t, m, toastExpiredMsg{id: 999})
	assert.Len(t, m.toasts, 1)
}

func TestForm_ValidatesURLOnEveryChange(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.state = FormState

	m, _ = update(t, m, press("e"))
	assert.Equal(t, urlcheck.InvalidURLMessage, m.form.Validity(FieldURL))

	m.form.SetValue(FieldURL, "example.co")
	m, _ = update(t, m, press("m"))
	assert.Equal(t, "example.com", m.form.Value(FieldURL))
	assert.Equal(t, "", m.form.Validity(FieldURL))
}

func TestForm_SubmitRefusedWhileInvalid(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m.state = FormState
	m.form.SetValue(FieldURL, "http://10.0.0.1")
	m.form.SetValue(FieldRedirectKey, "ab12")

	m, cmd := update(t, m, press("enter"))
	assert.Nil(t, cmd)
	assert.False(t, m.submitting)
	assert.Equal(t, urlcheck.InvalidURLMessage, m.form.Validity(FieldURL))
	assert.Empty(t, svc.created)

	m.form.SetValue(FieldURL, "example.com")
	m.form.SetValue(FieldRedirectKey, "api")
	_, cmd = update(t, m, press("enter"))
	assert.Nil(t, cmd, "reserved keys are refused")
}

func TestForm_SubmitCreatesRedirect(t *testing.T) {
	m, svc, spy := newTestModel(t)
	m.state = FormState
	m.form.SetValue(FieldURL, "example.com")
	m.form.SetValue(FieldRedirectKey, "ab12")

	m, cmd := update(t, m, press("enter"))
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)

	// A second enter while the request is in flight does nothing
	_, again := update(t, m, press("enter"))
	assert.Nil(t, again)

	done, ok := findMsg[events.RequestCompletedMsg](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, CreateRedirectPath, done.RequestPath)
	assert.True(t, done.Successful)
	require.Len(t, svc.created, 1)
	assert.Equal(t, store.Redirect{Key: "ab12", URL: "example.com"}, svc.created[0])

	m, _ = update(t, m, done)
	assert.False(t, m.submitting)
	assert.Equal(t, []string{"ab12"}, spy.writes)
	assert.Equal(t, FormState, m.state)
}

func TestForm_SubmitWithEmptyKeyCopiesServerKey(t *testing.T) {
	m, svc, spy := newTestModel(t)
	svc.serverKey = "k7q2"
	m.state = FormState
	m.form.SetValue(FieldURL, "example.com")
	m.form.SetValue(FieldRedirectKey, "")

	m, cmd := update(t, m, press("enter"))
	require.NotNil(t, cmd)

	done, ok := findMsg[events.RequestCompletedMsg](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, "k7q2", done.Key)

	m, _ = update(t, m, done)
	assert.Equal(t, []string{"k7q2"}, spy.writes)
	require.NotEmpty(t, m.toasts)
	assert.Equal(t, "Shortend URL copied to clipboard", m.toasts[0].message)
}

func TestForm_SubmitFailureShowsToast(t *testing.T) {
	m, svc, _ := newTestModel(t)
	svc.createErr = store.ErrKeyExists
	m.state = FormState
	m.form.SetValue(FieldURL, "example.com")
	m.form.SetValue(FieldRedirectKey, "ab12")

	m, cmd := update(t, m, press("enter"))
	done, ok := findMsg[events.RequestCompletedMsg](runCmd(cmd))
	require.True(t, ok)
	assert.False(t, done.Successful)
	assert.ErrorIs(t, done.Err, store.ErrKeyExists)

	logDir := t.TempDir()
	utils.ConfigureDebug(logDir)
	t.Cleanup(func() { utils.ConfigureDebug("") })

	m, _ = update(t, m, done)
	require.Len(t, m.toasts, 1)
	assert.Equal(t, "Failed to create redirect", m.toasts[0].message)

	logs, err := filepath.Glob(filepath.Join(logDir, "*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), FormID+": create redirect failed")
}

func TestForm_RandomizeFillsKey(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.state = FormState

	_, cmd := update(t, m, press("ctrl+r"))
	rk, ok := findMsg[randomKeyMsg](runCmd(cmd))
	require.True(t, ok)

	m, _ = update(t, m, rk)
	assert.Equal(t, "zz99", m.form.Value(FieldRedirectKey))
}

func TestForm_TabMovesFocusAndValidatesOnBlur(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.state = FormState
	m.form.SetValue(FieldURL, "not a url")

	m, _ = update(t, m, press("tab"))
	assert.Equal(t, FieldRedirectKey, m.form.Focused())
	assert.Equal(t, urlcheck.InvalidURLMessage, m.form.Validity(FieldURL))

	m, _ = update(t, m, press("tab"))
	assert.Equal(t, FieldURL, m.form.Focused())

	m, _ = update(t, m, press("esc"))
	assert.Equal(t, DashboardState, m.state)
}

func TestDashboard_DeleteFlow(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m, _ = update(t, m, redirectsLoadedMsg{redirects: []store.Redirect{
		{Key: "aaaa", URL: "http://a.example"},
		{Key: "bbbb", URL: "http://b.example"},
	}})

	m, _ = update(t, m, press("j"))
	assert.Equal(t, 1, m.cursor)

	m, _ = update(t, m, press("x"))
	require.Equal(t, ConfirmDeleteState, m.state)
	assert.Contains(t, ansiEscapeRE.ReplaceAllString(m.View(), ""), "bbbb")

	m, cmd := update(t, m, press("y"))
	assert.Equal(t, DashboardState, m.state)
	done, ok := findMsg[deleteCompletedMsg](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, []string{"bbbb"}, svc.deleted)

	m, _ = update(t, m, done)
	require.Len(t, m.toasts, 1)
	assert.Equal(t, "Redirect deleted successfully", m.toasts[0].message)
}

func TestDashboard_CopyShortURL(t *testing.T) {
	m, _, spy := newTestModel(t)
	m, _ = update(t, m, redirectsLoadedMsg{redirects: []store.Redirect{{Key: "aaaa", URL: "http://a.example"}}})

	m, _ = update(t, m, press("c"))
	assert.Equal(t, []string{"http://localhost:8080/aaaa"}, spy.writes)
	require.Len(t, m.toasts, 1)
	assert.True(t, m.toasts[0].success)
}

func TestDashboard_VisitEventUpdatesCount(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, redirectsLoadedMsg{redirects: []store.Redirect{{Key: "aaaa", URL: "http://a.example", Visits: 1}}})

	m, _ = update(t, m, events.RedirectVisitedMsg{Key: "aaaa", Visits: 7})
	assert.EqualValues(t, 7, m.redirects[0].Visits)
}

func TestDashboard_EventsAreConsumedFromChannel(t *testing.T) {
	ch := make(chan any, 1)
	svc := &fakeService{}
	m := InitialRootModel(svc, "", ch)

	ch <- events.RedirectDeletedMsg{Key: "gone"}
	msgs := runCmd(listenForActivity(m.events))
	_, ok := findMsg[events.RedirectDeletedMsg](msgs)
	assert.True(t, ok)

	close(ch)
	_, ok = findMsg[eventsClosedMsg](runCmd(listenForActivity(m.events)))
	assert.True(t, ok)
}

func TestView_RendersRowsAndToasts(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, redirectsLoadedMsg{redirects: []store.Redirect{
		{Key: "aaaa", URL: "http://a.example", Visits: 3},
	}})
	m.Toast(true, "Shortend URL copied to clipboard")

	view := ansiEscapeRE.ReplaceAllString(m.View(), "")
	assert.Contains(t, view, "aaaa")
	assert.Contains(t, view, "http://a.example")
	assert.Contains(t, view, "Redirects (1)")
	assert.Contains(t, view, "Shortend URL copied to clipboard")

	lines := strings.Split(view, "\n")
	assert.LessOrEqual(t, len(lines), 30)
	var toastLine string
	for _, l := range lines {
		if strings.Contains(l, "Shortend URL") {
			toastLine = l
		}
	}
	assert.Greater(t, strings.Index(toastLine, "Shortend"), 40, "toast should be right-aligned")
}

func TestView_FormShowsValidity(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.state = FormState
	m.form.SetValue(FieldURL, "nope")
	m.form.ValidateURL()

	view := ansiEscapeRE.ReplaceAllString(m.View(), "")
	assert.Contains(t, view, "Shorten a URL")
	assert.Contains(t, view, urlcheck.InvalidURLMessage)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 4, "abc…"},
		{"ünïcode", 3, "ün…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n))
	}
}

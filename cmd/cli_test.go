package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

const apiPrefix = "/wp-json/fasttrack/v1"

type fakeFast struct {
	ID             int     `json:"id"`
	StartTime      string  `json:"start_time"`
	TargetHours    float64 `json:"target_hours"`
	Protocol       string  `json:"protocol"`
	PausedAt       *string `json:"paused_at"`
	PausedDuration int64   `json:"paused_duration"`
}

// fakeBackend is an in-memory stand-in for the FastTrack REST API.
type fakeBackend struct {
	mu      sync.Mutex
	fast    *fakeFast
	nextID  int
	streak  int
	created []map[string]any
	calls   []string
	auth    []string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	backend := &fakeBackend{nextID: 41, streak: 3}

	r := mux.NewRouter()
	api := r.PathPrefix(apiPrefix).Subrouter()
	api.Use(backend.record)
	api.HandleFunc("/fasts/active", backend.active).Methods(http.MethodGet)
	api.HandleFunc("/fasts", backend.create).Methods(http.MethodPost)
	api.HandleFunc("/fasts/{id}/end", backend.end).Methods(http.MethodPost)
	api.HandleFunc("/fasts/{id}/pause", backend.pause).Methods(http.MethodPost)
	api.HandleFunc("/fasts/{id}/resume", backend.resume).Methods(http.MethodPost)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return backend, server
}

func (b *fakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, req.Method+" "+req.URL.Path[len(apiPrefix):])
		b.auth = append(b.auth, req.Header.Get("Authorization"))
		b.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (b *fakeBackend) seed(startedAt time.Time, protocol string, target float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.fast = &fakeFast{
		ID:          b.nextID,
		StartTime:   startedAt.UTC().Format(time.RFC3339),
		TargetHours: target,
		Protocol:    protocol,
	}
}

func (b *fakeBackend) current() *fakeFast {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fast == nil {
		return nil
	}
	fast := *b.fast
	return &fast
}

func (b *fakeBackend) createdRequests() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.created...)
}

func (b *fakeBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) lastAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.auth) == 0 {
		return ""
	}
	return b.auth[len(b.auth)-1]
}

func (b *fakeBackend) active(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, map[string]any{"fast": b.fast})
}

func (b *fakeBackend) create(w http.ResponseWriter, req *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"code": "bad_json", "message": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fast != nil {
		writeFakeJSON(w, http.StatusConflict, map[string]string{"code": "fast_active", "message": "a fast is already active"})
		return
	}

	backdate, _ := body["backdate_minutes"].(float64)
	target, _ := body["target_hours"].(float64)
	protocol, _ := body["protocol"].(string)

	b.created = append(b.created, body)
	b.nextID++
	b.fast = &fakeFast{
		ID:          b.nextID,
		StartTime:   time.Now().Add(-time.Duration(backdate) * time.Minute).UTC().Format(time.RFC3339),
		TargetHours: target,
		Protocol:    protocol,
	}
	writeFakeJSON(w, http.StatusCreated, map[string]any{"fast": b.fast})
}

func (b *fakeBackend) end(w http.ResponseWriter, req *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.matches(req) {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "no such fast"})
		return
	}
	b.fast = nil
	writeFakeJSON(w, http.StatusOK, map[string]any{"freeze_earned": false, "streak": b.streak})
}

func (b *fakeBackend) pause(w http.ResponseWriter, req *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.matches(req) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	pausedAt := time.Now().UTC().Format(time.RFC3339)
	b.fast.PausedAt = &pausedAt
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) resume(w http.ResponseWriter, req *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.matches(req) || b.fast.PausedAt == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if pausedAt, err := time.Parse(time.RFC3339, *b.fast.PausedAt); err == nil {
		b.fast.PausedDuration += time.Since(pausedAt).Milliseconds()
	}
	b.fast.PausedAt = nil
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) matches(req *http.Request) bool {
	id, err := strconv.Atoi(mux.Vars(req)["id"])
	return err == nil && b.fast != nil && b.fast.ID == id
}

func writeFakeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestStartStatusEndFlow(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)

	stdout, stderr, err := executeCLI(t, home, "start", "--protocol", "18:6", "--backdate", "30m")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Started 18:6 fast")
	assert.Contains(t, stdout, "target 18h, id 42")
	assert.Contains(t, stderr, "Fast started")

	current := backend.current()
	require.NotNil(t, current)
	assert.Equal(t, "18:6", current.Protocol)
	assert.Equal(t, float64(30), backend.createdRequests()[0]["backdate_minutes"])

	stdout, _, err = executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, "42", payload["id"])
	assert.Equal(t, "active", payload["status"])
	assert.Equal(t, "18:6", payload["protocol"])
	assert.Equal(t, "Anabolic", payload["zone"])
	assert.InDelta(t, 1800, payload["elapsed_seconds"], 120)

	stdout, stderr, err = executeCLI(t, home, "end", "--notes", "easy", "--mood", "good")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Fast ended after")
	assert.Contains(t, stdout, "Streak: 3")
	assert.Contains(t, stderr, "Fast completed")
	assert.Nil(t, backend.current())
}

func TestStatusRendersActiveFast(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)
	backend.seed(time.Now().Add(-13*time.Hour), "16:8", 16)

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fasting")
	assert.Contains(t, stdout, "Ketosis")
	assert.Contains(t, stdout, "16:8")
}

func TestStatusWhenIdle(t *testing.T) {
	home := t.TempDir()
	_, server := newFakeBackend(t)
	useBackend(t, server)

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No fast in progress.")

	stdout, _, err = executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"status\": \"idle\"")
	assert.NotContains(t, stdout, "started_at")
}

func TestStatusDiscardsStaleRemoteFast(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)
	backend.seed(time.Now().Add(-8*24*time.Hour), "16:8", 16)

	stdout, _, err := executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"status\": \"idle\"")
	assert.Nil(t, backend.current(), "stale fast is ended remotely")
	assert.Equal(t, []string{"GET /fasts/active", "POST /fasts/42/end"}, backend.callLog())
}

func TestStatusSurvivesUnreachableServer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FT_API_BASE_URL", "http://127.0.0.1:1"+apiPrefix)
	t.Setenv("FT_API_TIMEOUT", "2s")
	t.Setenv("FT_API_TOKEN", "token")
	t.Setenv("FT_NOTIFY_BACKEND", "console")

	stdout, stderr, err := executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"status\": \"idle\"")
	assert.Contains(t, stderr, "Fetch active fast failed")
}

func TestStartWhileFastRunningFails(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)
	backend.seed(time.Now().Add(-time.Hour), "16:8", 16)

	_, _, err := executeCLI(t, home, "start")
	require.ErrorIs(t, err, domain.ErrFastInProgress)
	assert.Empty(t, backend.createdRequests())
}

func TestStartRejectsUnknownProtocolAndNegativeBackdate(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)

	_, _, err := executeCLI(t, home, "start", "--protocol", "pigeon")
	require.ErrorIs(t, err, domain.ErrUnknownProtocol)

	_, _, err = executeCLI(t, home, "start", "--backdate=-10m")
	require.ErrorIs(t, err, domain.ErrInvalidBackdate)

	assert.Empty(t, backend.createdRequests())
}

func TestEndWithoutFast(t *testing.T) {
	home := t.TempDir()
	_, server := newFakeBackend(t)
	useBackend(t, server)

	stdout, _, err := executeCLI(t, home, "end")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No fast in progress.")
}

func TestPauseAndResume(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)
	backend.seed(time.Now().Add(-2*time.Hour), "16:8", 16)

	stdout, _, err := executeCLI(t, home, "pause")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Fast paused at 2h")
	require.NotNil(t, backend.current().PausedAt)

	stdout, _, err = executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"status\": \"paused\"")

	stdout, _, err = executeCLI(t, home, "pause")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No running fast to pause.")

	stdout, _, err = executeCLI(t, home, "resume")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Fast resumed")
	assert.Nil(t, backend.current().PausedAt)
}

func TestProtocolsUseSetsNextFast(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)

	stdout, _, err := executeCLI(t, home, "protocols")
	require.NoError(t, err)
	assert.Contains(t, stdout, "* 16:8")
	assert.Contains(t, stdout, "72h (72h fast)")

	stdout, _, err = executeCLI(t, home, "protocols", "use", "omad")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Next fast will use OMAD")

	stdout, _, err = executeCLI(t, home, "protocols")
	require.NoError(t, err)
	assert.Contains(t, stdout, "* OMAD")

	_, _, err = executeCLI(t, home, "start")
	require.NoError(t, err)
	require.Len(t, backend.createdRequests(), 1)
	assert.Equal(t, "OMAD", backend.createdRequests()[0]["protocol"])
	assert.Equal(t, float64(23), backend.createdRequests()[0]["target_hours"])
}

func TestProtocolsUseRejectedDuringFast(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)
	backend.seed(time.Now().Add(-time.Hour), "16:8", 16)

	_, _, err := executeCLI(t, home, "protocols", "use", "18:6")
	require.ErrorIs(t, err, domain.ErrFastInProgress)
}

func TestZonesListsEveryZone(t *testing.T) {
	home := t.TempDir()
	_, server := newFakeBackend(t)
	useBackend(t, server)

	stdout, _, err := executeCLI(t, home, "zones")
	require.NoError(t, err)
	for _, zone := range domain.Zones() {
		assert.Contains(t, stdout, zone.Name)
	}
}

func TestWaterAddAndStatus(t *testing.T) {
	home := t.TempDir()
	_, server := newFakeBackend(t)
	useBackend(t, server)

	stdout, _, err := executeCLI(t, home, "water", "add", "500")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Water today: 500 / 2,500 ml (20%)")

	_, _, err = executeCLI(t, home, "water", "add", "750")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "water", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Water today: 1,250 / 2,500 ml (50%)")

	_, _, err = executeCLI(t, home, "water", "add", "a glass")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, _, err = executeCLI(t, home, "water", "add", "0")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestAuthSetAndRemoveControlsBearerToken(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)
	t.Setenv("FT_API_TOKEN", "")
	t.Setenv("PATH", "")

	stdout, _, err := executeCLI(t, home, "auth", "set", "--token", "secret-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Token stored under fasttrack/api_token")

	_, _, err = executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-1", backend.lastAuth())

	_, _, err = executeCLI(t, home, "auth", "remove")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.Empty(t, backend.lastAuth())
}

func TestAuthSetReadsStdin(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)
	t.Setenv("FT_API_TOKEN", "")
	t.Setenv("PATH", "")

	_, _, err := executeCLIWithInput(t, home, "secret-from-stdin\n", "auth", "set")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-from-stdin", backend.lastAuth())

	_, _, err = executeCLIWithInput(t, home, "", "auth", "set")
	require.ErrorIs(t, err, errEmptyToken)
}

func TestInvalidConfigSurfacesOnEveryCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FT_NOTIFY_BACKEND", "pigeon")

	_, _, err := executeCLI(t, home, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify.backend")
}

func TestWatchSendsMilestoneNotifications(t *testing.T) {
	home := t.TempDir()
	backend, server := newFakeBackend(t)
	useBackend(t, server)
	backend.seed(time.Now().Add(-4*time.Hour-30*time.Minute), "16:8", 16)

	t.Setenv("HOME", home)
	root := newRootCmd()
	stderr := &syncBuffer{}
	root.SetOut(&bytes.Buffer{})
	root.SetErr(stderr)
	root.SetArgs([]string{"watch", "--sync", "0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	assert.Eventually(t, func() bool {
		return bytes.Contains(stderr.Bytes(), []byte("4 hour milestone"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}

	assert.Equal(t, 1, bytes.Count(stderr.Bytes(), []byte("4 hour milestone")))
}

func useBackend(t *testing.T, server *httptest.Server) {
	t.Helper()
	t.Setenv("FT_API_BASE_URL", server.URL+apiPrefix)
	t.Setenv("FT_API_TOKEN", "test-token")
	t.Setenv("FT_NOTIFY_BACKEND", "console")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithInput(t, home, "", args...)
}

func executeCLIWithInput(t *testing.T, home, input string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetIn(bytes.NewBufferString(input))
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

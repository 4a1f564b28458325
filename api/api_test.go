package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"ripple/recording"
	"ripple/store"
)

type countingBackend struct {
	store.Backend
	puts int
}

func (b *countingBackend) Put(rec recording.Recording) error {
	b.puts++
	return b.Backend.Put(rec)
}

func newTestServer(t *testing.T) (*Server, recording.Recording) {
	s, rec, _ := newCountingServer(t)
	return s, rec
}

func newCountingServer(t *testing.T) (*Server, recording.Recording, *countingBackend) {
	t.Helper()
	b := &countingBackend{Backend: store.NewJSONBackend(filepath.Join(t.TempDir(), "recs.json"))}
	lib, err := store.Open(b)
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })

	var payload recording.Recording
	for _, tm := range []float64{1, 2, 3} {
		e, err := recording.NewEvent(tm, map[recording.Finger]string{recording.Thumb: "C_oct4"})
		require.NoError(t, err)
		payload.Insert(e)
	}
	rec, err := lib.Add("warmup", payload)
	require.NoError(t, err)
	return New(lib, 0), rec, b
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestListAndGet(t *testing.T) {
	s, rec := newTestServer(t)

	w := do(t, s, "GET", "/recordings", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]summary](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, summary{ID: rec.ID, Name: "warmup", Duration: 5, Events: 3, Preset: "piano"}, list[0])

	w = do(t, s, "GET", fmt.Sprintf("/recordings/%d", rec.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[recording.Recording](t, w)
	assert.Equal(t, rec.Events[0].ID, got.Events[0].ID)
}

func TestErrors(t *testing.T) {
	s, rec := newTestServer(t)

	tests := []struct {
		method, path, body string
		status             int
	}{
		{"GET", "/recordings/abc", "", http.StatusBadRequest},
		{"GET", "/recordings/42", "", http.StatusNotFound},
		{"DELETE", "/recordings/42", "", http.StatusNotFound},
		{"PUT", fmt.Sprintf("/recordings/%d/events/nope", rec.ID), `{"time":1}`, http.StatusNotFound},
		{"PUT", fmt.Sprintf("/recordings/%d/events/%s", rec.ID, rec.Events[0].ID), `{}`, http.StatusBadRequest},
		{"PUT", fmt.Sprintf("/recordings/%d/events/%s", rec.ID, rec.Events[0].ID), `nope`, http.StatusBadRequest},
		{"DELETE", fmt.Sprintf("/recordings/%d/events/nope", rec.ID), "", http.StatusNotFound},
		{"GET", "/recordings/42/export.mid", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decode[errorBody](t, w).Error)
		})
	}
}

func TestMoveEventReorders(t *testing.T) {
	s, rec := newTestServer(t)
	last := rec.Events[2].ID

	w := do(t, s, "PUT", fmt.Sprintf("/recordings/%d/events/%s", rec.ID, last), `{"time":0.5}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[recording.Recording](t, w)
	assert.Equal(t, last, got.Events[0].ID)
	assert.Equal(t, 0.5, got.Events[0].Time)

	// negative times clamp to zero
	w = do(t, s, "PUT", fmt.Sprintf("/recordings/%d/events/%s", rec.ID, last), `{"time":-3}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode[recording.Recording](t, w).Events[0].Time)
}

func TestUnknownEventWritesNothing(t *testing.T) {
	s, rec, b := newCountingServer(t)
	before := b.puts

	w := do(t, s, "PUT", fmt.Sprintf("/recordings/%d/events/nope", rec.ID), `{"time":0.5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, s, "DELETE", fmt.Sprintf("/recordings/%d/events/nope", rec.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, before, b.puts)
}

func TestDeleteEventAndRecording(t *testing.T) {
	s, rec := newTestServer(t)

	w := do(t, s, "DELETE", fmt.Sprintf("/recordings/%d/events/%s", rec.ID, rec.Events[1].ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[recording.Recording](t, w).Events, 2)

	w = do(t, s, "DELETE", fmt.Sprintf("/recordings/%d", rec.ID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, "GET", "/recordings", "")
	assert.Empty(t, decode[[]summary](t, w))
}

func TestExport(t *testing.T) {
	s, rec := newTestServer(t)

	w := do(t, s, "GET", fmt.Sprintf("/recordings/%d/export.mid", rec.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))

	sm, err := smf.ReadFrom(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Len(t, sm.Tracks, 1)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler([]string{"http://localhost:5173"})

	r := httptest.NewRequest("GET", "/recordings", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

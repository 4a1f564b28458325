package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"ripple/debug"
	"ripple/midi"
	"ripple/recording"
	"ripple/store"
)

var errEventNotFound = errors.New("event not found")

// Server exposes the saved-recordings library over HTTP
type Server struct {
	lib     *store.Library
	channel uint8
	router  *mux.Router
}

// New builds the routes. channel is used for MIDI export.
func New(lib *store.Library, channel uint8) *Server {
	s := &Server{lib: lib, channel: channel}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/recordings", s.handleList).Methods("GET")
	router.HandleFunc("/recordings/{id}", s.handleGet).Methods("GET")
	router.HandleFunc("/recordings/{id}", s.handleDelete).Methods("DELETE")
	router.HandleFunc("/recordings/{id}/events/{eventID}", s.handleMoveEvent).Methods("PUT")
	router.HandleFunc("/recordings/{id}/events/{eventID}", s.handleDeleteEvent).Methods("DELETE")
	router.HandleFunc("/recordings/{id}/export.mid", s.handleExport).Methods("GET")
	s.router = router
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler wraps the routes with CORS for origins
func (s *Server) Handler(origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
	})
	return c.Handler(s)
}

type summary struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	Events   int     `json:"events"`
	Preset   string  `json:"preset"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs := s.lib.List()
	out := make([]summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, summary{
			ID:       rec.ID,
			Name:     rec.Name,
			Duration: rec.Duration,
			Events:   len(rec.Events),
			Preset:   rec.PresetOrDefault(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := recordingID(w, r)
	if !ok {
		return
	}
	rec, err := s.lib.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := recordingID(w, r)
	if !ok {
		return
	}
	if err := s.lib.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Time *float64 `json:"time"`
}

func (s *Server) handleMoveEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := recordingID(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Time == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "body must be {\"time\": seconds}"})
		return
	}

	eventID := mux.Vars(r)["eventID"]
	rec, err := s.editEvent(id, eventID, func(rec *recording.Recording) {
		rec.Move(eventID, *req.Time)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := recordingID(w, r)
	if !ok {
		return
	}
	eventID := mux.Vars(r)["eventID"]
	rec, err := s.editEvent(id, eventID, func(rec *recording.Recording) {
		rec.Delete(eventID)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// editEvent applies fn only when the recording holds eventID
func (s *Server) editEvent(id int64, eventID string, fn func(*recording.Recording)) (recording.Recording, error) {
	found := false
	rec, err := s.lib.Edit(id, func(rec *recording.Recording) bool {
		if rec.Index(eventID) < 0 {
			return false
		}
		found = true
		fn(rec)
		return true
	})
	if err != nil {
		return recording.Recording{}, err
	}
	if !found {
		return recording.Recording{}, errEventNotFound
	}
	debug.Log("api", "edited event %s of recording %d", eventID, id)
	return rec, nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := recordingID(w, r)
	if !ok {
		return
	}
	rec, err := s.lib.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("recording-%d.mid", id)))
	if err := midi.Export(rec, s.channel, w); err != nil {
		debug.L().Error("export failed", zap.Int64("id", id), zap.Error(err))
	}
}

func recordingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid recording id"})
		return 0, false
	}
	return id, true
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, errEventNotFound):
		status = http.StatusNotFound
	default:
		debug.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

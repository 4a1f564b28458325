package store

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"ripple/debug"
	"ripple/recording"
)

var ErrNotFound = errors.New("recording not found")

// Backend persists the saved-recordings set
type Backend interface {
	Load() ([]recording.Recording, error)
	Put(rec recording.Recording) error
	Delete(id int64) error
	Close() error
}

// Backend kinds accepted by OpenBackend
const (
	KindJSON   = "json"
	KindSQLite = "sqlite"
)

// DataDir returns the directory saved recordings live in
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ripple"), nil
}

// OpenBackend opens the backend of the given kind at path.
// An empty path uses the default file in DataDir.
func OpenBackend(kind, path string) (Backend, error) {
	if kind == "" {
		kind = KindJSON
	}
	if path == "" {
		dir, err := DataDir()
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindSQLite:
			path = filepath.Join(dir, "ripple.db")
		default:
			path = filepath.Join(dir, jsonFilename)
		}
	}

	switch kind {
	case KindJSON:
		return NewJSONBackend(path), nil
	case KindSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// Library is the in-memory saved-recordings set. It is read from the backend
// on Open and every mutation is written through before it is visible.
type Library struct {
	mu      sync.Mutex
	backend Backend
	recs    []recording.Recording
	now     func() time.Time
}

// Open loads every saved recording from b
func Open(b Backend) (*Library, error) {
	recs, err := b.Load()
	if err != nil {
		return nil, fmt.Errorf("load recordings: %w", err)
	}
	for i := range recs {
		if !recs[i].Normalize() {
			continue
		}
		// events saved without ids keep the ones assigned now
		if err := b.Put(recs[i]); err != nil {
			return nil, fmt.Errorf("save recording %d: %w", recs[i].ID, err)
		}
	}
	slices.SortStableFunc(recs, func(a, b recording.Recording) int {
		return cmp.Compare(a.ID, b.ID)
	})
	debug.Log("store", "loaded %d recordings", len(recs))
	return &Library{backend: b, recs: recs, now: time.Now}, nil
}

// Add saves a captured payload under name. The id is the creation time in
// milliseconds, bumped if it collides with an existing one.
func (l *Library) Add(name string, payload recording.Recording) (recording.Recording, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return recording.Recording{}, recording.ErrEmptyName
	}
	if len(payload.Events) == 0 {
		return recording.Recording{}, recording.ErrEmptyRecording
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec := payload.Clone()
	rec.Name = name
	rec.ID = l.now().UnixMilli()
	for l.indexLocked(rec.ID) >= 0 {
		rec.ID++
	}
	rec.Normalize()

	if err := l.backend.Put(rec); err != nil {
		return recording.Recording{}, fmt.Errorf("save recording: %w", err)
	}
	l.recs = append(l.recs, rec)
	debug.Log("store", "added id=%d name=%q events=%d", rec.ID, rec.Name, len(rec.Events))
	return rec.Clone(), nil
}

// Update replaces a saved recording
func (l *Library) Update(rec recording.Recording) (recording.Recording, error) {
	if !rec.HasName() {
		return recording.Recording{}, recording.ErrEmptyName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(rec.ID)
	if i < 0 {
		return recording.Recording{}, ErrNotFound
	}
	rec = rec.Clone()
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Normalize()
	if err := l.backend.Put(rec); err != nil {
		return recording.Recording{}, fmt.Errorf("save recording: %w", err)
	}
	l.recs[i] = rec
	return rec.Clone(), nil
}

// Edit applies fn to a copy of recording id and saves the result. When fn
// reports no change nothing is written and the stored recording is returned.
func (l *Library) Edit(id int64, fn func(*recording.Recording) bool) (recording.Recording, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return recording.Recording{}, ErrNotFound
	}
	rec := l.recs[i].Clone()
	if !fn(&rec) {
		return l.recs[i].Clone(), nil
	}
	rec.RecomputeDuration()
	if err := l.backend.Put(rec); err != nil {
		return recording.Recording{}, fmt.Errorf("save recording: %w", err)
	}
	l.recs[i] = rec
	return rec.Clone(), nil
}

// Delete removes a saved recording
func (l *Library) Delete(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	if err := l.backend.Delete(id); err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	l.recs = slices.Delete(l.recs, i, i+1)
	debug.Log("store", "deleted id=%d", id)
	return nil
}

// Get returns a copy of recording id
func (l *Library) Get(id int64) (recording.Recording, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return recording.Recording{}, ErrNotFound
	}
	return l.recs[i].Clone(), nil
}

// List returns copies of every saved recording, oldest first
func (l *Library) List() []recording.Recording {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]recording.Recording, len(l.recs))
	for i, r := range l.recs {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of saved recordings
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recs)
}

// Close closes the backend
func (l *Library) Close() error {
	return l.backend.Close()
}

func (l *Library) indexLocked(id int64) int {
	return slices.IndexFunc(l.recs, func(r recording.Recording) bool { return r.ID == id })
}

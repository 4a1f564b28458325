package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"ripple/recording"
)

const jsonFilename = "ripple-recordings.json"

// JSONBackend keeps the whole set in one JSON array on disk, rewritten on every change
type JSONBackend struct {
	path string
	recs []recording.Recording
}

// NewJSONBackend uses the file at path; it is created on first write
func NewJSONBackend(path string) *JSONBackend {
	return &JSONBackend{path: path}
}

// Path returns the backing file
func (b *JSONBackend) Path() string {
	return b.path
}

func (b *JSONBackend) Load() ([]recording.Recording, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			b.recs = nil
			return []recording.Recording{}, nil
		}
		return nil, err
	}

	var recs []recording.Recording
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	b.recs = recs
	return slices.Clone(recs), nil
}

func (b *JSONBackend) Put(rec recording.Recording) error {
	next := slices.Clone(b.recs)
	if i := slices.IndexFunc(next, func(r recording.Recording) bool { return r.ID == rec.ID }); i >= 0 {
		next[i] = rec
	} else {
		next = append(next, rec)
	}
	return b.write(next)
}

func (b *JSONBackend) Delete(id int64) error {
	next := slices.DeleteFunc(slices.Clone(b.recs), func(r recording.Recording) bool { return r.ID == id })
	return b.write(next)
}

func (b *JSONBackend) Close() error {
	return nil
}

// write replaces the file atomically; the cache only changes once it is on disk
func (b *JSONBackend) write(recs []recording.Recording) error {
	if recs == nil {
		recs = []recording.Recording{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ripple-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return err
	}
	b.recs = recs
	return nil
}

package kg

import (
	"os"
	"sync"
	"time"

	"github.com/scivar-kg/backend/pkg/logger"
)

// Reloader serves read-only graph snapshots backed by the persisted files,
// reloading when the graph file's modification time changes. It lets the
// API server pick up worker builds without restarting.
type Reloader struct {
	graphPath   string
	synonymPath string
	indexPath   string

	mu       sync.Mutex
	store    *Store
	entities *EntityIndex
	mtime    time.Time
}

func NewReloader(graphPath, synonymPath, indexPath string) *Reloader {
	return &Reloader{
		graphPath:   graphPath,
		synonymPath: synonymPath,
		indexPath:   indexPath,
	}
}

// Graph returns the current store and entity index, reloading from disk
// first if the graph file changed since the last load.
func (r *Reloader) Graph() (*Store, *EntityIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mtime := time.Time{}
	if info, err := os.Stat(r.graphPath); err == nil {
		mtime = info.ModTime()
	}
	if r.store != nil && mtime.Equal(r.mtime) {
		return r.store, r.entities
	}

	store := NewStore()
	store.LoadGraph(r.graphPath, r.synonymPath)
	entities := NewEntityIndex()
	if remap, err := entities.Load(r.indexPath); err != nil {
		logger.Warn("could not load entity index", "path", r.indexPath, "error", err)
	} else {
		store.RemapEntityHashes(remap)
	}

	r.store = store
	r.entities = entities
	r.mtime = mtime
	return r.store, r.entities
}

package download

import (
	"errors"
	"sync"
)

// ErrDownloadInProgress is returned when a second download is started for a
// destination that already has an active writer.
var ErrDownloadInProgress = errors.New("download already in progress")

// leaseRegistry grants at most one active lease per destination path. The
// release func must run on every exit path so a failed download never wedges
// its target.
type leaseRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newLeaseRegistry() *leaseRegistry {
	return &leaseRegistry{paths: make(map[string]struct{})}
}

func (r *leaseRegistry) acquire(path string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.paths[path]; held {
		return nil, ErrDownloadInProgress
	}
	r.paths[path] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.paths, path)
			r.mu.Unlock()
		})
	}
	return release, nil
}

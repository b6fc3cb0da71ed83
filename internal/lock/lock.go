// Package lock provides the advisory locks that serialize scheduled work.
// MemoryLocker covers the single-process deployment; FileLocker extends the
// guarantee across processes sharing a filesystem.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// MemoryLocker is an in-process TTL lock table. Expired entries are
// reclaimed on the next TryAcquire for the same name.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// TryAcquire takes the named lock for at most ttl. It never returns an
// error; the in-memory backend cannot fail.
func (l *MemoryLocker) TryAcquire(name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expiry, ok := l.held[name]; ok && now.Before(expiry) {
		return false, nil
	}
	l.held[name] = now.Add(ttl)
	return true, nil
}

func (l *MemoryLocker) Release(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, name)
}

// FileLocker maps lock names to flock-guarded files under a directory. The
// TTL is advisory only: an OS file lock dies with its holder, so stale locks
// cannot outlive a crashed process.
type FileLocker struct {
	dir string

	mu    sync.Mutex
	locks map[string]*flock.Flock
}

func NewFileLocker(dir string) (*FileLocker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}
	return &FileLocker{
		dir:   dir,
		locks: make(map[string]*flock.Flock),
	}, nil
}

func (l *FileLocker) TryAcquire(name string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fl, ok := l.locks[name]
	if !ok {
		fl = flock.New(filepath.Join(l.dir, name+".lock"))
		l.locks[name] = fl
	}
	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("locking %s: %w", name, err)
	}
	return ok, nil
}

func (l *FileLocker) Release(name string) {
	l.mu.Lock()
	fl, ok := l.locks[name]
	l.mu.Unlock()
	if !ok {
		return
	}
	// An unlock failure is not actionable; the OS lock dies with the
	// process either way.
	_ = fl.Unlock()
}

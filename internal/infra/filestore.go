package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

type prefData struct {
	Sets  map[string][]string `json:"sets,omitempty"`
	Bools map[string]bool     `json:"bools,omitempty"`
	Ints  map[string]int64    `json:"ints,omitempty"`
}

// FilePrefStore implements domain.KVStore using a single JSON file with
// atomic write-and-rename updates. A file lock guards read-modify-write
// cycles against a second process.
type FilePrefStore struct {
	mu   sync.Mutex
	path string
}

// NewFilePrefStore creates a store at the given path. The parent
// directory is created on first write.
func NewFilePrefStore(path string) *FilePrefStore {
	return &FilePrefStore{path: path}
}

// Path returns the backing file path (for tests and status output).
func (s *FilePrefStore) Path() string {
	return s.path
}

func (s *FilePrefStore) GetStringSet(ctx context.Context, key string) ([]string, error) {
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Sets[key], nil
}

func (s *FilePrefStore) PutStringSet(ctx context.Context, key string, values []string) error {
	return s.update(func(data *prefData) {
		data.Sets[key] = values
	})
}

func (s *FilePrefStore) GetBool(ctx context.Context, key string) (bool, error) {
	data, err := s.load()
	if err != nil {
		return false, err
	}
	return data.Bools[key], nil
}

func (s *FilePrefStore) PutBool(ctx context.Context, key string, value bool) error {
	return s.update(func(data *prefData) {
		data.Bools[key] = value
	})
}

func (s *FilePrefStore) GetInt64(ctx context.Context, key string) (int64, error) {
	data, err := s.load()
	if err != nil {
		return 0, err
	}
	return data.Ints[key], nil
}

func (s *FilePrefStore) PutInt64(ctx context.Context, key string, value int64) error {
	return s.update(func(data *prefData) {
		data.Ints[key] = value
	})
}

// Changes watches the backing file and pushes a signal immediately and
// then after every write. The channel closes when ctx is canceled.
func (s *FilePrefStore) Changes(ctx context.Context) (<-chan struct{}, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch store directory: %w", err)
	}

	out := make(chan struct{}, 1)
	out <- struct{}{} // current value is a snapshot too

	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				select {
				case out <- struct{}{}:
				default: // a pending signal already covers this change
				}
			case <-watcher.Errors:
				// Watch errors degrade to missed signals, not failures.
			}
		}
	}()
	return out, nil
}

func (s *FilePrefStore) load() (prefData, error) {
	data := prefData{
		Sets:  map[string][]string{},
		Bools: map[string]bool{},
		Ints:  map[string]int64{},
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return data, err
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to decode preference file: %w", err)
	}
	if data.Sets == nil {
		data.Sets = map[string][]string{}
	}
	if data.Bools == nil {
		data.Bools = map[string]bool{}
	}
	if data.Ints == nil {
		data.Ints = map[string]int64{}
	}
	return data, nil
}

func (s *FilePrefStore) update(mutate func(*prefData)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	// File lock guards against a second appguard process racing the
	// read-modify-write cycle.
	lockPath := s.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer lockFile.Close()
	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) }()

	data, err := s.load()
	if err != nil {
		return err
	}
	mutate(&data)
	return s.atomicWrite(data)
}

// atomicWrite writes the preference file via temp file + rename.
func (s *FilePrefStore) atomicWrite(data prefData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	if err := os.WriteFile(tmpPath, raw, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Ensure FilePrefStore implements the store interfaces.
var (
	_ domain.KVStore   = (*FilePrefStore)(nil)
	_ domain.KVWatcher = (*FilePrefStore)(nil)
)

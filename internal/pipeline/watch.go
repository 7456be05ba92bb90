package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Watcher exports every image dropped into a directory.
type Watcher struct {
	dir      string
	bc       BatchConfig
	debounce time.Duration
	fs       *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
	results chan ItemResult
}

// NewWatcher creates a watcher for dir. Call Run to start it.
func NewWatcher(dir string, bc BatchConfig) (*Watcher, error) {
	if err := bc.Target.Validate(); err != nil {
		return nil, err
	}
	if bc.Store == nil {
		return nil, fmt.Errorf("watch requires a store")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch folder %s: %w", abs, err)
	}
	return &Watcher{
		dir:      abs,
		bc:       bc,
		debounce: DefaultDebounce,
		fs:       fsw,
		pending:  make(map[string]*time.Timer),
		results:  make(chan ItemResult, 16),
	}, nil
}

// Results delivers one entry per processed file. It is closed when Run
// returns.
func (w *Watcher) Results() <-chan ItemResult { return w.results }

// Run processes events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		for name, t := range w.pending {
			if t.Stop() {
				w.wg.Done()
			}
			delete(w.pending, name)
		}
		w.mu.Unlock()
		w.wg.Wait()
		w.fs.Close()
		close(w.results)
	}()

	w.bc.logf("watching %s", w.dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !watched(ev.Name) {
				continue
			}
			w.schedule(ctx, ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.bc.logf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[name]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[name] == t {
			delete(w.pending, name)
		}
		w.mu.Unlock()
		w.process(ctx, name)
	})
	w.pending[name] = t
}

func (w *Watcher) process(ctx context.Context, name string) {
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return
	}
	f, ok := scanned(w.dir, name, info)
	if !ok {
		return
	}
	res := ProcessFile(ctx, f, w.bc)
	if res.Err != nil {
		w.bc.logf("error: %s: %v", f.RelPath, res.Err)
	} else {
		w.bc.logf("exported %s -> %s", f.RelPath, res.Path)
	}
	select {
	case w.results <- res:
	case <-ctx.Done():
	}
}

func watched(name string) bool {
	base := filepath.Base(name)
	if hidden(base) {
		return false
	}
	return imagefile.IsImageExt(strings.ToLower(filepath.Ext(base)))
}

// Watch runs a Watcher on dir until ctx is canceled, calling fn for every
// processed file. fn may be nil.
func Watch(ctx context.Context, dir string, bc BatchConfig, fn func(ItemResult)) error {
	w, err := NewWatcher(dir, bc)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	for res := range w.Results() {
		if fn != nil {
			fn(res)
		}
	}
	return <-errCh
}

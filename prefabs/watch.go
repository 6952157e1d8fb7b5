package prefabs

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reload is the outcome of re-reading the watched tuning file. Err is set
// when the new document failed to load or validate; Tuning is then zero.
type Reload struct {
	Path   string
	Tuning Tuning
	Err    error
}

// TuningWatcher re-reads one tuning file from Dir whenever it changes on disk.
type TuningWatcher struct {
	fs   *fsnotify.Watcher
	name string
	path string

	Reloads chan Reload
	Errors  chan error

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// WatchTuning watches the directory holding name's disk override. The
// directory is watched rather than the file so editors that save by rename
// are still seen.
func WatchTuning(name string) (*TuningWatcher, error) {
	if name == "" {
		name = TuningFile
	}
	path := diskPrefabPath(cleanPrefabPath(name))

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &TuningWatcher{
		fs:      fw,
		name:    name,
		path:    filepath.Clean(path),
		Reloads: make(chan Reload, 4),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops watching and closes both channels.
func (w *TuningWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
		<-w.done
		close(w.Reloads)
		close(w.Errors)
	})
	return err
}

func (w *TuningWatcher) run() {
	defer close(w.done)
	var lastMod time.Time
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			// Create and Write usually arrive together; the second one sees
			// the same mod time and is dropped.
			mod, ok := ModTime(w.name)
			if !ok || mod.Equal(lastMod) {
				continue
			}
			lastMod = mod

			t, err := LoadTuning(w.name)
			select {
			case w.Reloads <- Reload{Path: event.Name, Tuning: t, Err: err}:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// Package inbox implements the directory that hands completed segments from
// the recorders to the processor. A name is only ever created in the inbox
// by an atomic rename, so every visible entry is a complete file.
package inbox

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/logger"
)

const (
	dirPermissions = 0o755

	// publishTempPrefix names the hidden staging file used when a segment
	// has to be copied across filesystems before the final rename.
	publishTempPrefix = ".publish-"
)

// Entry is one completed segment in the inbox
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Inbox is a directory of complete segments. Publish, List and Remove are
// safe to call from multiple goroutines.
type Inbox struct {
	dir string
}

// Open creates the inbox directory if needed and removes staging files
// left behind by an interrupted cross-device publish. Existing segments are
// kept so they are processed after a restart.
func Open(dir string) (*Inbox, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, errors.New(fmt.Errorf("create inbox %s: %w", dir, err)).
			Component("inbox").
			Category(errors.CategoryFileIO).
			Build()
	}

	in := &Inbox{dir: dir}
	in.removeStaleStaging()
	return in, nil
}

// Dir returns the inbox directory
func (in *Inbox) Dir() string {
	return in.dir
}

// Path returns the full path of an inbox entry name
func (in *Inbox) Path(name string) string {
	return filepath.Join(in.dir, name)
}

// Publish moves the finished file src into the inbox under name. The entry
// becomes visible in a single rename, even when src lives on another
// filesystem.
func (in *Inbox) Publish(src, name string) error {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid inbox entry name %q", name)
	}

	dst := in.Path(name)
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return errors.New(fmt.Errorf("publish %s: %w", name, err)).
			Component("inbox").
			Category(errors.CategoryFileIO).
			Context("operation", "rename").
			Build()
	}

	GetLogger().Debug("work dir on another filesystem, copying segment",
		logger.String("file", name))
	if err := in.copyIn(src, name); err != nil {
		return errors.New(fmt.Errorf("publish %s across filesystems: %w", name, err)).
			Component("inbox").
			Category(errors.CategoryFileIO).
			Context("operation", "copy").
			Build()
	}
	return os.Remove(src)
}

// copyIn copies src to a hidden staging file inside the inbox, then renames
// it to name, which is atomic because both live on the same filesystem.
func (in *Inbox) copyIn(src, name string) (err error) {
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	tmp, err := os.CreateTemp(in.dir, publishTempPrefix+name+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, in.Path(name))
}

// List returns a snapshot of complete segments in name order. Directories
// and hidden files are skipped, as are entries that vanish while listing.
func (in *Inbox) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(in.dir)
	if err != nil {
		return nil, errors.New(fmt.Errorf("list inbox: %w", err)).
			Component("inbox").
			Category(errors.CategoryFileIO).
			Build()
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !isCandidate(de) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Path:    in.Path(de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// Remove deletes an entry. A file that is already gone is not an error.
func (in *Inbox) Remove(name string) error {
	err := os.Remove(in.Path(name))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.New(fmt.Errorf("remove %s: %w", name, err)).
		Component("inbox").
		Category(errors.CategoryFileIO).
		Build()
}

// Watch returns a channel that receives a value whenever a file appears in
// the inbox. Notifications are coalesced; the channel is closed when ctx is
// done.
func (in *Inbox) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create inbox watcher: %w", err)
	}
	if err := watcher.Add(in.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch inbox %s: %w", in.dir, err)
	}

	notify := make(chan struct{}, 1)
	go func() {
		defer close(notify)
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) || strings.HasPrefix(filepath.Base(event.Name), ".") {
					continue
				}
				select {
				case notify <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				GetLogger().Warn("inbox watcher error", logger.Error(err))
			}
		}
	}()

	return notify, nil
}

func (in *Inbox) removeStaleStaging() {
	matches, err := filepath.Glob(filepath.Join(in.dir, publishTempPrefix+"*"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err == nil {
			GetLogger().Info("removed stale staging file", logger.String("file", filepath.Base(m)))
		}
	}
}

func isCandidate(de fs.DirEntry) bool {
	if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
		return false
	}
	return de.Type().IsRegular()
}

// pkg/index/index.go
package index

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"minivcs/pkg/core"
	"minivcs/pkg/fsutil"
	"minivcs/pkg/logging"

	"go.uber.org/zap"
)

var (
	// ErrPartialAdd marks an add batch that failed part way. The staging area
	// has been wiped when this is returned.
	ErrPartialAdd = errors.New("add failed, index emptied")
	ErrNotStaged  = errors.New("file is not staged")
)

// AddError reports which source broke an add batch.
type AddError struct {
	Path string
	Err  error
}

func (e *AddError) Error() string {
	return fmt.Sprintf("could not copy file %s: %v; index emptied, re-add the whole batch", e.Path, e.Err)
}

func (e *AddError) Unwrap() error { return e.Err }

func (e *AddError) Is(target error) bool { return target == ErrPartialAdd }

// Entry is one staged file.
type Entry struct {
	Name       string    // base name, also the file name under the index dir
	Size       int64     // bytes
	ModifiedAt time.Time // when it was staged
}

// Index is the staging area: a directory holding verbatim copies of staged
// files. Nothing is cached in memory between calls.
type Index struct {
	dir string // .vcs/index
	log *zap.Logger
}

// NewIndex opens an existing staging directory.
func NewIndex(dir string, log *zap.Logger) (*Index, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to open index: %s is not a directory", dir)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Index{dir: dir, log: log.Named("index")}, nil
}

func (i *Index) Dir() string { return i.dir }

// EntryName is the name a source path is staged under.
func EntryName(path string) string {
	return filepath.Base(filepath.Clean(path))
}

// Add copies every source into the index under its base name, using the
// content on disk at the time of the call. The batch is all-or-nothing: on
// the first failure the whole index is discarded and recreated empty, and an
// *AddError is returned.
func (i *Index) Add(paths ...string) ([]Entry, error) {
	added := make([]Entry, 0, len(paths))
	for _, p := range paths {
		entry, err := i.stage(p)
		if err != nil {
			addErr := &AddError{Path: p, Err: err}
			i.log.Warn("add failed, emptying index", zap.String("path", p), zap.Error(err))
			if resetErr := i.Clear(); resetErr != nil {
				return nil, errors.Join(addErr, fmt.Errorf("failed to reset index: %w", resetErr))
			}
			return nil, addErr
		}
		added = append(added, entry)
	}
	return added, nil
}

func (i *Index) stage(path string) (Entry, error) {
	name := EntryName(path)
	if err := core.ValidateFileName(name); err != nil {
		return Entry{}, err
	}

	src, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return Entry{}, err
	}
	if !info.Mode().IsRegular() {
		return Entry{}, fmt.Errorf("%s is not a regular file", path)
	}

	var n int64
	err = fsutil.SafeWriteFrom(filepath.Join(i.dir, name), func(w io.Writer) error {
		var cerr error
		n, cerr = io.Copy(w, src)
		return cerr
	}, 0644)
	if err != nil {
		return Entry{}, err
	}

	i.log.Debug("stage file", zap.String("name", name), zap.Int64("size", n))
	return Entry{Name: name, Size: n, ModifiedAt: time.Now()}, nil
}

// List returns the staged entries sorted by name.
func (i *Index) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if d.IsDir() || fsutil.IsTemp(d.Name()) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat staged file %s: %w", d.Name(), err)
		}
		entries = append(entries, Entry{
			Name:       d.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Name < entries[b].Name })
	return entries, nil
}

// IsEmpty reports whether nothing is staged.
func (i *Index) IsEmpty() (bool, error) {
	entries, err := i.List()
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// Read returns the staged copy of name.
func (i *Index) Read(name string) ([]byte, error) {
	if err := core.ValidateFileName(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotStaged, name)
	}
	data, err := os.ReadFile(filepath.Join(i.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotStaged, name)
	}
	return data, err
}

// Remove unstages the named entries. Missing names are ignored.
func (i *Index) Remove(names ...string) error {
	for _, name := range names {
		if core.ValidateFileName(name) != nil {
			continue
		}
		err := os.Remove(filepath.Join(i.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to unstage %s: %w", name, err)
		}
	}
	return nil
}

// Clear empties the staging area by removing and recreating its directory.
// It is idempotent.
func (i *Index) Clear() error {
	if err := os.RemoveAll(i.dir); err != nil {
		return fmt.Errorf("failed to remove index: %w", err)
	}
	if err := os.MkdirAll(i.dir, 0755); err != nil {
		return fmt.Errorf("failed to recreate index: %w", err)
	}
	return nil
}

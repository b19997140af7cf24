// Package blob stores uploaded identity documents and driver licenses and
// hands back an opaque reference that the profile keeps.
//
// Go Learning Note — "github.com/spf13/afero":
// afero puts a filesystem behind an interface. Production wraps the real disk
// in a BasePathFs rooted at the media directory, so a reference can never
// escape it; tests swap in an in-memory MemMapFs and never touch the disk.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"ridehail/pkg/utils"
)

const (
	PrefixIDs      = "ids"
	PrefixLicenses = "licenses"
)

var ErrNotFound = errors.New("blob not found")

type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewDiskStore roots the store at dir on the local disk.
func NewDiskStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return NewStore(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// Put copies r into a new blob under prefix and returns its reference,
// e.g. "ids/2f1c...-passport.png".
func (s *Store) Put(ctx context.Context, prefix, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(prefix, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", prefix, err)
	}

	ref := path.Join(prefix, utils.GenerateID()+"-"+cleanName(filename))
	f, err := s.fs.OpenFile(ref, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.fs.Remove(ref)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(ref)
		return "", fmt.Errorf("close blob: %w", err)
	}
	return ref, nil
}

// Open returns a reader over a stored blob. The caller closes it.
func (s *Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !validRef(ref) {
		return nil, ErrNotFound
	}
	f, err := s.fs.Open(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return nil
	}
	if err := s.fs.Remove(ref); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// cleanName keeps only the base name and replaces anything outside a small
// safe set.
func cleanName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}

func validRef(ref string) bool {
	if ref == "" || strings.Contains(ref, "..") || strings.HasPrefix(ref, "/") {
		return false
	}
	return strings.HasPrefix(ref, PrefixIDs+"/") || strings.HasPrefix(ref, PrefixLicenses+"/")
}

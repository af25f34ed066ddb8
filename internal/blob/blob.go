package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists attachment bytes and hands back an opaque reference. The
// message core only ever stores the reference.
type Store interface {
	Save(owner, fileName string, r io.Reader) (string, error)
	Open(ref string) (io.ReadCloser, error)
}

// LocalStore keeps uploads on the local filesystem, one subdirectory per
// owner. References are paths relative to the root.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(owner, fileName string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	// uuid prefix keeps same-named uploads from clobbering each other
	name := uuid.NewString() + "-" + filepath.Base(fileName)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(owner, name)), nil
}

func (s *LocalStore) Open(ref string) (io.ReadCloser, error) {
	ref = filepath.Clean(filepath.FromSlash(ref))
	if strings.HasPrefix(ref, "..") || filepath.IsAbs(ref) {
		return nil, fmt.Errorf("invalid blob reference %q", ref)
	}

	return os.Open(filepath.Join(s.root, ref))
}

package certificate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DiskStore writes certificates under a local directory and serves them
// back by relative URL. Swapping in object storage only needs another
// Store implementation.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("certificate dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(_ context.Context, number string, pdf []byte) (string, error) {
	name := number + ".pdf"
	if err := os.WriteFile(filepath.Join(s.dir, name), pdf, 0o644); err != nil {
		return "", err
	}
	return "/certificates/" + name, nil
}

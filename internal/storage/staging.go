package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// StagingDir holds in-progress artifact trees. It lives under the root so the
// final rename never crosses a filesystem; the static handler hides dot paths.
const StagingDir = ".staging"

// Staging is a private directory that becomes <root>/<id> on Commit.
type Staging struct {
	root   string
	id     string
	dir    string
	closed bool
	merged bool
}

// Stage creates a fresh staging tree for id.
func (s *FileStore) Stage(ctx context.Context, id string) (*Staging, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleanID, err := sanitizeKey(id)
	if err != nil || filepath.Base(cleanID) != cleanID {
		return nil, fmt.Errorf("storage: invalid artifact id %q", id)
	}
	dir := filepath.Join(s.basePath, StagingDir, cleanID+"-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create staging dir: %w", err)
	}
	return &Staging{root: s.basePath, id: cleanID, dir: dir}, nil
}

// Write stores data at key inside the staging tree.
func (st *Staging) Write(ctx context.Context, key string, data []byte) (string, error) {
	if st.closed {
		return "", errors.New("storage: staging already closed")
	}
	return writeUnder(ctx, st.dir, key, data)
}

// Commit publishes the staged tree as <root>/<id>. When the target already
// exists the staged files are moved into it one by one.
func (st *Staging) Commit() error {
	if st.closed {
		return errors.New("storage: staging already closed")
	}
	target := filepath.Join(st.root, st.id)
	err := os.Rename(st.dir, target)
	if err != nil {
		if _, statErr := os.Stat(target); statErr != nil {
			return fmt.Errorf("storage: commit: %w", err)
		}
		if err := mergeInto(st.dir, target); err != nil {
			return fmt.Errorf("storage: commit merge: %w", err)
		}
		_ = os.RemoveAll(st.dir)
		st.merged = true
	}
	st.closed = true
	return nil
}

// Merged reports whether Commit found <root>/<id> already present and moved
// the staged files into it, replacing same-named files.
func (st *Staging) Merged() bool { return st.merged }

// Discard removes the staged tree. It is safe to call after Commit.
func (st *Staging) Discard() error {
	if st.closed {
		return nil
	}
	st.closed = true
	return os.RemoveAll(st.dir)
}

func mergeInto(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return os.Rename(path, target)
	})
}

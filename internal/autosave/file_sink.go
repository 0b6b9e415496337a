package autosave

import (
	"context"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// FileSink writes the state as an indented JSON payload that LoadPayload can
// read back. Writes go to a temp file in the same directory and are renamed
// into place.
type FileSink struct {
	Path string
}

func (f FileSink) Name() string { return "file" }

func (f FileSink) Save(_ context.Context, _ string, _ uint64, snap layout.Snapshot) error {
	st := snap.State()
	data, err := st.Encode()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode state").Build()
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fsError(err, dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return fsError(err, dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fsError(err, tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fsError(err, tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return fsError(err, tmp.Name())
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fsError(err, f.Path)
	}
	return nil
}

func fsError(err error, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, "autosave write failed").
		WithContext("path", path).
		Build()
}

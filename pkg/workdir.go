package ada

import (
	"os"
	"path/filepath"
)

// WorkDir is a scoped temp directory holding a transaction's
// intermediate artifacts: draft/raw/signed body files and decrypted
// signing keys. Close removes everything; callers defer it immediately
// after NewWorkDir so key material never outlives the pipeline,
// whichever exit path is taken.
type WorkDir struct {
	path string
}

func NewWorkDir() (*WorkDir, error) {
	path, err := os.MkdirTemp("", "adawallet-tx-")
	if err != nil {
		return nil, NewErr(UnknownError, "cannot create tx work dir: %v", err)
	}
	return &WorkDir{path: path}, nil
}

// File returns the path for a named artifact inside the work dir.
func (w *WorkDir) File(name string) string {
	return filepath.Join(w.path, name)
}

// WriteFile writes sensitive material (decrypted keys, metadata) into
// the work dir, owner-read-only.
func (w *WorkDir) WriteFile(name string, data []byte) (string, error) {
	path := w.File(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", NewErr(UnknownError, "cannot write %s: %v", name, err)
	}
	return path, nil
}

func (w *WorkDir) Close() error {
	return os.RemoveAll(w.path)
}

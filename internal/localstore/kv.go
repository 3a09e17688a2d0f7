package localstore

import (
	"os"
	"path/filepath"
	"strings"
)

// KV is the synchronous string key-value store the adapter persists to.
// Implementations must be safe to call with a broken backing medium:
// Set/Remove are best-effort, Get reports absence instead of failing.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// fileKV keeps one file per key inside a directory. It is the server-side
// analog of browser localStorage: flat string keys scoped to the whole
// app, tolerating quota/permission problems by degrading to a no-op.
type fileKV struct {
	dir string
}

// NewFileKV returns a file-backed KV rooted at dir. The directory is
// created lazily on the first Set; a missing or unwritable directory
// makes the store behave as empty.
func NewFileKV(dir string) KV {
	return &fileKV{dir: dir}
}

func (f *fileKV) Get(key string) (string, bool) {
	raw, err := os.ReadFile(f.path(key))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (f *fileKV) Set(key, value string) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return
	}
	// Write-then-rename so a crash mid-write never leaves a torn value.
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, f.path(key))
}

func (f *fileKV) Remove(key string) {
	_ = os.Remove(f.path(key))
}

func (f *fileKV) path(key string) string {
	// Keys are fixed app constants plus account ids; the replacement
	// guards against separators sneaking into a filename.
	safe := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(key)
	return filepath.Join(f.dir, safe+".json")
}

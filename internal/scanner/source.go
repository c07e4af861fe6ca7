package scanner

import (
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing/fstest"
)

// Source is where the scanner finds documents.
type Source interface {
	// Read returns the decoded text of the document at path.
	Read(path string) (string, error)
	// Exists reports whether path names an existing file.
	Exists(path string) bool
	// DirExists reports whether path names an existing directory.
	DirExists(path string) bool
	// WalkDir walks the tree rooted at root in lexical order.
	WalkDir(root string, fn fs.WalkDirFunc) error
}

// BufferPool manages reusable buffers for file reading.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a pool of buffers sized for typical documents.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 64*1024))
			},
		},
	}
}

// Get retrieves an empty buffer from the pool.
func (bp *BufferPool) Get() *bytes.Buffer {
	b := bp.pool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// Put returns a buffer to the pool. Buffers that grew past 1MB are dropped.
func (bp *BufferPool) Put(b *bytes.Buffer) {
	if b.Cap() <= 1024*1024 {
		bp.pool.Put(b)
	}
}

// FileSource reads documents from the local file system.
type FileSource struct {
	buffers *BufferPool
}

// NewFileSource creates a file system source.
func NewFileSource() *FileSource {
	return &FileSource{buffers: NewBufferPool()}
}

func (s *FileSource) Read(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	if _, err := buf.ReadFrom(f); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *FileSource) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *FileSource) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (s *FileSource) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// MapSource is an in-memory Source keyed by slash-separated relative
// paths such as "docs/index.html". Absolute paths under the working
// directory map to the same keys, so link targets resolved to absolute
// paths are still found.
type MapSource struct {
	fsys fstest.MapFS
}

// NewMapSource creates a source holding the given documents.
func NewMapSource(docs map[string]string) *MapSource {
	fsys := make(fstest.MapFS, len(docs))
	for name, text := range docs {
		fsys[name] = &fstest.MapFile{Data: []byte(text), Mode: 0o644}
	}
	return &MapSource{fsys: fsys}
}

// Add stores or replaces a document.
func (s *MapSource) Add(name, text string) {
	s.fsys[name] = &fstest.MapFile{Data: []byte(text), Mode: 0o644}
}

// Remove deletes a document.
func (s *MapSource) Remove(name string) {
	delete(s.fsys, name)
}

func (s *MapSource) Read(name string) (string, error) {
	data, err := fs.ReadFile(s.fsys, mapKey(name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *MapSource) Exists(name string) bool {
	info, err := fs.Stat(s.fsys, mapKey(name))
	return err == nil && !info.IsDir()
}

// DirExists is true for any directory implied by a stored document's key.
func (s *MapSource) DirExists(name string) bool {
	info, err := fs.Stat(s.fsys, mapKey(name))
	return err == nil && info.IsDir()
}

func (s *MapSource) WalkDir(root string, fn fs.WalkDirFunc) error {
	return fs.WalkDir(s.fsys, mapKey(root), fn)
}

func mapKey(p string) string {
	if filepath.IsAbs(p) {
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, p); err == nil {
				p = rel
			}
		}
	}
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
}

package config

import (
	"os"
	"path"
	"sync"
)

// fileStore reads and writes the raw bytes of a config file.
// The parent directory is created on first write.
type fileStore struct {
	Dirname  string
	FileName string
	FullPath string
	mu       sync.Mutex
}

func newFileStore(dirName string, filename string) *fileStore {
	return &fileStore{Dirname: dirName, FileName: filename, FullPath: path.Join(dirName, filename)}
}

func (f *fileStore) Set(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !fileExists(f.FullPath) { // if the file does not exist...
		if err := makeDir(f.Dirname); err != nil { // if we could not create the config directory...
			return err
		}
	}
	return os.WriteFile(f.FullPath, b, 0600) // may contain DSN passwords
}

func (f *fileStore) Get() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !fileExists(f.FullPath) { // if the file does not exist...
		return nil, FileNotFoundError{f.FullPath}
	}
	return os.ReadFile(f.FullPath)
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PhotoStore writes normalized photos to the photos directory. Writes are
// refused once the directory grows past the configured cap so a busy
// instance cannot fill the disk.
type PhotoStore struct {
	photosDir string
	maxSizeGB int64
	mu        sync.Mutex
}

func NewPhotoStore(photosDir string, maxSizeGB int64) *PhotoStore {
	return &PhotoStore{
		photosDir: photosDir,
		maxSizeGB: maxSizeGB,
	}
}

// Save writes one normalized JPEG to disk and returns its filename, full
// path and size. Filenames are timestamped so the history sorts naturally:
// 2006-01-02_15-04-05.000_source.jpg
func (s *PhotoStore) Save(data []byte, source string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.photosDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create photos directory: %w", err)
	}

	size, err := s.directorySize()
	if err != nil {
		return "", "", err
	}
	if size+int64(len(data)) > s.maxSizeGB*1024*1024*1024 {
		return "", "", fmt.Errorf("photos directory exceeds %d GB limit", s.maxSizeGB)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	filename := fmt.Sprintf("%s_%s.jpg", timestamp, source)
	fullpath := filepath.Join(s.photosDir, filename)

	if err := os.WriteFile(fullpath, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to save photo %s: %w", filename, err)
	}

	return filename, fullpath, nil
}

// Path returns the full path of a stored photo by filename.
func (s *PhotoStore) Path(filename string) string {
	return filepath.Join(s.photosDir, filename)
}

// Delete removes a stored photo. Missing files are not an error.
func (s *PhotoStore) Delete(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.photosDir, filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every file from the photos directory.
func (s *PhotoStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(s.photosDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.photosDir, file.Name())); err != nil {
			return err
		}
	}
	return nil
}

// directorySize sums the sizes of all files in the photos directory.
func (s *PhotoStore) directorySize() (int64, error) {
	files, err := os.ReadDir(s.photosDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read photos directory: %w", err)
	}

	var total int64
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

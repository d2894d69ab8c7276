package images

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

// UploadStore keeps uploaded and pasted page files on disk. Files are named by
// content hash so the same page uploaded twice shares one file; the file is
// removed when its last entry is released.
type UploadStore struct {
	Dir string

	mu   sync.Mutex
	refs map[string]int
}

func NewUploadStore(dir string) *UploadStore {
	return &UploadStore{Dir: dir, refs: make(map[string]int)}
}

// Save writes data and returns an entry owning the file.
func (s *UploadStore) Save(data []byte, filename string) (models.ImageEntry, error) {
	if len(data) == 0 {
		return models.ImageEntry{}, fmt.Errorf("upload %q is empty", filename)
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return models.ImageEntry{}, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	sum := md5.Sum(data)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".img"
	}
	imageFilename := hex.EncodeToString(sum[:]) + ext
	imageFilePath := filepath.Join(s.Dir, imageFilename)

	if err := os.WriteFile(imageFilePath, data, 0644); err != nil {
		return models.ImageEntry{}, fmt.Errorf("failed to save image: %w", err)
	}
	s.mu.Lock()
	s.refs[imageFilePath]++
	s.mu.Unlock()
	slog.Info("Image saved", "filename", imageFilename, "original", filename)

	width, height, err := Dimensions(data)
	if err != nil {
		slog.Warn("Failed to get image dimensions", "filename", filename, "error", err)
	}

	return models.ImageEntry{
		URL:       "/static/uploads/" + imageFilename,
		LocalPath: imageFilePath,
		Filename:  filename,
		Width:     width,
		Height:    height,
	}, nil
}

// Retain counts the files held by entries loaded from disk, so that releasing
// one of several entries sharing a file keeps it.
func (s *UploadStore) Retain(entries ...models.ImageEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.Owned() {
			s.refs[e.LocalPath]++
		}
	}
}

// Release deletes the file owned by entry. A file that is already gone is not an error.
func (s *UploadStore) Release(entry models.ImageEntry) error {
	if entry.LocalPath == "" {
		return nil
	}

	s.mu.Lock()
	if s.refs[entry.LocalPath] > 1 {
		s.refs[entry.LocalPath]--
		s.mu.Unlock()
		return nil
	}
	delete(s.refs, entry.LocalPath)
	s.mu.Unlock()

	if err := os.Remove(entry.LocalPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload %s: %w", entry.LocalPath, err)
	}
	return nil
}

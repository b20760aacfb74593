package script

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ShayCichocki/deskpilot/pkg/models"
)

// Store writes scripts under <dir>/<language>/generated_script_<id><ext>.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns where the script for id is stored.
func (s *Store) Path(id models.TaskID, l Language) string {
	return filepath.Join(s.dir, string(l), fmt.Sprintf("generated_script_%s%s", id, l.Extension()))
}

// Write saves content for id, replacing any earlier script for the same task,
// and returns the path.
func (s *Store) Write(id models.TaskID, l Language, content string) (string, error) {
	path := s.Path(id, l)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create script directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	return path, nil
}

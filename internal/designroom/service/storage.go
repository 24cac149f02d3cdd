package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// ============================================================
// File Storage
// ============================================================

// FileStorage раскладывает экспорты сцен по каталогам:
// <root>/<sceneID>/export.<format>.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) SceneDir(sceneID string) string {
	return filepath.Join(s.root, filepath.Base(sceneID))
}

func (s *FileStorage) ExportPath(sceneID, format string) string {
	return filepath.Join(s.SceneDir(sceneID), "export."+format)
}

func (s *FileStorage) EnsureDir(sceneID string) error {
	path := s.SceneDir(sceneID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir scene dir: %w", err)
	}
	return nil
}

// SaveExport пишет экспорт и возвращает путь к файлу.
func (s *FileStorage) SaveExport(sceneID, format string, data []byte) (string, error) {
	if err := s.EnsureDir(sceneID); err != nil {
		return "", err
	}
	target := s.ExportPath(sceneID, format)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return target, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"hawk/pkg/logging"
)

// Storage reads and writes layer documents under the hawk home directory.
// Profiles live in the "profiles" subdirectory; the global document at the root.
type Storage struct {
	mu   sync.RWMutex
	home string
}

// NewStorage creates a Storage rooted at home.
func NewStorage(home string) *Storage {
	return &Storage{home: home}
}

// Home returns the root directory.
func (s *Storage) Home() string { return s.home }

// ReadFile returns the content of path, or ErrLayerNotFound.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrLayerNotFound)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// WriteFile atomically replaces path with data.
func (s *Storage) WriteFile(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	logging.Debug("Storage", "Wrote %s", path)
	return nil
}

// SaveProfile stores a profile document.
func (s *Storage) SaveProfile(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	path := ProfilePath(s.home, sanitizeFilename(name))
	if err := s.WriteFile(path, data); err != nil {
		return err
	}
	logging.Info("Storage", "Saved profile %s to %s", name, path)
	return nil
}

// DeleteProfile removes a profile document.
func (s *Storage) DeleteProfile(name string) error {
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := ProfilePath(s.home, sanitizeFilename(name))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("profile %s: %w", name, ErrLayerNotFound)
		}
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	logging.Info("Storage", "Deleted profile %s from %s", name, path)
	return nil
}

// ListProfiles returns the names of every profile document, sorted.
func (s *Storage) ListProfiles() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := ProfilesPath(s.home)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}

// sanitizeFilename ensures a profile name is safe as a file name.
func sanitizeFilename(name string) string {
	r := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	sanitized := strings.Trim(r.Replace(strings.TrimSpace(name)), "_.")
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}

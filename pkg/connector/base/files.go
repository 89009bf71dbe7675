package base

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ajitpratap0/sluice/pkg/errors"
)

// FileOptions are the selection fields shared by every file source
type FileOptions struct {
	Path        string `mapstructure:"path"`
	NamePattern string `mapstructure:"name_pattern"`
	YoungerThan string `mapstructure:"younger_than"`
}

// FileSelector picks the files of one directory a file source reads
type FileSelector struct {
	Dir         string
	Suffix      string
	NamePattern string
	MaxAge      Age
	now         func() time.Time
}

// NewFileSelector validates opts and builds a selector for files ending in suffix
func NewFileSelector(opts FileOptions, suffix string) (*FileSelector, error) {
	if err := Required(map[string]string{"path": opts.Path}); err != nil {
		return nil, err
	}
	if opts.NamePattern != "" {
		if _, err := filepath.Match(opts.NamePattern, ""); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid name_pattern")
		}
	}
	age, err := ParseAge(opts.YoungerThan)
	if err != nil {
		return nil, err
	}
	return &FileSelector{
		Dir:         opts.Path,
		Suffix:      strings.ToLower(suffix),
		NamePattern: opts.NamePattern,
		MaxAge:      age,
		now:         time.Now,
	}, nil
}

// Check reports whether the directory exists
func (s *FileSelector) Check() bool {
	info, err := os.Stat(s.Dir)
	return err == nil && info.IsDir()
}

// Files returns the matching regular files directly inside Dir, sorted by name
func (s *FileSelector) Files() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to list directory").
			WithDetail("path", s.Dir)
	}

	var cutoff time.Time
	if !s.MaxAge.IsZero() {
		cutoff = s.MaxAge.Before(s.now())
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if s.Suffix != "" && strings.ToLower(filepath.Ext(name)) != s.Suffix {
			continue
		}
		if s.NamePattern != "" {
			if ok, _ := filepath.Match(s.NamePattern, name); !ok {
				continue
			}
		}
		if !cutoff.IsZero() {
			info, err := e.Info()
			if err != nil || !info.ModTime().After(cutoff) {
				continue
			}
		}
		files = append(files, filepath.Join(s.Dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// Stem returns the file name without directory and extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

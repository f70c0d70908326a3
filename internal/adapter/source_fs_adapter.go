// Package adapter contains the filesystem, parser and report storage adapters
// the jsgate workflow depends on.
package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	m "jsgate.dev/pkg/jsgate/internal/model"
)

// recursiveSuffix marks a path argument that should be walked recursively.
const recursiveSuffix = "/..."

// DefaultExtensions are the file extensions treated as JavaScript.
var DefaultExtensions = []string{".js", ".jsm", ".mjs", ".cjs"}

// SourceFSAdapter abstracts filesystem access for the domain layer so that
// the workflow logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// Get resolves path arguments into sources. A trailing "/..." walks the
	// directory recursively; a plain directory only lists its own files.
	// Files matching any exclude regex are dropped.
	Get(roots []m.Path, extensions []string, exclude ...string) ([]m.Source, error)

	// Walk traverses the provided root path. When recursive is false the
	// implementation limits itself to the root directory.
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// HashFile returns the SHA-256 fingerprint of the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Get walks every root and returns the matching sources sorted by path.
func (a *LocalSourceFSAdapter) Get(roots []m.Path, extensions []string, exclude ...string) ([]m.Source, error) {
	if len(roots) == 0 {
		roots = []m.Path{"." + recursiveSuffix}
	}

	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	excludes, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)

	var sources []m.Source

	for _, root := range roots {
		dir, recursive := splitRecursive(string(root))

		err := a.Walk(m.Path(dir), recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if path != dir && info.Name() == ".git" {
					return filepath.SkipDir
				}

				return nil
			}

			clean := filepath.Clean(path)
			if seen[clean] || !hasExtension(clean, extensions) || excluded(clean, excludes) {
				return nil
			}

			seen[clean] = true

			source, err := a.source(clean)
			if err != nil {
				return err
			}

			sources = append(sources, source)

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Origin.ShortPath < sources[j].Origin.ShortPath
	})

	return sources, nil
}

func (a *LocalSourceFSAdapter) source(path string) (m.Source, error) {
	hash, err := a.HashFile(m.Path(path))
	if err != nil {
		return m.Source{}, fmt.Errorf("hash %s: %w", path, err)
	}

	full, err := filepath.Abs(path)
	if err != nil {
		full = path
	}

	return m.Source{Origin: &m.File{
		FullPath:  m.Path(full),
		ShortPath: m.Path(filepath.ToSlash(path)),
		Hash:      hash,
	}}, nil
}

func splitRecursive(root string) (string, bool) {
	if root == "..." {
		return ".", true
	}

	if strings.HasSuffix(root, recursiveSuffix) {
		dir := strings.TrimSuffix(root, recursiveSuffix)
		if dir == "" {
			dir = "/"
		}

		return dir, true
	}

	return root, false
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}

		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}

		out = append(out, re)
	}

	return out, nil
}

func excluded(path string, excludes []*regexp.Regexp) bool {
	slashed := filepath.ToSlash(path)

	for _, re := range excludes {
		if re.MatchString(slashed) {
			return true
		}
	}

	return false
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))

	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}

	return false
}

// Walk iterates over files under root, optionally descending into
// subdirectories. A root that is a file visits just that file.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	// #nosec G304 - the path comes from the reviewer's own arguments
	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

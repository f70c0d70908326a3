package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	m "jsgate.dev/pkg/jsgate/internal/model"
)

const (
	// ReportsFileName is the file written inside a reports directory.
	ReportsFileName = "reports.yaml"
	// ShardDirPrefix prefixes the per-shard subdirectories of a reports directory.
	ShardDirPrefix = "shard_"

	reportsVersion = 1
)

var (
	// ErrNoReports is returned when a reports directory holds no reports file.
	ErrNoReports = errors.New("no reports found")
	// ErrReportsVersion is returned for a reports file written by an
	// incompatible version.
	ErrReportsVersion = errors.New("unsupported reports version")
)

// ReportStore persists file reports.
type ReportStore interface {
	SaveReports(dir m.Path, reports []m.FileReport) error
	LoadReports(dir m.Path) ([]m.FileReport, error)
	// ShardDirs lists the shard subdirectories of dir in name order.
	ShardDirs(dir m.Path) ([]m.Path, error)
}

type reportsDocument struct {
	Version int            `yaml:"version"`
	Reports []m.FileReport `yaml:"reports"`
}

// YAMLReportStore keeps reports as a single YAML document per directory.
type YAMLReportStore struct{}

// NewReportStore constructs the default report store.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// ShardPath returns the reports subdirectory a shard writes to.
func ShardPath(dir m.Path, index int) m.Path {
	return m.Path(filepath.Join(string(dir), fmt.Sprintf("%s%d", ShardDirPrefix, index)))
}

// SaveReports writes reports sorted by path. The file is replaced atomically.
func (s *YAMLReportStore) SaveReports(dir m.Path, reports []m.FileReport) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	sorted := make([]m.FileReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	data, err := yaml.Marshal(reportsDocument{Version: reportsVersion, Reports: sorted})
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}

	tmp, err := os.CreateTemp(string(dir), ReportsFileName+".*")
	if err != nil {
		return fmt.Errorf("create temp reports file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write reports: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close reports: %w", err)
	}

	target := filepath.Join(string(dir), ReportsFileName)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace reports: %w", err)
	}

	slog.Debug("Saved reports", "path", target, "count", len(sorted))

	return nil
}

// LoadReports reads the reports of dir. A missing file yields ErrNoReports.
func (s *YAMLReportStore) LoadReports(dir m.Path) ([]m.FileReport, error) {
	path := filepath.Join(string(dir), ReportsFileName)

	// #nosec G304 - the reports directory is chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoReports, dir)
		}

		return nil, fmt.Errorf("read reports: %w", err)
	}

	var doc reportsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if doc.Version != reportsVersion {
		return nil, fmt.Errorf("%w: %d in %s", ErrReportsVersion, doc.Version, path)
	}

	return doc.Reports, nil
}

// ShardDirs lists shard subdirectories, ordered by name.
func (s *YAMLReportStore) ShardDirs(dir m.Path) ([]m.Path, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	var shards []m.Path

	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), ShardDirPrefix) {
			shards = append(shards, m.Path(filepath.Join(string(dir), entry.Name())))
		}
	}

	return shards, nil
}

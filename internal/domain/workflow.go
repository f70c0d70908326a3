package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"jsgate.dev/pkg/jsgate/internal/adapter"
	"jsgate.dev/pkg/jsgate/internal/controller"
	m "jsgate.dev/pkg/jsgate/internal/model"
	"jsgate.dev/pkg/jsgate/pkg"
)

// ErrSubmissionFailed is returned when at least one file failed or errored.
var ErrSubmissionFailed = errors.New("submission failed review")

// ScanArgs contains the arguments for analyzing a submission.
type ScanArgs struct {
	Paths           []m.Path
	Exclude         []string
	Extensions      []string
	Reports         m.Path
	UseCache        bool
	Threads         uint
	ShardIndex      uint
	TotalShardCount uint
}

// ListArgs contains the arguments for listing the files a scan would cover.
type ListArgs struct {
	Paths      []m.Path
	Exclude    []string
	Extensions []string
}

// ViewArgs contains the arguments for viewing stored reports.
type ViewArgs struct {
	Reports m.Path
}

// MergeArgs contains the arguments for merging sharded reports.
type MergeArgs struct {
	Reports m.Path
}

// DiffArgs names the two report directories to compare.
type DiffArgs struct {
	Old m.Path
	New m.Path
}

// Workflow defines the commands jsgate exposes.
type Workflow interface {
	Scan(ctx context.Context, args ScanArgs) error
	List(ctx context.Context, args ListArgs) error
	View(ctx context.Context, args ViewArgs) error
	Merge(ctx context.Context, args MergeArgs) error
	Diff(ctx context.Context, args DiffArgs) error
	Rules(ctx context.Context) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ReportStore
	controller.UI
	analyzer Analyzer
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	analyzer Analyzer,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ReportStore:     reportStore,
		UI:              ui,
		analyzer:        analyzer,
	}
}

func (w *workflow) Scan(ctx context.Context, args ScanArgs) error {
	sources, err := w.Get(args.Paths, args.Extensions, args.Exclude...)
	if err != nil {
		return fmt.Errorf("get sources: %w", err)
	}

	sources = ShardSources(sources, args.ShardIndex, args.TotalShardCount)

	dir := args.Reports
	if args.TotalShardCount > 1 {
		dir = adapter.ShardPath(args.Reports, int(args.ShardIndex))
	}

	cached, pending, err := w.splitCached(args.UseCache, dir, sources)
	if err != nil {
		return err
	}

	threads := max(int(args.Threads), 1)

	if err := w.Start(ctx, controller.WithScanMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.Close(ctx)

	w.DisplayScanInfo(ctx, controller.ScanInfo{
		Files:      len(sources),
		Cached:     len(cached),
		Threads:    threads,
		ShardIndex: int(args.ShardIndex),
		ShardCount: int(args.TotalShardCount),
	})

	spill, err := pkg.NewFileSpill[m.FileReport]("")
	if err != nil {
		return fmt.Errorf("create report buffer: %w", err)
	}
	defer spill.Close()

	for _, report := range cached {
		if err := spill.Append(report); err != nil {
			return fmt.Errorf("buffer report: %w", err)
		}

		w.DisplayFileReport(ctx, report)
	}

	if err := w.analyzeAll(ctx, pending, threads, spill); err != nil {
		return err
	}

	reports, err := spill.Collect()
	if err != nil {
		return fmt.Errorf("collect reports: %w", err)
	}

	sortReports(reports)

	if err := w.SaveReports(dir, reports); err != nil {
		return fmt.Errorf("save reports: %w", err)
	}

	summary := Summarize(reports)
	w.DisplaySummary(ctx, summary)

	slog.Info("Scan finished",
		"files", summary.Files,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"errored", summary.Errored,
		"reports", dir)

	if !summary.OK() {
		return ErrSubmissionFailed
	}

	return nil
}

// analyzeAll fans sources out to a bounded set of workers and streams the
// finished reports into spill in completion order.
func (w *workflow) analyzeAll(ctx context.Context, sources []m.Source, threads int, spill pkg.FileSpill[m.FileReport]) error {
	reportsChannel := make(chan m.FileReport, threads)
	errorChannel := make(chan error, 1)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	go func() {
		defer close(errorChannel)
		defer close(reportsChannel)

		for _, source := range sources {
			if groupCtx.Err() != nil {
				break
			}

			group.Go(func() error {
				report := w.analyzer.Analyze(groupCtx, source)

				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				case reportsChannel <- report:
					return nil
				}
			})
		}

		if err := group.Wait(); err != nil {
			errorChannel <- err
		}
	}()

	var bufferErr error

	for report := range reportsChannel {
		if bufferErr != nil {
			continue
		}

		if err := spill.Append(report); err != nil {
			bufferErr = fmt.Errorf("buffer report: %w", err)
			continue
		}

		w.DisplayFileReport(ctx, report)
	}

	if err := <-errorChannel; err != nil {
		return fmt.Errorf("analyze sources: %w", err)
	}

	if bufferErr != nil {
		return bufferErr
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analyze sources: %w", err)
	}

	return nil
}

// splitCached separates sources whose stored report is still valid from the
// ones that need analysis. A report is valid when the file hash and the
// analyzer fingerprint match. Errored reports are always retried.
func (w *workflow) splitCached(useCache bool, dir m.Path, sources []m.Source) ([]m.FileReport, []m.Source, error) {
	if !useCache {
		return nil, sources, nil
	}

	stored, err := w.LoadReports(dir)
	if errors.Is(err, adapter.ErrNoReports) || errors.Is(err, adapter.ErrReportsVersion) {
		slog.Debug("No usable cached reports", "dir", dir, "reason", err)
		return nil, sources, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("load cached reports: %w", err)
	}

	current := w.analyzer.Fingerprint()

	byPath := make(map[m.Path]m.FileReport, len(stored))
	for _, r := range stored {
		byPath[r.Path] = r
	}

	var (
		cached  []m.FileReport
		pending []m.Source
	)

	for _, source := range sources {
		if source.Origin == nil {
			pending = append(pending, source)
			continue
		}

		r, ok := byPath[source.Origin.ShortPath]
		if ok && r.Hash == source.Origin.Hash && r.Fingerprint == current && r.Status != m.Errored {
			cached = append(cached, r)
			continue
		}

		pending = append(pending, source)
	}

	slog.Debug("Resolved cached reports", "cached", len(cached), "pending", len(pending))

	return cached, pending, nil
}

// ShardSources keeps every source whose position modulo total equals index.
// A total of zero or one keeps everything.
func ShardSources(sources []m.Source, index, total uint) []m.Source {
	if total <= 1 {
		return sources
	}

	var shard []m.Source

	for i, source := range sources {
		if uint(i)%total == index {
			shard = append(shard, source)
		}
	}

	return shard
}

func (w *workflow) List(ctx context.Context, args ListArgs) error {
	sources, err := w.Get(args.Paths, args.Extensions, args.Exclude...)
	if err != nil {
		return fmt.Errorf("get sources: %w", err)
	}

	if err := w.Start(ctx, controller.WithListMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.Close(ctx)

	if err := w.DisplaySources(ctx, sources); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	reports, err := w.LoadReports(args.Reports)
	if err != nil {
		return fmt.Errorf("load reports: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.Close(ctx)

	if err := w.DisplayReports(ctx, reports, Summarize(reports)); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return nil
}

// Merge combines every shard directory below args.Reports into one report
// set stored in args.Reports itself.
func (w *workflow) Merge(ctx context.Context, args MergeArgs) error {
	dirs, err := w.ShardDirs(args.Reports)
	if err != nil {
		return fmt.Errorf("list shards: %w", err)
	}

	if len(dirs) == 0 {
		return fmt.Errorf("%w: no shard directories in %s", adapter.ErrNoReports, args.Reports)
	}

	byPath := map[m.Path]m.FileReport{}

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		reports, err := w.LoadReports(dir)
		if errors.Is(err, adapter.ErrNoReports) {
			slog.Warn("Shard has no reports", "dir", dir)
			continue
		}

		if err != nil {
			return fmt.Errorf("load shard %s: %w", dir, err)
		}

		for _, r := range reports {
			if _, dup := byPath[r.Path]; dup {
				slog.Warn("File reported by more than one shard", "path", r.Path, "shard", dir)
			}

			byPath[r.Path] = r
		}
	}

	merged := make([]m.FileReport, 0, len(byPath))
	for _, r := range byPath {
		merged = append(merged, r)
	}

	sortReports(merged)

	if err := w.SaveReports(args.Reports, merged); err != nil {
		return fmt.Errorf("save reports: %w", err)
	}

	summary := Summarize(merged)
	w.DisplaySummary(ctx, summary)

	slog.Info("Merged shard reports", "shards", len(dirs), "files", summary.Files)

	if !summary.OK() {
		return ErrSubmissionFailed
	}

	return nil
}

func (w *workflow) Diff(ctx context.Context, args DiffArgs) error {
	before, err := w.LoadReports(args.Old)
	if err != nil {
		return fmt.Errorf("load %s: %w", args.Old, err)
	}

	after, err := w.LoadReports(args.New)
	if err != nil {
		return fmt.Errorf("load %s: %w", args.New, err)
	}

	diff, err := DiffReports(string(args.Old), before, string(args.New), after)
	if err != nil {
		return fmt.Errorf("diff reports: %w", err)
	}

	if err := w.DisplayDiff(ctx, diff); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

func (w *workflow) Rules(ctx context.Context) error {
	if err := w.DisplayRules(ctx, w.analyzer.Rules()); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

func sortReports(reports []m.FileReport) {
	slices.SortFunc(reports, func(a, b m.FileReport) int {
		return strings.Compare(string(a.Path), string(b.Path))
	})
}

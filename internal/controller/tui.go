package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "jsgate.dev/pkg/jsgate/internal/model"
)

const (
	colorRed    = "#FF5F5F"
	colorGreen  = "#5FD75F"
	colorYellow = "#FFD75F"
	colorGray   = "#8A8A8A"
	colorCyan   = "#00AAAA"

	// pagerChrome is the number of lines taken by the pager header and footer.
	pagerChrome = 4
)

type styles struct {
	title   lipgloss.Style
	passed  lipgloss.Style
	failed  lipgloss.Style
	warning lipgloss.Style
	faint   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorCyan)),
		passed:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		failed:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorRed)),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		faint:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
	}
}

// TUI implements UI for interactive terminals. Progress is streamed as styled
// lines; long listings open a scrollable pager.
type TUI struct {
	output io.Writer
	styles styles
	mu     sync.Mutex
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output, styles: newStyles()}
}

// Start initializes the UI.
func (t *TUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (t *TUI) Close(context.Context) {}

// Wait returns once any pager has been closed; pagers run synchronously.
func (t *TUI) Wait(context.Context) {}

// DisplaySources shows the files a scan would analyze.
func (t *TUI) DisplaySources(ctx context.Context, sources []m.Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.page(fmt.Sprintf("jsgate: %d JavaScript file(s)", len(sources)), renderSourcesTable(sources))
}

// DisplayScanInfo prints the scan header.
func (t *TUI) DisplayScanInfo(ctx context.Context, info ScanInfo) {
	if ctx.Err() != nil {
		return
	}

	line := fmt.Sprintf("Scanning %d file(s) (%d cached) with %d worker(s)", info.Files, info.Cached, info.Threads)
	if info.ShardCount > 1 {
		line += fmt.Sprintf(" (Shard %d/%d)", info.ShardIndex, info.ShardCount)
	}

	t.println(t.styles.title.Render(line))
}

// DisplayFileReport prints one finished file with colored status.
func (t *TUI) DisplayFileReport(ctx context.Context, report m.FileReport) {
	if ctx.Err() != nil {
		return
	}

	t.println(fmt.Sprintf("%s %s", t.statusBadge(report.Status), report.Path))

	if report.Error != "" {
		t.println("  " + t.styles.failed.Render("error: "+report.Error))
	}

	for _, msg := range report.Messages {
		t.println("  " + t.styleMessage(msg))
	}
}

// DisplayReports pages through stored reports.
func (t *TUI) DisplayReports(ctx context.Context, reports []m.FileReport, summary m.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString(renderReportsTable(reports, summary))

	for _, r := range reports {
		if len(r.Messages) == 0 && r.Error == "" {
			continue
		}

		fmt.Fprintf(&b, "\n%s %s\n", t.statusBadge(r.Status), r.Path)

		if r.Error != "" {
			fmt.Fprintf(&b, "  %s\n", t.styles.failed.Render("error: "+r.Error))
		}

		for _, msg := range r.Messages {
			fmt.Fprintf(&b, "  %s\n", t.styleMessage(msg))
		}
	}

	return t.page(t.summaryLine(summary), b.String())
}

// DisplaySummary prints the verdict line.
func (t *TUI) DisplaySummary(ctx context.Context, summary m.Summary) {
	if ctx.Err() != nil {
		return
	}

	t.println(t.summaryLine(summary))
}

// DisplayRules pages through the registry entries.
func (t *TUI) DisplayRules(ctx context.Context, rules []m.RuleInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.page(fmt.Sprintf("jsgate: %d rule(s)", len(rules)), renderRulesTable(rules))
}

// DisplayDiff pages through a colored unified diff.
func (t *TUI) DisplayDiff(ctx context.Context, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		t.println(t.styles.passed.Render("no differences"))
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = t.styles.title.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = t.styles.passed.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = t.styles.failed.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = t.styles.faint.Render(line)
		}
	}

	return t.page("jsgate: report diff", strings.Join(lines, "\n")+"\n")
}

func (t *TUI) summaryLine(summary m.Summary) string {
	style := t.styles.passed
	if !summary.OK() {
		style = t.styles.failed
	}

	return style.Render(renderSummary(summary))
}

func (t *TUI) statusBadge(status m.Status) string {
	label := fmt.Sprintf("%-7s", status)

	switch status {
	case m.Passed:
		return t.styles.passed.Render(label)
	case m.Failed:
		return t.styles.failed.Render(label)
	default:
		return t.styles.warning.Render(label)
	}
}

func (t *TUI) styleMessage(msg m.Message) string {
	text := formatMessage(msg)

	switch msg.Severity {
	case m.SeverityFailure, m.SeverityIncomplete:
		return t.styles.failed.Render(text)
	case m.SeverityWarning:
		return t.styles.warning.Render(text)
	default:
		return t.styles.faint.Render(text)
	}
}

func (t *TUI) println(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, _ = fmt.Fprintln(t.output, line)
}

// page prints content directly when it fits the terminal and otherwise
// opens a pager until the user quits.
func (t *TUI) page(title, content string) error {
	width, height := t.terminalSize()

	if height == 0 || strings.Count(content, "\n")+pagerChrome <= height {
		t.println(t.styles.title.Render(title))

		t.mu.Lock()
		_, err := fmt.Fprint(t.output, content)
		t.mu.Unlock()

		return err
	}

	model := newPagerModel(t.styles, title, content)
	model = model.resize(width, height)

	program := tea.NewProgram(model, tea.WithOutput(t.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("pager: %w", err)
	}

	return nil
}

func (t *TUI) terminalSize() (int, int) {
	f, ok := t.output.(*os.File)
	if !ok {
		return 0, 0
	}

	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, 0
	}

	return width, height
}

// pagerModel is a Bubble Tea model scrolling over pre-rendered content.
type pagerModel struct {
	styles   styles
	title    string
	content  string
	viewport viewport.Model
	ready    bool
	quitting bool
}

func newPagerModel(s styles, title, content string) pagerModel {
	return pagerModel{styles: s, title: title, content: content}
}

func (p pagerModel) resize(width, height int) pagerModel {
	if width <= 0 || height <= 0 {
		return p
	}

	bodyHeight := max(height-pagerChrome, 1)

	if !p.ready {
		p.viewport = viewport.New(width, bodyHeight)
		p.viewport.SetContent(p.content)
		p.ready = true

		return p
	}

	p.viewport.Width = width
	p.viewport.Height = bodyHeight

	return p
}

func (p pagerModel) Init() tea.Cmd {
	return nil
}

func (p pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return p.resize(msg.Width, msg.Height), nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			p.quitting = true
			return p, tea.Quit
		}
	}

	if !p.ready {
		return p, nil
	}

	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)

	return p, cmd
}

func (p pagerModel) View() string {
	if p.quitting {
		return ""
	}

	if !p.ready {
		return "loading..."
	}

	footer := p.styles.faint.Render(fmt.Sprintf("%3.f%%  ↑/↓ scroll  q quit", p.viewport.ScrollPercent()*100))

	return fmt.Sprintf("%s\n\n%s\n\n%s", p.styles.title.Render(p.title), p.viewport.View(), footer)
}

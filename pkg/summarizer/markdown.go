package summarizer

import (
	"fmt"
	"strings"

	"github.com/ideamans/go-l10n"
)

// NewMarkdownFormatter returns a Formatter producing a Markdown report.
func NewMarkdownFormatter() Formatter {
	return FormatFunc(formatMarkdown)
}

// NewTextFormatter returns a Formatter producing aligned plain text, as
// printed by probe.
func NewTextFormatter() Formatter {
	return FormatFunc(formatText)
}

type row struct {
	label string
	value string
}

func sourceRows(s *Summary) []row {
	src := s.Source
	rows := []row{
		{l10n.T("File"), src.Path},
		{l10n.T("Kind"), src.Kind},
		{l10n.T("Resolution"), fmt.Sprintf("%dx%d", src.Width, src.Height)},
		{l10n.T("Pixel Format"), src.Format},
	}
	if src.Kind == "video" {
		rows = append(rows,
			row{l10n.T("Frame Rate"), fmt.Sprintf("%.2f fps", src.FrameRate)},
			row{l10n.T("Duration"), formatDuration(src.DurationUs)},
			row{l10n.T("Audio"), yesNo(src.HasAudio)},
		)
	}
	return rows
}

func outputRows(s *Summary) []row {
	out := s.Output
	size := l10n.T("Source size")
	if out.Width > 0 && out.Height > 0 {
		size = fmt.Sprintf("%dx%d", out.Width, out.Height)
	}
	return []row{
		{l10n.T("Resolution"), size},
		{l10n.T("Pixel Format"), out.Format},
		{l10n.T("Keep Aspect"), yesNo(out.MaintainAspect)},
		{l10n.T("Front Camera"), yesNo(out.FrontCamera)},
		{l10n.T("Rotation"), fmt.Sprintf("%d°", out.Rotation)},
		{l10n.T("Mirror"), yesNo(out.Mirror)},
		{l10n.T("Stages"), strings.Join(out.Stages, " → ")},
	}
}

func runRows(r *RunInfo) []row {
	return []row{
		{l10n.T("Frames"), fmt.Sprintf("%d", r.Frames)},
		{l10n.T("Elapsed"), r.Elapsed.Round(1e6).String()},
		{l10n.T("Achieved Rate"), fmt.Sprintf("%.2f fps", r.FPS())},
		{l10n.T("Files Written"), fmt.Sprintf("%d", len(r.Files))},
	}
}

func formatMarkdown(s *Summary) string {
	var sb strings.Builder
	sb.WriteString("# " + l10n.T("Session Summary") + "\n\n")
	sb.WriteString(fmt.Sprintf("_%s %s_\n\n", l10n.T("Generated at"), s.GeneratedAt.Format("2006-01-02 15:04:05")))

	table := func(title string, rows []row) {
		sb.WriteString("## " + title + "\n\n")
		sb.WriteString("| " + l10n.T("Item") + " | " + l10n.T("Value") + " |\n")
		sb.WriteString("|---|---|\n")
		for _, r := range rows {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", r.label, r.value))
		}
		sb.WriteString("\n")
	}

	table(l10n.T("Source"), sourceRows(s))
	table(l10n.T("Output"), outputRows(s))
	if s.Run != nil {
		table(l10n.T("Run"), runRows(s.Run))
		if len(s.Run.Files) > 0 {
			sb.WriteString("## " + l10n.T("Files") + "\n\n")
			for _, f := range s.Run.Files {
				sb.WriteString("- `" + f + "`\n")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatText(s *Summary) string {
	var sb strings.Builder
	section := func(title string, rows []row) {
		sb.WriteString(title + "\n")
		width := 0
		for _, r := range rows {
			width = max(width, len([]rune(r.label)))
		}
		for _, r := range rows {
			pad := width - len([]rune(r.label))
			sb.WriteString("  " + r.label + ":" + strings.Repeat(" ", pad+1) + r.value + "\n")
		}
	}
	section(l10n.T("Source"), sourceRows(s))
	section(l10n.T("Output"), outputRows(s))
	if s.Run != nil {
		section(l10n.T("Run"), runRows(s.Run))
	}
	return sb.String()
}

func formatDuration(us int64) string {
	if us <= 0 {
		return l10n.T("Unknown")
	}
	return fmt.Sprintf("%.3f s", float64(us)/1e6)
}

func yesNo(b bool) string {
	if b {
		return l10n.T("Yes")
	}
	return l10n.T("No")
}

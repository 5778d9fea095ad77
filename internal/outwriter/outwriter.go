// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/huangsam/racebar/internal/contract"
	"golang.org/x/term"
)

// LogRunHeader prints a concise, 2-line header describing where the activity table comes from.
func LogRunHeader(cfg *contract.Config) {
	writeRunHeader(os.Stdout, cfg)
}

func writeRunHeader(w io.Writer, cfg *contract.Config) {
	if cfg.InputFile != "" {
		_, _ = fmt.Fprintf(w, "🔎 Table: %s\n", filepath.Base(cfg.InputFile))
		return
	}

	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}
	_, _ = fmt.Fprintf(w, "🔎 Repo: %s (Granularity: %s, Metric: %s)\n", repoName, cfg.Granularity, cfg.Metric)

	from := "beginning"
	if !cfg.StartTime.IsZero() {
		from = cfg.StartTime.Format(contract.DateTimeFormat)
	}
	_, _ = fmt.Fprintf(w, "📅 Range: %s → %s\n", from, cfg.EndTime.Format(contract.DateTimeFormat))
}

// getMaxTableLabelWidth calculates the maximum width for entity ids in table output
// based on terminal width and the fixed columns.
func getMaxTableLabelWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Value + Colors + Label with borders and padding
	available := termWidth - 60
	if available < 15 {
		return 15
	}
	if available > 50 {
		return 50
	}
	return available
}

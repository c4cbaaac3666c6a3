// Package patchgate structurally validates generated patches before they are
// ever applied to a working tree. The gate is independent of risk scoring: a
// patch can be safe to apply yet too risky to auto-merge, and the two
// verdicts are never conflated.
package patchgate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mendci/mend/internal/models"
)

// Gate validates unified-diff patch text against size and path constraints.
type Gate struct {
	// MaxLines is the ceiling on total patch lines.
	MaxLines int

	// AllowedPaths holds glob patterns or plain path prefixes; every file a
	// patch touches must match at least one entry.
	AllowedPaths []string
}

// New creates a Gate.
func New(maxLines int, allowedPaths []string) *Gate {
	return &Gate{MaxLines: maxLines, AllowedPaths: allowedPaths}
}

// Check validates patch text and returns a verdict. Rejection is a terminal
// outcome, not an error; reasons enumerate every constraint that failed.
func (g *Gate) Check(patch string) models.GateVerdict {
	verdict := models.GateVerdict{TouchedFiles: []string{}}

	trimmed := strings.TrimSpace(patch)
	if trimmed == "" {
		verdict.Reasons = append(verdict.Reasons, "patch is empty")
		return verdict
	}

	lines := strings.Split(trimmed, "\n")
	verdict.LineCount = len(lines)

	if !hasDiffMarkers(lines) {
		verdict.Reasons = append(verdict.Reasons, "patch lacks unified diff markers")
		return verdict
	}

	if g.MaxLines > 0 && verdict.LineCount > g.MaxLines {
		verdict.Reasons = append(verdict.Reasons,
			fmt.Sprintf("patch is %d lines, ceiling is %d", verdict.LineCount, g.MaxLines))
	}

	verdict.TouchedFiles = touchedFiles(lines)
	if len(verdict.TouchedFiles) == 0 {
		verdict.Reasons = append(verdict.Reasons, "patch declares no file headers")
	}
	for _, file := range verdict.TouchedFiles {
		if !g.allowed(file) {
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("file %q is outside the allow-list", file))
		}
	}

	verdict.Accepted = len(verdict.Reasons) == 0
	return verdict
}

func (g *Gate) allowed(file string) bool {
	for _, entry := range g.AllowedPaths {
		if ok, err := doublestar.Match(entry, file); err == nil && ok {
			return true
		}
		if strings.HasPrefix(file, strings.TrimSuffix(entry, "**")) && entry != "" {
			return true
		}
	}
	return false
}

func hasDiffMarkers(lines []string) bool {
	var header, hunk bool
	for _, line := range lines {
		if strings.HasPrefix(line, "+++ ") || strings.HasPrefix(line, "--- ") {
			header = true
		}
		if strings.HasPrefix(line, "@@") {
			hunk = true
		}
	}
	return header && hunk
}

// touchedFiles parses file paths from diff headers, stripping the a/ and b/
// prefixes git adds. /dev/null entries (creations and deletions) are ignored.
func touchedFiles(lines []string) []string {
	seen := make(map[string]struct{})
	for _, line := range lines {
		var raw string
		switch {
		case strings.HasPrefix(line, "+++ "):
			raw = strings.TrimPrefix(line, "+++ ")
		case strings.HasPrefix(line, "--- "):
			raw = strings.TrimPrefix(line, "--- ")
		default:
			continue
		}
		raw = strings.TrimSpace(raw)
		// Strip a trailing timestamp some diff tools append after a tab.
		if idx := strings.IndexByte(raw, '\t'); idx >= 0 {
			raw = raw[:idx]
		}
		if raw == "" || raw == "/dev/null" {
			continue
		}
		raw = strings.TrimPrefix(raw, "a/")
		raw = strings.TrimPrefix(raw, "b/")
		seen[raw] = struct{}{}
	}

	files := make([]string, 0, len(seen))
	for file := range seen {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

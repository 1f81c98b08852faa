// Package ingestion turns job descriptions into search queries.
package ingestion

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength is the longest query accepted by the search endpoint, in runes.
const MaxQueryLength = 2000

// ErrEmptyDescription is returned when a job description has no text.
var ErrEmptyDescription = errors.New("job description is empty")

var (
	spaceRun      = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	bulletPrefix  = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s+`)
	headingPrefix = regexp.MustCompile(`^\s*#{1,6}\s+`)
)

// CleanText normalizes line endings and whitespace. Bullet markers and
// markdown heading markers are removed; paragraph breaks are kept.
func CleanText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = headingPrefix.ReplaceAllString(line, "")
		line = bulletPrefix.ReplaceAllString(line, "")
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}

	out := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

// Truncate cuts text to at most limit runes, preferring the last word
// boundary before the limit.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)[:limit]
	cut := string(runes)
	if idx := strings.LastIndexAny(cut, " \n"); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// FromText builds a query from raw job description text.
func FromText(content, source string) (*Query, error) {
	cleaned := CleanText(content)
	if cleaned == "" {
		return nil, ErrEmptyDescription
	}
	return newQuery(cleaned, source), nil
}

// FromFile reads a job description file and builds a query from it.
func FromFile(path string) (*Query, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	q, err := FromText(string(content), "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

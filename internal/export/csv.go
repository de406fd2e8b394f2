// Package export renders analyzed notes into formats Anki can import.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/snaptoflash/backend/apimodels"
)

const DefaultDeckName = "Deckify"

var csvHeader = []string{"ExpressionOrWord", "Reading", "Meaning", "Example"}

// WriteCSV writes one row per note under a fixed header.
func WriteCSV(w io.Writer, notes []apimodels.Note) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, n := range notes {
		if err := cw.Write([]string{n.ExpressionOrWord, n.Reading, n.Meaning, n.Example}); err != nil {
			return fmt.Errorf("write csv row %s: %w", n.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

var dashRuns = regexp.MustCompile(`-{2,}`)

// SanitizedFilename turns a page id into a safe file stem.
func SanitizedFilename(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultDeckName
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, trimmed)
	cleaned = strings.Trim(dashRuns.ReplaceAllString(cleaned, "-"), "-_")
	if cleaned == "" {
		return DefaultDeckName
	}
	return cleaned
}

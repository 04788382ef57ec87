// Package preview renders an assembled feed as an aligned markdown table for terminals.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"articlefeed/internal/models"
	"articlefeed/pkg/utils"
)

const (
	timeLayout    = "2006-01-02 15:04"
	maxTitleWidth = 60
	maxAuthorCols = 24
	minColWidth   = 3
)

var header = []string{"#", "Updated (UTC)", "Title", "Author"}

// Render writes one row per entry in feed order. Cell widths are measured in
// terminal cells so CJK titles stay aligned.
func Render(w io.Writer, f *models.Feed) error {
	helper := utils.NewStringHelper()

	table := [][]string{header}
	for i, e := range f.Entries {
		table = append(table, []string{
			fmt.Sprintf("%d", i+1),
			e.Updated.UTC().Format(timeLayout),
			helper.TruncateDisplay(helper.NormalizeWhitespace(e.Title), maxTitleWidth),
			helper.TruncateDisplay(helper.NormalizeWhitespace(e.Author), maxAuthorCols),
		})
	}

	widths := columnWidths(table)

	var sb strings.Builder
	for i, row := range table {
		writeRow(&sb, helper, row, widths)

		if i == 0 {
			sep := make([]string, len(widths))
			for j, width := range widths {
				sep[j] = strings.Repeat("-", width)
			}

			writeRow(&sb, helper, sep, widths)
		}
	}

	fmt.Fprintf(&sb, "\n%d entries, feed updated %s\n%s\n", len(f.Entries), f.Updated.UTC().Format(timeLayout), f.ID)

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}

	return nil
}

func columnWidths(table [][]string) []int {
	widths := make([]int, len(header))
	for i := range widths {
		widths[i] = minColWidth
	}

	for _, row := range table {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}

	return widths
}

func writeRow(sb *strings.Builder, helper *utils.StringHelper, row []string, widths []int) {
	sb.WriteString("|")

	for i, cell := range row {
		sb.WriteString(" ")
		sb.WriteString(helper.PadDisplay(cell, widths[i]))
		sb.WriteString(" |")
	}

	sb.WriteString("\n")
}

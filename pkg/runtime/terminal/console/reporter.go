package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// Reporter prints report tables to the console.
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

// Write renders one table. Reporter can be used as an export sink.
func (c *Reporter) Write(_ context.Context, t domain.Table) error {
	title := t.Name
	if t.Period != "" {
		title = fmt.Sprintf("%s, %s", title, t.Period)
	}
	if t.SortedBy != "" && t.Kind != domain.TableKindZScores {
		title = fmt.Sprintf("%s (by %s)", title, t.SortedBy.Name())
	}
	if _, err := fmt.Fprintf(c.writer, "\n%s: %s\n", t.Category.Name(), title); err != nil {
		return err
	}

	c.render(t.Header, t.Rows)
	return nil
}

// Summary prints one line per processed category.
func (c *Reporter) Summary(reports []domain.CategoryReport) {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			string(r.Category),
			strconv.Itoa(len(r.Periods)),
			r.Latest,
			strconv.Itoa(r.ByPeriod[r.Latest].Requests.Len()),
		})
	}
	c.render([]string{"Category", "Periods", "Latest", "Countries"}, rows)
}

func (c *Reporter) render(header []string, rows [][]string) {
	table := tablewriter.NewWriter(c.writer)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}

// Categories prints the known categories with their default export files.
func (c *Reporter) Categories(categories []domain.Category) {
	rows := make([][]string, 0, len(categories))
	for _, cat := range categories {
		rows = append(rows, []string{string(cat), cat.Name(), cat.FileName()})
	}
	c.render([]string{"Category", "Name", "File"}, rows)
}

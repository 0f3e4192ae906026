package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

const indexSheet = "Index"

// XLSXSink collects tables into one workbook per category. Each table gets
// its own sheet and the Index sheet maps sheet names back to tables.
// Workbooks are saved on Close.
type XLSXSink struct {
	dir       string
	mu        sync.Mutex
	workbooks map[domain.Category]*workbook
	logger    *zerolog.Logger
}

type workbook struct {
	file  *excelize.File
	index [][]interface{}
}

func NewXLSXSink(dir string) *XLSXSink {
	return &XLSXSink{
		dir:       dir,
		workbooks: make(map[domain.Category]*workbook),
	}
}

func (s *XLSXSink) Write(ctx context.Context, table domain.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger == nil {
		s.logger = zerolog.Ctx(ctx)
	}

	wb, ok := s.workbooks[table.Category]
	if !ok {
		wb = &workbook{file: excelize.NewFile()}
		if _, err := wb.file.NewSheet(indexSheet); err != nil {
			return fmt.Errorf("failed to create index sheet: %w", err)
		}
		if err := wb.file.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
		wb.index = append(wb.index, []interface{}{"Sheet", "Kind", "Period", "Name", "Sorted By"})
		s.workbooks[table.Category] = wb
	}

	sheet := fmt.Sprintf("T%04d", len(wb.index))
	if _, err := wb.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet for %s: %w", describe(table), err)
	}

	rows := make([][]string, 0, len(table.Rows)+1)
	if len(table.Header) > 0 {
		rows = append(rows, table.Header)
	}
	rows = append(rows, table.Rows...)
	for i, row := range rows {
		if err := setRow(wb.file, sheet, i+1, stringsToCells(row)); err != nil {
			return fmt.Errorf("failed to write %s: %w", describe(table), err)
		}
	}

	sortedBy := ""
	if table.SortedBy != "" {
		sortedBy = table.SortedBy.Name()
	}
	wb.index = append(wb.index, []interface{}{sheet, string(table.Kind), table.Period, table.Name, sortedBy})
	return nil
}

// Close writes the index sheets and saves every workbook.
func (s *XLSXSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.workbooks) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	categories := make([]string, 0, len(s.workbooks))
	for c := range s.workbooks {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	var errs []error
	for _, c := range categories {
		wb := s.workbooks[domain.Category(c)]
		if err := s.save(domain.Category(c), wb); err != nil {
			errs = append(errs, err)
		}
		if err := wb.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.workbooks = make(map[domain.Category]*workbook)
	return errors.Join(errs...)
}

func (s *XLSXSink) save(c domain.Category, wb *workbook) error {
	for i, row := range wb.index {
		if err := setRow(wb.file, indexSheet, i+1, row); err != nil {
			return fmt.Errorf("failed to write index of %s: %w", c, err)
		}
	}
	idx, err := wb.file.GetSheetIndex(indexSheet)
	if err != nil {
		return err
	}
	wb.file.SetActiveSheet(idx)

	path := filepath.Join(s.dir, string(c)+".xlsx")
	if err := wb.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	if s.logger != nil {
		s.logger.Info().Str("path", path).Int("sheets", len(wb.index)-1).Msg("workbook saved")
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func stringsToCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// Package export renders the detailed job listing as CSV or XLSX downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"workshopboard/internal/board"
)

// headers are the columns of the original board's download, in order.
var headers = []string{
	"Reference", "Project", "Company", "Stage",
	"Created", "Due Date", "Days Overdue",
}

const dateFormat = "02 Jan 2006"

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// CSV renders jobs as a CSV file with a header row.
func (s *Service) CSV(jobs []board.ClassifiedJob) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, j := range jobs {
		if err := w.Write(row(j)); err != nil {
			return nil, fmt.Errorf("writing csv row %s: %w", j.Reference, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX renders jobs as a single-sheet workbook.
func (s *Service) XLSX(jobs []board.ClassifiedJob) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Workshop Jobs"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("dropping default sheet: %w", err)
	}

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("writing header %s: %w", h, err)
		}
	}
	for i, j := range jobs {
		for col, v := range row(j) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %s: %w", j.Reference, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	s.logger.Debug("exported xlsx", "jobs", len(jobs), "took", time.Since(start))
	return buf.Bytes(), nil
}

func row(j board.ClassifiedJob) []string {
	created := ""
	if !j.CreatedDate.IsZero() {
		created = j.CreatedDate.Format(dateFormat)
	}
	due := ""
	if j.ETD != nil {
		due = j.ETD.Format(dateFormat)
	}
	overdue := ""
	if j.Urgency == board.UrgencyOverdue {
		overdue = strconv.Itoa(j.DaysOverdue)
	}
	return []string{
		j.Reference, j.ProjectName, j.Company, string(j.Stage),
		created, due, overdue,
	}
}

package timesheet

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF produces a printable summary of one timesheet.
func (s *Service) RenderPDF(ctx context.Context, id int64) ([]byte, error) {
	ts, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	projectName, _, _, err := s.Dir.ProjectInfo(ctx, ts.ProjectID)
	if err != nil {
		return nil, err
	}
	employeeEmail, err := s.Dir.EmployeeEmail(ctx, ts.EmployeeID)
	if err != nil {
		employeeEmail = ""
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Timesheet")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Project: %s", projectName))
	pdf.Ln(7)
	if employeeEmail != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", employeeEmail))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s",
		ts.PeriodStart.Format(dateLayout), ts.PeriodEnd.Format(dateLayout)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", ts.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 8, "Date", "1", 0, "", false, 0, "")
	pdf.CellFormat(110, 8, "Tasks", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "Hours", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, entry := range ts.Entries {
		tasks := make([]string, 0, len(entry.Tasks))
		for _, task := range entry.Tasks {
			tasks = append(tasks, fmt.Sprintf("%s (%.2f)", task.Name, task.Hours))
		}
		pdf.CellFormat(40, 8, entry.Date, "1", 0, "", false, 0, "")
		pdf.CellFormat(110, 8, strings.Join(tasks, ", "), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", entry.Hours), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 8, "Total", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", ts.TotalHours), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

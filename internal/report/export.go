// Package report reads and writes the spreadsheets admins exchange with the
// client: attendance and timesheet exports, and employee bulk imports.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/attendance"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var attendanceHeaders = []string{"Employee ID", "Name", "Department", "Position", "Date", "Status", "Check-in", "Check-out", "Total hours"}

var timesheetHeaders = []string{"Date", "Day", "Check-in", "Arrival", "Check-out", "Departure", "Total hours"}

// WriteAttendance writes records as a single-sheet workbook.
func WriteAttendance(w io.Writer, records []apiclient.AttendanceRecord) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.EmployeeID,
			r.FullName,
			r.Department,
			r.Position,
			workDay(r.WorkDay),
			r.Status,
			attendance.ClockTime(r.ComeTime),
			attendance.ClockTime(r.LeaveTime),
			hoursCell(r.TotalHours),
		})
	}
	return writeSheet(w, "Attendance", attendanceHeaders, rows)
}

// WriteTimesheet writes one employee's timesheet rows; title becomes the sheet name.
func WriteTimesheet(w io.Writer, title string, rows []attendance.TimesheetRow) error {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			r.Date.Format("2006-01-02"),
			r.Weekday,
			r.ComeTime,
			string(r.Arrival),
			r.LeaveTime,
			string(r.Departure),
			r.TotalHours,
		})
	}
	if title == "" {
		title = "Timesheet"
	}
	return writeSheet(w, title, timesheetHeaders, out)
}

func writeSheet(w io.Writer, sheet string, headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header: %w", err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, bold)
	}

	for r, row := range rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", lastCol, 16)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func workDay(t apiclient.Text) string {
	s := t.String()
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func hoursCell(t apiclient.Text) any {
	if t == "" {
		return ""
	}
	if f := t.Float(); f != 0 || t == "0" {
		return f
	}
	return t.String()
}

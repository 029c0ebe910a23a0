package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/attendance"
)

func TestWriteAttendanceIsReadable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAttendance(&buf, []apiclient.AttendanceRecord{
		{EmployeeID: "E1", FullName: "Aziz", Department: "IT", Position: "Engineer", WorkDay: "2024-05-02T00:00:00Z", Status: "present", ComeTime: "09:05", LeaveTime: "18:10", TotalHours: "9.08"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Attendance")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "Employee ID" || rows[1][0] != "E1" || rows[1][4] != "2024-05-02" || rows[1][6] != "09:05" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestWriteTimesheet(t *testing.T) {
	rows := attendance.BuildTimesheet([]apiclient.TimesheetDay{
		{WorkDay: "2024-05-02", ComeTime: "10:45", LeaveTime: "18:00", TotalHours: "7.25"},
	}, 2024, time.May, attendance.FirstInterval)

	var buf bytes.Buffer
	if err := WriteTimesheet(&buf, "E1 2024-05", rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, _ := f.GetRows("E1 2024-05")
	if len(got) != 2 || got[1][3] != "late" || got[1][5] != "on-time" {
		t.Fatalf("unexpected rows %v", got)
	}
}

func importFile(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	return &buf
}

func TestReadEmployees(t *testing.T) {
	buf := importFile(t, [][]any{
		{"Employee ID", "Last Name", "First Name", "Role", "Password", "Department_Name", "Position_Name", "Email"},
		{"E10", "Karimov", "Aziz", "employee", "pw1", "IT", "Engineer", "aziz@example.com"},
		{"", "", "", "", "", "", "", ""},
		{"E11", "Yusupova", "Dilnoza", "admin", "pw2", "Sales", "Manager", ""},
	})
	rows, err := ReadEmployees(buf, "staff.XLSX")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].FullName != "Karimov Aziz" || rows[0].Department != "IT" || rows[0].Line != 2 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Line != 4 || rows[1].Role != "admin" {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
}

func TestReadEmployeesRejectsUnknownFiles(t *testing.T) {
	if _, err := ReadEmployees(bytes.NewReader([]byte("a,b")), "staff.csv"); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
	buf := importFile(t, [][]any{{"name"}, {"Aziz"}})
	if _, err := ReadEmployees(buf, "staff.xlsx"); err == nil {
		t.Fatalf("expected missing employee_id column error")
	}
}

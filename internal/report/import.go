package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFile = errors.New("only .xlsx and .xls files are supported")

// EmployeeRow is one data line of an employee import sheet. Line is 1-based
// and counts the header.
type EmployeeRow struct {
	Line       int
	EmployeeID string
	FullName   string
	Role       string
	Password   string
	Department string
	Position   string
	Phone      string
	Email      string
}

var headerAliases = map[string]string{
	"employee_id":     "employee_id",
	"employee id":     "employee_id",
	"id":              "employee_id",
	"full_name":       "full_name",
	"full name":       "full_name",
	"name":            "full_name",
	"first_name":      "first_name",
	"first name":      "first_name",
	"last_name":       "last_name",
	"last name":       "last_name",
	"role":            "role",
	"password":        "password",
	"department":      "department",
	"department_name": "department",
	"position":        "position",
	"position_name":   "position",
	"phone":           "phone",
	"email":           "email",
}

// ReadEmployees parses an .xlsx or .xls upload. Blank lines are skipped.
func ReadEmployees(r io.Reader, filename string) ([]EmployeeRow, error) {
	rows, err := readRowsFromSpreadsheet(r, filename)
	if err != nil {
		return nil, err
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		if key, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := cols[key]; !dup {
				cols[key] = i
			}
		}
	}
	if _, ok := cols["employee_id"]; !ok {
		return nil, errors.New("header row must contain an employee_id column")
	}
	col := func(row []string, key string) string {
		idx, ok := cols[key]
		if !ok {
			return ""
		}
		return cellValue(row, idx)
	}

	out := make([]EmployeeRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		name := col(row, "full_name")
		if name == "" {
			name = strings.TrimSpace(col(row, "last_name") + " " + col(row, "first_name"))
		}
		out = append(out, EmployeeRow{
			Line:       i + 2,
			EmployeeID: col(row, "employee_id"),
			FullName:   name,
			Role:       col(row, "role"),
			Password:   col(row, "password"),
			Department: col(row, "department"),
			Position:   col(row, "position"),
			Phone:      col(row, "phone"),
			Email:      col(row, "email"),
		})
	}
	return out, nil
}

func readRowsFromSpreadsheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	case ".xlsx":
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		return nil, ErrUnsupportedFile
	}
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package crud

import (
	"errors"
	"strings"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/report"
)

// RowError explains why an import line was not sent.
type RowError struct {
	Line       int
	EmployeeID string
	Fields     []string
	Key        string
}

// ImportPlan validates rows against the current lists. Department and
// position names are matched case-insensitively; a position must belong to
// the row's department. Rows repeating an employee id seen earlier in the
// file or already registered are rejected.
func (v *Validator) ImportPlan(rows []report.EmployeeRow, depts []apiclient.Department, positions []apiclient.Position, existing []apiclient.Employee) ([]EmployeeForm, []RowError) {
	deptByName := map[string]int{}
	for _, d := range depts {
		deptByName[strings.ToLower(strings.TrimSpace(d.Name))] = d.ID
	}
	type posKey struct {
		dept int
		name string
	}
	posByName := map[posKey]int{}
	for _, p := range positions {
		posByName[posKey{p.DepartmentID, strings.ToLower(strings.TrimSpace(p.Name))}] = p.ID
	}

	known := make([]apiclient.Employee, len(existing))
	copy(known, existing)

	var forms []EmployeeForm
	var rejected []RowError
	for _, row := range rows {
		deptID := deptByName[strings.ToLower(row.Department)]
		posID := posByName[posKey{deptID, strings.ToLower(row.Position)}]
		form := EmployeeForm{
			EmployeeID:   row.EmployeeID,
			FullName:     row.FullName,
			Password:     row.Password,
			Role:         NormalizeRole(row.Role),
			DepartmentID: deptID,
			PositionID:   posID,
			Phone:        row.Phone,
			Email:        row.Email,
		}
		if err := v.Employee(form, known); err != nil {
			re := RowError{Line: row.Line, EmployeeID: row.EmployeeID, Key: MessageKey(err, "")}
			var fe *FormError
			if errors.As(err, &fe) {
				re.Fields = fe.Fields
			}
			rejected = append(rejected, re)
			continue
		}
		forms = append(forms, form)
		known = append(known, apiclient.Employee{EmployeeID: form.EmployeeID})
	}
	return forms, rejected
}

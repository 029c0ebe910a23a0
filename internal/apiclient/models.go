package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text decodes a JSON string, number or null into a string.
// The backend is not consistent about how it encodes times and hour totals.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Float parses the text as a number, returning 0 when it is not one.
func (t Text) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
	if err != nil {
		return 0
	}
	return f
}

type Employee struct {
	ID           int    `json:"id"`
	EmployeeID   string `json:"employee_id"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	DepartmentID int    `json:"department_id"`
	PositionID   int    `json:"position_id"`
	Department   string `json:"department"`
	Position     string `json:"position"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	IsAdmin      bool   `json:"isAdmin"`
}

// EmployeeInput is the body of /user/create and PUT /user/{id}.
type EmployeeInput struct {
	EmployeeID   string `json:"employee_id"`
	FullName     string `json:"full_name"`
	Password     string `json:"password,omitempty"`
	Role         string `json:"role"`
	DepartmentID int    `json:"department_id"`
	PositionID   int    `json:"position_id"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Position struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DepartmentID int    `json:"department_id"`
	Department   string `json:"department"`
}

type SignInResult struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	Employee     Employee `json:"employee"`
}

// MarkRequest is the body of every attendance mark.
type MarkRequest struct {
	EmployeeID string  `json:"employee_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Mark is the backend's view of today's attendance for one employee.
type Mark struct {
	ComeTime   Text `json:"come_time"`
	LeaveTime  Text `json:"leave_time"`
	TotalHours Text `json:"total_hours"`
}

type QRMark struct {
	ID         int    `json:"id"`
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	WorkDay    Text   `json:"work_day"`
	ComeTime   Text   `json:"come_time"`
	LeaveTime  Text   `json:"leave_time"`
	// Message is the server greeting, copied from the response envelope.
	Message string `json:"-"`
}

type GraphPoint struct {
	WorkDay    string  `json:"work_day"`
	Percentage float64 `json:"percentage"`
}

type TimesheetDay struct {
	WorkDay    string `json:"work_day"`
	ComeTime   Text   `json:"come_time"`
	LeaveTime  Text   `json:"leave_time"`
	TotalHours Text   `json:"total_hours"`
}

type AttendanceRecord struct {
	ID         int    `json:"id"`
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Position   string `json:"position"`
	WorkDay    Text   `json:"work_day"`
	ComeTime   Text   `json:"come_time"`
	LeaveTime  Text   `json:"leave_time"`
	TotalHours Text   `json:"total_hours"`
	Status     string `json:"status"`
}

type AttendanceFilter struct {
	Date         string
	Status       string
	DepartmentID int
	PositionID   int
}

type PositionFilter struct {
	DepartmentID int
	Search       string
}

// decodeList accepts either a bare array or an object carrying it under
// "results" or "items".
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}
	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var wrapped struct {
		Results []T `json:"results"`
		Items   []T `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Results != nil {
		return wrapped.Results, nil
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}
	return []T{}, nil
}

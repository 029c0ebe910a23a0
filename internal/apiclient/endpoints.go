package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

func (c *Client) SignIn(ctx context.Context, employeeID, password string) (*SignInResult, error) {
	raw, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   signInPath,
		body:   map[string]string{"employee_id": employeeID, "password": password},
	})
	if err != nil {
		return nil, err
	}
	var res SignInResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}
	if res.Token == "" {
		// some deployments wrap the payload in the usual envelope
		var env struct {
			Data  SignInResult `json:"data"`
			Error string       `json:"error"`
		}
		if err := json.Unmarshal(raw, &env); err == nil && env.Data.Token != "" {
			res = env.Data
		} else {
			return nil, &Error{StatusCode: http.StatusUnauthorized, Message: env.Error}
		}
	}
	return &res, nil
}

func (c *Client) list(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	if _, err := c.call(ctx, request{method: http.MethodGet, path: path, query: query}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) ListDepartments(ctx context.Context) ([]Department, error) {
	raw, err := c.list(ctx, "department/list", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Department](raw)
}

func (c *Client) GetDepartment(ctx context.Context, id int) (*Department, error) {
	var d Department
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "department/" + strconv.Itoa(id)}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateDepartment(ctx context.Context, name string) (*Department, error) {
	d := Department{Name: name}
	if _, err := c.call(ctx, request{method: http.MethodPost, path: "department/create", body: map[string]string{"name": name}}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) UpdateDepartment(ctx context.Context, id int, name string) (*Department, error) {
	d := Department{ID: id, Name: name}
	if _, err := c.call(ctx, request{method: http.MethodPut, path: "department/" + strconv.Itoa(id), body: map[string]string{"name": name}}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) DeleteDepartment(ctx context.Context, id int) error {
	_, err := c.call(ctx, request{method: http.MethodDelete, path: "department/" + strconv.Itoa(id)}, nil)
	return err
}

func (c *Client) ListPositions(ctx context.Context, filter PositionFilter) ([]Position, error) {
	query := url.Values{}
	if filter.DepartmentID > 0 {
		query.Set("department_id", strconv.Itoa(filter.DepartmentID))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query.Set("search", s)
	}
	raw, err := c.list(ctx, "position/list", query)
	if err != nil {
		return nil, err
	}
	return decodeList[Position](raw)
}

func (c *Client) GetPosition(ctx context.Context, id int) (*Position, error) {
	var p Position
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "position/" + strconv.Itoa(id)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type positionBody struct {
	Name         string `json:"name"`
	DepartmentID int    `json:"department_id"`
}

func (c *Client) CreatePosition(ctx context.Context, name string, departmentID int) (*Position, error) {
	p := Position{Name: name, DepartmentID: departmentID}
	if _, err := c.call(ctx, request{method: http.MethodPost, path: "position/create", body: positionBody{name, departmentID}}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePosition(ctx context.Context, id int, name string, departmentID int) (*Position, error) {
	p := Position{ID: id, Name: name, DepartmentID: departmentID}
	if _, err := c.call(ctx, request{method: http.MethodPut, path: "position/" + strconv.Itoa(id), body: positionBody{name, departmentID}}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePosition(ctx context.Context, id int) error {
	_, err := c.call(ctx, request{method: http.MethodDelete, path: "position/" + strconv.Itoa(id)}, nil)
	return err
}

func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	raw, err := c.list(ctx, "user/list", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Employee](raw)
}

func (c *Client) CreateEmployee(ctx context.Context, in EmployeeInput) (*Employee, error) {
	e := employeeFromInput(0, in)
	if _, err := c.call(ctx, request{method: http.MethodPost, path: "user/create", body: in}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateEmployee(ctx context.Context, id int, in EmployeeInput) (*Employee, error) {
	e := employeeFromInput(id, in)
	if _, err := c.call(ctx, request{method: http.MethodPut, path: "user/" + strconv.Itoa(id), body: in}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) DeleteEmployee(ctx context.Context, id int) error {
	_, err := c.call(ctx, request{method: http.MethodDelete, path: "user/" + strconv.Itoa(id)}, nil)
	return err
}

func employeeFromInput(id int, in EmployeeInput) Employee {
	return Employee{
		ID:           id,
		EmployeeID:   in.EmployeeID,
		FullName:     in.FullName,
		Role:         in.Role,
		DepartmentID: in.DepartmentID,
		PositionID:   in.PositionID,
		Phone:        in.Phone,
		Email:        in.Email,
	}
}

// CheckInByPhone records arrival after the caller has verified the office radius.
func (c *Client) CheckInByPhone(ctx context.Context, in MarkRequest) (*Mark, error) {
	var m Mark
	if _, err := c.call(ctx, request{method: http.MethodPost, path: "attendance/createbyphone", body: in}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) CheckOutByPhone(ctx context.Context, in MarkRequest) (*Mark, error) {
	var m Mark
	if _, err := c.call(ctx, request{method: http.MethodPatch, path: "attendance/exitbyphone", body: in}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkByQRCode lets the backend decide between arrival and departure.
func (c *Client) MarkByQRCode(ctx context.Context, in MarkRequest) (*QRMark, error) {
	var m QRMark
	env, err := c.call(ctx, request{method: http.MethodPost, path: "attendance/createbyqrcode", body: in}, &m)
	if err != nil {
		return nil, err
	}
	m.Message = env.Message
	if m.EmployeeID == "" {
		m.EmployeeID = in.EmployeeID
	}
	return &m, nil
}

// AttendanceGraph returns daily attendance percentages for one ten-day interval of month.
func (c *Client) AttendanceGraph(ctx context.Context, month time.Time, interval int) ([]GraphPoint, error) {
	query := url.Values{}
	query.Set("month", time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	query.Set("interval", strconv.Itoa(interval))
	raw, err := c.list(ctx, "attendance/graph", query)
	if err != nil {
		return nil, err
	}
	return decodeList[GraphPoint](raw)
}

func (c *Client) Dashboard(ctx context.Context) (*Mark, error) {
	var m Mark
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "user/dashboard"}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Timesheet(ctx context.Context, year int, month time.Month) ([]TimesheetDay, error) {
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))
	query.Set("month", strconv.Itoa(int(month)))
	raw, err := c.list(ctx, "attendance/timesheet", query)
	if err != nil {
		return nil, err
	}
	return decodeList[TimesheetDay](raw)
}

func (c *Client) ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error) {
	query := url.Values{}
	if filter.Date != "" {
		query.Set("date", filter.Date)
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.DepartmentID > 0 {
		query.Set("department_id", strconv.Itoa(filter.DepartmentID))
	}
	if filter.PositionID > 0 {
		query.Set("position_id", strconv.Itoa(filter.PositionID))
	}
	raw, err := c.list(ctx, "attendance/list", query)
	if err != nil {
		return nil, err
	}
	return decodeList[AttendanceRecord](raw)
}

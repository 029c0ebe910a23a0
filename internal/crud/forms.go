package crud

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/i18n"
)

var (
	ErrInvalid   = errors.New("invalid form")
	ErrDuplicate = errors.New("duplicate entry")
	ErrUnchanged = errors.New("nothing changed")
)

// FormError carries the message key shown to the user and the failing fields.
type FormError struct {
	Err    error
	Key    string
	Fields []string
}

func (e *FormError) Error() string { return e.Err.Error() + ": " + e.Key }
func (e *FormError) Unwrap() error { return e.Err }

type DepartmentForm struct {
	ID   int
	Name string `validate:"required"`
}

type PositionForm struct {
	ID           int
	Name         string `validate:"required"`
	DepartmentID int    `validate:"required,gt=0"`
}

type EmployeeForm struct {
	ID           int
	EmployeeID   string `validate:"required"`
	FullName     string `validate:"required"`
	Password     string `validate:"required_without=ID"`
	Role         string `validate:"required,oneof=Admin Employee"`
	DepartmentID int    `validate:"required,gt=0"`
	PositionID   int    `validate:"required,gt=0"`
	Phone        string
	Email        string `validate:"omitempty,email"`
}

func (f EmployeeForm) Input() apiclient.EmployeeInput {
	return apiclient.EmployeeInput{
		EmployeeID:   f.EmployeeID,
		FullName:     f.FullName,
		Password:     f.Password,
		Role:         f.Role,
		DepartmentID: f.DepartmentID,
		PositionID:   f.PositionID,
		Phone:        f.Phone,
		Email:        f.Email,
	}
}

func DepartmentFromValues(id int, v url.Values) DepartmentForm {
	return DepartmentForm{ID: id, Name: strings.TrimSpace(v.Get("name"))}
}

func PositionFromValues(id int, v url.Values) PositionForm {
	return PositionForm{ID: id, Name: strings.TrimSpace(v.Get("name")), DepartmentID: atoi(v.Get("department_id"))}
}

func EmployeeFromValues(id int, v url.Values) EmployeeForm {
	return EmployeeForm{
		ID:           id,
		EmployeeID:   strings.TrimSpace(v.Get("employee_id")),
		FullName:     strings.TrimSpace(v.Get("full_name")),
		Password:     v.Get("password"),
		Role:         NormalizeRole(v.Get("role")),
		DepartmentID: atoi(v.Get("department_id")),
		PositionID:   atoi(v.Get("position_id")),
		Phone:        strings.TrimSpace(v.Get("phone")),
		Email:        strings.TrimSpace(v.Get("email")),
	}
}

// NormalizeRole maps free-form role text onto Admin or Employee; anything else is kept for validation to reject.
func NormalizeRole(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "administrator":
		return "Admin"
	case "employee", "user", "":
		return "Employee"
	}
	return strings.TrimSpace(raw)
}

func atoi(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) check(form any, key string) error {
	if err := v.v.Struct(form); err != nil {
		fe := &FormError{Err: ErrInvalid, Key: key}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				fe.Fields = append(fe.Fields, e.Field())
			}
		}
		return fe
	}
	return nil
}

// Department checks a create (ID 0) or edit against the current list.
func (v *Validator) Department(form DepartmentForm, existing []apiclient.Department) error {
	if err := v.check(form, i18n.DepartmentRequired); err != nil {
		return err
	}
	for _, d := range existing {
		if form.ID > 0 && d.ID == form.ID {
			if strings.TrimSpace(d.Name) == form.Name {
				return &FormError{Err: ErrUnchanged, Key: i18n.DepartmentUnchanged}
			}
			continue
		}
		if strings.EqualFold(strings.TrimSpace(d.Name), form.Name) {
			return &FormError{Err: ErrDuplicate, Key: i18n.DepartmentExists, Fields: []string{"Name"}}
		}
	}
	return nil
}

// Position rejects an edit that changes nothing before checking required fields.
func (v *Validator) Position(form PositionForm, existing []apiclient.Position) error {
	if form.ID > 0 {
		for _, p := range existing {
			if p.ID == form.ID && strings.TrimSpace(p.Name) == form.Name && p.DepartmentID == form.DepartmentID {
				return &FormError{Err: ErrUnchanged, Key: i18n.PositionUnchanged}
			}
		}
	}
	if err := v.check(form, i18n.PositionRequired); err != nil {
		return err
	}
	for _, p := range existing {
		if (form.ID == 0 || p.ID != form.ID) && p.DepartmentID == form.DepartmentID && strings.EqualFold(strings.TrimSpace(p.Name), form.Name) {
			return &FormError{Err: ErrDuplicate, Key: i18n.PositionExists, Fields: []string{"Name"}}
		}
	}
	return nil
}

func (v *Validator) Employee(form EmployeeForm, existing []apiclient.Employee) error {
	if err := v.check(form, i18n.RequiredFields); err != nil {
		return err
	}
	for _, e := range existing {
		if form.ID > 0 && e.ID == form.ID {
			continue
		}
		if strings.EqualFold(e.EmployeeID, form.EmployeeID) {
			return &FormError{Err: ErrDuplicate, Key: i18n.EmployeeExists, Fields: []string{"EmployeeID"}}
		}
	}
	return nil
}

// MessageKey returns the message key of a FormError, or fallback.
func MessageKey(err error, fallback string) string {
	var fe *FormError
	if errors.As(err, &fe) && fe.Key != "" {
		return fe.Key
	}
	return fallback
}

package clientapp

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/text/message"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/crud"
	"github.com/phillip-england/attendance/internal/i18n"
	"github.com/phillip-england/attendance/internal/report"
)

const (
	departmentsPath = "/admin/departments"
	positionsPath   = "/admin/positions"
	employeesPath   = "/admin/employees"
	maxImportBytes  = 10 << 20
)

func departmentID(d apiclient.Department) int { return d.ID }
func positionID(p apiclient.Position) int     { return p.ID }
func employeeID(e apiclient.Employee) int     { return e.ID }

func wantsRefresh(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "1"
}

func (s *server) departmentList(r *http.Request, key string, refresh bool) (*crud.Collection[apiclient.Department], error) {
	return s.departments.Get(key, refresh, func() (*crud.Collection[apiclient.Department], error) {
		items, err := s.apiFor(currentSession(r)).ListDepartments(r.Context())
		if err != nil {
			return nil, err
		}
		return crud.NewCollection(items, departmentID), nil
	})
}

func (s *server) positionList(r *http.Request, key string, refresh bool) (*crud.Collection[apiclient.Position], error) {
	return s.positions.Get(key, refresh, func() (*crud.Collection[apiclient.Position], error) {
		items, err := s.apiFor(currentSession(r)).ListPositions(r.Context(), apiclient.PositionFilter{})
		if err != nil {
			return nil, err
		}
		return crud.NewCollection(items, positionID), nil
	})
}

func (s *server) employeeList(r *http.Request, key string, refresh bool) (*crud.Collection[apiclient.Employee], error) {
	return s.employees.Get(key, refresh, func() (*crud.Collection[apiclient.Employee], error) {
		items, err := s.apiFor(currentSession(r)).ListEmployees(r.Context())
		if err != nil {
			return nil, err
		}
		return crud.NewCollection(items, employeeID), nil
	})
}

// failText is the user-facing text for a failed upstream call.
func failText(p *message.Printer, err error) string {
	return apiclient.Message(err, p.Sprintf(i18n.GenericFailure))
}

func formText(p *message.Printer, err error) string {
	return p.Sprintf(crud.MessageKey(err, i18n.GenericFailure))
}

// departments

func (s *server) departmentsPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	data := s.newPageData(r, sess, "Departments")
	p := i18n.FromRequest(r)
	col, err := s.departmentList(r, sess.ID, wantsRefresh(r))
	if err != nil {
		s.logger.Warn("load departments failed", slog.Any("error", err))
		data.Error = failText(p, err)
		s.render(w, r, s.departmentsTmpl, data)
		return
	}
	data.EditID = parsePositiveInt(r.URL.Query().Get("edit"), 0)
	if data.EditID > 0 {
		// the edit form starts from the server's current record
		current, err := s.apiFor(sess).GetDepartment(r.Context(), data.EditID)
		if err != nil {
			s.logger.Warn("load department failed", slog.Int("id", data.EditID), slog.Any("error", err))
			data.Error = failText(p, err)
			data.EditID = 0
		} else {
			current.ID = data.EditID
			col.Upsert(*current)
		}
	}
	data.Departments = col.Items()
	s.render(w, r, s.departmentsTmpl, data)
}

func (s *server) createDepartment(w http.ResponseWriter, r *http.Request) {
	s.saveDepartment(w, r, 0)
}

func (s *server) updateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.saveDepartment(w, r, id)
}

func (s *server) saveDepartment(w http.ResponseWriter, r *http.Request, id int) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	if err := r.ParseForm(); err != nil {
		redirectError(w, r, departmentsPath, p.Sprintf(i18n.GenericFailure))
		return
	}
	form := crud.DepartmentFromValues(id, r.PostForm)
	if err := s.validator.Department(form, nil); err != nil {
		redirectError(w, r, departmentsPath, formText(p, err))
		return
	}
	col, err := s.departmentList(r, sess.ID, false)
	if err != nil {
		redirectError(w, r, departmentsPath, failText(p, err))
		return
	}
	if err := s.validator.Department(form, col.Items()); err != nil {
		redirectError(w, r, departmentsPath, formText(p, err))
		return
	}

	api := s.apiFor(sess)
	var saved *apiclient.Department
	if id == 0 {
		saved, err = api.CreateDepartment(r.Context(), form.Name)
	} else {
		saved, err = api.UpdateDepartment(r.Context(), id, form.Name)
	}
	if err != nil {
		s.logger.Warn("save department failed", slog.Int("id", id), slog.Any("error", err))
		redirectError(w, r, departmentsPath, failText(p, err))
		return
	}
	s.departments.Splice(sess.ID, *saved)
	redirectMessage(w, r, departmentsPath, p.Sprintf(i18n.Saved))
}

func (s *server) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.apiFor(sess).DeleteDepartment(r.Context(), id); err != nil {
		s.logger.Warn("delete department failed", slog.Int("id", id), slog.Any("error", err))
		redirectError(w, r, departmentsPath, failText(p, err))
		return
	}
	s.departments.Update(sess.ID, func(c *crud.Collection[apiclient.Department]) { c.Remove(id) })
	redirectMessage(w, r, departmentsPath, p.Sprintf(i18n.Deleted))
}

// positions

func (s *server) positionsPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	data := s.newPageData(r, sess, "Positions")
	refresh := wantsRefresh(r)
	p := i18n.FromRequest(r)

	depts, err := s.departmentList(r, sess.ID, refresh)
	if err != nil {
		s.logger.Warn("load departments failed", slog.Any("error", err))
		data.Error = failText(p, err)
	} else {
		data.Departments = depts.Items()
	}
	col, err := s.positionList(r, sess.ID, refresh)
	if err != nil {
		s.logger.Warn("load positions failed", slog.Any("error", err))
		data.Error = failText(p, err)
	} else {
		data.EditID = parsePositiveInt(r.URL.Query().Get("edit"), 0)
		if data.EditID > 0 {
			current, err := s.apiFor(sess).GetPosition(r.Context(), data.EditID)
			if err != nil {
				s.logger.Warn("load position failed", slog.Int("id", data.EditID), slog.Any("error", err))
				data.Error = failText(p, err)
				data.EditID = 0
			} else {
				current.ID = data.EditID
				col.Upsert(*current)
			}
		}
		data.DeptFilter = parsePositiveInt(r.URL.Query().Get("department_id"), 0)
		data.Search = strings.TrimSpace(r.URL.Query().Get("search"))
		data.Positions = filterPositions(col.Items(), data.DeptFilter, data.Search)
		names := map[int]string{}
		for _, d := range data.Departments {
			names[d.ID] = d.Name
		}
		for i := range data.Positions {
			if data.Positions[i].Department == "" {
				data.Positions[i].Department = names[data.Positions[i].DepartmentID]
			}
		}
	}
	s.render(w, r, s.positionsTmpl, data)
}

func filterPositions(items []apiclient.Position, departmentID int, search string) []apiclient.Position {
	search = strings.ToLower(search)
	return slices.DeleteFunc(items, func(p apiclient.Position) bool {
		if departmentID > 0 && p.DepartmentID != departmentID {
			return true
		}
		return search != "" && !strings.Contains(strings.ToLower(p.Name), search)
	})
}

func (s *server) createPosition(w http.ResponseWriter, r *http.Request) {
	s.savePosition(w, r, 0)
}

func (s *server) updatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.savePosition(w, r, id)
}

func (s *server) savePosition(w http.ResponseWriter, r *http.Request, id int) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	if err := r.ParseForm(); err != nil {
		redirectError(w, r, positionsPath, p.Sprintf(i18n.GenericFailure))
		return
	}
	form := crud.PositionFromValues(id, r.PostForm)
	if err := s.validator.Position(form, nil); err != nil {
		redirectError(w, r, positionsPath, formText(p, err))
		return
	}
	col, err := s.positionList(r, sess.ID, false)
	if err != nil {
		redirectError(w, r, positionsPath, failText(p, err))
		return
	}
	if err := s.validator.Position(form, col.Items()); err != nil {
		redirectError(w, r, positionsPath, formText(p, err))
		return
	}

	api := s.apiFor(sess)
	var saved *apiclient.Position
	if id == 0 {
		saved, err = api.CreatePosition(r.Context(), form.Name, form.DepartmentID)
	} else {
		saved, err = api.UpdatePosition(r.Context(), id, form.Name, form.DepartmentID)
	}
	if err != nil {
		s.logger.Warn("save position failed", slog.Int("id", id), slog.Any("error", err))
		redirectError(w, r, positionsPath, failText(p, err))
		return
	}
	s.positions.Splice(sess.ID, *saved)
	redirectMessage(w, r, positionsPath, p.Sprintf(i18n.Saved))
}

func (s *server) deletePosition(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.apiFor(sess).DeletePosition(r.Context(), id); err != nil {
		s.logger.Warn("delete position failed", slog.Int("id", id), slog.Any("error", err))
		redirectError(w, r, positionsPath, failText(p, err))
		return
	}
	s.positions.Update(sess.ID, func(c *crud.Collection[apiclient.Position]) { c.Remove(id) })
	redirectMessage(w, r, positionsPath, p.Sprintf(i18n.Deleted))
}

// employees

func (s *server) employeesData(r *http.Request, refresh bool) pageData {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	data := s.newPageData(r, sess, "Employees")
	if depts, err := s.departmentList(r, sess.ID, refresh); err == nil {
		data.Departments = depts.Items()
	} else {
		data.Error = failText(p, err)
	}
	if positions, err := s.positionList(r, sess.ID, refresh); err == nil {
		data.Positions = positions.Items()
	} else {
		data.Error = failText(p, err)
	}
	col, err := s.employeeList(r, sess.ID, refresh)
	if err != nil {
		s.logger.Warn("load employees failed", slog.Any("error", err))
		data.Error = failText(p, err)
		return data
	}
	data.Search = strings.TrimSpace(r.URL.Query().Get("search"))
	needle := strings.ToLower(data.Search)
	data.Employees = slices.DeleteFunc(col.Items(), func(e apiclient.Employee) bool {
		return needle != "" &&
			!strings.Contains(strings.ToLower(e.FullName), needle) &&
			!strings.Contains(strings.ToLower(e.EmployeeID), needle)
	})
	data.EditID = parsePositiveInt(r.URL.Query().Get("edit"), 0)
	return data
}

func (s *server) employeesPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.employeesTmpl, s.employeesData(r, wantsRefresh(r)))
}

func (s *server) createEmployee(w http.ResponseWriter, r *http.Request) {
	s.saveEmployee(w, r, 0)
}

func (s *server) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.saveEmployee(w, r, id)
}

func (s *server) saveEmployee(w http.ResponseWriter, r *http.Request, id int) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	if err := r.ParseForm(); err != nil {
		redirectError(w, r, employeesPath, p.Sprintf(i18n.GenericFailure))
		return
	}
	form := crud.EmployeeFromValues(id, r.PostForm)
	if err := s.validator.Employee(form, nil); err != nil {
		redirectError(w, r, employeesPath, formText(p, err))
		return
	}
	col, err := s.employeeList(r, sess.ID, false)
	if err != nil {
		redirectError(w, r, employeesPath, failText(p, err))
		return
	}
	if id > 0 {
		if _, found := col.Find(id); !found {
			redirectError(w, r, employeesPath, p.Sprintf(i18n.EmployeeNotFound))
			return
		}
	}
	if err := s.validator.Employee(form, col.Items()); err != nil {
		redirectError(w, r, employeesPath, formText(p, err))
		return
	}

	api := s.apiFor(sess)
	var saved *apiclient.Employee
	if id == 0 {
		saved, err = api.CreateEmployee(r.Context(), form.Input())
	} else {
		saved, err = api.UpdateEmployee(r.Context(), id, form.Input())
	}
	if err != nil {
		s.logger.Warn("save employee failed", slog.Int("id", id), slog.Any("error", err))
		redirectError(w, r, employeesPath, failText(p, err))
		return
	}
	s.employees.Splice(sess.ID, *saved)
	redirectMessage(w, r, employeesPath, p.Sprintf(i18n.Saved))
}

func (s *server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.apiFor(sess).DeleteEmployee(r.Context(), id); err != nil {
		s.logger.Warn("delete employee failed", slog.Int("id", id), slog.Any("error", err))
		redirectError(w, r, employeesPath, failText(p, err))
		return
	}
	s.employees.Update(sess.ID, func(c *crud.Collection[apiclient.Employee]) { c.Remove(id) })
	redirectMessage(w, r, employeesPath, p.Sprintf(i18n.Deleted))
}

// importEmployees creates one employee per valid sheet row and renders the
// list with the rejected rows.
func (s *server) importEmployees(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		redirectError(w, r, employeesPath, p.Sprintf(i18n.ImportFileRequired))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		redirectError(w, r, employeesPath, p.Sprintf(i18n.ImportFileRequired))
		return
	}
	defer file.Close()

	rows, err := report.ReadEmployees(file, header.Filename)
	if err != nil {
		s.logger.Warn("read import sheet failed", slog.String("file", header.Filename), slog.Any("error", err))
		redirectError(w, r, employeesPath, p.Sprintf(i18n.ImportFileRequired))
		return
	}

	depts, err := s.departmentList(r, sess.ID, false)
	if err != nil {
		redirectError(w, r, employeesPath, failText(p, err))
		return
	}
	positions, err := s.positionList(r, sess.ID, false)
	if err != nil {
		redirectError(w, r, employeesPath, failText(p, err))
		return
	}
	existing, err := s.employeeList(r, sess.ID, false)
	if err != nil {
		redirectError(w, r, employeesPath, failText(p, err))
		return
	}

	forms, rejected := s.validator.ImportPlan(rows, depts.Items(), positions.Items(), existing.Items())
	views := importRows(p, rejected)
	api := s.apiFor(sess)
	created := 0
	for i, form := range forms {
		saved, err := api.CreateEmployee(r.Context(), form.Input())
		if err != nil {
			line := 0
			for _, row := range rows {
				if row.EmployeeID == form.EmployeeID {
					line = row.Line
					break
				}
			}
			views = append(views, importRowView{Line: line, EmployeeID: form.EmployeeID, Message: failText(p, err)})
			s.logger.Warn("import employee failed", slog.Int("row", i), slog.String("employee_id", form.EmployeeID), slog.Any("error", err))
			continue
		}
		created++
		s.employees.Splice(sess.ID, *saved)
	}
	slices.SortFunc(views, func(a, b importRowView) int { return a.Line - b.Line })
	s.logger.Info("employee import finished", slog.Int("created", created), slog.Int("rejected", len(views)))

	data := s.employeesData(r, false)
	data.Message = p.Sprintf(i18n.ImportSummary, created, len(views))
	data.RowErrors = views
	s.render(w, r, s.employeesTmpl, data)
}

package clientapp

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/attendance"
	"github.com/phillip-england/attendance/internal/chart"
	"github.com/phillip-england/attendance/internal/crud"
	"github.com/phillip-england/attendance/internal/i18n"
	"github.com/phillip-england/attendance/internal/qrscan"
	"github.com/phillip-england/attendance/internal/session"
)

type pageData struct {
	Title   string
	Lang    string
	Error   string
	Message string
	CSRF    string
	User    *session.Session

	// employee dashboard
	Today      attendance.State
	MarkTone   string
	GeoTimeout int64

	// timesheet
	Year        int
	Month       int
	MonthValue  string
	Interval    int
	Intervals   []intervalOption
	Timesheet   []attendance.TimesheetRow
	Summary     attendance.Summary
	ExportQuery string

	// kiosk
	Kiosk        qrscan.Snapshot
	ScanInterval int64

	// admin overview
	Chart       chart.Line
	Table       attendance.TablePage
	Query       attendance.TableQuery
	PageSizes   []int
	Statuses    []string
	DeptNames   []string
	PosNames    []string
	PrevQuery   string
	NextQuery   string
	FilterDate  string
	ExportTable string

	// admin lists
	Departments []apiclient.Department
	Positions   []apiclient.Position
	Employees   []apiclient.Employee
	DeptFilter  int
	Search      string
	EditID      int
	RowErrors   []importRowView
}

type intervalOption struct {
	Value    int
	Label    string
	Selected bool
}

type importRowView struct {
	Line       int
	EmployeeID string
	Message    string
	Fields     []string
}

func (s *server) newPageData(r *http.Request, sess *session.Session, title string) pageData {
	tag := i18n.Match(r.Header.Get("Accept-Language"))
	if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
		tag = i18n.Match(c.Value)
	}
	base, _ := tag.Base()
	data := pageData{
		Title:   title,
		Lang:    base.String(),
		Error:   r.URL.Query().Get("error"),
		Message: r.URL.Query().Get("message"),
		User:    sess,
	}
	if sess != nil {
		data.CSRF = sess.CSRFToken
	}
	if data.Lang == "" {
		data.Lang = language.English.String()
	}
	return data
}

func importRows(p *message.Printer, rows []crud.RowError) []importRowView {
	out := make([]importRowView, 0, len(rows))
	for _, row := range rows {
		msg := i18n.RequiredFields
		if row.Key != "" {
			msg = row.Key
		}
		out = append(out, importRowView{
			Line:       row.Line,
			EmployeeID: row.EmployeeID,
			Message:    p.Sprintf(msg),
			Fields:     row.Fields,
		})
	}
	return out
}

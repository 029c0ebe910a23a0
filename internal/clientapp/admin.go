package clientapp

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/attendance"
	"github.com/phillip-england/attendance/internal/chart"
	"github.com/phillip-england/attendance/internal/i18n"
	"github.com/phillip-england/attendance/internal/qrscan"
	"github.com/phillip-england/attendance/internal/report"
)

const (
	chartWidth  = 720
	chartHeight = 240
	badgeSize   = 256
)

// dateParam reads ?date=YYYY-MM-DD, falling back to today.
func dateParam(q url.Values, now time.Time) string {
	raw := strings.TrimSpace(q.Get("date"))
	if _, err := time.Parse("2006-01-02", raw); err == nil {
		return raw
	}
	return now.Format("2006-01-02")
}

func (s *server) adminPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	api := s.apiFor(sess)
	q := r.URL.Query()
	now := s.now()
	p := i18n.FromRequest(r)

	year, month := monthParam(q, now)
	fallback := attendance.FirstInterval
	if year == now.Year() && month == now.Month() {
		fallback = attendance.DefaultInterval(now)
	}
	interval := attendance.ParseInterval(q.Get("interval"), fallback)

	data := s.newPageData(r, sess, "Admin")
	data.Year = year
	data.Month = int(month)
	data.MonthValue = fmt.Sprintf("%04d-%02d", year, int(month))
	data.Interval = int(interval)
	for _, iv := range attendance.Intervals {
		data.Intervals = append(data.Intervals, intervalOption{Value: int(iv), Label: iv.Label(year, month), Selected: iv == interval})
	}

	points, err := api.AttendanceGraph(r.Context(), time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), int(interval))
	if err != nil {
		s.logger.Warn("load attendance graph failed", slog.Any("error", err))
		data.Error = p.Sprintf(i18n.GenericFailure)
	}
	data.Chart = chart.Build(points, int(interval), chartWidth, chartHeight)

	data.FilterDate = dateParam(q, now)
	tq := attendance.ParseTableQuery(q)
	records, err := api.ListAttendance(r.Context(), apiclient.AttendanceFilter{Date: data.FilterDate})
	if err != nil {
		s.logger.Warn("load attendance list failed", slog.Any("error", err))
		data.Error = p.Sprintf(i18n.GenericFailure)
	}
	data.Statuses, data.DeptNames, data.PosNames = attendance.ColumnValues(records)
	data.Table = attendance.Paginate(attendance.Filter(records, tq), tq.Page, tq.PerPage)
	tq.Page = data.Table.Page
	data.Query = tq
	data.PageSizes = attendance.PageSizes

	link := func(page int) string {
		lq := tq
		lq.Page = page
		v := lq.Values()
		v.Set("date", data.FilterDate)
		v.Set("month", data.MonthValue)
		v.Set("interval", strconv.Itoa(data.Interval))
		return v.Encode()
	}
	if data.Table.HasPrev {
		data.PrevQuery = link(data.Table.Page - 1)
	}
	if data.Table.HasNext {
		data.NextQuery = link(data.Table.Page + 1)
	}
	export := tq.Values()
	export.Del("page")
	export.Set("date", data.FilterDate)
	data.ExportTable = export.Encode()

	s.render(w, r, s.adminTmpl, data)
}

// attendanceExport downloads the filtered table, all pages.
func (s *server) attendanceExport(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	q := r.URL.Query()
	date := dateParam(q, s.now())
	records, err := s.apiFor(sess).ListAttendance(r.Context(), apiclient.AttendanceFilter{Date: date})
	if err != nil {
		s.logger.Warn("export attendance failed", slog.Any("error", err))
		http.Error(w, "unable to load attendance", http.StatusBadGateway)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteAttendance(&buf, attendance.Filter(records, attendance.ParseTableQuery(q))); err != nil {
		s.logger.Error("write attendance failed", slog.Any("error", err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	writeXLSX(w, "attendance-"+date+".xlsx", buf.Bytes())
}

func (s *server) employeeBadge(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	col, err := s.employeeList(r, sess.ID, false)
	if err != nil {
		http.Error(w, "unable to load employees", http.StatusBadGateway)
		return
	}
	emp, found := col.Find(id)
	if !found {
		http.NotFound(w, r)
		return
	}
	png, err := qrscan.Badge(emp.EmployeeID, parsePositiveInt(r.URL.Query().Get("size"), badgeSize))
	if err != nil {
		s.logger.Error("encode badge failed", slog.Any("error", err))
		http.Error(w, "badge failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "badge-"+emp.EmployeeID+".png"))
	_, _ = w.Write(png)
}

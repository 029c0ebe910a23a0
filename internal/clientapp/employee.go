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

	"github.com/phillip-england/attendance/internal/attendance"
	"github.com/phillip-england/attendance/internal/geo"
	"github.com/phillip-england/attendance/internal/i18n"
	"github.com/phillip-england/attendance/internal/report"
	"github.com/phillip-england/attendance/internal/session"
)

func stateOf(sess *session.Session) attendance.State {
	return attendance.State{
		CheckInTime:  sess.CheckInTime,
		CheckOutTime: sess.CheckOutTime,
		TotalHours:   sess.TotalHours,
	}
}

// sameDay reports whether a and b fall on the same calendar day in b's location.
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func storeState(sess *session.Session, st attendance.State) {
	sess.CheckInTime = st.CheckInTime
	sess.CheckOutTime = st.CheckOutTime
	sess.TotalHours = st.TotalHours
}

func (s *server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if !sameDay(sess.UpdatedAt, s.now()) {
		sess.ClearAttendance()
	}
	st := stateOf(sess)
	mark, err := s.apiFor(sess).Dashboard(r.Context())
	if err != nil {
		s.logger.Warn("load dashboard failed", slog.String("employee_id", sess.EmployeeID), slog.Any("error", err))
	} else {
		attendance.Seed(&st, mark)
		storeState(sess, st)
	}
	if st.CheckInTime == "" {
		st.CheckInTime = attendance.NoTime
	}
	if st.CheckOutTime == "" {
		st.CheckOutTime = attendance.NoTime
	}
	if st.TotalHours == "" {
		st.TotalHours = attendance.NoTime
	}

	data := s.newPageData(r, sess, "Attendance")
	data.Today = st
	data.MarkTone = r.URL.Query().Get("tone")
	data.GeoTimeout = s.geoTimeout.Milliseconds()
	if data.GeoTimeout <= 0 {
		data.GeoTimeout = geo.DefaultTimeout.Milliseconds()
	}
	s.render(w, r, s.dashboardTmpl, data)
}

func (s *server) checkIn(w http.ResponseWriter, r *http.Request) {
	s.mark(w, r, true)
}

func (s *server) checkOut(w http.ResponseWriter, r *http.Request) {
	s.mark(w, r, false)
}

// mark runs one check-in or check-out with the position the browser posted.
func (s *server) mark(w http.ResponseWriter, r *http.Request, in bool) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	if err := r.ParseForm(); err != nil {
		redirectError(w, r, "/", p.Sprintf(i18n.GenericFailure))
		return
	}

	marker := attendance.Marker{API: s.apiFor(sess), Gate: s.gate, Timeout: s.geoTimeout}
	st := stateOf(sess)
	loc := geo.FromForm(r.PostForm)

	var out attendance.Outcome
	if in {
		out = marker.CheckIn(r.Context(), p, &st, sess.EmployeeID, loc)
	} else {
		out = marker.CheckOut(r.Context(), p, &st, sess.EmployeeID, loc)
	}
	storeState(sess, st)

	action := "check-out"
	if in {
		action = "check-in"
	}
	attrs := []any{
		slog.String("action", action),
		slog.String("employee_id", sess.EmployeeID),
		slog.Bool("sent", out.Sent),
		slog.String("distance_km", strconv.FormatFloat(out.DistanceKM, 'f', 3, 64)),
	}
	if out.Err != nil {
		s.logger.Warn("attendance mark rejected", append(attrs, slog.Any("error", out.Err))...)
	} else {
		s.logger.Info("attendance marked", attrs...)
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":        out.Message,
			"tone":           out.Tone,
			"sent":           out.Sent,
			"check_in_time":  st.CheckInTime,
			"check_out_time": st.CheckOutTime,
			"total_hours":    st.TotalHours,
		})
		return
	}
	if out.Tone == attendance.ToneError {
		redirectError(w, r, "/", out.Message)
		return
	}
	redirectWith(w, r, "/", map[string]string{"message": out.Message, "tone": string(out.Tone)})
}

// monthParam reads ?month=YYYY-MM, falling back to the current month.
func monthParam(q url.Values, now time.Time) (int, time.Month) {
	if t, err := time.Parse("2006-01", strings.TrimSpace(q.Get("month"))); err == nil {
		return t.Year(), t.Month()
	}
	return now.Year(), now.Month()
}

func (s *server) loadTimesheet(r *http.Request, sess *session.Session) (pageData, error) {
	now := s.now()
	year, month := monthParam(r.URL.Query(), now)
	fallback := attendance.FirstInterval
	if year == now.Year() && month == now.Month() {
		fallback = attendance.DefaultInterval(now)
	}
	interval := attendance.ParseInterval(r.URL.Query().Get("interval"), fallback)

	data := s.newPageData(r, sess, "Timesheet")
	data.Year = year
	data.Month = int(month)
	data.MonthValue = fmt.Sprintf("%04d-%02d", year, int(month))
	data.Interval = int(interval)
	for _, iv := range attendance.Intervals {
		data.Intervals = append(data.Intervals, intervalOption{
			Value:    int(iv),
			Label:    iv.Label(year, month),
			Selected: iv == interval,
		})
	}
	data.ExportQuery = url.Values{"month": {data.MonthValue}, "interval": {strconv.Itoa(int(interval))}}.Encode()

	days, err := s.apiFor(sess).Timesheet(r.Context(), year, month)
	if err != nil {
		return data, err
	}
	data.Timesheet = attendance.BuildTimesheet(days, year, month, interval)
	data.Summary = attendance.Summarize(days)
	return data, nil
}

func (s *server) timesheetPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	data, err := s.loadTimesheet(r, sess)
	if err != nil {
		s.logger.Warn("load timesheet failed", slog.String("employee_id", sess.EmployeeID), slog.Any("error", err))
		data.Error = i18n.FromRequest(r).Sprintf(i18n.GenericFailure)
	}
	s.render(w, r, s.timesheetTmpl, data)
}

func (s *server) timesheetExport(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	data, err := s.loadTimesheet(r, sess)
	if err != nil {
		s.logger.Warn("export timesheet failed", slog.Any("error", err))
		http.Error(w, "unable to load timesheet", http.StatusBadGateway)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteTimesheet(&buf, data.MonthValue, data.Timesheet); err != nil {
		s.logger.Error("write timesheet failed", slog.Any("error", err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	writeXLSX(w, fmt.Sprintf("timesheet-%s-%s.xlsx", sess.EmployeeID, data.MonthValue), buf.Bytes())
}

func writeXLSX(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", report.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

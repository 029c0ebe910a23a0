package attendance

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/phillip-england/attendance/internal/apiclient"
)

var PageSizes = []int{10, 25, 100}

// TableQuery is the admin attendance table's search, column filters and page.
type TableQuery struct {
	Search     string
	Status     string
	Department string
	Position   string
	Page       int
	PerPage    int
}

func ParseTableQuery(q url.Values) TableQuery {
	out := TableQuery{
		Search:     strings.TrimSpace(q.Get("q")),
		Status:     strings.TrimSpace(q.Get("status")),
		Department: strings.TrimSpace(q.Get("department")),
		Position:   strings.TrimSpace(q.Get("position")),
		PerPage:    PageSizes[0],
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil {
		for _, size := range PageSizes {
			if n == size {
				out.PerPage = n
			}
		}
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		out.Page = n
	}
	return out
}

// Values encodes the query back for links; page is left out when zero.
func (q TableQuery) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("q", q.Search)
	set("status", q.Status)
	set("department", q.Department)
	set("position", q.Position)
	v.Set("per_page", strconv.Itoa(q.PerPage))
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// Filter applies the quick search (name or id substring) and the column filters.
func Filter(records []apiclient.AttendanceRecord, q TableQuery) []apiclient.AttendanceRecord {
	needle := strings.ToLower(q.Search)
	out := make([]apiclient.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.FullName), needle) &&
			!strings.Contains(strings.ToLower(r.EmployeeID), needle) {
			continue
		}
		if q.Status != "" && !strings.EqualFold(r.Status, q.Status) {
			continue
		}
		if q.Department != "" && !strings.EqualFold(r.Department, q.Department) {
			continue
		}
		if q.Position != "" && !strings.EqualFold(r.Position, q.Position) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type TablePage struct {
	Rows     []apiclient.AttendanceRecord
	Total    int
	Page     int
	PerPage  int
	Pages    int
	HasPrev  bool
	HasNext  bool
	FirstRow int
	LastRow  int
}

// Paginate clamps page into range; pages are zero based.
func Paginate(records []apiclient.AttendanceRecord, page, perPage int) TablePage {
	if perPage <= 0 {
		perPage = PageSizes[0]
	}
	total := len(records)
	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}
	start := page * perPage
	end := min(start+perPage, total)
	p := TablePage{
		Rows:    records[start:end],
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pages,
		HasPrev: page > 0,
		HasNext: page < pages-1,
	}
	if total > 0 {
		p.FirstRow = start + 1
		p.LastRow = end
	}
	return p
}

// ColumnValues lists the distinct values offered by each filterable column.
func ColumnValues(records []apiclient.AttendanceRecord) (statuses, departments, positions []string) {
	return distinct(records, func(r apiclient.AttendanceRecord) string { return r.Status }),
		distinct(records, func(r apiclient.AttendanceRecord) string { return r.Department }),
		distinct(records, func(r apiclient.AttendanceRecord) string { return r.Position })
}

func distinct(records []apiclient.AttendanceRecord, field func(apiclient.AttendanceRecord) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range records {
		v := strings.TrimSpace(field(r))
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

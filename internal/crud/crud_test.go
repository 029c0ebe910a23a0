package crud

import (
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/i18n"
)

func TestDepartmentValidation(t *testing.T) {
	v := NewValidator()
	existing := []apiclient.Department{{ID: 1, Name: "Sales"}, {ID: 2, Name: "IT"}}

	err := v.Department(DepartmentFromValues(0, url.Values{"name": {"   "}}), existing)
	if !errors.Is(err, ErrInvalid) || MessageKey(err, "") != i18n.DepartmentRequired {
		t.Fatalf("expected required error, got %v", err)
	}
	if err := v.Department(DepartmentForm{Name: "sales"}, existing); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	err = v.Department(DepartmentForm{ID: 2, Name: "IT"}, existing)
	if !errors.Is(err, ErrUnchanged) || MessageKey(err, "") != i18n.DepartmentUnchanged {
		t.Fatalf("expected unchanged, got %v", err)
	}
	if err := v.Department(DepartmentForm{ID: 2, Name: "Engineering"}, existing); err != nil {
		t.Fatalf("rename should pass, got %v", err)
	}
	if err := v.Department(DepartmentForm{ID: 1, Name: "SALES"}, existing); err != nil {
		t.Fatalf("case-only rename should pass, got %v", err)
	}
	if err := v.Department(DepartmentForm{ID: 1, Name: "it"}, existing); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("rename onto another department should be a duplicate, got %v", err)
	}
	if err := v.Department(DepartmentForm{Name: "Sales"}, []apiclient.Department{{Name: "Sales"}}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("new department should clash with an entry lacking an id, got %v", err)
	}
}

func TestPositionValidation(t *testing.T) {
	v := NewValidator()
	existing := []apiclient.Position{{ID: 5, Name: "Engineer", DepartmentID: 2}}

	err := v.Position(PositionForm{ID: 5, Name: "Engineer", DepartmentID: 2}, existing)
	if !errors.Is(err, ErrUnchanged) || MessageKey(err, "") != "You choosing same thing" {
		t.Fatalf("expected unchanged alert, got %v", err)
	}
	err = v.Position(PositionFromValues(0, url.Values{"name": {"Lead"}}), existing)
	if !errors.Is(err, ErrInvalid) || MessageKey(err, "") != "Please enter a position name and select a department." {
		t.Fatalf("expected required alert, got %v", err)
	}
	if err := v.Position(PositionForm{Name: "engineer", DepartmentID: 2}, existing); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := v.Position(PositionForm{Name: "Engineer", DepartmentID: 3}, existing); err != nil {
		t.Fatalf("same name in another department should pass, got %v", err)
	}
}

func TestEmployeeValidation(t *testing.T) {
	v := NewValidator()
	form := EmployeeFromValues(0, url.Values{
		"employee_id":   {"E10"},
		"full_name":     {"Aziz"},
		"password":      {"pw"},
		"role":          {"admin"},
		"department_id": {"1"},
		"position_id":   {"2"},
		"email":         {"aziz@example.com"},
	})
	if form.Role != "Admin" {
		t.Fatalf("role not normalized: %q", form.Role)
	}
	if err := v.Employee(form, nil); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	form.Password = ""
	err := v.Employee(form, nil)
	var fe *FormError
	if !errors.As(err, &fe) || len(fe.Fields) != 1 || fe.Fields[0] != "Password" {
		t.Fatalf("expected password error on create, got %v", err)
	}
	form.ID = 4
	if err := v.Employee(form, nil); err != nil {
		t.Fatalf("password optional on edit, got %v", err)
	}

	form.Email = "not-an-email"
	if err := v.Employee(form, nil); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected email error, got %v", err)
	}
	form.Email = ""
	if err := v.Employee(form, []apiclient.Employee{{ID: 9, EmployeeID: "e10"}}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate employee id, got %v", err)
	}
	if err := v.Employee(form, []apiclient.Employee{{ID: 4, EmployeeID: "E10"}}); err != nil {
		t.Fatalf("an edit keeping its own id should pass, got %v", err)
	}

	form.ID = 0
	form.Password = "pw"
	if err := v.Employee(form, []apiclient.Employee{{EmployeeID: "E10"}}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("new employee should clash with an entry lacking an id, got %v", err)
	}
}

func TestCollectionSplice(t *testing.T) {
	col := NewCollection([]apiclient.Department{{ID: 1, Name: "Sales"}, {ID: 2, Name: "IT"}}, func(d apiclient.Department) int { return d.ID })
	col.Upsert(apiclient.Department{ID: 2, Name: "Engineering"})
	col.Upsert(apiclient.Department{ID: 3, Name: "HR"})
	if !col.Remove(1) || col.Remove(42) {
		t.Fatalf("remove misbehaves")
	}
	items := col.Items()
	if len(items) != 2 || items[0].Name != "Engineering" || items[1].Name != "HR" {
		t.Fatalf("unexpected items %+v", items)
	}
	if _, ok := col.Find(3); !ok {
		t.Fatalf("find failed")
	}
}

func TestUpsertAppendsItemsWithoutID(t *testing.T) {
	col := NewCollection([]apiclient.Department{{ID: 1, Name: "Sales"}}, func(d apiclient.Department) int { return d.ID })
	col.Upsert(apiclient.Department{Name: "Support"})
	col.Upsert(apiclient.Department{Name: "Finance"})
	items := col.Items()
	if len(items) != 3 || items[1].Name != "Support" || items[2].Name != "Finance" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestCacheSpliceDropsEntryForItemWithoutID(t *testing.T) {
	cache := NewCache[apiclient.Department](time.Minute)
	load := func() (*Collection[apiclient.Department], error) {
		return NewCollection([]apiclient.Department{{ID: 1, Name: "Sales"}}, func(d apiclient.Department) int { return d.ID }), nil
	}
	if _, err := cache.Get("s1", false, load); err != nil {
		t.Fatalf("get: %v", err)
	}

	cache.Splice("s1", apiclient.Department{ID: 2, Name: "IT"})
	col, ok := cache.Peek("s1")
	if !ok || col.Len() != 2 {
		t.Fatalf("splice with id should update in place")
	}

	cache.Splice("s1", apiclient.Department{Name: "Support"})
	if _, ok := cache.Peek("s1"); ok {
		t.Fatalf("splice without id should drop the entry")
	}
	cache.Splice("missing", apiclient.Department{ID: 3, Name: "HR"})
	if _, ok := cache.Peek("missing"); ok {
		t.Fatalf("splice must not create entries")
	}
}

func TestCollectionConcurrentAccess(t *testing.T) {
	col := NewCollection([]apiclient.Department{}, func(d apiclient.Department) int { return d.ID })
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			col.Upsert(apiclient.Department{ID: id, Name: "D"})
			col.Remove(id - 1)
		}(i)
		go func(id int) {
			defer wg.Done()
			_ = col.Items()
			_, _ = col.Find(id)
		}(i)
	}
	wg.Wait()
	if _, ok := col.Find(20); !ok {
		t.Fatalf("last upsert lost")
	}
}

func TestCacheLoadsOnceUntilExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	cache := NewCache[apiclient.Department](time.Minute)
	cache.now = func() time.Time { return now }

	loads := 0
	load := func() (*Collection[apiclient.Department], error) {
		loads++
		return NewCollection([]apiclient.Department{{ID: 1, Name: "Sales"}}, func(d apiclient.Department) int { return d.ID }), nil
	}

	for i := 0; i < 3; i++ {
		if _, err := cache.Get("s1", false, load); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if loads != 1 {
		t.Fatalf("expected a single load, got %d", loads)
	}

	cache.Update("s1", func(c *Collection[apiclient.Department]) { c.Upsert(apiclient.Department{ID: 2, Name: "IT"}) })
	col, ok := cache.Peek("s1")
	if !ok || col.Len() != 2 {
		t.Fatalf("update not visible")
	}

	if _, err := cache.Get("s1", true, load); err != nil || loads != 2 {
		t.Fatalf("refresh should reload (loads=%d, err=%v)", loads, err)
	}
	now = now.Add(2 * time.Minute)
	if _, ok := cache.Peek("s1"); ok {
		t.Fatalf("entry should have expired")
	}
	_, _ = cache.Get("s1", false, load)
	if loads != 3 {
		t.Fatalf("expired entry should reload, loads=%d", loads)
	}

	loadErr := errors.New("down")
	if _, err := cache.Get("s2", false, func() (*Collection[apiclient.Department], error) { return nil, loadErr }); !errors.Is(err, loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
}

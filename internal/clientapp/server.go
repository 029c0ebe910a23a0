package clientapp

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/attendance"
	"github.com/phillip-england/attendance/internal/crud"
	"github.com/phillip-england/attendance/internal/envutil"
	"github.com/phillip-england/attendance/internal/geo"
	"github.com/phillip-england/attendance/internal/middleware"
	"github.com/phillip-england/attendance/internal/security"
	"github.com/phillip-england/attendance/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets/*
var assetsFS embed.FS

const (
	sessionCookieName = "attendance_session"
	csrfHeaderName    = "X-CSRF-Token"
	listCacheTTL      = 10 * time.Minute
)

type Config struct {
	Addr          string
	APIBaseURL    string
	APITimeout    time.Duration
	SessionDBPath string
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool
	Office        geo.Gate
	GeoTimeout    time.Duration
	KioskDisplay  time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

func DefaultConfigFromEnv() Config {
	return Config{
		Addr:          envutil.String("CLIENT_ADDR", ":3000"),
		APIBaseURL:    envutil.String("API_BASE_URL", apiclient.DefaultBaseURL),
		APITimeout:    envutil.Duration("API_TIMEOUT", apiclient.DefaultTimeout),
		SessionDBPath: envutil.String("SESSION_DB_PATH", "data/sessions.db"),
		SessionSecret: envutil.String("SESSION_SECRET", ""),
		SessionTTL:    envutil.Duration("SESSION_TTL", 12*time.Hour),
		SecureCookies: envutil.String("SECURE_COOKIES", "false") == "true",
		Office: geo.Gate{
			Office: geo.Position{
				Lat: envutil.Float("OFFICE_LAT", geo.OfficeLat),
				Lon: envutil.Float("OFFICE_LON", geo.OfficeLon),
			},
			RadiusKM: envutil.Float("OFFICE_RADIUS_KM", geo.OfficeRadiusKM),
		},
		GeoTimeout:   envutil.Duration("GEO_TIMEOUT", geo.DefaultTimeout),
		KioskDisplay: envutil.Duration("KIOSK_DISPLAY", 5*time.Second),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

type server struct {
	api       *apiclient.Client
	sessions  session.Store
	signer    *security.Signer
	logger    *slog.Logger
	validator *crud.Validator
	now       func() time.Time

	gate          geo.Gate
	geoTimeout    time.Duration
	sessionTTL    time.Duration
	secureCookies bool

	kiosks      *kioskRegistry
	departments *crud.Cache[apiclient.Department]
	positions   *crud.Cache[apiclient.Position]
	employees   *crud.Cache[apiclient.Employee]

	loginTmpl       *template.Template
	dashboardTmpl   *template.Template
	timesheetTmpl   *template.Template
	kioskTmpl       *template.Template
	adminTmpl       *template.Template
	departmentsTmpl *template.Template
	positionsTmpl   *template.Template
	employeesTmpl   *template.Template
}

func Run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required (run `attendance setup`)")
	}
	db, err := session.Open(cfg.SessionDBPath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	store := session.NewStore(db)
	if n, err := store.DeleteExpired(ctx); err != nil {
		logger.Warn("purge expired sessions failed", slog.Any("error", err))
	} else if n > 0 {
		logger.Info("purged expired sessions", slog.Int64("count", n))
	}

	api := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout, Logger: logger})
	s, err := newServer(cfg, api, store, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("client listening", slog.String("addr", cfg.Addr), slog.String("api", cfg.APIBaseURL))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newServer(cfg Config, api *apiclient.Client, store session.Store, logger *slog.Logger) (*server, error) {
	signer, err := security.NewSigner(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	gate := cfg.Office
	if gate.RadiusKM <= 0 {
		gate = geo.DefaultGate()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	s := &server{
		api:           api,
		sessions:      store,
		signer:        signer,
		logger:        logger,
		validator:     crud.NewValidator(),
		now:           time.Now,
		gate:          gate,
		geoTimeout:    cfg.GeoTimeout,
		sessionTTL:    ttl,
		secureCookies: cfg.SecureCookies,
		departments:   crud.NewCache[apiclient.Department](listCacheTTL),
		positions:     crud.NewCache[apiclient.Position](listCacheTTL),
		employees:     crud.NewCache[apiclient.Employee](listCacheTTL),

		loginTmpl:       parsePage("login.html"),
		dashboardTmpl:   parsePage("dashboard.html"),
		timesheetTmpl:   parsePage("timesheet.html"),
		kioskTmpl:       parsePage("kiosk.html"),
		adminTmpl:       parsePage("admin.html"),
		departmentsTmpl: parsePage("departments.html"),
		positionsTmpl:   parsePage("positions.html"),
		employeesTmpl:   parsePage("employees.html"),
	}
	s.kiosks = newKioskRegistry(cfg.KioskDisplay, func() time.Time { return s.now() })
	return s, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /login", s.loginPage)
	mux.HandleFunc("POST /login", s.login)
	mux.Handle("POST /logout", middleware.Chain(http.HandlerFunc(s.logout), s.requireSession))

	mux.Handle("GET /{$}", middleware.Chain(http.HandlerFunc(s.dashboardPage), s.requireSession))
	mux.Handle("POST /attendance/check-in", middleware.Chain(http.HandlerFunc(s.checkIn), s.requireSession))
	mux.Handle("POST /attendance/check-out", middleware.Chain(http.HandlerFunc(s.checkOut), s.requireSession))
	mux.Handle("GET /timesheet", middleware.Chain(http.HandlerFunc(s.timesheetPage), s.requireSession))
	mux.Handle("GET /timesheet.xlsx", middleware.Chain(http.HandlerFunc(s.timesheetExport), s.requireSession))

	mux.Handle("GET /kiosk", middleware.Chain(http.HandlerFunc(s.kioskPage), s.requireSession))
	mux.Handle("POST /kiosk/frame", middleware.Chain(http.HandlerFunc(s.kioskFrame), s.requireSession))
	mux.Handle("GET /kiosk/state", middleware.Chain(http.HandlerFunc(s.kioskState), s.requireSession))

	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, s.requireSession, s.requireAdmin)
	}
	mux.Handle("GET /admin", admin(s.adminPage))
	mux.Handle("GET /admin/attendance.xlsx", admin(s.attendanceExport))

	mux.Handle("GET /admin/departments", admin(s.departmentsPage))
	mux.Handle("POST /admin/departments", admin(s.createDepartment))
	mux.Handle("POST /admin/departments/{id}", admin(s.updateDepartment))
	mux.Handle("POST /admin/departments/{id}/delete", admin(s.deleteDepartment))

	mux.Handle("GET /admin/positions", admin(s.positionsPage))
	mux.Handle("POST /admin/positions", admin(s.createPosition))
	mux.Handle("POST /admin/positions/{id}", admin(s.updatePosition))
	mux.Handle("POST /admin/positions/{id}/delete", admin(s.deletePosition))

	mux.Handle("GET /admin/employees", admin(s.employeesPage))
	mux.Handle("POST /admin/employees", admin(s.createEmployee))
	mux.Handle("POST /admin/employees/import", admin(s.importEmployees))
	mux.Handle("POST /admin/employees/{id}", admin(s.updateEmployee))
	mux.Handle("POST /admin/employees/{id}/delete", admin(s.deleteEmployee))
	mux.Handle("GET /admin/employees/{id}/badge.png", admin(s.employeeBadge))

	assets, _ := fs.Sub(assetsFS, "assets")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(assets)))

	csp := strings.Join([]string{
		"default-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: blob:",
		"media-src 'self' blob:",
		"script-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	return middleware.Chain(
		mux,
		middleware.Recoverer(s.logger),
		middleware.Logger(s.logger),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
			ContentSecurityPolicy: csp,
			PermissionsPolicy:     "camera=(self), microphone=(), geolocation=(self)",
		}),
	)
}

var templateFuncs = template.FuncMap{
	"add":   func(a, b int) int { return a + b },
	"clock": attendance.ClockTime,
}

func parsePage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
}

func renderHTMLTemplate(w http.ResponseWriter, tmpl *template.Template, data pageData) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}

func (s *server) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data pageData) {
	if err := renderHTMLTemplate(w, tmpl, data); err != nil {
		http.Error(w, "template render failed", http.StatusInternalServerError)
		s.logger.Error("template render failed",
			slog.String("template", tmpl.Name()),
			slog.String("request_id", middleware.RequestID(r.Context())),
			slog.Any("error", err),
		)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// redirectWith sends the browser to path with a flash value in the query string.
func redirectWith(w http.ResponseWriter, r *http.Request, path string, params map[string]string) {
	v := url.Values{}
	for k, val := range params {
		if val != "" {
			v.Set(k, val)
		}
	}
	target := path
	if len(v) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += sep + v.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func redirectError(w http.ResponseWriter, r *http.Request, path, msg string) {
	redirectWith(w, r, path, map[string]string{"error": msg})
}

func redirectMessage(w http.ResponseWriter, r *http.Request, path, msg string) {
	redirectWith(w, r, path, map[string]string{"message": msg})
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func pathID(r *http.Request) (int, bool) {
	id := parsePositiveInt(r.PathValue("id"), 0)
	return id, id > 0
}

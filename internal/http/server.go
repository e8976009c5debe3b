package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/receipt"
	"expensetracker/internal/services"
	appweb "expensetracker/web"
)

const (
	defaultExtractionTTL = 15 * time.Minute
	maxCachedExtractions = 32
	readyTimeout         = 5 * time.Second
)

// Options configure the HTTP server.
type Options struct {
	Addr           string
	DefaultBudget  core.Money
	MaxUploadBytes int64
	ExtractionTTL  time.Duration
	// OCRAvailable hides the upload form when no engine is compiled in.
	OCRAvailable bool
	Logger       *applog.Logger
	RateLimit    ratelimit.Config
	// TrustedProxies are CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates     *template.Template
	svc           *services.ExpenseService
	extractions   *cache.LRUCache[receipt.Extraction]
	cacheManager  *cache.Manager
	limiter       *ratelimit.Limiter
	detector      *security.Detector
	tracer        *trace.Middleware
	logger        *applog.Logger
	defaultBudget core.Money
	maxUpload     int64
	ocrAvailable  bool

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(svc *services.ExpenseService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.ExtractionTTL <= 0 {
		opts.ExtractionTTL = defaultExtractionTTL
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = receipt.DefaultMaxUploadBytes
	}
	if opts.RateLimit.RequestsPerMinute == 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}

	s := &Server{
		svc:           svc,
		extractions:   cache.NewLRUCache[receipt.Extraction](maxCachedExtractions, opts.ExtractionTTL),
		cacheManager:  cache.NewManager(opts.Logger),
		limiter:       ratelimit.NewLimiter(opts.RateLimit),
		detector:      security.NewDetector(),
		logger:        opts.Logger.WithComponent(applog.ComponentHTTP),
		defaultBudget: opts.DefaultBudget,
		maxUpload:     opts.MaxUploadBytes,
		ocrAvailable:  opts.OCRAvailable,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	s.cacheManager.Register(s.extractions)
	s.cacheManager.StartCleanup(time.Minute)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/{$}", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/expenses", s.handleCreateExpense)
	mux.HandleFunc("/receipts", s.handleUploadReceipt)
	mux.HandleFunc("/receipts/{id}/save", s.handleSaveReceipt)
	mux.HandleFunc("/ui/overview", s.handleOverview)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(handler)
	handler = s.detector.Middleware(false)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

var templateFuncs = template.FuncMap{
	"rupees": func(m core.Money) string { return m.FormatRupees() },
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
}

// render executes a named template into a buffer so a failure never
// leaves a half written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "template", name)
		internalError(w, r, "Templates not loaded.")
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			"template", name,
			applog.FieldOperation, applog.OpRender)
		internalError(w, r, "Rendering failed.")
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}

type healthView struct {
	Status             string `json:"status"`
	Requests           int64  `json:"requests"`
	SuspiciousRequests int64  `json:"suspicious_requests"`
	RateLimited        int64  `json:"rate_limited"`
	PendingReceipts    int    `json:"pending_receipts"`
}

// handleHealth reports liveness together with the middleware counters.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().BodyJSON(healthView{
		Status:             "ok",
		Requests:           s.tracer.TotalRequests(),
		SuspiciousRequests: s.detector.SuspiciousCount(),
		RateLimited:        s.limiter.GetMetrics().TotalHits,
		PendingReceipts:    s.extractions.Size(),
	}).Write(w)
}

// internalError answers with a generic message carrying the request id so
// a report can be matched with the logs.
func internalError(w http.ResponseWriter, r *http.Request, msg string) {
	if id := trace.GetRequestID(r.Context()); id != "" {
		msg += " Reference: " + id
	}
	InternalServerError(msg).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.svc.Ready(ctx); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Readiness check failed", applog.FieldError, err)
		NewHTMXResponse().
			Status(http.StatusServiceUnavailable).
			BodyJSON(map[string]string{"status": "unavailable"}).
			Write(w)
		return
	}
	NewHTMXResponse().BodyJSON(map[string]string{"status": "ready"}).Write(w)
}

type indexView struct {
	Today         string
	Categories    []core.Category
	DefaultBudget string
	OCRAvailable  bool
	MaxUploadMB   int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if b := RequireMethod(r, http.MethodGet, http.MethodHead); b != nil {
		b.Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse(), "index.html", indexView{
		Today:         s.svc.Today().String(),
		Categories:    core.Categories(),
		DefaultBudget: s.defaultBudget.Decimal(),
		OCRAvailable:  s.ocrAvailable,
		MaxUploadMB:   s.maxUpload >> 20,
	})
}

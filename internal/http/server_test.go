package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/ledger/memory"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/receipt"
	"expensetracker/internal/services"
)

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type brokenStore struct{}

func (brokenStore) EnsureExists(context.Context) error { return nil }
func (brokenStore) Load(context.Context) (core.Ledger, error) {
	return core.Ledger{}, errors.New("disk gone")
}
func (brokenStore) Append(context.Context, core.Expense) (string, error) {
	return "", errors.New("disk gone")
}

type testEnv struct {
	srv   *Server
	store *memory.Store
	text  string
}

func newTestEnv(t *testing.T, seed ...core.Expense) *testEnv {
	t.Helper()
	env := &testEnv{store: memory.New(seed...)}
	engine := receipt.EngineFunc(func(context.Context, image.Image) ([]receipt.Fragment, error) {
		if env.text == "" {
			return nil, nil
		}
		return []receipt.Fragment{{Text: env.text}}, nil
	})
	svc := services.NewExpenseService(env.store,
		services.WithClock(services.ClockFunc(func() time.Time { return testNow })),
		services.WithExtractor(receipt.NewExtractor(engine, 0)))
	env.srv = newServerForTest(t, svc)
	return env
}

func newServerForTest(t *testing.T, svc *services.ExpenseService) *Server {
	t.Helper()
	srv := NewServer(svc, Options{
		DefaultBudget: core.Money{Cents: 2000000},
		OCRAvailable:  true,
		Logger:        applog.New(applog.Config{Output: io.Discard}),
		RateLimit:     ratelimit.Config{RequestsPerMinute: 1000, Methods: []string{http.MethodPost}},
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func uploadRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(receiptField, "receipt.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/receipts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var saveURL = regexp.MustCompile(`/receipts/([0-9a-f-]{36})/save`)

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`value="2024-03-15"`, `<option value="groceries">`, `<option value="other">`, `name="receipt"`, `/ui/overview?budget=20000.00`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" || rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("middleware headers missing: %v", rec.Header())
	}

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/nope", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body.String())
	}
	if body["requests"] != float64(1) || body["pending_receipts"] != float64(0) {
		t.Errorf("healthz counters = %v", body)
	}
	if rec := env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil)); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	srv := newServerForTest(t, services.NewExpenseService(brokenStore{}))
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable || strings.Contains(rec.Body.String(), "disk gone") {
		t.Errorf("broken readyz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateExpense(t *testing.T) {
	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantBody   string
		wantRows   int
	}{
		{
			name:       "valid entry",
			req:        postForm("/expenses", url.Values{"description": {"Groceries run"}, "amount": {"1234.5"}, "date": {"2024-03-01"}, "category": {"groceries"}}),
			wantStatus: http.StatusOK,
			wantBody:   "Expense saved successfully!",
			wantRows:   1,
		},
		{
			name:       "invalid amount",
			req:        postForm("/expenses", url.Values{"amount": {"abc"}, "category": {"food"}}),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Invalid amount",
		},
		{
			name:       "invalid category",
			req:        postForm("/expenses", url.Values{"amount": {"1"}, "category": {"toys"}}),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Invalid category.",
		},
		{
			name:       "wrong method",
			req:        httptest.NewRequest(http.MethodGet, "/expenses", nil),
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(tt.req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.wantBody)
			}
			l, _ := env.store.Load(context.Background())
			if l.Len() != tt.wantRows {
				t.Errorf("rows = %d, want %d", l.Len(), tt.wantRows)
			}
			if tt.wantRows == 1 {
				if !strings.Contains(rec.Header().Get("HX-Trigger"), EventExpenseCreated) {
					t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
				}
				if l.Entries[0].Amount.Cents != 123450 || l.Entries[0].Date.String() != "2024-03-01" {
					t.Errorf("stored %+v", l.Entries[0])
				}
			}
		})
	}
}

func TestCreateExpenseStoreFailure(t *testing.T) {
	srv := newServerForTest(t, services.NewExpenseService(brokenStore{}))
	rec := httptest.NewRecorder()
	req := postForm("/expenses", url.Values{"amount": {"1"}, "category": {"food"}})
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	id := rec.Header().Get("X-Request-ID")
	if id == "" || !strings.Contains(rec.Body.String(), "Reference: "+id) {
		t.Errorf("body %q should reference request %q", rec.Body.String(), id)
	}
	if strings.Contains(rec.Body.String(), "disk gone") {
		t.Error("internal error detail leaked")
	}
}

func TestReceiptUploadAndSave(t *testing.T) {
	env := newTestEnv(t)
	env.text = "SHOP\nItem 40.00\nTOTAL ₹1,245.50"

	rec := env.do(uploadRequest(t, pngImage(t)))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "data:image/png;base64,") || !strings.Contains(body, "TOTAL ₹1,245.50") {
		t.Errorf("upload body = %s", body)
	}
	m := saveURL.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no save url in %s", body)
	}

	rec = env.do(httptest.NewRequest(http.MethodPost, m[0], nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Extracted text saved with amount ₹1245.50") {
		t.Fatalf("save = %d %s", rec.Code, rec.Body.String())
	}
	l, _ := env.store.Load(context.Background())
	if l.Len() != 1 || l.Entries[0].Category != core.Other || l.Entries[0].Date.String() != "2024-03-15" {
		t.Errorf("stored %+v", l.Entries)
	}

	// The extraction is consumed by a successful save.
	if rec := env.do(httptest.NewRequest(http.MethodPost, m[0], nil)); rec.Code != http.StatusNotFound {
		t.Errorf("second save = %d", rec.Code)
	}
}

func TestReceiptWithoutAmountSavesZero(t *testing.T) {
	env := newTestEnv(t)
	env.text = "thanks for visiting"

	m := saveURL.FindStringSubmatch(env.do(uploadRequest(t, pngImage(t))).Body.String())
	rec := env.do(httptest.NewRequest(http.MethodPost, m[0], nil))
	body := rec.Body.String()
	if !strings.Contains(body, "₹0.00") || !strings.Contains(body, "No amount was recognized") {
		t.Errorf("body = %s", body)
	}
}

func TestReceiptWithoutTextSavesNothing(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(uploadRequest(t, pngImage(t))).Body.String()
	m := saveURL.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no save url in %s", body)
	}
	rec := env.do(httptest.NewRequest(http.MethodPost, m[0], nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No text detected in the receipt.") {
		t.Errorf("save = %d %s", rec.Code, rec.Body.String())
	}
	if l, _ := env.store.Load(context.Background()); !l.IsEmpty() {
		t.Error("nothing should be saved")
	}
}

func TestReceiptUploadRejects(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(uploadRequest(t, []byte("GIF89a not really"))); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("non image status = %d", rec.Code)
	}
	if rec := env.do(postForm("/receipts", url.Values{})); rec.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d", rec.Code)
	}
	if rec := env.do(httptest.NewRequest(http.MethodPost, "/receipts/unknown/save", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}

	noOCR := newServerForTest(t, services.NewExpenseService(memory.New()))
	rec := httptest.NewRecorder()
	noOCR.Handler.ServeHTTP(rec, uploadRequest(t, pngImage(t)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no extractor status = %d", rec.Code)
	}
}

func TestOverview(t *testing.T) {
	t.Run("empty ledger shows placeholders", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(httptest.NewRequest(http.MethodGet, "/ui/overview", nil))
		body := rec.Body.String()
		for _, want := range []string{CategoryChartPlaceholder, MonthlyChartPlaceholder, YearlyChartPlaceholder, core.VerdictNoData.Message()} {
			if !strings.Contains(body, escapeApostrophes(want)) {
				t.Errorf("missing %q in %s", want, body)
			}
		}
	})

	t.Run("budget summary", func(t *testing.T) {
		env := newTestEnv(t,
			core.Expense{Date: core.NewDate(2024, 2, 1), Amount: core.Money{Cents: 1500000}, Category: core.Rent},
			core.Expense{Date: core.NewDate(2024, 2, 3), Amount: core.Money{Cents: 250000}, Category: core.Food},
		)
		rec := env.do(httptest.NewRequest(http.MethodGet, "/ui/overview?budget=10000", nil))
		body := rec.Body.String()
		for _, want := range []string{"₹10,000.00", "₹17,500.00", "-₹7,500.00", "<code>rent</code>: ₹15,000.00", "<svg class=\"chart pie\"", "<svg class=\"chart bar\""} {
			if !strings.Contains(body, want) {
				t.Errorf("missing %q in %s", want, body)
			}
		}
		if !strings.Contains(body, escapeApostrophes(core.VerdictOverspent.Message())) {
			t.Errorf("missing verdict in %s", body)
		}
	})

	t.Run("invalid budget", func(t *testing.T) {
		env := newTestEnv(t)
		if rec := env.do(httptest.NewRequest(http.MethodGet, "/ui/overview?budget=-3", nil)); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestPostRateLimit(t *testing.T) {
	svc := services.NewExpenseService(memory.New())
	srv := NewServer(svc, Options{
		Logger:    applog.New(applog.Config{Output: io.Discard}),
		RateLimit: ratelimit.Config{RequestsPerMinute: 1, Methods: []string{http.MethodPost}},
	})
	defer srv.Shutdown(context.Background())

	form := url.Values{"amount": {"1"}, "category": {"food"}}
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, postForm("/expenses", form))
		if rec.Code != want {
			t.Errorf("request %d status = %d, want %d", i, rec.Code, want)
		}
	}
}

// escapeApostrophes mirrors html/template escaping of apostrophes.
func escapeApostrophes(s string) string {
	return strings.ReplaceAll(s, "'", "&#39;")
}

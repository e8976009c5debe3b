// Package services holds the entry handlers that turn user input into
// ledger records.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
	applog "expensetracker/internal/log"
	"expensetracker/internal/receipt"
	"expensetracker/internal/report"
)

// Entry sources carried on published events.
const (
	SourceManual  = "manual"
	SourceReceipt = "receipt"
)

var (
	// ErrNoReceiptText means the OCR text was empty after trimming.
	ErrNoReceiptText = errors.New("no text detected in the receipt")
	// ErrNoExtractor is returned by ScanReceipt when no OCR engine is wired.
	ErrNoExtractor = errors.New("receipt extraction is not configured")
)

// Clock provides the current time. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// EventPublisher receives an event after every successful append.
type EventPublisher interface {
	PublishExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error
	Close() error
}

// ManualEntry is the form input of the manual entry handler. A zero Date
// means today.
type ManualEntry struct {
	Date        core.Date
	Amount      core.Money
	Description string
	Category    core.Category
}

// ReceiptResult reports where a receipt was stored and what amount was
// inferred for it.
type ReceiptResult struct {
	Ref       string
	Expense   core.Expense
	Inference receipt.Inference
}

// Option configures an ExpenseService.
type Option func(*ExpenseService)

// WithPublisher enables event publication.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithExtractor enables ScanReceipt.
func WithExtractor(x *receipt.Extractor) Option {
	return func(s *ExpenseService) { s.extractor = x }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *ExpenseService) { s.clock = c }
}

// WithMonthPolicy selects how the overview picks the current month.
func WithMonthPolicy(p report.MonthPolicy) Option {
	return func(s *ExpenseService) { s.policy = p }
}

// ExpenseService orchestrates expense operations across the ledger store
// and the optional event publisher.
type ExpenseService struct {
	store     ledger.Store
	publisher EventPublisher
	extractor *receipt.Extractor
	clock     Clock
	policy    report.MonthPolicy
	logger    *applog.Logger
}

func NewExpenseService(store ledger.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:  store,
		clock:  SystemClock,
		policy: report.PolicyLastEntry,
		logger: applog.FromContext(context.Background()).WithComponent(applog.ComponentExpense),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date according to the service clock.
func (s *ExpenseService) Today() core.Date {
	return core.DateOf(s.clock.Now())
}

// RecordManual validates and appends a manually entered expense. The
// description is stored as typed, minus NUL bytes.
func (s *ExpenseService) RecordManual(ctx context.Context, in ManualEntry) (string, core.Expense, error) {
	e := core.Expense{
		Date:        in.Date,
		Amount:      in.Amount,
		Description: strings.ReplaceAll(in.Description, "\x00", ""),
		Category:    in.Category,
	}
	if e.Date.IsEmpty() {
		e.Date = s.Today()
	}
	if err := e.Validate(); err != nil {
		return "", core.Expense{}, err
	}

	ref, err := s.store.Append(ctx, e)
	if err != nil {
		return "", core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.recorded(ctx, ref, e, SourceManual)
	return ref, e, nil
}

// ScanReceipt runs OCR over the image read from r. Nothing is persisted.
func (s *ExpenseService) ScanReceipt(ctx context.Context, r io.Reader) (receipt.Extraction, error) {
	if s.extractor == nil {
		return receipt.Extraction{}, ErrNoExtractor
	}
	return s.extractor.Extract(ctx, r)
}

// RecordReceipt stores the OCR text of a receipt as an expense of category
// other dated today, with the amount inferred from the text. Empty text is
// rejected with ErrNoReceiptText and nothing is appended.
func (s *ExpenseService) RecordReceipt(ctx context.Context, text string) (ReceiptResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ReceiptResult{}, ErrNoReceiptText
	}

	inf := receipt.InferAmount(text)
	e := core.Expense{
		Date:        s.Today(),
		Amount:      inf.Amount,
		Description: text,
		Category:    core.Other,
	}
	ref, err := s.store.Append(ctx, e)
	if err != nil {
		return ReceiptResult{}, fmt.Errorf("save receipt: %w", err)
	}
	if !inf.Found {
		s.logger.WarnContext(ctx, "No amount found in receipt text, saved as zero",
			applog.FieldLedgerRef, ref,
			applog.FieldTextLength, len(text))
	}
	s.recorded(ctx, ref, e, SourceReceipt)
	return ReceiptResult{Ref: ref, Expense: e, Inference: inf}, nil
}

// Overview reloads the ledger and computes every aggregate.
func (s *ExpenseService) Overview(ctx context.Context, budget core.Money) (report.Overview, error) {
	l, err := s.store.Load(ctx)
	if err != nil {
		return report.Overview{}, fmt.Errorf("load ledger: %w", err)
	}
	return report.Build(l, budget, report.Options{Policy: s.policy, Now: s.clock.Now()}), nil
}

// Ready reports whether the ledger can be read.
func (s *ExpenseService) Ready(ctx context.Context) error {
	_, err := s.store.Load(ctx)
	return err
}

func (s *ExpenseService) recorded(ctx context.Context, ref string, e core.Expense, source string) {
	applog.NewStructuredLogger(s.logger).LogExpenseCreated(ctx, e.Amount.Cents, string(e.Category), source, ref)

	if s.publisher == nil {
		return
	}
	msg := amqp.NewExpenseRecordedMessage(ref, e, source)
	if err := s.publisher.PublishExpenseRecorded(ctx, msg); err != nil {
		// The record is already persisted; delivery is best effort.
		s.logger.ErrorContext(ctx, "Failed to publish expense recorded event",
			applog.FieldLedgerRef, ref,
			applog.FieldError, err)
	}
}

// Close closes the store when it holds resources, and the publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	return errors.Join(errs...)
}

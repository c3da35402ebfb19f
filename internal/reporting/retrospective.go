// Package reporting collects per-attempt checkout outcomes and rolls
// them up into retrospective reports for the tenant's finance screens.
package reporting

import (
	"sync"
	"time"
)

// Attempt outcome labels recorded in log entries.
const (
	StatusSuccess   = "SUCCESS"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// LogEntry represents a single finished (or cancelled) checkout attempt.
type LogEntry struct {
	Timestamp    time.Time
	SessionID    string
	Status       string // SUCCESS, FAILED or CANCELLED
	Amount       float64
	Currency     string
	Gateway      string // Gateway that handled the attempt, e.g. "razorpay"
	OrderNumber  string
	ErrorMessage string
}

// Recorder accumulates log entries for the lifetime of the process.
type Recorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append records one attempt outcome.
func (r *Recorder) Append(entry LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Snapshot returns a copy of all recorded entries.
func (r *Recorder) Snapshot() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// RetrospectiveReport summarizes checkout activity over a set of log entries.
type RetrospectiveReport struct {
	TotalAttempts        int                `json:"total_attempts"`
	SuccessfulPayments   int                `json:"successful_payments"`
	FailedPayments       int                `json:"failed_payments"`
	CancelledCheckouts   int                `json:"cancelled_checkouts"`
	TotalAmountCollected float64            `json:"total_amount_collected"` // Successful attempts only
	AmountByCurrency     map[string]float64 `json:"amount_by_currency"`     // Successful attempts only
	ErrorBreakdown       map[string]int     `json:"error_breakdown"`        // Failure message counts
	GatewayUsage         map[string]int     `json:"gateway_usage"`
	DateFrom             time.Time          `json:"date_from"`
	DateTo               time.Time          `json:"date_to"`
}

// RetrospectiveReporter generates retrospective reports from log entries.
type RetrospectiveReporter struct{}

// NewRetrospectiveReporter creates a new RetrospectiveReporter.
func NewRetrospectiveReporter() *RetrospectiveReporter {
	return &RetrospectiveReporter{}
}

// GenerateRetrospective analyzes a slice of LogEntry items and produces
// a RetrospectiveReport.
func (rr *RetrospectiveReporter) GenerateRetrospective(logs []LogEntry) *RetrospectiveReport {
	report := &RetrospectiveReport{
		AmountByCurrency: make(map[string]float64),
		ErrorBreakdown:   make(map[string]int),
		GatewayUsage:     make(map[string]int),
	}
	if len(logs) == 0 {
		return report
	}

	report.DateFrom = logs[0].Timestamp
	report.DateTo = logs[0].Timestamp

	for _, entry := range logs {
		report.TotalAttempts++

		if entry.Timestamp.Before(report.DateFrom) {
			report.DateFrom = entry.Timestamp
		}
		if entry.Timestamp.After(report.DateTo) {
			report.DateTo = entry.Timestamp
		}
		if entry.Gateway != "" {
			report.GatewayUsage[entry.Gateway]++
		}

		switch entry.Status {
		case StatusSuccess:
			report.SuccessfulPayments++
			report.TotalAmountCollected += entry.Amount
			report.AmountByCurrency[entry.Currency] += entry.Amount
		case StatusFailed:
			report.FailedPayments++
			if entry.ErrorMessage != "" {
				report.ErrorBreakdown[entry.ErrorMessage]++
			}
		case StatusCancelled:
			report.CancelledCheckouts++
		}
	}
	return report
}

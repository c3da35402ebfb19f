package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRetrospective_Empty(t *testing.T) {
	rr := NewRetrospectiveReporter()
	report := rr.GenerateRetrospective(nil)

	assert.Equal(t, 0, report.TotalAttempts)
	assert.NotNil(t, report.AmountByCurrency)
	assert.NotNil(t, report.ErrorBreakdown)
	assert.NotNil(t, report.GatewayUsage)
}

func TestGenerateRetrospective(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	logs := []LogEntry{
		{Timestamp: base, Status: StatusSuccess, Amount: 500, Currency: "INR", Gateway: "razorpay", OrderNumber: "ORD-1"},
		{Timestamp: base.Add(time.Hour), Status: StatusSuccess, Amount: 250, Currency: "INR", Gateway: "razorpay", OrderNumber: "ORD-2"},
		{Timestamp: base.Add(2 * time.Hour), Status: StatusFailed, Amount: 100, Currency: "INR", Gateway: "razorpay", ErrorMessage: "Signature mismatch"},
		{Timestamp: base.Add(-time.Hour), Status: StatusCancelled, Amount: 75, Currency: "INR", Gateway: "razorpay"},
	}

	report := NewRetrospectiveReporter().GenerateRetrospective(logs)

	assert.Equal(t, 4, report.TotalAttempts)
	assert.Equal(t, 2, report.SuccessfulPayments)
	assert.Equal(t, 1, report.FailedPayments)
	assert.Equal(t, 1, report.CancelledCheckouts)
	assert.Equal(t, 750.0, report.TotalAmountCollected)
	assert.Equal(t, 750.0, report.AmountByCurrency["INR"])
	assert.Equal(t, 1, report.ErrorBreakdown["Signature mismatch"])
	assert.Equal(t, 4, report.GatewayUsage["razorpay"])
	assert.Equal(t, base.Add(-time.Hour), report.DateFrom)
	assert.Equal(t, base.Add(2*time.Hour), report.DateTo)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Append(LogEntry{SessionID: "s1", Status: StatusSuccess})
	r.Append(LogEntry{SessionID: "s2", Status: StatusFailed})

	snap := r.Snapshot()
	assert.Len(t, snap, 2)

	// Snapshot is a copy; mutating it must not leak back.
	snap[0].SessionID = "mutated"
	assert.Equal(t, "s1", r.Snapshot()[0].SessionID)
}

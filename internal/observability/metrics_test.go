package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tutorchat/internal/core"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordRequest("groq", "chat")
	m.RecordRequest("groq", "chat")
	m.RecordFragment("groq")
	m.RecordError("groq", "chat", core.NewTimeoutError("groq", nil))
	m.RecordError("groq", "chat", errors.New("plain failure"))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("groq", "chat")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.fragments.WithLabelValues("groq")); got != 1 {
		t.Errorf("fragments = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("groq", "chat", "timeout_error")); got != 1 {
		t.Errorf("timeout errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("groq", "chat", "internal")); got != 1 {
		t.Errorf("internal errors = %v, want 1", got)
	}
}

// A nil Metrics is the disabled configuration; every method must be a no-op
// rather than a panic.
func TestNilReceiverSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("groq", "chat")
	m.RecordFragment("groq")
	m.RecordError("groq", "chat", errors.New("x"))
}

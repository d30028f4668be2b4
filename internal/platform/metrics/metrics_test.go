package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTrainingAnswer(t *testing.T) {
	before := testutil.ToFloat64(TrainingAnswers.WithLabelValues("spelling", "success"))

	RecordTrainingAnswer("spelling", true)
	RecordTrainingAnswer("spelling", true)
	RecordTrainingAnswer("spelling", false)

	success := testutil.ToFloat64(TrainingAnswers.WithLabelValues("spelling", "success"))
	if success-before != 2 {
		t.Errorf("expected 2 successes recorded, got %v", success-before)
	}
}

func TestRecordEnrichment(t *testing.T) {
	beforeOK := testutil.ToFloat64(Enrichments.WithLabelValues("success"))
	beforeErr := testutil.ToFloat64(Enrichments.WithLabelValues("error"))

	RecordEnrichment(true)
	RecordEnrichment(false)

	if got := testutil.ToFloat64(Enrichments.WithLabelValues("success")) - beforeOK; got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(Enrichments.WithLabelValues("error")) - beforeErr; got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}
}

func TestRecordWordsAdded(t *testing.T) {
	before := testutil.ToFloat64(WordsAdded)

	RecordWordsAdded(3)
	RecordWordsAdded(0)
	RecordWordsAdded(-1)

	if got := testutil.ToFloat64(WordsAdded) - before; got != 3 {
		t.Errorf("expected counter to grow by 3, got %v", got)
	}
}

func TestGauges(t *testing.T) {
	UsersTotal.Set(42)
	if got := testutil.ToFloat64(UsersTotal); got != 42 {
		t.Errorf("expected users gauge 42, got %v", got)
	}

	ActiveSessions.Set(0)
	ActiveSessions.Inc()
	if got := testutil.ToFloat64(ActiveSessions); got != 1 {
		t.Errorf("expected active sessions 1, got %v", got)
	}
	ActiveSessions.Dec()
}

func TestHandlerServesMetrics(t *testing.T) {
	RecordCycleStarted()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "enbot_cycles_started_total") {
		t.Error("expected metrics output to contain enbot_cycles_started_total")
	}
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesCollectors(t *testing.T) {
	Join("creator")
	SignalRelayed("webrtc_offer")
	StaleCommand("update_location")
	SetOccupancy(2, 3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, want := range []string{
		`borrelio_joins_total{role="creator"}`,
		`borrelio_signals_relayed_total{kind="webrtc_offer"}`,
		`borrelio_stale_commands_total{kind="update_location"}`,
		"borrelio_rooms 2",
		"borrelio_participants 3",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

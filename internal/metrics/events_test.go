package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
)

func TestEventMetricsCollector_RecordsAwards(t *testing.T) {
	bus := event.NewMemoryBus()
	NewEventMetricsCollector().Register(bus)

	before := testutil.ToFloat64(AwardsTotal.WithLabelValues(string(domain.SourceTaskCompleted)))
	pointsBefore := testutil.ToFloat64(PointsAwarded)

	evt := event.NewProgressionAwardedEvent(domain.AwardRequest{
		UserID: "u", SourceType: domain.SourceTaskCompleted, SourceID: "t1", Points: 7, XP: 70,
	}, 1, domain.TierBronze)
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Equal(t, before+1, testutil.ToFloat64(AwardsTotal.WithLabelValues(string(domain.SourceTaskCompleted))))
	assert.Equal(t, pointsBefore+7, testutil.ToFloat64(PointsAwarded))
}

func TestEventMetricsCollector_DecodesMapPayloads(t *testing.T) {
	c := NewEventMetricsCollector()
	before := testutil.ToFloat64(BadgesGranted.WithLabelValues("streak_7"))

	// payloads replayed from the dead-letter file arrive as maps
	err := c.HandleEvent(context.Background(), event.Event{
		Type:    event.BadgeGranted,
		Payload: map[string]interface{}{"user_id": "u", "badge_id": 3, "badge_code": "streak_7"},
	})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(BadgesGranted.WithLabelValues("streak_7")))
}

func TestEventMetricsCollector_BadPayloadIsIgnored(t *testing.T) {
	c := NewEventMetricsCollector()
	err := c.HandleEvent(context.Background(), event.Event{Type: event.ChestOpened, Payload: "not a payload"})
	assert.NoError(t, err)
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/users/{userID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/users/{userID}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/abc", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/users/{userID}", "418")))
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/leveling"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// mockAwardService is a hand-written mock of award.Service
type mockAwardService struct {
	mock.Mock
}

func (m *mockAwardService) AwardFromSource(ctx context.Context, req domain.AwardRequest) (*domain.AwardResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AwardResult), args.Error(1)
}

func (m *mockAwardService) AwardInTx(ctx context.Context, tx repository.EngineTx, req domain.AwardRequest) (*domain.AwardResult, error) {
	args := m.Called(ctx, tx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AwardResult), args.Error(1)
}

func (m *mockAwardService) AwardFromWorkSession(ctx context.Context, ws domain.WorkSessionAward) (*domain.AwardResult, error) {
	args := m.Called(ctx, ws)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AwardResult), args.Error(1)
}

func (m *mockAwardService) AwardFromTaskCompletion(ctx context.Context, tc domain.TaskCompletionAward) (*domain.AwardResult, error) {
	args := m.Called(ctx, tc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AwardResult), args.Error(1)
}

func (m *mockAwardService) AdjustManually(ctx context.Context, userID, adjustmentID string, points, xp int64) (*domain.AwardResult, error) {
	args := m.Called(ctx, userID, adjustmentID, points, xp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AwardResult), args.Error(1)
}

func (m *mockAwardService) GetUserProgression(ctx context.Context, userID string) (*domain.UserProgression, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProgression), args.Error(1)
}

func (m *mockAwardService) GetActivityStats(ctx context.Context, userID string) (*domain.ActivityStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActivityStats), args.Error(1)
}

func (m *mockAwardService) PublishAwardEvents(ctx context.Context, req domain.AwardRequest, res *domain.AwardResult) {
	m.Called(ctx, req, res)
}

func (m *mockAwardService) Curve() *leveling.Curve {
	return leveling.DefaultCurve()
}

// mockDBPool mocks database.Pool
type mockDBPool struct {
	mock.Mock
}

func (m *mockDBPool) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockDBPool) Close() {
	m.Called()
}

// route mounts a single handler on a chi router so URL params resolve
func route(method, pattern string, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	return r
}

// do sends a request with an optional JSON body and returns the recorder
func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" field of a DataResponse into out
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) string {
	t.Helper()
	var env struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env.Message
}

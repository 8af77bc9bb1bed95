package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taskboard/internal/model"
	"taskboard/internal/webhook"
)

type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) GetActiveForBoard(ctx context.Context, boardID uuid.UUID) ([]model.Webhook, error) {
	args := m.Called(ctx, boardID)
	return args.Get(0).([]model.Webhook), args.Error(1)
}

func TestTrigger_DeliversToSubscribers(t *testing.T) {
	var received atomic.Int32
	var lastBody atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event webhook.Event
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		lastBody.Store(event)
		received.Add(1)
	}))
	defer server.Close()

	boardID := uuid.New()
	repo := new(MockWebhookRepository)
	repo.On("GetActiveForBoard", mock.Anything, boardID).Return([]model.Webhook{
		{TargetURL: server.URL, EventTypes: []string{"create_task"}},
	}, nil)

	d := webhook.NewDispatcher(repo)
	d.Trigger(boardID, "create_task", map[string]string{"title": "hello"})

	assert.Eventually(t, func() bool {
		return received.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	event := lastBody.Load().(webhook.Event)
	assert.Equal(t, "create_task", event.Event)
	assert.Equal(t, boardID, event.BoardID)
}

func TestTrigger_SkipsUnsubscribed(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
	}))
	defer server.Close()

	boardID := uuid.New()
	repo := new(MockWebhookRepository)
	repo.On("GetActiveForBoard", mock.Anything, boardID).Return([]model.Webhook{
		{TargetURL: server.URL, EventTypes: []string{"delete_task"}},
	}, nil)

	d := webhook.NewDispatcher(repo)
	d.Trigger(boardID, "create_task", nil)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), received.Load())
}

func TestTrigger_FailingTargetDoesNotBlockOthers(t *testing.T) {
	var received atomic.Int32
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
	}))
	defer healthy.Close()

	boardID := uuid.New()
	repo := new(MockWebhookRepository)
	repo.On("GetActiveForBoard", mock.Anything, boardID).Return([]model.Webhook{
		{TargetURL: "http://127.0.0.1:1/unreachable", EventTypes: []string{"create_task"}},
		{TargetURL: healthy.URL, EventTypes: []string{"create_task"}},
	}, nil)

	d := webhook.NewDispatcher(repo)
	d.Trigger(boardID, "create_task", nil)

	assert.Eventually(t, func() bool {
		return received.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTrigger_RepositoryErrorIsSwallowed(t *testing.T) {
	boardID := uuid.New()
	repo := new(MockWebhookRepository)
	repo.On("GetActiveForBoard", mock.Anything, boardID).Return([]model.Webhook(nil), assert.AnError)

	d := webhook.NewDispatcher(repo)

	assert.NotPanics(t, func() {
		d.Trigger(boardID, "create_task", nil)
		time.Sleep(100 * time.Millisecond)
	})
}

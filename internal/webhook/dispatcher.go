package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// One slow subscriber must not hold up the others.
const requestTimeout = 5 * time.Second

// Event is the envelope posted to subscriber URLs.
type Event struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	BoardID   uuid.UUID   `json:"board_id"`
	Data      interface{} `json:"data"`
}

// Dispatcher delivers board events to subscribed webhook URLs.
// Delivery is fire-and-forget: failures are logged and never propagated.
type Dispatcher struct {
	repo   repository.WebhookRepositoryInterface
	client *http.Client
}

func NewDispatcher(repo repository.WebhookRepositoryInterface) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Trigger looks up active webhooks subscribed to eventType on the board and
// posts the event to each of them concurrently. It returns once deliveries
// are launched; the request path that caused the event never waits on them.
func (d *Dispatcher) Trigger(boardID uuid.UUID, eventType string, payload interface{}) {
	go d.deliverAll(boardID, eventType, payload)
}

func (d *Dispatcher) deliverAll(boardID uuid.UUID, eventType string, payload interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	webhooks, err := d.repo.GetActiveForBoard(ctx, boardID)
	if err != nil {
		log.Printf("webhook lookup failed (board %s, event %s): %v", boardID, eventType, err)
		return
	}

	body, err := json.Marshal(Event{
		Event:     eventType,
		Timestamp: time.Now().UTC(),
		BoardID:   boardID,
		Data:      payload,
	})
	if err != nil {
		log.Printf("webhook payload marshal failed (event %s): %v", eventType, err)
		return
	}

	var wg sync.WaitGroup
	for _, hook := range webhooks {
		if !hook.Subscribed(eventType) {
			continue
		}
		wg.Add(1)
		go func(hook model.Webhook) {
			defer wg.Done()
			d.post(hook.TargetURL, body)
		}(hook)
	}
	wg.Wait()
}

func (d *Dispatcher) post(url string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("webhook request build failed (%s): %v", url, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		log.Printf("webhook delivery failed (%s): %v", url, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("webhook delivery rejected (%s): status %d", url, resp.StatusCode)
	}
}

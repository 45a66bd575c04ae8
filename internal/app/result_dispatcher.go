package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"gurukulx/internal/domain"
)

// maxPending bounds the local queue of undelivered results.
const maxPending = 100

// ResultDispatcher posts completed game results to an upstream aggregation
// endpoint. Delivery is best-effort: a failed POST parks the upload on a
// local pending list, drained on the next successful delivery. Local ledger
// state never depends on the outcome.
type ResultDispatcher struct {
	endpoint string
	client   *http.Client

	mu      sync.Mutex
	pending []pendingUpload
}

type pendingUpload struct {
	body []byte
}

func NewResultDispatcher(endpoint string) *ResultDispatcher {
	return &ResultDispatcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Dispatch sends one upload, queuing it locally on failure.
func (d *ResultDispatcher) Dispatch(ctx context.Context, upload domain.ResultUpload) {
	body, err := json.Marshal(upload)
	if err != nil {
		return
	}
	if err := d.post(ctx, body); err != nil {
		log.Printf("result upload failed, queued locally: %v", err)
		d.enqueue(body)
		return
	}
	d.flush(ctx)
}

// Pending reports the size of the local queue.
func (d *ResultDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// flush retries queued uploads in order, stopping at the first failure.
func (d *ResultDispatcher) flush(ctx context.Context) {
	for {
		d.mu.Lock()
		if len(d.pending) == 0 {
			d.mu.Unlock()
			return
		}
		next := d.pending[0]
		d.mu.Unlock()

		if err := d.post(ctx, next.body); err != nil {
			return
		}

		d.mu.Lock()
		if len(d.pending) > 0 {
			d.pending = d.pending[1:]
		}
		d.mu.Unlock()
	}
}

func (d *ResultDispatcher) enqueue(body []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) >= maxPending {
		d.pending = d.pending[1:]
	}
	d.pending = append(d.pending, pendingUpload{body: body})
}

func (d *ResultDispatcher) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("result endpoint returned %s", resp.Status)
	}
	return nil
}

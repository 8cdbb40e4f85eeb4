package lamini

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/zoobzio/capitan"
)

// reservationResponse is the wire shape of a capacity reservation.
type reservationResponse struct {
	CapacityRemaining   int    `json:"capacity_remaining"`
	DynamicMaxBatchSize int    `json:"dynamic_max_batch_size"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
}

// Reservations reserves generation capacity ahead of batch submissions and
// keeps the reservation alive in the background until Close. Losing or
// failing to obtain a reservation is never fatal: submissions simply
// proceed without one.
type Reservations struct {
	client           webClient
	url              string
	clock            clockwork.Clock
	variableCapacity bool

	mu                  sync.Mutex
	current             *reservationResponse
	capacityNeeded      int
	capacityRemaining   int
	dynamicMaxBatchSize int
	modelName           string
	maxTokens           *int
	batchSize           int
	cancelRenewal       context.CancelFunc
}

// NewReservations creates a reservations client. With variableCapacity the
// needed capacity tracks the platform's dynamic batch size times the
// configured worker ceiling instead of the caller's fixed ask.
func NewReservations(cfg ClientConfig, variableCapacity bool) (*Reservations, error) {
	key, err := ResolveAPIKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &Reservations{
		client:           newRestClient(key, cfg.Timeout),
		url:              ResolveAPIURL(cfg.APIURL) + "/v1/reservation",
		clock:            clockwork.NewRealClock(),
		variableCapacity: variableCapacity,
	}, nil
}

// Initialize attempts the first reservation for the given workload and
// starts background renewal on success. A failed attempt leaves the client
// in the "no reservation" state rather than returning an error.
func (r *Reservations) Initialize(ctx context.Context, capacity int, modelName string, batchSize int, maxTokens *int) {
	payload := RequestParameters{
		"capacity":   max(capacity, batchSize),
		"model_name": modelName,
		"max_tokens": maxTokens,
		"batch_size": batchSize,
	}

	var resp reservationResponse
	if err := r.client.post(ctx, r.url, payload, &resp); err != nil {
		capitan.Error(ctx, ReservationLost,
			ModelKey.Field(modelName),
			CapacityKey.Field(capacity),
			ErrorKey.Field(err.Error()),
		)
		r.mu.Lock()
		r.current = nil
		r.capacityRemaining = 0
		r.dynamicMaxBatchSize = 0
		r.capacityNeeded = 0
		r.modelName = modelName
		r.maxTokens = nil
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.current = &resp
	r.capacityNeeded = capacity
	r.modelName = modelName
	r.maxTokens = maxTokens
	r.batchSize = batchSize
	r.capacityRemaining = resp.CapacityRemaining
	r.dynamicMaxBatchSize = min(resp.DynamicMaxBatchSize, resp.CapacityRemaining)
	if r.variableCapacity {
		r.capacityNeeded = r.dynamicMaxBatchSize * MaxWorkers()
	}
	if r.cancelRenewal != nil {
		r.cancelRenewal()
	}
	renewCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancelRenewal = cancel
	endTime := resp.EndTime
	r.mu.Unlock()

	capitan.Info(ctx, ReservationMade,
		ModelKey.Field(modelName),
		CapacityRemainingKey.Field(resp.CapacityRemaining),
		DynamicMaxBatchSizeKey.Field(resp.DynamicMaxBatchSize),
	)

	go r.renew(renewCtx, endTime)
}

// PauseUntilStart waits until the reservation's start time. A missing or
// already started reservation returns immediately.
func (r *Reservations) PauseUntilStart(ctx context.Context) error {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()
	if current == nil {
		return nil
	}

	start, err := parseReservationTime(current.StartTime)
	if err != nil {
		return nil
	}
	wait := start.Sub(r.clock.Now())
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(wait):
		return nil
	}
}

// renew re-reserves capacity when the current reservation ends, looping
// until canceled or a renewal fails.
func (r *Reservations) renew(ctx context.Context, endTime string) {
	for {
		end, err := parseReservationTime(endTime)
		if err != nil {
			return
		}
		if wait := end.Sub(r.clock.Now()); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-r.clock.After(wait):
			}
		}

		r.mu.Lock()
		payload := RequestParameters{
			"capacity":   max(r.capacityNeeded, r.batchSize),
			"model_name": r.modelName,
			"max_tokens": r.maxTokens,
			"batch_size": r.dynamicMaxBatchSize,
		}
		modelName := r.modelName
		r.mu.Unlock()

		var resp reservationResponse
		if err := r.client.post(ctx, r.url, payload, &resp); err != nil {
			capitan.Error(ctx, ReservationLost,
				ModelKey.Field(modelName),
				ErrorKey.Field(err.Error()),
			)
			r.mu.Lock()
			r.current = nil
			r.mu.Unlock()
			return
		}

		r.mu.Lock()
		r.current = &resp
		r.capacityRemaining = resp.CapacityRemaining
		r.dynamicMaxBatchSize = resp.DynamicMaxBatchSize
		if r.variableCapacity {
			r.capacityNeeded = r.dynamicMaxBatchSize * MaxWorkers()
		}
		r.mu.Unlock()

		capitan.Info(ctx, ReservationMade,
			ModelKey.Field(modelName),
			CapacityRemainingKey.Field(resp.CapacityRemaining),
			DynamicMaxBatchSizeKey.Field(resp.DynamicMaxBatchSize),
		)
		endTime = resp.EndTime
	}
}

// UpdateCapacityUse records queries served against the reservation.
func (r *Reservations) UpdateCapacityUse(queries int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return
	}
	r.capacityRemaining -= queries
}

// UpdateCapacityNeeded records queries no longer awaiting capacity.
func (r *Reservations) UpdateCapacityNeeded(queries int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return
	}
	r.capacityNeeded -= queries
}

// CapacityRemaining returns the capacity left on the active reservation.
func (r *Reservations) CapacityRemaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacityRemaining
}

// DynamicMaxBatchSize returns the platform-advised batch size for the
// active reservation, or zero without one.
func (r *Reservations) DynamicMaxBatchSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return 0
	}
	return r.dynamicMaxBatchSize
}

// Close stops background renewal. The reservation itself is left to lapse
// server-side.
func (r *Reservations) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelRenewal != nil {
		r.cancelRenewal()
		r.cancelRenewal = nil
	}
}

// parseReservationTime accepts the platform's timestamp formats: RFC 3339
// with or without fractional seconds, and the naive UTC form.
func parseReservationTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
	}
	var err error
	var t time.Time
	for _, layout := range layouts {
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

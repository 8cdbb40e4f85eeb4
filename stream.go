package lamini

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/zoobzio/capitan"
)

// pollResponse is the wire shape of one streaming poll. The first status
// element signals session completion; the first data element is the
// fragment for this poll.
type pollResponse struct {
	Server string            `json:"server"`
	Status []bool            `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

// StreamResult is one retrieved step of a streaming session.
//
// Stalled reports that this poll swallowed a transient failure and Data is
// the previous fragment repeated, not fresh progress. Without it a consumer
// could not tell a genuinely repeated value from a masked failure.
type StreamResult struct {
	Data    json.RawMessage
	Stalled bool
	Err     error // Fatal session error, delivered in-band on the channel form only
}

// StreamingSession owns one logical streaming request's polling lifecycle.
// It repeatedly issues the same request, annotated with the server affinity
// token once learned, until the server reports completion or the error
// budget is exhausted.
//
// A session is a single state machine regardless of how it is consumed:
// the blocking Iterator and the channel-based Stream are two front-ends
// over the same accumulated state.
type StreamingSession struct {
	client webClient
	url    string
	clock  clockwork.Clock

	mu         sync.Mutex
	request    RequestParameters
	server     string
	done       bool
	current    json.RawMessage
	errorCount int
	maxErrors  int
	interval   time.Duration
}

func newStreamingSession(client webClient, url string, req RequestParameters, interval time.Duration, maxErrors int, clock clockwork.Clock) *StreamingSession {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StreamingSession{
		client:    client,
		url:       url,
		clock:     clock,
		request:   req,
		interval:  interval,
		maxErrors: maxErrors,
	}
}

// Done reports whether the server has signaled completion. Monotonic: once
// true it never reverts.
func (s *StreamingSession) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Server returns the affinity token learned from the first successful poll,
// or "" before one arrives.
func (s *StreamingSession) Server() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

// ErrorCount returns the number of failed polls so far. Never decremented.
func (s *StreamingSession) ErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

// poll performs one polling step: wait the configured interval, issue the
// exchange, fold the response into session state.
//
// Returns io.EOF once the session is done. A transient failure within the
// error budget is swallowed: the previous fragment is returned with Stalled
// set. Past the budget the underlying error propagates unchanged; the
// session stays formally active but the caller is expected to stop
// consuming.
//
// Polls are sequential: a session has one consumer, and no second poll
// starts before the previous one returns. The mutex therefore guards only
// the state reads and the fold, not the wait or the exchange, so Done,
// Server, and ErrorCount stay responsive during a slow poll.
func (s *StreamingSession) poll(ctx context.Context) (StreamResult, error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return StreamResult{}, io.EOF
	}
	if s.server != "" {
		s.request["server"] = s.server
	}
	request := s.request
	s.mu.Unlock()

	if s.interval > 0 {
		select {
		case <-ctx.Done():
			return StreamResult{}, ctx.Err()
		case <-s.clock.After(s.interval):
		}
	} else if err := ctx.Err(); err != nil {
		return StreamResult{}, err
	}

	var resp pollResponse
	err := s.client.post(ctx, s.url, request, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errorCount++
		if s.errorCount > s.maxErrors {
			capitan.Error(ctx, PollFailed,
				URLKey.Field(s.url),
				ErrorCountKey.Field(s.errorCount),
				ErrorKey.Field(err.Error()),
			)
			return StreamResult{}, err
		}
		capitan.Info(ctx, PollStalled,
			URLKey.Field(s.url),
			ErrorCountKey.Field(s.errorCount),
			ErrorKey.Field(err.Error()),
		)
		return StreamResult{Data: s.current, Stalled: true}, nil
	}

	s.server = resp.Server
	if len(resp.Status) > 0 && resp.Status[0] {
		s.done = true
		capitan.Info(ctx, StreamDone,
			URLKey.Field(s.url),
			ServerKey.Field(s.server),
		)
	}
	if len(resp.Data) > 0 {
		s.current = resp.Data[0]
	}
	capitan.Info(ctx, PollCompleted,
		URLKey.Field(s.url),
		ServerKey.Field(s.server),
	)
	return StreamResult{Data: s.current}, nil
}

package lamini

import (
	"context"
	"errors"
	"io"
)

// StreamIterator is the blocking front-end over a StreamingSession: each
// Next call performs exactly one poll and blocks until it returns.
type StreamIterator struct {
	session *StreamingSession
}

// Iterator returns a blocking iterator over the session. Multiple iterators
// share the session's single state machine; creating one never forks the
// accumulated server affinity or error count.
func (s *StreamingSession) Iterator() *StreamIterator {
	return &StreamIterator{session: s}
}

// Next retrieves the next step of the response stream. It returns io.EOF
// once the session has completed; fatal poll failures propagate unchanged.
// Cancellation is observed at the polling wait and during the exchange.
func (it *StreamIterator) Next(ctx context.Context) (StreamResult, error) {
	return it.session.poll(ctx)
}

// Stream is the cooperative front-end over the same session: it drives the
// identical poll loop from a goroutine and delivers each step on the
// returned channel. The channel is closed when the session completes, the
// context is canceled, or a fatal error has been delivered in-band via
// StreamResult.Err.
func (s *StreamingSession) Stream(ctx context.Context) <-chan StreamResult {
	out := make(chan StreamResult)
	go func() {
		defer close(out)
		for {
			result, err := s.poll(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				select {
				case out <- StreamResult{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

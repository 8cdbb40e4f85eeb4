package lamini

import "github.com/zoobzio/capitan"

// Signals for hook events.
const (
	RequestStarted   = capitan.Signal("lamini.request.started")
	RequestCompleted = capitan.Signal("lamini.request.completed")
	RequestFailed    = capitan.Signal("lamini.request.failed")

	CallStarted   = capitan.Signal("lamini.call.started")
	CallCompleted = capitan.Signal("lamini.call.completed")
	CallFailed    = capitan.Signal("lamini.call.failed")

	PollCompleted = capitan.Signal("lamini.stream.poll.completed")
	PollStalled   = capitan.Signal("lamini.stream.poll.stalled")
	PollFailed    = capitan.Signal("lamini.stream.poll.failed")
	StreamDone    = capitan.Signal("lamini.stream.done")

	ReservationMade = capitan.Signal("lamini.reservation.made")
	ReservationLost = capitan.Signal("lamini.reservation.lost")
)

// Keys for hook event fields.
var (
	// Request identification.
	RequestIDKey = capitan.NewStringKey("lamini.request.id")
	ModelKey     = capitan.NewStringKey("lamini.model")
	URLKey       = capitan.NewStringKey("lamini.url")
	ServerKey    = capitan.NewStringKey("lamini.server")

	// Error information.
	ErrorKey      = capitan.NewStringKey("lamini.error")
	ErrorCountKey = capitan.NewIntKey("lamini.error.count")

	// HTTP metadata.
	HTTPStatusCodeKey = capitan.NewIntKey("lamini.http.status.code")
	DurationMsKey     = capitan.NewIntKey("lamini.duration.ms")

	// Pipeline metrics.
	BatchSizeKey   = capitan.NewIntKey("lamini.batch.size")
	PromptCountKey = capitan.NewIntKey("lamini.prompt.count")

	// Reservation metrics.
	CapacityKey            = capitan.NewIntKey("lamini.reservation.capacity")
	CapacityRemainingKey   = capitan.NewIntKey("lamini.reservation.capacity.remaining")
	DynamicMaxBatchSizeKey = capitan.NewIntKey("lamini.reservation.dynamic.max.batch.size")
)

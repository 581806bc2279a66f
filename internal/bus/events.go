package bus

import (
	"launch-radar/internal/domain"
)

// EventType identifies the kind of a bus event.
type EventType string

const (
	EventSignalClassified EventType = "signal:classified"
	EventSignalFiltered   EventType = "signal:filtered"
	EventCandidateQueued  EventType = "candidate:queued"
	EventLaunchDetected   EventType = "launch:detected"
	EventTokenCreated     EventType = "token:created"
	EventTokenFailed      EventType = "token:failed"
	EventSystemError      EventType = "system:error"
	EventAlert            EventType = "alert"
)

// Payload is implemented by every event payload so each handler receives a
// statically known shape for its event type.
type Payload interface {
	EventType() EventType
}

// SignalClassified is emitted for every signal that survives filtering.
type SignalClassified struct {
	Signal *domain.ClassifiedSignal
}

func (SignalClassified) EventType() EventType { return EventSignalClassified }

// SignalFiltered is emitted when a classified signal is dropped before
// reaching the candidate cache or policy gate.
type SignalFiltered struct {
	Signal *domain.ClassifiedSignal
	Reason string // "low_confidence" or "high_risk"
}

func (SignalFiltered) EventType() EventType { return EventSignalFiltered }

// CandidateQueued is emitted when a candidate passes the policy gate and
// is handed to the launch trigger.
type CandidateQueued struct {
	Candidate *domain.LaunchCandidate
}

func (CandidateQueued) EventType() EventType { return EventCandidateQueued }

// LaunchDetected is emitted when the classifier sees a launch alert.
type LaunchDetected struct {
	Signal *domain.ClassifiedSignal
}

func (LaunchDetected) EventType() EventType { return EventLaunchDetected }

// TokenCreated is emitted after the external executor confirms a launch.
type TokenCreated struct {
	Key       string
	Ticker    string
	Name      string
	Mint      string
	Signature string
}

func (TokenCreated) EventType() EventType { return EventTokenCreated }

// TokenFailed is emitted when the external executor rejects a launch. The
// dedup guard key has already been released when this fires.
type TokenFailed struct {
	Key    string
	Ticker string
	Err    string
}

func (TokenFailed) EventType() EventType { return EventTokenFailed }

// SystemError reports a non-fatal internal failure for alerting.
type SystemError struct {
	Component string
	Err       string
}

func (SystemError) EventType() EventType { return EventSystemError }

// AlertRaised carries an explicit notification toward the dispatcher.
type AlertRaised struct {
	Alert *domain.Alert
}

func (AlertRaised) EventType() EventType { return EventAlert }

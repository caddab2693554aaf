// Package audit records every change vyconsole submits to a router as a
// JSON-lines history file.
package audit

import (
	"strconv"
	"time"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

// EventType categorizes audit events
type EventType string

const (
	EventTypeApply   EventType = "apply"
	EventTypeDelete  EventType = "delete"
	EventTypeReorder EventType = "reorder"
	EventTypeRevert  EventType = "revert"
)

// Event is one submitted change
type Event struct {
	ID         string                `json:"id"`
	Timestamp  time.Time             `json:"timestamp"`
	Profile    string                `json:"profile,omitempty"`
	Target     string                `json:"target"`
	Category   string                `json:"category"`
	Key        string                `json:"key"`
	Type       EventType             `json:"type"`
	Mode       string                `json:"mode,omitempty"`
	Operations []opbuilder.Operation `json:"operations,omitempty"`
	Moves      int                   `json:"moves,omitempty"`
	Success    bool                  `json:"success"`
	Error      string                `json:"error,omitempty"`
	Duration   time.Duration         `json:"duration"`
}

// Filter defines criteria for querying audit events
type Filter struct {
	Profile     string
	Category    string
	Type        EventType
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(target, category, key string, typ EventType) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Target:    target,
		Category:  category,
		Key:       key,
		Type:      typ,
	}
}

// WithProfile sets the profile name
func (e *Event) WithProfile(profile string) *Event {
	e.Profile = profile
	return e
}

// WithMode records create or edit
func (e *Event) WithMode(mode string) *Event {
	e.Mode = mode
	return e
}

// WithOperations sets the submitted operations
func (e *Event) WithOperations(ops []opbuilder.Operation) *Event {
	e.Operations = ops
	return e
}

// WithMoves records how many rules a reorder renumbered
func (e *Event) WithMoves(n int) *Event {
	e.Moves = n
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithResult marks the event from err: success when nil
func (e *Event) WithResult(err error) *Event {
	if err != nil {
		return e.WithError(err)
	}
	return e.WithSuccess()
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

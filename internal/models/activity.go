package models

import (
	"sort"
	"strings"
	"time"
)

// ActivityEvent is one observed action of a contributor
type ActivityEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	ActivityType    string    `json:"activity_type"`
	RepositoryID    string    `json:"repository_id"`
	RepositoryOwner string    `json:"repository_owner"`
}

// NewActivityEvent creates an activity event, deriving the owner from an
// "owner/name" repository name
func NewActivityEvent(ts time.Time, activityType, repositoryID, repositoryName string) ActivityEvent {
	owner := repositoryName
	if i := strings.Index(repositoryName, "/"); i >= 0 {
		owner = repositoryName[:i]
	}
	return ActivityEvent{
		Timestamp:       ts.UTC(),
		ActivityType:    activityType,
		RepositoryID:    repositoryID,
		RepositoryOwner: owner,
	}
}

// ActivitySequence is the time-ordered activity history of a single contributor.
// It only grows: Append never drops previously seen events.
type ActivitySequence struct {
	login  string
	events []ActivityEvent
}

// NewActivitySequence creates an empty sequence for login
func NewActivitySequence(login string) *ActivitySequence {
	return &ActivitySequence{login: login}
}

// Login returns the contributor the sequence belongs to
func (s *ActivitySequence) Login() string {
	return s.login
}

// Append merges events into the sequence and restores timestamp order.
// Ties keep their fetch order.
func (s *ActivitySequence) Append(events ...ActivityEvent) {
	if len(events) == 0 {
		return
	}
	s.events = append(s.events, events...)
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Timestamp.Before(s.events[j].Timestamp)
	})
}

// Len returns the number of events in the sequence
func (s *ActivitySequence) Len() int {
	return len(s.events)
}

// Events returns a copy of the ordered events
func (s *ActivitySequence) Events() []ActivityEvent {
	out := make([]ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

package models

import "time"

// RawEvent is a public GitHub event reduced to the fields the classifier needs
type RawEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Action        string    `json:"action,omitempty"`
	RefType       string    `json:"ref_type,omitempty"`
	Merged        bool      `json:"merged,omitempty"`
	OnPullRequest bool      `json:"on_pull_request,omitempty"`
	ActorLogin    string    `json:"actor_login"`
	RepoID        int64     `json:"repo_id"`
	RepoName      string    `json:"repo_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// EventBatch is one page of events returned by an event source
type EventBatch struct {
	Events     []RawEvent
	NextCursor int
	Exhausted  bool
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// MeetingStatus is the single persisted status vocabulary for meetings.
//
// Two vocabularies reach the API: pending/accepted/rejected from the request
// flow and scheduled/in-progress/completed/cancelled from the support flow.
// ParseMeetingStatus folds both into these canonical values.
type MeetingStatus string

const (
	MeetingPending    MeetingStatus = "pending"
	MeetingAccepted   MeetingStatus = "accepted"
	MeetingRejected   MeetingStatus = "rejected"
	MeetingInProgress MeetingStatus = "in-progress"
	MeetingCompleted  MeetingStatus = "completed"
	MeetingCancelled  MeetingStatus = "cancelled"
)

// statusAliases maps every accepted wire value to its canonical status.
var statusAliases = map[string]MeetingStatus{
	"pending":     MeetingPending,
	"accepted":    MeetingAccepted,
	"accept":      MeetingAccepted,
	"scheduled":   MeetingAccepted,
	"rejected":    MeetingRejected,
	"reject":      MeetingRejected,
	"in-progress": MeetingInProgress,
	"completed":   MeetingCompleted,
	"cancelled":   MeetingCancelled,
}

// ParseMeetingStatus maps a wire value from either vocabulary to the canonical status.
func ParseMeetingStatus(s string) (MeetingStatus, error) {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", fmt.Errorf("invalid status value %q", s)
}

// transitions lists the allowed next states. Terminal states have no entry.
var transitions = map[MeetingStatus][]MeetingStatus{
	MeetingPending:    {MeetingAccepted, MeetingRejected, MeetingCancelled},
	MeetingAccepted:   {MeetingInProgress, MeetingCompleted, MeetingCancelled},
	MeetingInProgress: {MeetingCompleted, MeetingCancelled},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to MeetingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s MeetingStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Blocking reports whether a meeting in this status occupies the creator's
// time for overlap purposes.
func (s MeetingStatus) Blocking() bool {
	return s != MeetingRejected && s != MeetingCancelled
}

// Active reports whether the meeting is confirmed and not yet over.
func (s MeetingStatus) Active() bool {
	return s == MeetingAccepted || s == MeetingInProgress
}

// MeetingKind records which booking flow created the meeting.
type MeetingKind string

const (
	// KindSupport meetings are matched instantly, get a link up front and reserve the creator.
	KindSupport MeetingKind = "support"
	// KindRequest meetings wait for the creator to accept or reject.
	KindRequest MeetingKind = "request"
)

// Meeting is a support session between a user and a creator.
type Meeting struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	CreatorID   string        `json:"creatorId"`
	Emotion     Emotion       `json:"emotion"`
	ScheduledAt time.Time     `json:"scheduledTime"`
	Status      MeetingStatus `json:"status"`
	MeetLink    string        `json:"meetLink,omitempty"`
	Kind        MeetingKind   `json:"kind"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// MeetingView is a meeting as seen from one side, with the other side populated.
type MeetingView struct {
	Meeting
	User    *Contact `json:"user,omitempty"`
	Creator *Contact `json:"creator,omitempty"`
}

package domain

import (
	"fmt"
	"time"
)

// ConceptFeedback is a participant's reaction to one concept within one
// session. A rating of 0 means "not rated". Each save fully replaces the
// prior entry for that concept.
type ConceptFeedback struct {
	Rating        int    `json:"rating"`
	Notes         string `json:"notes"`
	Modifications string `json:"modifications"`
	Timestamp     string `json:"timestamp"`
}

// Idea is a free-form note captured during a session. Ideas are append-only:
// the persisted model has no update or delete operation for them.
type Idea struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	RelatedConceptID string `json:"relatedConceptId,omitempty"`
	Timestamp        string `json:"timestamp"`
}

// Session is one participant's full interview record. A present EndTime
// means the session is completed. ConceptFeedback keys are concept ids;
// dangling references to concepts no longer in the catalog are tolerated
// and filtered out at read time.
type Session struct {
	ID                   string                     `json:"id"`
	ParticipantID        string                     `json:"participantId"`
	ParticipantName      string                     `json:"participantName,omitempty"`
	ParticipantRole      string                     `json:"participantRole"`
	OrganizationType     string                     `json:"organizationType"`
	ReferralSource       string                     `json:"referralSource,omitempty"`
	ConsentGiven         bool                       `json:"consentGiven"`
	StartTime            string                     `json:"startTime"`
	EndTime              string                     `json:"endTime,omitempty"`
	HasInvestedInClimate *bool                      `json:"hasInvestedInClimate,omitempty"`
	SelectedTopics       []string                   `json:"selectedTopics"`
	CustomTopics         []string                   `json:"customTopics"`
	SelectedBarriers     []string                   `json:"selectedBarriers,omitempty"`
	CustomBarriers       []string                   `json:"customBarriers,omitempty"`
	ConceptFeedback      map[string]ConceptFeedback `json:"conceptFeedback"`
	NewIdeas             []Idea                     `json:"newIdeas"`
	Notes                string                     `json:"notes"`
}

// Completed reports whether the session has been ended.
func (s *Session) Completed() bool {
	return s.EndTime != ""
}

// Clone returns a deep copy so callers can hand out session values without
// sharing the feedback map or idea list. Nil and empty collections stay
// distinct; the serialized forms differ and sync comparisons rely on them.
func (s *Session) Clone() *Session {
	out := *s
	if s.HasInvestedInClimate != nil {
		v := *s.HasInvestedInClimate
		out.HasInvestedInClimate = &v
	}
	out.SelectedTopics = cloneStrings(s.SelectedTopics)
	out.CustomTopics = cloneStrings(s.CustomTopics)
	out.SelectedBarriers = cloneStrings(s.SelectedBarriers)
	out.CustomBarriers = cloneStrings(s.CustomBarriers)
	if s.ConceptFeedback != nil {
		out.ConceptFeedback = make(map[string]ConceptFeedback, len(s.ConceptFeedback))
		for id, fb := range s.ConceptFeedback {
			out.ConceptFeedback[id] = fb
		}
	}
	if s.NewIdeas != nil {
		out.NewIdeas = make([]Idea, len(s.NewIdeas))
		copy(out.NewIdeas, s.NewIdeas)
	}
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// NewSessionID generates a time-derived session identifier, unique per
// creation instant.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("session-%d", now.UnixMilli())
}

// NewIdeaID generates a time-derived idea identifier.
func NewIdeaID(now time.Time) string {
	return fmt.Sprintf("idea-%d", now.UnixMilli())
}

// Timestamp formats a time the way the session wire format expects.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

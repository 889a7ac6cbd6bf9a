package interview

import (
	"encoding/json"
	"fmt"

	"ciit-backend/internal/domain"
)

// ReviewedConcept joins one feedback entry to its catalog record.
type ReviewedConcept struct {
	Concept  domain.Concept         `json:"concept"`
	Feedback domain.ConceptFeedback `json:"feedback"`
}

// Summary is the read-side projection of a session used for display and
// export. ConceptsReviewed counts every feedback entry, including ones
// whose concept id no longer exists in the catalog; ReviewedConcepts holds
// only the entries that matched.
type Summary struct {
	SessionID        string            `json:"sessionId"`
	Completed        bool              `json:"completed"`
	ConceptsReviewed int               `json:"conceptsReviewed"`
	TopicsSelected   int               `json:"topicsSelected"`
	BarriersSelected int               `json:"barriersSelected"`
	IdeasCaptured    int               `json:"ideasCaptured"`
	ReviewedConcepts []ReviewedConcept `json:"reviewedConcepts"`
}

// Summarize derives summary statistics from a session against the current
// catalog. It is a pure projection: feedback referencing concepts missing
// from the catalog is silently dropped from ReviewedConcepts, never an
// error. Reviewed concepts keep catalog order for stable output.
func Summarize(session *domain.Session, concepts []domain.Concept) Summary {
	reviewed := make([]ReviewedConcept, 0, len(session.ConceptFeedback))
	for _, concept := range concepts {
		if feedback, ok := session.ConceptFeedback[concept.ID]; ok {
			reviewed = append(reviewed, ReviewedConcept{Concept: concept, Feedback: feedback})
		}
	}

	return Summary{
		SessionID:        session.ID,
		Completed:        session.Completed(),
		ConceptsReviewed: len(session.ConceptFeedback),
		TopicsSelected:   len(session.SelectedTopics) + len(session.CustomTopics),
		BarriersSelected: len(session.SelectedBarriers) + len(session.CustomBarriers),
		IdeasCaptured:    len(session.NewIdeas),
		ReviewedConcepts: reviewed,
	}
}

// Export serializes the full session for download. A pure format
// transform, not a store operation.
func Export(session *domain.Session) (filename string, data []byte, err error) {
	data, err = json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize session '%s': %w", session.ID, err)
	}
	return fmt.Sprintf("session-%s.json", session.ID), data, nil
}

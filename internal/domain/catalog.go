// Package domain defines the core data model for the climate investment
// interview tool: the read-mostly catalog (topics, barriers, concepts) and
// per-participant interview sessions.
package domain

import (
	"regexp"
	"strings"
)

// Topic is a thematic grouping participants select during an interview.
// Topics are edited only through the catalog files, never by clients.
type Topic struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Color       string `json:"color" yaml:"color"`
}

// Barrier is an investment obstacle shown to participants who have not yet
// invested. Same lifecycle as Topic.
type Barrier struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	Description      string `json:"description" yaml:"description"`
	ShortDescription string `json:"shortDescription" yaml:"shortDescription"`
	Color            string `json:"color" yaml:"color"`
}

// ConceptDetail is one titled section of a concept's long-form description.
type ConceptDetail struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// BarrierSolution explains how a concept addresses a specific barrier.
type BarrierSolution struct {
	BarrierID   string `json:"barrierId" yaml:"barrierId"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

// Concept is one investment idea in the catalog, backed by a single YAML
// file. Topics may contain duplicates; nothing deduplicates the list.
type Concept struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Tagline          string            `json:"tagline" yaml:"tagline"`
	Category         string            `json:"category" yaml:"category"`
	Layer            string            `json:"layer" yaml:"layer"`
	Image            string            `json:"image" yaml:"image"`
	Topics           []string          `json:"topics" yaml:"topics"`
	Details          []ConceptDetail   `json:"details" yaml:"details"`
	BarrierSolutions []BarrierSolution `json:"barrierSolutions,omitempty" yaml:"barrierSolutions,omitempty"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a concept identifier from its display name: lowercase,
// non-alphanumeric runs collapsed to hyphens, leading/trailing hyphens
// trimmed.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

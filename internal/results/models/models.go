// Package models defines the data model for the result resolution domain:
// queries, records, source descriptors and per-source statistics.
package models

import (
	"strings"
	"time"
)

// SourceKind categorizes a configured source.
type SourceKind string

const (
	// KindPrimaryStore: the authoritative result database.
	KindPrimaryStore SourceKind = "primary-store"
	// KindFallbackStore: additional internal stores consulted after the primary.
	KindFallbackStore SourceKind = "fallback-store"
	// KindWebAPI: the external last-resort web lookup. Always sorts last.
	KindWebAPI SourceKind = "web-api"
)

// IsValid checks if the source kind is one of the supported enum values.
func (k SourceKind) IsValid() bool {
	switch k {
	case KindPrimaryStore, KindFallbackStore, KindWebAPI:
		return true
	}
	return false
}

// WebFallbackSourceID tags records produced by the external web lookup,
// regardless of which concrete web API answered.
const WebFallbackSourceID = "web-fallback"

// Capabilities advertises optional abilities of a source.
type Capabilities struct {
	SupportsCGPA bool `json:"supports_cgpa"`
}

// SourceDescriptor is the static configuration metadata of one source.
// Credentials are never part of the descriptor; those stay inside the
// adapter's opaque settings.
type SourceDescriptor struct {
	ID           string       `json:"id"`
	Kind         SourceKind   `json:"kind"`
	Priority     int          `json:"priority"`
	Capabilities Capabilities `json:"capabilities"`
}

// RollQuery identifies a student result lookup. ExamYear zero and ExamType
// empty mean "unspecified".
type RollQuery struct {
	RollNumber string `json:"roll_number"`
	ExamYear   int    `json:"exam_year,omitempty"`
	ExamType   string `json:"exam_type,omitempty"`
}

// Normalize returns a copy with the roll number trimmed and stripped of
// non-digit characters. The result may be empty if the input carried no
// digits at all; callers must treat that as an invalid query.
func (q RollQuery) Normalize() RollQuery {
	var b strings.Builder
	for _, r := range strings.TrimSpace(q.RollNumber) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	q.RollNumber = b.String()
	q.ExamType = strings.TrimSpace(q.ExamType)
	return q
}

// Institute describes the institution a result belongs to.
type Institute struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	District string `json:"district"`
}

// SemesterResult is one semester's published outcome.
type SemesterResult struct {
	Semester    string    `json:"semester"`
	GPA         string    `json:"gpa"`
	RefSubjects []string  `json:"ref_subjects,omitempty"`
	Passed      bool      `json:"passed"`
	PublishedAt time.Time `json:"published_at"`
}

// ResultRecord is a resolved academic result. SourceID always identifies the
// adapter that produced it ("primary", "secondary", ..., or "web-fallback").
// CGPA is nil unless the source embeds it natively or enrichment found one.
type ResultRecord struct {
	RollNumber string           `json:"roll_number"`
	Name       string           `json:"name"`
	ExamYear   int              `json:"exam_year"`
	ExamType   string           `json:"exam_type"`
	Institute  Institute        `json:"institute"`
	Semesters  []SemesterResult `json:"semesters,omitempty"`
	CGPA       *float64         `json:"cgpa,omitempty"`
	SourceID   string           `json:"source_id"`
}

// SourceStat holds per-source counters since process start. Mutated only by
// the stats aggregator; reset only on restart.
type SourceStat struct {
	SourceID      string `json:"source_id"`
	QueriesTotal  uint64 `json:"queries_total"`
	HitsTotal     uint64 `json:"hits_total"`
	ErrorsTotal   uint64 `json:"errors_total"`
	LastLatencyMs int64  `json:"last_latency_ms"`
}

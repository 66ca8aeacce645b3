package handler

import (
	"resultgate/internal/results/models"
)

// SearchRequest is the body of POST /api/search-result.
type SearchRequest struct {
	RollNo   string `json:"roll_no"`
	ExamYear int    `json:"exam_year,omitempty"`
	ExamType string `json:"exam_type,omitempty"`
}

// ToQuery converts the transport request into a domain query.
func (r SearchRequest) ToQuery() models.RollQuery {
	return models.RollQuery{
		RollNumber: r.RollNo,
		ExamYear:   r.ExamYear,
		ExamType:   r.ExamType,
	}
}

// SearchResponse is returned for a successful resolution.
type SearchResponse struct {
	Success bool                 `json:"success"`
	Result  *models.ResultRecord `json:"result"`
}

// NotFoundResponse is returned when every source missed. It names the
// sources that were consulted so clients can see the search was exhaustive.
type NotFoundResponse struct {
	Success         bool     `json:"success"`
	Error           string   `json:"error"`
	RollNo          string   `json:"roll_no"`
	SourcesSearched []string `json:"sources_searched"`
}

// SourceListResponse backs the projects and web-apis listing endpoints.
type SourceListResponse struct {
	Sources []models.SourceDescriptor `json:"sources"`
}

// SourceStatus is the connectivity test result for one source.
type SourceStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// StatsResponse backs the statistics endpoint.
type StatsResponse struct {
	Sources []models.SourceStat `json:"sources"`
}

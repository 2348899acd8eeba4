package models

import "time"

type Pipeline struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stage is a column of a pipeline. OrderIndex only drives display order and
// is not unique.
type Stage struct {
	ID         string    `json:"id"`
	PipelineID string    `json:"pipeline_id"`
	Name       string    `json:"name"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type PipelinePatch struct {
	Name *string `json:"name"`
}

type StageRequest struct {
	Name       *string `json:"name"`
	OrderIndex *int    `json:"order_index"`
}

package models

import (
	"strconv"
	"time"
)

type DealStatus string

const (
	DealOpen DealStatus = "open"
	DealWon  DealStatus = "won"
	DealLost DealStatus = "lost"
)

func (s DealStatus) Valid() bool {
	switch s {
	case DealOpen, DealWon, DealLost:
		return true
	}
	return false
}

// Closed reports whether the status is a terminal outcome.
func (s DealStatus) Closed() bool { return s == DealWon || s == DealLost }

type Deal struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	ValueAmount       float64    `json:"value_amount"`
	ValueCurrency     string     `json:"value_currency"`
	Status            DealStatus `json:"status"`
	StageID           string     `json:"stage_id"`
	OwnerID           string     `json:"owner_id"`
	OrganizationID    *string    `json:"organization_id"`
	ContactID         *string    `json:"contact_id"`
	ExpectedCloseDate *string    `json:"expected_close_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Version           int64      `json:"version"`
}

// ETag is the entity tag clients send back in If-Match.
func (d *Deal) ETag() string { return `"` + strconv.FormatInt(d.Version, 10) + `"` }

type CreateDealRequest struct {
	Title             string     `json:"title"`
	ValueAmount       *float64   `json:"value_amount"`
	ValueCurrency     string     `json:"value_currency"`
	Status            DealStatus `json:"status"`
	StageID           string     `json:"stage_id"`
	OwnerID           string     `json:"owner_id"`
	OrganizationID    *string    `json:"organization_id"`
	ContactID         *string    `json:"contact_id"`
	ExpectedCloseDate *string    `json:"expected_close_date"`
}

// DealPatch holds the mutable deal fields; nil means "keep the stored value".
type DealPatch struct {
	Title             *string     `json:"title"`
	ValueAmount       *float64    `json:"value_amount"`
	ValueCurrency     *string     `json:"value_currency"`
	Status            *DealStatus `json:"status"`
	StageID           *string     `json:"stage_id"`
	OwnerID           *string     `json:"owner_id"`
	OrganizationID    *string     `json:"organization_id"`
	ContactID         *string     `json:"contact_id"`
	ExpectedCloseDate *string     `json:"expected_close_date"`
	// Version is the caller's expected version, an alternative to If-Match.
	Version *int64 `json:"version"`
}

type MoveDealRequest struct {
	StageID string `json:"stage_id"`
	Version *int64 `json:"version"`
}

type BulkDealRequest struct {
	IDs      []string         `json:"ids"`
	Status   *DealStatus      `json:"status"`
	StageID  *string          `json:"stage_id"`
	Versions map[string]int64 `json:"versions"`
}

type BulkDealResult struct {
	Updated   int64 `json:"updated"`
	Submitted int   `json:"submitted"`
}

type DealFilter struct {
	StageID string
	OwnerID string
	Status  string
	Query   string
	Limit   int
	Offset  int
}

package models

import "time"

// Activity is a call, meeting or task, optionally attached to a deal.
type Activity struct {
	ID          string     `json:"id"`
	DealID      *string    `json:"deal_id"`
	OwnerID     string     `json:"owner_id"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	DueDate     *string    `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ActivityPatch struct {
	DealID      *string    `json:"deal_id"`
	OwnerID     *string    `json:"owner_id"`
	Type        *string    `json:"type"`
	Subject     *string    `json:"subject"`
	DueDate     *string    `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ActivityFilter struct {
	DealID  string
	OwnerID string
}

type Note struct {
	ID        string    `json:"id"`
	DealID    *string   `json:"deal_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NotePatch struct {
	Content *string `json:"content"`
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dealdesk/internal/models"
)

type WebhookRepository interface {
	Create(ctx context.Context, w *models.Webhook) error
	GetByID(ctx context.Context, id string) (*models.Webhook, error)
	List(ctx context.Context) ([]models.Webhook, error)
	Update(ctx context.Context, w *models.Webhook) error
	Delete(ctx context.Context, id string) error
}

type webhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

const webhookColumns = `id, url, events, secret, active, created_at, updated_at`

// events are kept as a JSON array in a text column.
func encodeEvents(events []string) (string, error) {
	if events == nil {
		events = []string{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("encode webhook events: %w", err)
	}
	return string(b), nil
}

func scanWebhook(row rowScanner) (*models.Webhook, error) {
	w := &models.Webhook{}
	var events string
	if err := row.Scan(&w.ID, &w.URL, &events, &w.Secret, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(events), &w.Events); err != nil {
		return nil, fmt.Errorf("decode webhook events: %w", err)
	}
	return w, nil
}

func (r *webhookRepository) Create(ctx context.Context, w *models.Webhook) error {
	events, err := encodeEvents(w.Events)
	if err != nil {
		return err
	}
	query := `INSERT INTO webhooks (` + webhookColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, w.ID, w.URL, events, w.Secret, w.Active, w.CreatedAt, w.UpdatedAt); err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}
	return nil
}

func (r *webhookRepository) GetByID(ctx context.Context, id string) (*models.Webhook, error) {
	w, err := scanWebhook(r.db.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get webhook %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get webhook %s: %w", id, err)
	}
	return w, nil
}

func (r *webhookRepository) List(ctx context.Context) ([]models.Webhook, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	hooks := []models.Webhook{}
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		hooks = append(hooks, *w)
	}
	return hooks, rows.Err()
}

func (r *webhookRepository) Update(ctx context.Context, w *models.Webhook) error {
	events, err := encodeEvents(w.Events)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE webhooks SET url = $1, events = $2, secret = $3, active = $4, updated_at = $5 WHERE id = $6`,
		w.URL, events, w.Secret, w.Active, w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("update webhook: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update webhook %s: %w", w.ID, models.ErrNotFound)
	}
	return nil
}

func (r *webhookRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

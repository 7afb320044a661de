package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/apothio/storefront-reco/internal/domain"
)

// InteractionRepo is the only write path into user_interactions. Rows are
// append-only; there is no update or delete here by design.
type InteractionRepo struct {
	db *sql.DB
}

func NewInteractionRepo(db *sql.DB) *InteractionRepo { return &InteractionRepo{db: db} }

// Insert appends one event, assigning id and created_at server-side.
func (r *InteractionRepo) Insert(ctx context.Context, i *domain.Interaction) error {
	if err := i.Validate(); err != nil {
		return err
	}
	i.ID = uuid.NewString()
	i.CreatedAt = time.Now().UTC()
	if i.Tags == nil {
		i.Tags = []string{}
	}

	_, err := r.db.ExecContext(ctx, insertInteractionSQL,
		i.ID, i.UserID, string(i.EventType), i.ItemID, string(i.ItemType),
		pq.Array(i.Tags), i.CreatedAt,
	)
	return err
}

func (r *InteractionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, listByUserSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Interaction
	for rows.Next() {
		var (
			i         domain.Interaction
			eventType string
			itemType  string
			tags      pq.StringArray
		)
		if err := rows.Scan(&i.ID, &i.UserID, &eventType, &i.ItemID, &itemType, &tags, &i.CreatedAt); err != nil {
			return nil, err
		}
		i.EventType = domain.EventType(eventType)
		i.ItemType = domain.ItemType(itemType)
		i.Tags = []string(tags)
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *InteractionRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listUserIDsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

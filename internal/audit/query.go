package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Entry struct {
	ID        int64     `json:"id"`
	DraftID   string    `json:"draftId"`
	Action    Action    `json:"action"`
	Actor     string    `json:"actor"`
	Metadata  any       `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListByDraft returns a draft's audit trail, oldest first. Rows are only visible
// to the sponsor that owns the draft.
func ListByDraft(ctx context.Context, db *pgxpool.Pool, sponsor, draftID string) ([]Entry, error) {
	const q = `
SELECT a.id, a.draft_id::text, a.action, a.actor, COALESCE(a.metadata, '{}'::jsonb), a.created_at
FROM audit_logs a
JOIN deal_drafts d ON d.id = a.draft_id
WHERE a.draft_id = $1 AND d.sponsor = $2
ORDER BY a.created_at ASC, a.id ASC
`
	rows, err := db.Query(ctx, q, draftID, sponsor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.DraftID, &action, &e.Actor, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type Action string

const (
	ActionDraftSaved Action = "DEAL_DRAFT_SAVED"
)

// Insert appends an audit row inside the caller's transaction.
func Insert(ctx context.Context, tx pgx.Tx, sponsor string, draftID *string, action Action, actor string, metadata any) error {
	var s *string
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (sponsor, draft_id, action, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := tx.Exec(ctx, q, sponsor, draftID, string(action), actor, s)
	return err
}

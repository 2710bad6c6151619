package deal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aelin/internal/audit"
	"aelin/internal/chains"
	"aelin/pkg/db"
)

// Record is a saved draft. Only drafts that passed validation are stored.
type Record struct {
	ID        string    `json:"id"`
	Sponsor   string    `json:"sponsor"`
	ChainID   chains.ID `json:"chainId"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Draft     Draft     `json:"draft"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists drafts scoped by sponsor wallet.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	ListBySponsor(ctx context.Context, sponsor string) ([]Record, error)
	GetByID(ctx context.Context, sponsor, id string) (*Record, error)
	History(ctx context.Context, sponsor, id string) ([]audit.Entry, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts the draft and its audit row in one transaction, filling in
// ID and timestamps on rec.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	raw, err := json.Marshal(rec.Draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO deal_drafts (id, sponsor, chain_id, name, symbol, draft)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
RETURNING created_at, updated_at
`
		if err := tx.QueryRow(ctx, q, rec.ID, rec.Sponsor, int64(rec.ChainID), rec.Name, rec.Symbol, string(raw)).Scan(
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert draft: %w", err)
		}

		id := rec.ID
		return audit.Insert(ctx, tx, rec.Sponsor, &id, audit.ActionDraftSaved, rec.Sponsor, map[string]any{
			"chainId": rec.ChainID,
			"name":    rec.Name,
			"symbol":  rec.Symbol,
		})
	})
}

func (r *Repository) ListBySponsor(ctx context.Context, sponsor string) ([]Record, error) {
	const q = `
SELECT id::text, sponsor, chain_id, name, symbol, draft, created_at, updated_at
FROM deal_drafts
WHERE sponsor = $1
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, sponsor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, sponsor, id string) (*Record, error) {
	const q = `
SELECT id::text, sponsor, chain_id, name, symbol, draft, created_at, updated_at
FROM deal_drafts
WHERE id = $1 AND sponsor = $2
`
	rec, err := scanRecord(r.db.QueryRow(ctx, q, id, sponsor))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return rec, nil
}

// History returns the audit trail of one of the sponsor's drafts. Every saved
// draft has at least one entry, so an empty trail means the draft is not visible.
func (r *Repository) History(ctx context.Context, sponsor, id string) ([]audit.Entry, error) {
	entries, err := audit.ListByDraft(ctx, r.db, sponsor, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, db.ErrNotFound
	}
	return entries, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var chainID int64
	var raw []byte
	if err := row.Scan(&rec.ID, &rec.Sponsor, &chainID, &rec.Name, &rec.Symbol, &raw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.ChainID = chains.ID(chainID)
	if err := json.Unmarshal(raw, &rec.Draft); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", rec.ID, err)
	}
	return &rec, nil
}

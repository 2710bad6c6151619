package nftmetadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aelin/internal/chains"
	"aelin/pkg/db"
)

// Store serves collections for the NFT gating step.
type Store interface {
	ListByNetwork(ctx context.Context, network chains.ID) ([]Collection, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert replaces the stored rows for the given snapshot, keyed by (network, address).
func (r *Repository) Upsert(ctx context.Context, src Source, items []Collection) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO nft_collections (
  network, address, source, rank, name, slug, image_url, is_verified,
  num_owners, total_supply, contract_type, floor_price, total_volume, payment_symbol, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), $15)
ON CONFLICT (network, address) DO UPDATE SET
  source = EXCLUDED.source,
  rank = EXCLUDED.rank,
  name = EXCLUDED.name,
  slug = EXCLUDED.slug,
  image_url = EXCLUDED.image_url,
  is_verified = EXCLUDED.is_verified,
  num_owners = EXCLUDED.num_owners,
  total_supply = EXCLUDED.total_supply,
  contract_type = EXCLUDED.contract_type,
  floor_price = EXCLUDED.floor_price,
  total_volume = EXCLUDED.total_volume,
  payment_symbol = EXCLUDED.payment_symbol,
  updated_at = EXCLUDED.updated_at
`
		for _, c := range items {
			if _, err := tx.Exec(ctx, q,
				int64(c.Network), c.Address, string(src), c.ID, c.Name, c.Slug, c.ImageURL, c.IsVerified,
				c.NumOwners, c.TotalSupply, c.ContractType, c.FloorPrice, c.TotalVolume, c.PaymentSymbol,
				time.UnixMilli(c.UpdatedAt).UTC(),
			); err != nil {
				return fmt.Errorf("upsert collection %s/%s: %w", c.Network, c.Address, err)
			}
		}
		return nil
	})
}

func (r *Repository) ListByNetwork(ctx context.Context, network chains.ID) ([]Collection, error) {
	const q = `
SELECT rank, address, name, slug, image_url, is_verified, num_owners, total_supply,
       contract_type, floor_price::float8, total_volume::float8, COALESCE(payment_symbol, ''), network, updated_at
FROM nft_collections
WHERE network = $1
ORDER BY rank ASC
`
	rows, err := r.db.Query(ctx, q, int64(network))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		var c Collection
		var net int64
		var updated time.Time
		if err := rows.Scan(
			&c.ID, &c.Address, &c.Name, &c.Slug, &c.ImageURL, &c.IsVerified, &c.NumOwners, &c.TotalSupply,
			&c.ContractType, &c.FloorPrice, &c.TotalVolume, &c.PaymentSymbol, &net, &updated,
		); err != nil {
			return nil, err
		}
		c.Network = chains.ID(net)
		c.UpdatedAt = updated.UnixMilli()
		out = append(out, c)
	}
	return out, rows.Err()
}

// FileStore serves the metadata snapshots written by the collector.
type FileStore struct {
	Dir string
}

func (s FileStore) ListByNetwork(_ context.Context, network chains.ID) ([]Collection, error) {
	var out []Collection
	for _, src := range Sources {
		if src.Network() != network {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.Dir, src.OutputFile()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var items []Collection
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("parse %s: %w", src.OutputFile(), err)
		}
		out = append(out, items...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FallbackStore serves from Primary and falls back to Secondary when Primary has
// nothing for the network, so snapshots collected without --store still show up.
type FallbackStore struct {
	Primary   Store
	Secondary Store
}

func (s FallbackStore) ListByNetwork(ctx context.Context, network chains.ID) ([]Collection, error) {
	items, err := s.Primary.ListByNetwork(ctx, network)
	if err != nil || len(items) > 0 {
		return items, err
	}
	return s.Secondary.ListByNetwork(ctx, network)
}

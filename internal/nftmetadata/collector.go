package nftmetadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"aelin/internal/metrics"
	"aelin/pkg/config"
)

type Options struct {
	DataDir   string
	OutputDir string

	Concurrency       int
	RequestsPerSecond float64

	OpenSeaBaseURL  string
	QuixoticBaseURL string
	StratosBaseURL  string

	QuixoticAPIToken string
	StratosAPIToken  string
}

// OptionsFromConfig fills the marketplace endpoints with their public defaults.
func OptionsFromConfig(cfg config.NFTConfig) Options {
	return Options{
		DataDir:           cfg.DataDir,
		OutputDir:         cfg.OutputDir,
		Concurrency:       cfg.Concurrency,
		RequestsPerSecond: cfg.RequestsPerSecond,
		OpenSeaBaseURL:    DefaultOpenSeaBaseURL,
		QuixoticBaseURL:   DefaultQuixoticBaseURL,
		StratosBaseURL:    DefaultStratosBaseURL,
		QuixoticAPIToken:  cfg.QuixoticAPIToken,
		StratosAPIToken:   cfg.StratosAPIToken,
	}
}

// Sink receives every collected snapshot after it has been written to disk.
type Sink interface {
	Upsert(ctx context.Context, src Source, items []Collection) error
}

type Collector struct {
	opts    Options
	pages   PageFetcher
	sink    Sink
	log     *zap.Logger
	limiter *rate.Limiter
	now     func() time.Time

	quixotic *MarketplaceClient
	stratos  *MarketplaceClient
}

// NewCollector builds a collector. sink may be nil.
func NewCollector(opts Options, pages PageFetcher, sink Sink, log *zap.Logger) *Collector {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		opts:     opts,
		pages:    pages,
		sink:     sink,
		log:      log,
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
		quixotic: NewMarketplaceClient(opts.QuixoticBaseURL, opts.QuixoticAPIToken),
		stratos:  NewMarketplaceClient(opts.StratosBaseURL, opts.StratosAPIToken),
	}
}

// Run collects all marketplaces concurrently and returns how many collections
// each one produced. The first failure cancels the run.
func (c *Collector) Run(ctx context.Context) (map[Source]int, error) {
	counts := make(map[Source]int, len(Sources))
	results := make([][]Collection, len(Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range Sources {
		g.Go(func() error {
			items, err := c.collect(gctx, src)
			if err != nil {
				metrics.NFTCollections(string(src), "error", 1)
				return fmt.Errorf("%s: %w", src, err)
			}
			if err := c.write(src, items); err != nil {
				return err
			}
			if c.sink != nil {
				if err := c.sink.Upsert(gctx, src, items); err != nil {
					return fmt.Errorf("%s: store: %w", src, err)
				}
			}
			metrics.NFTCollections(string(src), "ok", len(items))
			c.log.Info("nft metadata collected", zap.String("source", string(src)), zap.Int("collections", len(items)))
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, src := range Sources {
		counts[src] = len(results[i])
	}
	return counts, nil
}

func (c *Collector) collect(ctx context.Context, src Source) ([]Collection, error) {
	switch src {
	case SourceOpenSeaMainnet, SourceOpenSeaPolygon:
		return c.collectOpenSea(ctx, src)
	case SourceQuixotic:
		return c.collectMarketplace(ctx, src, c.quixotic)
	case SourceStratos:
		return c.collectMarketplace(ctx, src, c.stratos)
	}
	return nil, fmt.Errorf("unknown source %q", src)
}

func (c *Collector) collectOpenSea(ctx context.Context, src Source) ([]Collection, error) {
	nodes, err := readOpenSeaRanking(c.opts.DataDir, src)
	if err != nil {
		return nil, err
	}

	out := make([]Collection, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, node := range nodes {
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return err
			}
			contract, err := openSeaContractFor(gctx, c.pages, c.opts.OpenSeaBaseURL, node.Slug)
			if err != nil {
				return err
			}
			out[i] = openSeaCollection(i, node, contract, src, c.now().UnixMilli())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := out[:0]
	for _, col := range out {
		if col.Address != "" {
			kept = append(kept, col)
		}
	}
	return kept, nil
}

func (c *Collector) collectMarketplace(ctx context.Context, src Source, client *MarketplaceClient) ([]Collection, error) {
	items, err := readMarketplaceRanking(c.opts.DataDir, src)
	if err != nil {
		return nil, err
	}

	out := make([]Collection, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return err
			}
			contractType, err := client.ContractType(gctx, item.Address)
			if err != nil {
				return err
			}
			out[i] = marketplaceCollection(i, item, contractType, src, c.now().UnixMilli())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collector) write(src Source, items []Collection) error {
	if items == nil {
		items = []Collection{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: encode: %w", src, err)
	}
	if err := os.MkdirAll(c.opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("%s: create output dir: %w", src, err)
	}
	path := filepath.Join(c.opts.OutputDir, src.OutputFile())
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%s: write %s: %w", src, path, err)
	}
	return nil
}

// CollectWithBrowser launches a browser for a single run and closes it afterwards.
func CollectWithBrowser(ctx context.Context, opts Options, headless bool, sink Sink, log *zap.Logger) (map[Source]int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b, err := NewBrowser(ctx, headless)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("close browser", zap.Error(err))
		}
	}()
	return NewCollector(opts, b, sink, log).Run(ctx)
}

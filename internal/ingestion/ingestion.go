package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/logger"
	"github.com/guttosm/sireview/internal/review"
)

// maxParallelFiles caps concurrent XML parsing of a reference directory.
const maxParallelFiles = 7

// statFn is an indirection over os.Stat; tests can override this.
var statFn = os.Stat

// Sources are the input locations of one review run.
//
//   - Trades: main trade feed (.csv or .xlsx), required.
//   - IssuerMaster: issuer population feed, same layout as Trades, optional.
//   - Reference: regulator statistics (.csv, .xlsx, .xml, or a directory of .xml), required.
type Sources struct {
	Trades       string
	IssuerMaster string
	Reference    string
}

// Validate checks every configured input before any parsing starts.
//
// Behavior:
//   - Trades and Reference must be configured.
//   - Every configured path is stat'ed; all missing ones are reported together
//     in a MissingFilesError.
//   - Any other stat failure is returned immediately.
func (s Sources) Validate() error {
	var missing []string
	check := func(name, path string, required bool) error {
		if path == "" {
			if required {
				missing = append(missing, name+" (not configured)")
			}
			return nil
		}
		if _, err := statFn(path); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, path)
				return nil
			}
			return fmt.Errorf("stat failed for %s: %w", path, err)
		}
		return nil
	}

	if err := check(models.FeedTrades, s.Trades, true); err != nil {
		return err
	}
	if err := check(models.FeedIssuerMaster, s.IssuerMaster, false); err != nil {
		return err
	}
	if err := check(models.FeedReference, s.Reference, true); err != nil {
		return err
	}
	if len(missing) > 0 {
		return &MissingFilesError{Paths: missing}
	}
	return nil
}

// Load validates the sources and reads every feed concurrently.
//
// Parameters:
//   - ctx: cancellation; the first failing feed cancels the others.
//   - src: input locations.
//
// Returns:
//   - review.Input: parsed feeds; IssuerMaster stays nil when not configured.
//   - error: MissingFilesError, SchemaError, or the first parse/I/O error.
func Load(ctx context.Context, src Sources) (review.Input, error) {
	if err := src.Validate(); err != nil {
		return review.Input{}, err
	}
	log := logger.With("ingestion")
	log.Info().Str("trades", src.Trades).Str("issuer_master", src.IssuerMaster).Str("reference", src.Reference).Msg("ingestion start")

	var in review.Input
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		rows, err := parseTradeFile(gctx, models.FeedTrades, src.Trades, log)
		if err != nil {
			log.Error().Str("file", src.Trades).Err(err).Msg("trade feed failed")
			return fmt.Errorf("file %s: %w", src.Trades, err)
		}
		in.Trades = rows
		log.Info().Str("feed", models.FeedTrades).Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg("feed done")
		return nil
	})

	if src.IssuerMaster != "" {
		g.Go(func() error {
			start := time.Now()
			rows, err := parseTradeFile(gctx, models.FeedIssuerMaster, src.IssuerMaster, log)
			if err != nil {
				log.Error().Str("file", src.IssuerMaster).Err(err).Msg("issuer master feed failed")
				return fmt.Errorf("file %s: %w", src.IssuerMaster, err)
			}
			if rows == nil {
				rows = []models.TradeRecord{}
			}
			in.IssuerMaster = rows
			log.Info().Str("feed", models.FeedIssuerMaster).Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg("feed done")
			return nil
		})
	}

	g.Go(func() error {
		start := time.Now()
		rows, err := LoadReferences(gctx, src.Reference)
		if err != nil {
			log.Error().Str("file", src.Reference).Err(err).Msg("reference feed failed")
			return fmt.Errorf("file %s: %w", src.Reference, err)
		}
		in.References = rows
		log.Info().Str("feed", models.FeedReference).Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg("feed done")
		return nil
	})

	if err := g.Wait(); err != nil {
		return review.Input{}, err
	}
	return in, nil
}

// LoadReferences reads the reference statistics from a tabular file, an XML
// file, or a directory of XML files.
//
// Directory files are parsed in parallel (min(7, NumCPU)); records are
// concatenated in file-name order.
func LoadReferences(ctx context.Context, path string) ([]models.ReferenceStatRecord, error) {
	info, err := statFn(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(path), ".xml") {
			return parseESMAFile(ctx, path)
		}
		return parseReferenceTable(ctx, path)
	}

	files, err := listXMLFiles(path)
	if err != nil {
		return nil, err
	}

	maxParallel := maxParallelFiles
	if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}

	// errgroup will cancel siblings on first error.
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxParallel)
	parts := make([][]models.ReferenceStatRecord, len(files))

	for i, file := range files {
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			recs, err := parseESMAFile(gctx, file)
			if err != nil {
				return err
			}
			parts[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.ReferenceStatRecord
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

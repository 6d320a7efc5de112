// Command seed loads a deterministic computer-hardware catalog into MongoDB
// and creates the collection's indexes. Products are upserted by id, so
// re-running with the same seed is safe.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/config"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine/mongodb"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/database"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/logger"
)

const (
	perLineFlag = "per-line"
	seedFlag    = "seed"
	batchFlag   = "batch"
	dropFlag    = "drop"
)

// epoch anchors generated creation dates.
var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	perLine int
	seed    int64
	batch   int
	drop    bool
}

func main() {
	opts := parseFlags()
	if err := run(opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	pflag.IntVarP(&opts.perLine, perLineFlag, "n", 25, "products generated per product line")
	pflag.Int64VarP(&opts.seed, seedFlag, "s", 42, "random seed")
	pflag.IntVarP(&opts.batch, batchFlag, "b", 200, "products per bulk write")
	pflag.BoolVar(&opts.drop, dropFlag, false, "drop the collection before seeding")
	pflag.Parse()
	return opts
}

func (o options) validate() error {
	var errs []error
	if o.perLine < 1 {
		errs = append(errs, fmt.Errorf("--%s: must be at least 1", perLineFlag))
	}
	if o.batch < 1 {
		errs = append(errs, fmt.Errorf("--%s: must be at least 1", batchFlag))
	}
	return errors.Join(errs...)
}

func run(opts options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("catalog-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mongoCfg := database.DefaultMongoConfig()
	mongoCfg.URI = cfg.MongoURI
	mongoCfg.Database = cfg.MongoDatabase
	mongoCfg.AppName = "catalog-seed"

	db, err := database.NewMongo(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(context.Background()) }()

	if opts.drop {
		if err := db.Database.Collection(cfg.MongoCollection).Drop(ctx); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
		log.Info("collection dropped", slog.String("collection", cfg.MongoCollection))
	}

	eng := mongodb.New(db.Database, cfg.MongoCollection)
	if err := eng.EnsureIndexes(ctx); err != nil {
		return err
	}

	products := generate(opts.seed, opts.perLine, epoch)
	for start := 0; start < len(products); start += opts.batch {
		end := min(start+opts.batch, len(products))
		if err := eng.BulkIndex(ctx, products[start:end]); err != nil {
			return fmt.Errorf("write batch %d-%d: %w", start, end, err)
		}
		log.Info("batch written", slog.Int("from", start), slog.Int("to", end))
	}

	counts, err := eng.CategoryCounts(ctx)
	if err != nil {
		return err
	}
	log.Info("seed complete",
		slog.Int("products", len(products)),
		slog.Any("categories", counts),
	)
	return nil
}

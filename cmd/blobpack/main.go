// Command blobpack repacks the blob table of a source database into a
// destination database with tighter leaf-page utilization. See spec.md
// for the packing algorithm; this file is only the command-line front
// end spec.md §1 treats as out of scope for the core.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/blgl/blobpack/internal/failure"
	"github.com/blgl/blobpack/internal/geometry"
	"github.com/blgl/blobpack/internal/pack"
	"github.com/blgl/blobpack/internal/runlog"
	"github.com/blgl/blobpack/internal/sqlitedriver"
)

type cli struct {
	PageSize int64  `name:"page-size" help:"Destination page size (default: source's page size)."`
	Src      string `arg:"" help:"Path to the source database." type:"existingfile"`
	Dst      string `arg:"" help:"Path to the destination database (created)." type:"path"`
}

func main() {
	var c cli
	k, err := kong.New(&c, kong.Name("blobpack"),
		kong.Description("Pack a blob table's leaf pages more tightly."))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := k.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(failure.ArgInvalid.ExitCode())
	}

	if c.PageSize != 0 && !geometry.IsValidPageSize(c.PageSize) {
		fmt.Fprintf(os.Stderr, "invalid page size %d\n", c.PageSize)
		os.Exit(failure.ArgInvalid.ExitCode())
	}

	log := runlog.New(os.Stderr)
	log.Info("driver", "type", sqlitedriver.DriverType())
	if err := run(context.Background(), log, c); err != nil {
		log.Error("blobpack failed", "error", err)
		os.Exit(failure.ExitCode(err))
	}
}

func run(ctx context.Context, log *runlog.Logger, c cli) error {
	db, err := sqlitedriver.Open(ctx, c.Dst, c.Src)
	if err != nil {
		return err
	}
	defer db.Close()

	pageSize := c.PageSize
	if pageSize == 0 {
		pageSize, err = sqlitedriver.ReadPageSize(ctx, db)
		if err != nil {
			return err
		}
	}
	log.Info("packing", "src", c.Src, "dst", c.Dst, "page_size", pageSize)

	if err := sqlitedriver.SetPageSize(ctx, db, pageSize); err != nil {
		return err
	}

	table, err := sqlitedriver.DiscoverBlobTable(ctx, db)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return failure.Wrap(failure.StorageOpen, "begin transaction", err)
	}

	if err := sqlitedriver.CreateOutputTables(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := pack.Run(ctx, tx, log, table, pageSize); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return failure.Wrap(failure.StorageStep, "commit", err)
	}

	if info, statErr := os.Stat(c.Dst); statErr == nil {
		log.Info("packing complete", "dst_size", runlog.Bytes(info.Size()))
	} else {
		log.Info("packing complete")
	}
	return nil
}

// Command blobunpack reverses blobpack's transformation, reconstructing
// the original blob table from a packed database's splits/frags tables.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/blgl/blobpack/internal/failure"
	"github.com/blgl/blobpack/internal/geometry"
	"github.com/blgl/blobpack/internal/runlog"
	"github.com/blgl/blobpack/internal/sqlitedriver"
	"github.com/blgl/blobpack/internal/unpack"
)

// reconstructedTable names the destination's blob table. The packed
// format (splits/frags) never records the original table's name —
// spec.md's non-goals exclude preserving anything beyond the blob
// table's (id, val) content — so unpack always reconstructs into a
// table with this fixed name.
const reconstructedTable = "blobs"

type cli struct {
	PageSize int64  `name:"page-size" help:"Destination page size (default: source's page size)."`
	Src      string `arg:"" help:"Path to the packed source database." type:"existingfile"`
	Dst      string `arg:"" help:"Path to the destination database (created)." type:"path"`
}

func main() {
	var c cli
	k, err := kong.New(&c, kong.Name("blobunpack"),
		kong.Description("Reconstruct original blobs from a packed database."))
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
		log.Error("blobunpack failed", "error", err)
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
	log.Info("unpacking", "src", c.Src, "dst", c.Dst, "page_size", pageSize)

	if err := sqlitedriver.SetPageSize(ctx, db, pageSize); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return failure.Wrap(failure.StorageOpen, "begin transaction", err)
	}

	if err := unpack.Run(ctx, tx, log, reconstructedTable); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return failure.Wrap(failure.StorageStep, "commit", err)
	}

	if info, statErr := os.Stat(c.Dst); statErr == nil {
		log.Info("unpacking complete", "dst_size", runlog.Bytes(info.Size()))
	} else {
		log.Info("unpacking complete")
	}
	return nil
}

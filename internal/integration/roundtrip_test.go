// Package integration exercises blobpack and blobunpack end to end
// against real SQLite files, covering spec.md §8's round-trip property
// and its concrete scenarios.
package integration

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blgl/blobpack/internal/pack"
	"github.com/blgl/blobpack/internal/runlog"
	"github.com/blgl/blobpack/internal/sqlitedriver"
	"github.com/blgl/blobpack/internal/unpack"
)

type fixtureRow struct {
	id  int64
	val []byte // nil means NULL
}

func newSourceDB(t *testing.T, rows []fixtureRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.db")

	db, err := sql.Open(sqlitedriver.DriverName(), path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE blobs (id INTEGER PRIMARY KEY, val BLOB)`)
	require.NoError(t, err)

	stmt, err := db.Prepare(`INSERT INTO blobs (id, val) VALUES (?, ?)`)
	require.NoError(t, err)
	defer stmt.Close()

	for _, r := range rows {
		var val any
		if r.val != nil {
			val = r.val
		}
		_, err := stmt.Exec(r.id, val)
		require.NoError(t, err)
	}
	return path
}

func packDB(t *testing.T, srcPath string, pageSize int64) string {
	t.Helper()
	ctx := context.Background()
	dstPath := filepath.Join(t.TempDir(), "packed.db")
	log := runlog.New(io.Discard)

	db, err := sqlitedriver.Open(ctx, dstPath, srcPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, sqlitedriver.SetPageSize(ctx, db, pageSize))

	table, err := sqlitedriver.DiscoverBlobTable(ctx, db)
	require.NoError(t, err)
	require.Equal(t, "blobs", table)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, sqlitedriver.CreateOutputTables(ctx, tx))
	require.NoError(t, pack.Run(ctx, tx, log, table, pageSize))
	require.NoError(t, tx.Commit())

	return dstPath
}

func unpackDB(t *testing.T, srcPath string, pageSize int64) string {
	t.Helper()
	ctx := context.Background()
	dstPath := filepath.Join(t.TempDir(), "unpacked.db")
	log := runlog.New(io.Discard)

	db, err := sqlitedriver.Open(ctx, dstPath, srcPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, sqlitedriver.SetPageSize(ctx, db, pageSize))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, unpack.Run(ctx, tx, log, "blobs"))
	require.NoError(t, tx.Commit())

	return dstPath
}

func readRows(t *testing.T, path string) []fixtureRow {
	t.Helper()
	db, err := sql.Open(sqlitedriver.DriverName(), path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT id, val FROM blobs ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var out []fixtureRow
	for rows.Next() {
		var id int64
		var val []byte
		require.NoError(t, rows.Scan(&id, &val))
		out = append(out, fixtureRow{id: id, val: val})
	}
	require.NoError(t, rows.Err())
	return out
}

func TestRoundTripEmptyInput(t *testing.T) {
	src := newSourceDB(t, nil)
	packed := packDB(t, src, 4096)
	unpacked := unpackDB(t, packed, 4096)
	require.Empty(t, readRows(t, unpacked))
}

func TestRoundTripSingleNilBlob(t *testing.T) {
	src := newSourceDB(t, []fixtureRow{{id: 7, val: nil}})
	packed := packDB(t, src, 4096)
	unpacked := unpackDB(t, packed, 4096)

	got := readRows(t, unpacked)
	require.Len(t, got, 1)
	require.Equal(t, int64(7), got[0].id)
	require.Nil(t, got[0].val)
}

func TestRoundTripSingleSmallBlob(t *testing.T) {
	payload := make([]byte, 32)
	for i := range payload {
		payload[i] = byte(i)
	}
	src := newSourceDB(t, []fixtureRow{{id: 7, val: payload}})
	packed := packDB(t, src, 4096)
	unpacked := unpackDB(t, packed, 4096)

	got := readRows(t, unpacked)
	require.Len(t, got, 1)
	require.Equal(t, payload, got[0].val)
}

func TestRoundTripLargeBlob(t *testing.T) {
	payload := make([]byte, 10_000_000)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	src := newSourceDB(t, []fixtureRow{{id: 1, val: payload}})
	packed := packDB(t, src, 4096)
	unpacked := unpackDB(t, packed, 4096)

	got := readRows(t, unpacked)
	require.Len(t, got, 1)
	require.Equal(t, payload, got[0].val)
}

func TestRoundTripMixedWorkload(t *testing.T) {
	var rows []fixtureRow
	for i := 0; i < 200; i++ {
		switch i % 3 {
		case 0:
			rows = append(rows, fixtureRow{id: int64(i) + 1, val: nil})
		case 1:
			payload := make([]byte, 32+i)
			rows = append(rows, fixtureRow{id: int64(i) + 1, val: payload})
		default:
			payload := make([]byte, 3000)
			for j := range payload {
				payload[j] = byte(j)
			}
			rows = append(rows, fixtureRow{id: int64(i) + 1, val: payload})
		}
	}

	src := newSourceDB(t, rows)
	packed := packDB(t, src, 4096)
	unpacked := unpackDB(t, packed, 4096)

	got := readRows(t, unpacked)
	require.Len(t, got, len(rows))
	for i, want := range rows {
		require.Equal(t, want.id, got[i].id)
		if want.val == nil {
			require.Nil(t, got[i].val)
		} else {
			require.Equal(t, want.val, got[i].val)
		}
	}
}

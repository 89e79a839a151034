package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/retail/config"
	"github.com/rustyeddy/retail/datalake"
	"github.com/rustyeddy/retail/store"
	"github.com/rustyeddy/retail/transaction"
)

const header = "id,category,description,quantity,amount_excl_tax,amount_inc_tax\n"

const dailyExport = header +
	"94ca3d4f,SELL,Amazon Echo Dot,10,100.00,120.00\n" +
	"9a348783,BUY,Amazon Echo Dot,5,50.00,60.00\n" +
	"9e8e3262,BUY,Ray-Ban,5,799.95,959.94\n" +
	"aad54a55,BUY,Levis Jeans,five,269.97,323.96\n" +
	"ac82915d,SELL,Fitbit Charge,4,2199.98,2639.98\n" +
	"ac82915d,SELL,Fitbit Charge,4,2199.98,2639.98\n" +
	",SELL,Fitbit Charge,4,2199.98,2639.98\n"

type env struct {
	cfg      *config.Config
	incoming string
	dbPath   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Datalake.Root = filepath.Join(dir, "datalake")
	cfg.Datalake.Incoming = filepath.Join(dir, "data")
	cfg.Store.DBPath = filepath.Join(dir, "retail.db")
	cfg.Load.BatchSize = 2
	require.NoError(t, os.MkdirAll(cfg.Datalake.Incoming, 0o755))

	return env{cfg: cfg, incoming: cfg.Datalake.Incoming, dbPath: cfg.Store.DBPath}
}

func (e env) write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(e.incoming, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func (e env) pipeline() *Pipeline {
	return New(e.cfg, SQLiteOpener(e.dbPath, zerolog.Nop()))
}

func openStore(t *testing.T, path string) *store.SQLite {
	t.Helper()
	s, err := store.NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.write(t, "retail_15_01_2022.csv", dailyExport)
	ctx := context.Background()

	rep, err := e.pipeline().RunDir(ctx, e.incoming)
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "2022-01-15", rep.Date)
	assert.Equal(t, 7, rep.Rows)
	assert.Equal(t, 3, rep.Clean)
	assert.Equal(t, []string{"aad54a55"}, rep.Malformed)
	assert.Equal(t, []string{"ac82915d"}, rep.Duplicates)
	assert.Equal(t, 1, rep.Dropped)
	assert.Equal(t, 3, rep.Inserted)
	assert.Equal(t, 1, rep.Attempts)
	assert.True(t, rep.Archived)
	assert.Equal(t, filepath.Join(e.cfg.Datalake.Root, "2022", "01", "15", "retail_15_01_2022.csv"), rep.RawPath)

	archived, err := datalake.ReadArchive(rep.ArchivePath)
	require.NoError(t, err)
	assert.Len(t, archived, 3)

	s := openStore(t, e.dbPath)
	n, err := s.CountByDate(ctx, "2022-01-15")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	bal, err := s.CumulatedBalanceByDate(ctx, "Amazon Echo Dot")
	require.NoError(t, err)
	require.Len(t, bal, 1)
	assert.True(t, decimal.NewFromInt(60).Equal(bal[0].RunningTotal))
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	src := e.write(t, "retail_15_01_2022.csv", dailyExport)
	ctx := context.Background()
	p := e.pipeline()

	first, err := p.Run(ctx, src)
	require.NoError(t, err)

	second, err := p.Run(ctx, src)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 3, second.Skipped())
	assert.False(t, second.Archived)

	total, err := openStore(t, e.dbPath).TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestRunCompressedRawCopy(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.cfg.Datalake.Compress = true
	src := e.write(t, "retail_16_01_2022.csv", dailyExport)

	rep, err := e.pipeline().Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ".xz", filepath.Ext(rep.RawPath))
	assert.Equal(t, 3, rep.Inserted)
}

func TestRunSchemaMismatch(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	src := e.write(t, "retail_15_01_2022.csv",
		"id,category,description,quantity,amount_excl_tax,amount_inc_tax,store\n"+
			"94ca3d4f,SELL,Amazon Echo Dot,10,100.00,120.00,paris\n")

	rep, err := e.pipeline().Run(context.Background(), src)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageSchema, se.Stage)
	assert.ErrorIs(t, err, transaction.ErrSchemaMismatch)
	assert.Zero(t, rep.Clean)

	assert.Empty(t, rep.ArchivePath)

	total, err := openStore(t, e.dbPath).TotalCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRunBadFileNameIsDateStage(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	src := e.write(t, "retail_export.csv", dailyExport)

	_, err := e.pipeline().Run(context.Background(), src)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageDate, se.Stage)
	assert.ErrorIs(t, err, datalake.ErrBadFileName)
}

func TestRunDirWithoutCSV(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	_, err := e.pipeline().RunDir(context.Background(), e.incoming)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageExtract, se.Stage)
	assert.ErrorIs(t, err, datalake.ErrNoCSV)
}

// flakyStore fails its first few BulkInsert calls with a storage error.
type flakyStore struct {
	store.Store
	failures int
	calls    int
	closed   bool
}

func (f *flakyStore) BulkInsert(ctx context.Context, recs []transaction.Transaction, batchSize int) (int, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, &store.StorageError{Batch: 0, Err: errors.New("disk I/O error")}
	}
	return len(recs), nil
}

func (f *flakyStore) Close() error {
	f.closed = true
	return nil
}

func TestRunRetriesStorageErrors(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.cfg.Load.Retries = 2
	src := e.write(t, "retail_15_01_2022.csv", dailyExport)

	fs := &flakyStore{failures: 2}
	p := New(e.cfg, func() (store.Store, error) { return fs, nil })

	rep, err := p.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, fs.calls)
	assert.Equal(t, 3, rep.Attempts)
	assert.Equal(t, 3, rep.Inserted)
	assert.True(t, fs.closed)
}

func TestRunStorageErrorSurfacesAfterRetries(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.cfg.Load.Retries = 1
	src := e.write(t, "retail_15_01_2022.csv", dailyExport)

	fs := &flakyStore{failures: 5}
	p := New(e.cfg, func() (store.Store, error) { return fs, nil })

	_, err := p.Run(context.Background(), src)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageStorage, se.Stage)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.Equal(t, 2, fs.calls)
	assert.True(t, fs.closed, "store is closed on error paths")
}

func TestRunStoreOpenFailure(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	src := e.write(t, "retail_15_01_2022.csv", dailyExport)

	p := New(e.cfg, func() (store.Store, error) { return nil, errors.New("locked") })
	_, err := p.Run(context.Background(), src)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageStorage, se.Stage)
}

// Package pipeline wires the datalake, the transformer and the store into
// a single extract, transform, load run.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/retail/config"
	"github.com/rustyeddy/retail/datalake"
	"github.com/rustyeddy/retail/logger"
	"github.com/rustyeddy/retail/pkg/id"
	"github.com/rustyeddy/retail/store"
	"github.com/rustyeddy/retail/transaction"
)

// Stage names the step of a run that failed.
type Stage string

const (
	StageExtract Stage = "extract"
	StageDate    Stage = "date"
	StageRead    Stage = "read"
	StageSchema  Stage = "schema"
	StageArchive Stage = "archive"
	StageStorage Stage = "storage"
)

// StageError wraps the error that stopped a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func fail(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// Opener opens the store a run loads into. The run closes it.
type Opener func() (store.Store, error)

// SQLiteOpener opens the SQLite database at path.
func SQLiteOpener(path string, log zerolog.Logger) Opener {
	return func() (store.Store, error) {
		return store.NewSQLite(path, store.WithLogger(log))
	}
}

// Report summarizes one run.
type Report struct {
	RunID       string
	File        string
	RawPath     string
	ArchivePath string
	Archived    bool
	Date        string
	Rows        int
	Clean       int
	Malformed   []string
	Duplicates  []string
	Dropped     int
	Inserted    int
	Attempts    int
}

// Skipped is the number of clean records that were already stored.
func (r Report) Skipped() int {
	return r.Clean - r.Inserted
}

// Pipeline runs daily exports through the datalake into the store.
type Pipeline struct {
	root      string
	compress  bool
	batchSize int
	retries   int
	open      Opener
	log       zerolog.Logger
}

type Option func(*Pipeline)

func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// New builds a Pipeline from cfg loading into the store returned by open.
func New(cfg *config.Config, open Opener, opts ...Option) *Pipeline {
	p := &Pipeline{
		root:      cfg.Datalake.Root,
		compress:  cfg.Datalake.Compress,
		batchSize: cfg.Load.BatchSize,
		retries:   cfg.Load.Retries,
		open:      open,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunDir runs the single CSV export found in dir.
func (p *Pipeline) RunDir(ctx context.Context, dir string) (Report, error) {
	src, err := datalake.FindCSV(dir)
	if err != nil {
		return Report{}, fail(StageExtract, err)
	}
	return p.Run(ctx, src)
}

// Run ingests src, transforms it and loads the clean records. The returned
// Report is filled as far as the run got, even on error.
func (p *Pipeline) Run(ctx context.Context, src string) (rep Report, err error) {
	rep = Report{RunID: id.NewRun(), File: src}
	log := logger.WithRun(p.log, rep.RunID)
	log.Info().Str("file", src).Msg("run started")

	defer func() {
		if err != nil {
			log.Error().Err(err).Msg("run failed")
		}
	}()

	lake := datalake.New(p.root, datalake.WithCompression(p.compress), datalake.WithLogger(log))
	raw, err := lake.Ingest(ctx, src)
	if err != nil {
		if errors.Is(err, datalake.ErrBadFileName) {
			return rep, fail(StageDate, err)
		}
		return rep, fail(StageExtract, err)
	}
	rep.RawPath = raw.Path
	rep.Date = raw.Meta.Date()

	st, err := p.open()
	if err != nil {
		return rep, fail(StageStorage, err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("close store")
			if err == nil {
				err = fail(StageStorage, cerr)
			}
		}
	}()

	tbl, err := readRaw(lake, raw)
	if err != nil {
		return rep, fail(StageRead, err)
	}
	rep.Rows = len(tbl.Rows)

	res, err := transaction.NewTransformer(log).Transform(tbl, rep.Date)
	if err != nil {
		if errors.Is(err, transaction.ErrMissingDate) {
			return rep, fail(StageDate, err)
		}
		return rep, fail(StageSchema, err)
	}
	rep.Clean = len(res.Clean)
	rep.Malformed = res.Malformed
	rep.Duplicates = res.Duplicates
	rep.Dropped = res.Dropped

	rep.ArchivePath = lake.ArchivePath(raw)
	if rep.Archived, err = lake.Archive(ctx, raw, res.Clean); err != nil {
		return rep, fail(StageArchive, err)
	}

	if err := p.load(ctx, log, st, res.Clean, &rep); err != nil {
		if errors.Is(err, store.ErrMissingDate) {
			return rep, fail(StageDate, err)
		}
		return rep, fail(StageStorage, err)
	}

	log.Info().
		Str("date", rep.Date).
		Int("inserted", rep.Inserted).
		Int("skipped", rep.Skipped()).
		Int("malformed", len(rep.Malformed)).
		Msg("run completed")
	return rep, nil
}

// load retries the whole import on storage errors. Ids committed by an
// earlier attempt are skipped by BulkInsert.
func (p *Pipeline) load(ctx context.Context, log zerolog.Logger, st store.Store, recs []transaction.Transaction, rep *Report) error {
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			if cerr := ctx.Err(); cerr != nil {
				return errors.Join(err, cerr)
			}
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("retrying load")
		}
		rep.Attempts++

		var n int
		n, err = st.BulkInsert(ctx, recs, p.batchSize)
		rep.Inserted += n
		if err == nil || !errors.Is(err, store.ErrStorage) {
			return err
		}
	}
	return err
}

func readRaw(lake *datalake.Lake, raw datalake.RawFile) (transaction.Table, error) {
	rc, err := lake.Open(raw)
	if err != nil {
		return transaction.Table{}, err
	}
	defer rc.Close()

	tbl, err := transaction.ReadCSV(rc)
	if err != nil {
		return transaction.Table{}, fmt.Errorf("%s: %w", raw.Path, err)
	}
	return tbl, nil
}

// Package datalake keeps the raw exports and their cleaned archives in a
// dated folder tree.
package datalake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/ulikunitz/xz"
)

var (
	ErrNoCSV       = errors.New("no csv file found")
	ErrMultipleCSV = errors.New("more than one csv file found")
)

// xzExt is appended to raw copies stored compressed.
const xzExt = ".xz"

// Lake is a datalake rooted at a directory.
type Lake struct {
	root     string
	compress bool
	log      zerolog.Logger
}

type Option func(*Lake)

// WithCompression stores raw copies xz compressed.
func WithCompression(on bool) Option {
	return func(l *Lake) { l.compress = on }
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Lake) {
		l.log = log.With().Str("component", "datalake").Logger()
	}
}

// New returns a Lake rooted at root.
func New(root string, opts ...Option) *Lake {
	l := &Lake{root: root, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the lake's root directory.
func (l *Lake) Root() string {
	return l.root
}

// RawFile is a raw export copied into the lake.
type RawFile struct {
	Meta       FileMeta
	Dir        string
	Path       string
	Compressed bool
}

// FindCSV returns the path of the single .csv file in dir.
func FindCSV(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		found = append(found, e.Name())
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("%s: %w", dir, ErrNoCSV)
	case 1:
		return filepath.Join(dir, found[0]), nil
	default:
		return "", fmt.Errorf("%s: %w: %s", dir, ErrMultipleCSV, strings.Join(found, ", "))
	}
}

// Ingest copies src into its dated folder, creating the folder when
// needed. An existing raw copy is replaced.
func (l *Lake) Ingest(ctx context.Context, src string) (RawFile, error) {
	if err := ctx.Err(); err != nil {
		return RawFile{}, err
	}

	meta, err := ParseFileName(src)
	if err != nil {
		return RawFile{}, err
	}

	raw := RawFile{
		Meta:       meta,
		Dir:        meta.Dir(l.root),
		Path:       filepath.Join(meta.Dir(l.root), meta.Name),
		Compressed: l.compress,
	}
	if raw.Compressed {
		raw.Path += xzExt
	}

	if _, err := os.Stat(raw.Dir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(raw.Dir, 0o755); err != nil {
			return RawFile{}, fmt.Errorf("create %s: %w", raw.Dir, err)
		}
		l.log.Info().Str("dir", raw.Dir).Msg("folder created")
	} else if err != nil {
		return RawFile{}, err
	} else {
		l.log.Warn().Str("dir", raw.Dir).Msg("folder already exists")
	}

	if same, err := samePath(src, raw.Path); err != nil {
		return RawFile{}, err
	} else if same {
		l.log.Info().Str("path", raw.Path).Msg("source already in lake")
		return raw, nil
	}

	if err := copyFile(src, raw.Path, raw.Compressed); err != nil {
		return RawFile{}, fmt.Errorf("copy %s: %w", src, err)
	}

	l.log.Info().Str("src", src).Str("dst", raw.Path).Bool("xz", raw.Compressed).Msg("raw file stored")
	return raw, nil
}

// Open returns a reader over the raw copy, decompressing if needed.
func (l *Lake) Open(raw RawFile) (io.ReadCloser, error) {
	f, err := os.Open(raw.Path)
	if err != nil {
		return nil, err
	}
	if !raw.Compressed {
		return f, nil
	}

	zr, err := xz.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xz %s: %w", raw.Path, err)
	}
	return readCloser{Reader: zr, Closer: f}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func samePath(a, b string) (bool, error) {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return aa == bb, nil
}

func copyFile(src, dst string, compress bool) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if !compress {
		_, err = io.Copy(out, in)
		return err
	}

	zw, err := xz.NewWriter(out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(zw, in); err != nil {
		return err
	}
	return zw.Close()
}

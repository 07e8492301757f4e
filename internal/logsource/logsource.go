// Package logsource reads receiver CSV logs row by row.
//
// Logs may be plain, gzip (.gz) or zstd (.zst) compressed. NUL bytes, which
// show up when a receiver is killed mid-write, are dropped before parsing,
// and rows with CSV syntax errors are skipped and counted.
package logsource

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/unklstewy/planefence/pkg/logger"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Reader yields the fields of each log row. It implements adsb.RecordSource.
type Reader struct {
	csv     *csv.Reader
	closers []io.Closer
	logger  *logger.Logger

	rows    int
	skipped int
}

// Open opens a log file, choosing a decompressor from its extension.
func Open(path string, log *logger.Logger) (*Reader, error) {
	if path == Stdin {
		return NewReader(os.Stdin, log), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	var (
		body    io.Reader = f
		closers           = []io.Closer{f}
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read gzip log %s: %w", path, err)
		}
		body = zr
		closers = append([]io.Closer{zr}, closers...)
	case ".zst":
		zr, err := zstd.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read zstd log %s: %w", path, err)
		}
		rc := zr.IOReadCloser()
		body = rc
		closers = append([]io.Closer{rc}, closers...)
	}

	r := NewReader(body, log)
	r.closers = closers
	return r, nil
}

// NewReader reads rows from an already open stream. Close does not close it.
func NewReader(r io.Reader, log *logger.Logger) *Reader {
	if log == nil {
		log = logger.NewNop()
	}

	cr := csv.NewReader(&nulStripper{r: r})
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	return &Reader{csv: cr, logger: log.Named("logsource")}
}

// Next returns the next row's fields, or io.EOF once the log is exhausted.
// Rows that are not valid CSV are skipped.
func (r *Reader) Next() ([]string, error) {
	for {
		fields, err := r.csv.Read()
		if err == nil {
			r.rows++
			return fields, nil
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			r.skipped++
			r.logger.Debug("Skipping unreadable row",
				logger.Int("line", parseErr.StartLine),
				logger.Error(parseErr.Err))
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
}

// Rows is the number of rows returned so far.
func (r *Reader) Rows() int { return r.rows }

// Skipped is the number of rows dropped as unreadable.
func (r *Reader) Skipped() int { return r.skipped }

// Close releases the file and any decompressor opened by Open.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// nulStripper drops NUL bytes from the underlying stream.
type nulStripper struct {
	r io.Reader
}

func (n *nulStripper) Read(p []byte) (int, error) {
	for {
		got, err := n.r.Read(p)
		kept := removeNUL(p[:got])
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}

func removeNUL(b []byte) int {
	if bytes.IndexByte(b, 0) < 0 {
		return len(b)
	}
	kept := 0
	for _, c := range b {
		if c != 0 {
			b[kept] = c
			kept++
		}
	}
	return kept
}

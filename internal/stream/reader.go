package stream

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

const readBufSize = 256 * 1024

// reader bundles the file handle with the buffered (and possibly
// gzip-wrapped) stream so Close releases everything.
type reader struct {
	io.Reader
	closers []io.Closer
}

func (r *reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens a transparency file for streaming. Files ending in .gz are
// decompressed transparently via pgzip, and a UTF-8 BOM is skipped when
// present. The caller owns the returned ReadCloser.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := &reader{closers: []io.Closer{f}}

	var raw io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip open %s: %w", path, err)
		}
		r.closers = append(r.closers, gz)
		raw = gz
	}

	buf := bufio.NewReaderSize(raw, readBufSize)
	if bom, err := buf.Peek(3); err == nil && len(bom) >= 3 &&
		bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		buf.Discard(3)
	}
	r.Reader = buf

	return r, nil
}

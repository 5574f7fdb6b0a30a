package source

import (
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/wegman-software/osm2raster-go/internal/element"
)

// Format is the encoding of an input file
type Format int

const (
	FormatXML Format = iota
	FormatXMLGzip
	FormatXMLBzip2
	FormatPBF
)

// DetectFormat picks the format from the file name
func DetectFormat(path string) Format {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".pbf"):
		return FormatPBF
	case strings.HasSuffix(p, ".gz"):
		return FormatXMLGzip
	case strings.HasSuffix(p, ".bz2"):
		return FormatXMLBzip2
	default:
		return FormatXML
	}
}

// Options controls how an input file is opened
type Options struct {
	Progress bool // draw a byte progress bar on stderr
	PBFProcs int  // decoder goroutines for PBF input
}

// Handle is one open, forward-only pass over an input file
type Handle struct {
	element.MarkerSource
	closers []io.Closer
}

// Close releases everything the handle opened, innermost first
func (h *Handle) Close() error {
	var first error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	h.closers = nil
	return first
}

// Open opens path for one pass. Every call returns an independent handle.
func Open(ctx context.Context, path string, opts Options) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	h := &Handle{}

	var r io.ReadCloser = f
	if opts.Progress {
		r, err = withProgress(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to stat input file: %w", err)
		}
	}
	h.closers = append(h.closers, r)

	switch DetectFormat(path) {
	case FormatPBF:
		src := NewPBFSource(ctx, r, opts.PBFProcs)
		h.closers = append(h.closers, src)
		h.MarkerSource = src
	case FormatXMLGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		h.closers = append(h.closers, gz)
		h.MarkerSource = NewXMLSource(gz)
	case FormatXMLBzip2:
		h.MarkerSource = NewXMLSource(bzip2.NewReader(r))
	default:
		h.MarkerSource = NewXMLSource(r)
	}
	return h, nil
}

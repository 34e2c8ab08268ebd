// Package ingest turns input documents into pages of text.
//
// Supported inputs are PDF (one page per PDF page), CSV (one page per data row rendered as
// "header: value" lines), plain text or markdown (a single page) and inline text.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"contractlens/internal/core/segment"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/logger"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported is returned for file types no loader handles
var ErrUnsupported = perr.New(perr.ErrorCodeInvalidArgument, "unsupported document type")

// Load picks a loader from the file extension
func Load(ctx context.Context, path string) ([]segment.Page, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return LoadPDF(ctx, path)
	case ".csv":
		return LoadCSV(ctx, path)
	case ".txt", ".md", ".text", ".markdown":
		return LoadText(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
}

// FromText wraps inline text as a single page
func FromText(text, source string) []segment.Page {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if source == "" {
		source = "inline"
	}
	return []segment.Page{{Index: 0, Text: text, Metadata: map[string]string{"source": source}}}
}

// LoadText reads a whole file as one page
func LoadText(path string) ([]segment.Page, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, openErr(path, err)
	}
	return FromText(string(b), filepath.Base(path)), nil
}

// LoadPDF extracts plain text per page. Pages without extractable text are kept as empty
// pages so page numbers stay aligned with the document
func LoadPDF(ctx context.Context, path string) ([]segment.Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, openErr(path, err)
	}
	defer f.Close()

	log := logger.C(ctx).With().Str("component", "ingest").Str("file", filepath.Base(path)).Logger()
	n := r.NumPage()
	out := make([]segment.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta := map[string]string{"source": filepath.Base(path), "page": strconv.Itoa(i)}
		p := r.Page(i)
		if p.V.IsNull() {
			out = append(out, segment.Page{Index: i - 1, Metadata: meta})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("page text extraction failed")
		}
		out = append(out, segment.Page{Index: i - 1, Text: text, Metadata: meta})
	}
	log.Debug().Int("pages", n).Msg("pdf loaded")
	return out, nil
}

// LoadCSV renders every data row as "header: value" lines
func LoadCSV(ctx context.Context, path string) ([]segment.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openErr(path, err)
	}
	defer f.Close()
	return ReadCSV(ctx, f, filepath.Base(path))
}

// ReadCSV is LoadCSV over a reader
func ReadCSV(ctx context.Context, r io.Reader, source string) ([]segment.Page, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, perr.InvalidArgf("%s: empty csv", source)
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "%s: read csv header", source)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out []segment.Page
	for row := 0; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "%s: row %d", source, row+1)
		}
		lines := make([]string, 0, len(rec))
		meta := map[string]string{"source": source, "row": strconv.Itoa(row)}
		for i, v := range rec {
			v = strings.TrimSpace(v)
			key := "column_" + strconv.Itoa(i)
			if i < len(header) && header[i] != "" {
				key = header[i]
			}
			lines = append(lines, key+": "+v)
		}
		out = append(out, segment.Page{Index: row, Text: strings.Join(lines, "\n"), Metadata: meta})
	}
	return out, nil
}

func openErr(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return perr.Wrapf(err, perr.ErrorCodeNotFound, "document %s not found", filepath.Base(path))
	}
	return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "open document %s", filepath.Base(path))
}

// stripBOM drops a leading UTF-8 byte order mark, common in spreadsheet exports
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf)), r)
}

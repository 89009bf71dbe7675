// Package compression wraps object payloads in gzip, zstd or lz4 streams.
package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/sluice/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
)

// Parse maps a configured name onto an Algorithm; empty means None
func Parse(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case "":
		return None, nil
	case None, Gzip, LZ4, Zstd:
		return a, nil
	default:
		return "", errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported compression %q", name))
	}
}

// Extension returns the conventional file suffix, "" for None
func (a Algorithm) Extension() string {
	switch a {
	case Gzip:
		return ".gz"
	case LZ4:
		return ".lz4"
	case Zstd:
		return ".zst"
	default:
		return ""
	}
}

// Compress returns data compressed with a
func Compress(a Algorithm, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch a {
	case None, "":
		return data, nil
	case Gzip:
		w = gzip.NewWriter(&buf)
	case LZ4:
		w = lz4.NewWriter(&buf)
	case Zstd:
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd encoder")
		}
		w = zw
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported compression %q", a))
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("%s compression failed", a))
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("%s compression failed", a))
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress
func Decompress(a Algorithm, data []byte) ([]byte, error) {
	var r io.Reader
	src := bytes.NewReader(data)
	switch a {
	case None, "":
		return data, nil
	case Gzip:
		gr, err := gzip.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid gzip stream")
		}
		defer gr.Close()
		r = gr
	case LZ4:
		r = lz4.NewReader(src)
	case Zstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid zstd stream")
		}
		defer zr.Close()
		r = zr
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported compression %q", a))
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("%s decompression failed", a))
	}
	return out, nil
}

package salesdash

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/salesdash/domain/model"
	"github.com/ulikunitz/xz"
)

// codec reads, and for most formats writes, one compression format.
type codec struct {
	// magic is the leading byte signature of a compressed stream
	magic  []byte
	reader func(io.Reader) (io.ReadCloser, error)
	// writer is nil for read-only formats
	writer func(io.Writer) (io.WriteCloser, error)
}

var codecs = map[CompressionType]codec{
	model.CompressionGZ: {
		magic: []byte{0x1f, 0x8b},
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
	},
	model.CompressionBZ2: {
		magic: []byte("BZh"),
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(bzip2.NewReader(r)), nil
		},
	},
	model.CompressionXZ: {
		magic: []byte{0xfd, '7', 'z', 'X', 'Z', 0x00},
		reader: func(r io.Reader) (io.ReadCloser, error) {
			xr, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(xr), nil
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(w)
		},
	},
	model.CompressionZSTD: {
		magic: []byte{0x28, 0xb5, 0x2f, 0xfd},
		reader: func(r io.Reader) (io.ReadCloser, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
	},
}

// sniffLen is the longest magic signature in codecs.
const sniffLen = 6

// decompress wraps r with the reader for ct.
func decompress(ct CompressionType, r io.Reader) (io.ReadCloser, error) {
	if ct == model.CompressionNone {
		return io.NopCloser(r), nil
	}
	c, ok := codecs[ct]
	if !ok {
		return nil, fmt.Errorf("%w: compression %v", ErrUnsupportedFormat, ct)
	}
	rc, err := c.reader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s stream: %w", ErrInvalidData, ct, err)
	}
	return rc, nil
}

// compress wraps w with the writer for ct. Closing the result flushes the stream
// but leaves w open.
func compress(ct CompressionType, w io.Writer) (io.WriteCloser, error) {
	if ct == model.CompressionNone {
		return nopWriteCloser{w}, nil
	}
	c, ok := codecs[ct]
	if !ok || c.writer == nil {
		return nil, fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, ct)
	}
	wc, err := c.writer(w)
	if err != nil {
		return nil, fmt.Errorf("create %s writer: %w", ct, err)
	}
	return wc, nil
}

// sniffCompression detects a compressed stream by its signature without
// consuming it. Uploads whose name lost its compression suffix still load.
func sniffCompression(r *bufio.Reader) CompressionType {
	head, _ := r.Peek(sniffLen) // a short stream simply matches nothing
	for ct, c := range codecs {
		if bytes.HasPrefix(head, c.magic) {
			return ct
		}
	}
	return model.CompressionNone
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

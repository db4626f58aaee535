package spec

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var (
	ErrBadEncoding    = errors.New("libtmx: unsupported tile data encoding")
	ErrBadCompression = errors.New("libtmx: unsupported tile data compression")
	ErrDataSize       = errors.New("libtmx: tile data size does not match layer size")
	ErrDecompress     = errors.New("libtmx: failed to decompress tile data")
	ErrBadCellValue   = errors.New("libtmx: malformed tile data cell")
)

// Encoding is the representation of a tile data payload.
type Encoding uint8

const (
	// EncodingInline stores one nested <tile> element per cell; the cells
	// are read by the document parser rather than this codec.
	EncodingInline Encoding = iota
	EncodingCSV
	EncodingBase64
)

// EncodingNames maps the "encoding" attribute to encodings. The attribute
// is absent for inline element data.
var EncodingNames = map[string]Encoding{
	"csv":    EncodingCSV,
	"base64": EncodingBase64,
}

// Compression applies to base64 payloads only.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZlib
	CompressionZstd
)

var CompressionNames = map[string]Compression{
	"gzip": CompressionGzip,
	"zlib": CompressionZlib,
	"zstd": CompressionZstd,
}

// DecodeCells decodes a width by height block of raw cell values from a
// CSV or base64 text payload, in row-major order with x varying fastest.
func DecodeCells(text string, encoding Encoding, compression Compression, width, height int) ([]Cell, error) {
	switch encoding {
	case EncodingCSV:
		return decodeCSV(text, width, height)
	case EncodingBase64:
		return decodeBase64(text, compression, width, height)
	}
	return nil, fmt.Errorf("%w (%v)", ErrBadEncoding, encoding)
}

func decodeCSV(text string, width, height int) ([]Cell, error) {
	fields := strings.Split(strings.TrimSpace(text), ",")
	if len(fields) != width*height {
		return nil, fmt.Errorf("%w: %v cells, expected %v*%v",
			ErrDataSize, len(fields), width, height)
	}

	cells := make([]Cell, len(fields))
	for i, field := range fields {
		value, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadCellValue, strings.TrimSpace(field))
		}
		cells[i] = Cell(value)
	}
	return cells, nil
}

func decodeBase64(text string, compression Compression, width, height int) ([]Cell, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadCellValue, err)
	}

	data, err := Decompress(raw, compression)
	if err != nil {
		return nil, err
	}

	if len(data) != 4*width*height {
		return nil, fmt.Errorf("%w: %v bytes, expected 4*%v*%v",
			ErrDataSize, len(data), width, height)
	}

	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = Cell(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return cells, nil
}

// Decompress inflates a tile data payload.
func Decompress(data []byte, compression Compression) ([]byte, error) {
	var reader io.Reader
	switch compression {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
		}
		defer r.Close()
		reader = r
	case CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
		}
		defer r.Close()
		reader = r
	case CompressionZstd:
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
		}
		defer r.Close()
		reader = r
	default:
		return nil, fmt.Errorf("%w (%v)", ErrBadCompression, compression)
	}

	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	return result, nil
}

package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrTooLong = errors.New("rle: decoded length exceeds limit")

// EncodeRLE packs cell codes as base64 over (code, run) uvarint pairs.
func EncodeRLE(codes []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	put := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:n])
	}

	for i := 0; i < len(codes); {
		c := codes[i]
		j := i + 1
		for j < len(codes) && codes[j] == c {
			j++
		}
		put(uint64(c))
		put(uint64(j - i))
		i = j
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. limit caps the decoded length; zero means
// no cap.
func DecodeRLE(b64 string, limit int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		c, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("rle: bad code varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("rle: bad run varint at %d", i)
		}
		i += n
		if c > 0xFFFF {
			return nil, fmt.Errorf("rle: code too large: %d", c)
		}
		if run == 0 {
			return nil, fmt.Errorf("rle: empty run at %d", i)
		}
		if limit > 0 && uint64(len(out))+run > uint64(limit) {
			return nil, ErrTooLong
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(c))
		}
	}
	return out, nil
}

// EncodeRows splits a row-major code slice into one RLE string per row.
func EncodeRows(codes []uint16, width int) []string {
	if width <= 0 {
		return nil
	}
	rows := make([]string, 0, len(codes)/width)
	for y := 0; y+width <= len(codes); y += width {
		rows = append(rows, EncodeRLE(codes[y:y+width]))
	}
	return rows
}

// DecodeRows decodes rows produced by EncodeRows, requiring each to be
// exactly width cells.
func DecodeRows(rows []string, width int) ([]uint16, error) {
	out := make([]uint16, 0, len(rows)*width)
	for y, r := range rows {
		codes, err := DecodeRLE(r, width)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", y, err)
		}
		if len(codes) != width {
			return nil, fmt.Errorf("row %d: got %d cells want %d", y, len(codes), width)
		}
		out = append(out, codes...)
	}
	return out, nil
}

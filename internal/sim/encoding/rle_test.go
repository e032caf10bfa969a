package encoding

import (
	"errors"
	"testing"
)

func TestRLE_RoundTrip(t *testing.T) {
	in := []uint16{0, 0, 0, 2, 2, 4}
	for i := 0; i < 50; i++ {
		in = append(in, 1)
	}
	in = append(in, 3, 0, 0, 0)

	out, err := DecodeRLE(EncodeRLE(in), 0)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestRLE_Limit(t *testing.T) {
	enc := EncodeRLE(make([]uint16, 100))
	if _, err := DecodeRLE(enc, 10); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
	if _, err := DecodeRLE("not base64!", 0); err == nil {
		t.Fatalf("expected base64 error")
	}
}

func TestRows_RoundTrip(t *testing.T) {
	codes := []uint16{
		0, 0, 2, 4,
		3, 3, 3, 3,
		1, 0, 0, 0,
	}
	rows := EncodeRows(codes, 4)
	if len(rows) != 3 {
		t.Fatalf("rows=%d want 3", len(rows))
	}
	out, err := DecodeRows(rows, 4)
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	for i := range codes {
		if out[i] != codes[i] {
			t.Fatalf("mismatch at %d", i)
		}
	}
	if _, err := DecodeRows(rows, 5); err == nil {
		t.Fatalf("expected width mismatch")
	}
}

package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeHexRejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"odd length", "abc", -1},
		{"non-hex char", "zz", -1},
		{"uppercase", "AB", -1},
		{"whitespace", "ab cd", -1},
		{"wrong width", "abcd", 12},
	}
	for _, c := range cases {
		if _, err := DecodeHex("field", c.in, c.want); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("%s: got %v, want ErrInvalidFormat", c.name, err)
		}
	}
}

func TestDecodeHexRoundTrip(t *testing.T) {
	in := []byte{0x00, 0x0f, 0xab, 0xff}
	s := EncodeHex(in)
	if s != "000fabff" {
		t.Fatalf("encode: got %s", s)
	}
	out, err := DecodeHex("field", s, 4)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Fatal("round trip mismatch")
	}
}

func TestDecodeHexEmpty(t *testing.T) {
	out, err := DecodeHex("field", "", 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty, got %d bytes", len(out))
	}
	if _, err := DecodeHex("field", "", 12); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("got %v, want ErrInvalidFormat", err)
	}
}

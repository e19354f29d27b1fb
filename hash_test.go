package eoltrim

import (
	"errors"
	"testing"
)

func TestDecodeHashHex(t *testing.T) {
	const full = "99e2f85843878671b028d4d01bd4668676226dd1"

	h, err := DecodeHashHex(full)
	if err != nil {
		t.Fatalf("DecodeHashHex(%s): %v", full, err)
	}
	if h.String() != full {
		t.Errorf("DecodeHashHex(%s) = %s", full, h)
	}

	if _, err := DecodeHashHex("99e2f8"); !errors.Is(err, ErrHexStringTooShort) {
		t.Errorf("short input: got %v, want ErrHexStringTooShort", err)
	}

	if _, err := DecodeHashHex("HEAD"); err == nil {
		t.Error("non-hex input: want error, got nil")
	}
}

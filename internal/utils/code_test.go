package utils

import "testing"

func TestRandomCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := RandomCode(6)
		if err != nil {
			t.Fatalf("RandomCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit %q in code %q", r, code)
			}
		}
	}
}

func TestRandomCodeLengths(t *testing.T) {
	for _, n := range []int{1, 4, 8} {
		code, err := RandomCode(n)
		if err != nil {
			t.Fatalf("RandomCode(%d): %v", n, err)
		}
		if len(code) != n {
			t.Fatalf("RandomCode(%d) returned %q", n, code)
		}
	}
}

package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+263 77 123 4567", "263771234567"},
		{"077-123-4567", "0771234567"},
		{"(077) 1234567", "0771234567"},
		{"12345", ""},
		{"abc", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeNationalID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"63-123456-a-42", "63123456A42"},
		{"ab 12 cd", "AB12CD"},
		{"---", ""},
	}
	for _, c := range cases {
		if got := NormalizeNationalID(c.in); got != c.want {
			t.Errorf("NormalizeNationalID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

package customer

import (
	"errors"
	"testing"

	xerrors "loyalty-service/internal/pkg/errors"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+6281234567890", "+6281234567890", false},
		{"+62 811-1111-1111", "+6281111111111", false},
		{" (021) 555-1234 ", "0215551234", false},
		{"", "", true},
		{"12345", "", true},
		{"+62 81a", "", true},
		{"62+811111111", "", true},
	}
	for _, tc := range tests {
		got, err := NormalizePhone(tc.in)
		if tc.wantErr {
			if !errors.Is(err, xerrors.ErrInvalidInput) {
				t.Errorf("%q: expected validation error, got %q %v", tc.in, got, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%q: got %q %v, want %q", tc.in, got, err, tc.want)
		}
	}
}

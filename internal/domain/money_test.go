package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		bad  bool
	}{
		{in: "19.99", want: 1999},
		{in: "5", want: 500},
		{in: "0.5", want: 50},
		{in: "-2.25", want: -225},
		{in: "0.001", bad: true},
		{in: "1.005", bad: true},
	}
	for _, tc := range cases {
		got, err := Cents(decimal.RequireFromString(tc.in))
		if tc.bad {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("Cents(%s): expected invalid argument, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("Cents(%s) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

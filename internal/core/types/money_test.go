package types

import (
	"testing"
)

func TestRoundMoney_HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"}, // half away from zero
		{"0", "0.00"},
		{"99.999", "100.00"},
	}

	for _, tt := range tests {
		got := RoundMoney(MustMoney(tt.in)).StringFixed(2)
		if got != tt.want {
			t.Errorf("RoundMoney(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewMoneyFromString_Invalid(t *testing.T) {
	if _, err := NewMoneyFromString("abc"); err == nil {
		t.Error("expected error for non-numeric input")
	}
}

package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidPrice(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"250000", true},
		{"99.95", true},
		{"1e6", true},
		{"9999999999.99", true},
		{"10000000000", false},
		{"-1", false},
		{"1e13", false},
		{"1e1000000", false},
		{"1e-1000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPrice(decimal.RequireFromString(tt.in)))
		})
	}
}

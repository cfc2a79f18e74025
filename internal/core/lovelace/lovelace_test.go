package lovelace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromADA(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"1", PerADA, false},
		{"1.5", 1_500_000, false},
		{"3.607615", 3_607_615, false},
		{"0.0000001", 0, true},
		{"ada", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FromADA(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := New(2_000_000)
	assert.Equal(t, New(3_000_000), a.Add(PerADA))
	assert.Equal(t, PerADA, a.Sub(PerADA))
	assert.True(t, a.IsPositive())
	assert.True(t, a.Sub(a).IsZero())
	assert.Equal(t, "2", a.ADA().String())
	assert.Equal(t, "2000000", a.String())
}

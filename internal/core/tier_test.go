package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiersOrdered(t *testing.T) {
	tiers := Tiers()
	require.Len(t, tiers, 4)
	for i := 1; i < len(tiers); i++ {
		assert.Less(t, tiers[i-1], tiers[i])
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"first", TierFirst, false},
		{"Second", TierSecond, false},
		{" THIRD ", TierThird, false},
		{"4", TierFourth, false},
		{"fifth", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTierValid(t *testing.T) {
	assert.True(t, TierFirst.Valid())
	assert.False(t, Tier(0).Valid())
	assert.False(t, Tier(9).Valid())
	assert.Equal(t, "tier(9)", Tier(9).String())
	assert.Equal(t, "third", TierThird.String())
}

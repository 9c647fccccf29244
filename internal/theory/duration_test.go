package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationCode(t *testing.T) {
	tests := []struct {
		code     string
		quarters float64
		wantErr  bool
	}{
		{code: "w", quarters: 4},
		{code: "h", quarters: 2},
		{code: "q", quarters: 1},
		{code: "e", quarters: 0.5},
		{code: "s", quarters: 0.25},
		{code: "qd", quarters: 1.5},
		{code: "hd", quarters: 3},
		{code: "hdd", quarters: 3.5},
		{code: "", wantErr: true},
		{code: "x", wantErr: true},
		{code: "qx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			d, err := ParseDurationCode(tt.code)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.quarters, d.Quarters())
		})
	}
}

func TestDurationCodeRoundTrips(t *testing.T) {
	for _, code := range []string{"w", "h", "q", "e", "s", "qd", "ed", "hdd"} {
		d, err := ParseDurationCode(code)
		require.NoError(t, err)
		assert.Equal(t, code, d.Code())
	}
}

func TestDurationArithmeticIsExact(t *testing.T) {
	// Three triplet eighths sum to exactly one quarter.
	triplet := NewDuration(1, 3)
	sum := triplet.Add(triplet).Add(triplet)
	assert.Equal(t, 0, sum.Cmp(Quarter))

	// 0.1-style float drift cannot happen with rationals.
	tenth := NewDuration(1, 10)
	total := Duration{}
	for i := 0; i < 10; i++ {
		total = total.Add(tenth)
	}
	assert.Equal(t, 0, total.Cmp(Quarter))
}

func TestDurationSubAndCmp(t *testing.T) {
	assert.Equal(t, 0, Whole.Sub(Half).Cmp(Half))
	assert.Equal(t, -1, Eighth.Cmp(Quarter))
	assert.Equal(t, 1, Half.Cmp(Eighth))
	assert.True(t, Quarter.Sub(Quarter).IsZero())
}

func TestDurationReduction(t *testing.T) {
	assert.Equal(t, 0, NewDuration(2, 4).Cmp(NewDuration(1, 2)))
	assert.Equal(t, "e", NewDuration(2, 4).Code())
	assert.Equal(t, "5/3", NewDuration(5, 3).Code())
}

package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorAddress(t *testing.T) {
	assert.Equal(t, uint16(0x29), SelectorDefault.Address())
	assert.Equal(t, uint16(0x41), Selector1.Address())
	assert.Equal(t, uint16(0x42), Selector2.Address())
	assert.Equal(t, "tof2", Selector2.String())
}

func TestRangeStatusString(t *testing.T) {
	cases := map[RangeStatus]string{
		0:  "ok",
		1:  "system error",
		3:  "system error",
		5:  "system error",
		6:  "early convergence estimate failed",
		7:  "no target",
		8:  "ignore threshold failed",
		9:  "status(9)",
		11: "ambient too high",
		12: "raw underflow",
		13: "raw overflow",
		14: "range underflow",
		15: "range overflow",
	}
	for st, want := range cases {
		assert.Equal(t, want, st.String(), "status %d", st)
	}
}

func TestGainFactor(t *testing.T) {
	assert.Equal(t, 1.0, Gain1.Factor())
	assert.Equal(t, 1.67, Gain1_67.Factor())
	assert.Equal(t, 20.0, Gain20.Factor())
	assert.Equal(t, 40.0, Gain40.Factor())
}

func TestSample(t *testing.T) {
	f := NewFakeRanger(120, StatusOK, 350.5)
	r, err := Sample(f, Selector1, Gain1)
	require.NoError(t, err)
	assert.Equal(t, Reading{Selector: Selector1, RangeMM: 120, Status: StatusOK, Lux: 350.5}, r)
}

func TestSampleError(t *testing.T) {
	f := NewFakeRanger(0, StatusOK, 0)
	f.ReadError = errors.New("bus stuck")
	_, err := Sample(f, SelectorDefault, Gain1)
	assert.ErrorContains(t, err, "read range default: bus stuck")
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uint8ptr(v uint8) *uint8 { return &v }

func TestBlackAndWhite_RoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		threshold *uint8
	}{
		{"null", nil},
		{"zero", uint8ptr(0)},
		{"max", uint8ptr(255)},
		{"arbitrary", uint8ptr(128)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Parameters{Threshold: tc.threshold}
			serialized := SerializeBlackAndWhite(in)

			out, err := ParseBlackAndWhite(string(serialized))
			require.NoError(t, err)

			if tc.threshold == nil {
				assert.Nil(t, out.Threshold)
			} else {
				require.NotNil(t, out.Threshold)
				assert.Equal(t, *tc.threshold, *out.Threshold)
			}
		})
	}
}

func TestParseBlackAndWhite_RejectsOutOfRange(t *testing.T) {
	_, err := ParseBlackAndWhite("threshold: 256\n")
	assert.Error(t, err)
}

func TestParseBlackAndWhite_RejectsNonNumeric(t *testing.T) {
	_, err := ParseBlackAndWhite("threshold: not-a-number\n")
	assert.Error(t, err)
}

func TestParseBlackAndWhite_Null(t *testing.T) {
	p, err := ParseBlackAndWhite("threshold: null\n")
	require.NoError(t, err)
	assert.Nil(t, p.Threshold)
}

func TestCell_GetReflectsLastSet(t *testing.T) {
	c := NewCell(Parameters{})
	assert.Nil(t, c.Get().Threshold)

	c.Set(Parameters{Threshold: uint8ptr(10)})
	got := c.Get()
	require.NotNil(t, got.Threshold)
	assert.Equal(t, uint8(10), *got.Threshold)
}

func TestParameters_KeyDistinguishesAutoFromExplicit(t *testing.T) {
	assert.Equal(t, "auto", Parameters{}.Key())
	assert.NotEqual(t, Parameters{}.Key(), Parameters{Threshold: uint8ptr(0)}.Key())
	assert.NotEqual(t, Parameters{Threshold: uint8ptr(1)}.Key(), Parameters{Threshold: uint8ptr(2)}.Key())
}

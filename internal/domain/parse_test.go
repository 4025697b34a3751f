package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawReading(t *testing.T) {
	t.Run("complete reading", func(t *testing.T) {
		in := ParseRawReading(RawReading{
			PH:        "7.2",
			Turbidity: "0.8",
			RFC:       "0.3",
			TDS:       "145.5",
			Lat:       "52.5200",
			Lon:       "13.4050",
		})

		require.NotNil(t, in.PH)
		assert.Equal(t, 7.2, *in.PH)
		require.NotNil(t, in.Turbidity)
		assert.Equal(t, 0.8, *in.Turbidity)
		require.NotNil(t, in.RFC)
		assert.Equal(t, 0.3, *in.RFC)
		require.NotNil(t, in.TDS)
		assert.Equal(t, 145.5, *in.TDS)
		require.NotNil(t, in.Lat)
		assert.Equal(t, 52.52, *in.Lat)
		require.NotNil(t, in.Lon)
		assert.Equal(t, 13.405, *in.Lon)
	})

	t.Run("malformed fields degrade to absent", func(t *testing.T) {
		in := ParseRawReading(RawReading{
			PH:        "not-a-number",
			Turbidity: "",
			RFC:       "0.3",
			TDS:       "12,5",
		})

		assert.Nil(t, in.PH)
		assert.Nil(t, in.Turbidity)
		require.NotNil(t, in.RFC)
		assert.Equal(t, 0.3, *in.RFC)
		assert.Nil(t, in.TDS)
	})

	t.Run("whitespace is trimmed", func(t *testing.T) {
		in := ParseRawReading(RawReading{PH: "  6.9 "})

		require.NotNil(t, in.PH)
		assert.Equal(t, 6.9, *in.PH)
	})

	t.Run("NaN and infinity are absent", func(t *testing.T) {
		in := ParseRawReading(RawReading{PH: "NaN", Turbidity: "+Inf", RFC: "-Inf"})

		assert.Nil(t, in.PH)
		assert.Nil(t, in.Turbidity)
		assert.Nil(t, in.RFC)
	})

	t.Run("empty reading", func(t *testing.T) {
		in := ParseRawReading(RawReading{})

		assert.Equal(t, ReadingInput{}, in)
	})
}

func TestThresholds(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		d := DefaultThresholds()

		assert.Equal(t, 6.5, d[ThresholdPHLow])
		assert.Equal(t, 8.5, d[ThresholdPHHigh])
		assert.Equal(t, 1.0, d[ThresholdTurbidityHigh])
		assert.Equal(t, 0.2, d[ThresholdRFCLow])
	})

	t.Run("validate accepts ordered pH band", func(t *testing.T) {
		require.NoError(t, DefaultThresholds().Validate())
	})

	t.Run("validate rejects inverted pH band", func(t *testing.T) {
		bad := DefaultThresholds().Merge(Thresholds{ThresholdPHLow: 9.0})
		err := bad.Validate()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("validate rejects equal bounds", func(t *testing.T) {
		bad := Thresholds{ThresholdPHLow: 7.0, ThresholdPHHigh: 7.0}
		assert.ErrorIs(t, bad.Validate(), ErrInvalidThreshold)
	})

	t.Run("merge overlays without mutating", func(t *testing.T) {
		base := DefaultThresholds()
		merged := base.Merge(Thresholds{ThresholdRFCLow: 0.5, "tds_high": 500})

		assert.Equal(t, 0.5, merged[ThresholdRFCLow])
		assert.Equal(t, 500.0, merged["tds_high"])
		assert.Equal(t, 6.5, merged[ThresholdPHLow])
		assert.Equal(t, 0.2, base[ThresholdRFCLow], "base must be untouched")
	})
}

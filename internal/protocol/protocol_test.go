package protocol

import (
	"testing"

	"dt_fancontrol/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCommand(t *testing.T) {
	p := models.CurveParameters{Floor: 18, Ceiling: 100, Slope: -0.40, Attack: 6.0}
	assert.Equal(t, "x18 100 -40 600\n", EncodeCommand(p))

	p = models.CurveParameters{Floor: 1, Ceiling: 89, Slope: -0.43, Attack: 5.71}
	assert.Equal(t, "x1 89 -43 571\n", EncodeCommand(p))
}

func TestCommandRoundTrip_Truncates(t *testing.T) {
	tests := []struct {
		name string
		in   models.CurveParameters
		want models.CurveParameters
	}{
		{
			name: "exact hundredths",
			in:   models.CurveParameters{Floor: 18, Ceiling: 100, Slope: -0.40, Attack: 6.0},
			want: models.CurveParameters{Floor: 18, Ceiling: 100, Slope: -0.40, Attack: 6.0},
		},
		{
			name: "sub-hundredth digits are dropped",
			in:   models.CurveParameters{Floor: 5, Ceiling: 70, Slope: -0.4567, Attack: 3.339},
			want: models.CurveParameters{Floor: 5, Ceiling: 70, Slope: -0.45, Attack: 3.33},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand(EncodeCommand(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want.Floor, got.Floor)
			assert.Equal(t, tt.want.Ceiling, got.Ceiling)
			assert.InDelta(t, tt.want.Slope, got.Slope, 1e-12)
			assert.InDelta(t, tt.want.Attack, got.Attack, 1e-12)
		})
	}
}

func TestDecodeCommand_Errors(t *testing.T) {
	for _, line := range []string{"", "\n", "18 100 -40 600\n", "x18 100 -40\n", "x18 100 abc 600\n", "x18 100 -40 600 1\n"} {
		_, err := DecodeCommand(line)
		assert.ErrorIsf(t, err, ErrMalformed, "line %q", line)
	}
}

func TestParseTelemetry(t *testing.T) {
	s, err := ParseTelemetry("31.5;22.0;0;47\n")
	require.NoError(t, err)

	assert.Equal(t, 31.5, s.WaterTemp)
	assert.Equal(t, 22.0, s.AmbientTemp)
	assert.Equal(t, 47.0, s.FanDuty)
	assert.Equal(t, "0", s.Reserved)
	assert.Equal(t, 9.5, s.DeltaT())
}

func TestParseTelemetry_CRLFAndExtraFields(t *testing.T) {
	s, err := ParseTelemetry("30.25;21.75;x;55;extra;\r\n")
	require.NoError(t, err)

	assert.Equal(t, 30.25, s.WaterTemp)
	assert.Equal(t, 21.75, s.AmbientTemp)
	assert.Equal(t, 55.0, s.FanDuty)
	assert.Equal(t, 8.5, s.DeltaT())
}

func TestParseTelemetry_Malformed(t *testing.T) {
	for _, line := range []string{
		"", "\r\n", "31.5;22.0;0\n", "abc;22.0;0;47\n", "31.5;;0;47\n", "31.5;22.0;0;fast\n",
		"nan;22.0;0;47\n", "31.5;inf;0;47\n", "31.5;22.0;0;NaN\n", "-Infinity;22;0;47\n", "31.5;22.0;+Inf;47\n",
	} {
		_, err := ParseTelemetry(line)
		assert.ErrorIsf(t, err, ErrMalformed, "line %q", line)
	}
}

func TestEncodeTelemetry_ParsesBack(t *testing.T) {
	in := models.TelemetrySample{WaterTemp: 31.5, AmbientTemp: 22, FanDuty: 47}

	line := EncodeTelemetry(in)
	assert.Equal(t, "31.50;22.00;0;47\n", line)

	out, err := ParseTelemetry(line)
	require.NoError(t, err)
	assert.Equal(t, in.WaterTemp, out.WaterTemp)
	assert.Equal(t, in.AmbientTemp, out.AmbientTemp)
	assert.Equal(t, in.FanDuty, out.FanDuty)
}

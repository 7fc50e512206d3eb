// Package protocol encodes curve commands for the fan controller and parses
// the telemetry lines it reports back.
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"dt_fancontrol/internal/models"
)

const (
	commandPrefix  = 'x'
	fieldSeparator = ";"
	minFields      = 4

	fieldWater   = 0
	fieldAmbient = 1
	fieldReserve = 2
	fieldDuty    = 3
)

// ErrMalformed is wrapped by every decode/parse failure.
var ErrMalformed = errors.New("malformed line")

// EncodeCommand renders p as one command line, terminator included.
// Slope and attack travel as hundredths truncated toward zero.
func EncodeCommand(p models.CurveParameters) string {
	return fmt.Sprintf("%c%d %d %d %d\n",
		commandPrefix,
		p.Floor,
		p.Ceiling,
		int(p.Slope*100),
		int(p.Attack*100),
	)
}

// DecodeCommand is the inverse of EncodeCommand, up to the truncation.
func DecodeCommand(line string) (models.CurveParameters, error) {
	line = TrimTerminator(line)
	if len(line) == 0 || line[0] != commandPrefix {
		return models.CurveParameters{}, fmt.Errorf("%w: command must start with %q", ErrMalformed, commandPrefix)
	}
	fields := strings.Fields(line[1:])
	if len(fields) != 4 {
		return models.CurveParameters{}, fmt.Errorf("%w: command has %d fields, want 4", ErrMalformed, len(fields))
	}

	var ints [4]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return models.CurveParameters{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, i, err)
		}
		ints[i] = v
	}
	return models.CurveParameters{
		Floor:   ints[0],
		Ceiling: ints[1],
		Slope:   float64(ints[2]) / 100,
		Attack:  float64(ints[3]) / 100,
	}, nil
}

// ParseTelemetry reads "<water>;<ambient>;<unused>;<duty>". Extra fields are ignored.
func ParseTelemetry(line string) (models.TelemetrySample, error) {
	fields := strings.Split(TrimTerminator(line), fieldSeparator)
	if len(fields) < minFields {
		return models.TelemetrySample{}, fmt.Errorf("%w: %d fields, want at least %d", ErrMalformed, len(fields), minFields)
	}

	water, err := parseField(fields, fieldWater, "water")
	if err != nil {
		return models.TelemetrySample{}, err
	}
	ambient, err := parseField(fields, fieldAmbient, "ambient")
	if err != nil {
		return models.TelemetrySample{}, err
	}
	duty, err := parseField(fields, fieldDuty, "duty")
	if err != nil {
		return models.TelemetrySample{}, err
	}

	return models.TelemetrySample{
		WaterTemp:   water,
		AmbientTemp: ambient,
		Reserved:    fields[fieldReserve],
		FanDuty:     duty,
	}, nil
}

// EncodeTelemetry renders a sample the way the controller firmware prints it.
func EncodeTelemetry(s models.TelemetrySample) string {
	reserved := s.Reserved
	if reserved == "" {
		reserved = "0"
	}
	return strconv.FormatFloat(s.WaterTemp, 'f', 2, 64) + fieldSeparator +
		strconv.FormatFloat(s.AmbientTemp, 'f', 2, 64) + fieldSeparator +
		reserved + fieldSeparator +
		strconv.FormatFloat(s.FanDuty, 'f', 0, 64) + "\n"
}

// TrimTerminator strips a trailing "\n" or "\r\n".
func TrimTerminator(line string) string {
	return strings.TrimRight(line, "\r\n")
}

func parseField(fields []string, idx int, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s field %q", ErrMalformed, name, fields[idx])
	}
	return v, nil
}

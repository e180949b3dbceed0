package sensor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aerolab/winddaq/internal/model"
)

// sampleLine is the firmware's wire format: one JSON object per line.
type sampleLine struct {
	RPM  float64 `json:"rpm"`
	Lift float64 `json:"lift"`
}

// ParseSample decodes one raw line into a RawSample.
//
// Returns ErrNoData for empty or whitespace-only lines, and an error
// wrapping ErrDecode for malformed JSON (with an invalid sample so the
// caller can tell "no data this tick" from "garbage this tick").
// Missing fields default to 0; a negative rpm is clamped to 0.
func ParseSample(line string) (model.RawSample, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.RawSample{}, ErrNoData
	}

	var raw sampleLine
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return model.RawSample{Valid: false}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if raw.RPM < 0 {
		raw.RPM = 0
	}

	return model.RawSample{
		RotationSpeed: raw.RPM,
		LiftForce:     raw.Lift,
		Valid:         true,
	}, nil
}

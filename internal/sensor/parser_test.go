package sensor

import (
	"errors"
	"testing"
)

func TestParseSample_Valid(t *testing.T) {
	sample, err := ParseSample(`{"rpm": 1500.0, "lift": 2.5}`)
	if err != nil {
		t.Fatalf("ParseSample failed: %v", err)
	}
	if !sample.Valid {
		t.Error("Valid = false, want true")
	}
	if sample.RotationSpeed != 1500.0 {
		t.Errorf("RotationSpeed = %v, want 1500.0", sample.RotationSpeed)
	}
	if sample.LiftForce != 2.5 {
		t.Errorf("LiftForce = %v, want 2.5", sample.LiftForce)
	}
}

func TestParseSample_MissingFieldsDefaultToZero(t *testing.T) {
	sample, err := ParseSample(`{"rpm": 800}`)
	if err != nil {
		t.Fatalf("ParseSample failed: %v", err)
	}
	if sample.RotationSpeed != 800 {
		t.Errorf("RotationSpeed = %v, want 800", sample.RotationSpeed)
	}
	if sample.LiftForce != 0 {
		t.Errorf("LiftForce = %v, want 0", sample.LiftForce)
	}

	sample, err = ParseSample(`{}`)
	if err != nil {
		t.Fatalf("ParseSample failed: %v", err)
	}
	if sample.RotationSpeed != 0 || sample.LiftForce != 0 {
		t.Errorf("empty object = %+v, want zero fields", sample)
	}
	if !sample.Valid {
		t.Error("empty object should still be a valid sample")
	}
}

func TestParseSample_NegativeRPMClamped(t *testing.T) {
	sample, err := ParseSample(`{"rpm": -42.0, "lift": -1.5}`)
	if err != nil {
		t.Fatalf("ParseSample failed: %v", err)
	}
	if sample.RotationSpeed != 0 {
		t.Errorf("RotationSpeed = %v, want 0 (clamped)", sample.RotationSpeed)
	}
	// Lift force may legitimately be negative.
	if sample.LiftForce != -1.5 {
		t.Errorf("LiftForce = %v, want -1.5", sample.LiftForce)
	}
}

func TestParseSample_MalformedLine(t *testing.T) {
	for _, line := range []string{
		"garbage",
		`{"rpm": }`,
		`{"rpm": "fast"}`,
		"1500,2.5",
	} {
		sample, err := ParseSample(line)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("ParseSample(%q) err = %v, want ErrDecode", line, err)
		}
		if sample.Valid {
			t.Errorf("ParseSample(%q) returned a valid sample", line)
		}
	}
}

func TestParseSample_EmptyLineIsNoData(t *testing.T) {
	for _, line := range []string{"", "   ", "\t"} {
		_, err := ParseSample(line)
		if !errors.Is(err, ErrNoData) {
			t.Errorf("ParseSample(%q) err = %v, want ErrNoData", line, err)
		}
	}
}

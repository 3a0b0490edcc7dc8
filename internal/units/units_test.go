package units

import (
	"math"
	"testing"
)

func TestRoundTrips(t *testing.T) {
	if got := DegToArcsec(ArcsecToDeg(5)); math.Abs(got-5) > 1e-12 {
		t.Errorf("arcsec round trip = %v", got)
	}
	if got := RadToDeg(DegToRad(93.4917)); math.Abs(got-93.4917) > 1e-12 {
		t.Errorf("radian round trip = %v", got)
	}
}

func TestNormalizeRA(t *testing.T) {
	tests := map[float64]float64{
		0:     0,
		360:   0,
		-10:   350,
		725.5: 5.5,
	}
	for in, want := range tests {
		if got := NormalizeRA(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("NormalizeRA(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatSexagesimal(t *testing.T) {
	if got := FormatRA(84.375); got != "05h37m30.00s" {
		t.Errorf("FormatRA(84.375) = %q", got)
	}
	if got := FormatRA(90.0); got != "06h00m00.00s" {
		t.Errorf("FormatRA(90) = %q", got)
	}
	if got := FormatDec(-32.0); got != "-32d00m00.0s" {
		t.Errorf("FormatDec(-32) = %q", got)
	}
	if got := FormatDec(-29.8583); got != "-29d51m29.9s" {
		t.Errorf("FormatDec(-29.8583) = %q", got)
	}
	if got := FormatDec(0.5); got != "+00d30m00.0s" {
		t.Errorf("FormatDec(0.5) = %q", got)
	}
}

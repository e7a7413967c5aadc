package extract

import (
	"math"

	"personal-info-parser/internal/model"
)

const (
	// ConfidenceFloor is the lowest score of any non-failed extraction.
	ConfidenceFloor = 0.1
	// ConfidenceCeiling caps the score; a complete record is still not a certainty.
	ConfidenceCeiling = 0.95
	// ConfidenceFailed is reported only when the provider call itself failed.
	ConfidenceFailed = 0.0
)

// Score computes clamp(filled/total, floor, ceiling) over the requested field set,
// rounded to two decimals. It ignores any confidence the model claims for itself.
func Score(info model.PersonalInfo, fields []string) float64 {
	if len(fields) == 0 {
		return ConfidenceFloor
	}
	ratio := float64(info.Filled(fields)) / float64(len(fields))
	ratio = math.Round(ratio*100) / 100
	return math.Min(ConfidenceCeiling, math.Max(ConfidenceFloor, ratio))
}

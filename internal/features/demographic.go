package features

import (
	"github.com/studypulse/studypulse-backend/internal/domain/academic"
)

// Ordinal encodings fixed by the training data. Unknown values take the
// encoding's most common bucket instead of erroring.
var ageBandEncoding = map[string]float64{
	"0-35":  0,
	"35-55": 1,
	"55+":   2,
}

var educationEncoding = map[string]float64{
	"No Formal quals":             0,
	"Lower Than A Level":          1,
	"A Level or Equivalent":       2,
	"HE Qualification":            3,
	"Post Graduate Qualification": 4,
}

const (
	defaultAgeBandEncoded   = 0 // 0-35, the most common band
	defaultEducationEncoded = 2 // A Level or Equivalent, the middle bucket
	defaultStudiedCredits   = 60
)

// DemographicFeatures encodes the demographic feature group. A nil profile
// yields the default encodings, so an enrollment with no profile row still
// produces a valid vector.
func DemographicFeatures(profile *academic.StudentProfile) map[string]float64 {
	if profile == nil {
		return map[string]float64{
			"age_band_encoded":          defaultAgeBandEncoded,
			"highest_education_encoded": defaultEducationEncoded,
			"num_of_prev_attempts":      0,
			"studied_credits":           defaultStudiedCredits,
			"has_disability":            0,
		}
	}

	ageBand, ok := ageBandEncoding[profile.AgeBand]
	if !ok {
		ageBand = defaultAgeBandEncoded
	}
	education, ok := educationEncoding[profile.HighestEducation]
	if !ok {
		education = defaultEducationEncoded
	}
	disability := 0.0
	if profile.HasDisability {
		disability = 1
	}

	return map[string]float64{
		"age_band_encoded":          ageBand,
		"highest_education_encoded": education,
		"num_of_prev_attempts":      float64(profile.NumPrevAttempts),
		"studied_credits":           float64(profile.StudiedCredits),
		"has_disability":            disability,
	}
}

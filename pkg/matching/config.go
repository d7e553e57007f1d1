package matching

import (
	"math"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/scoring"
	"github.com/pkg/errors"
)

// AttributeWeights weigh the descriptive fields of a report in the text dimension.
type AttributeWeights struct {
	Title       float64 `validate:"gte=0,lte=1"`
	Description float64 `validate:"gte=0,lte=1"`
	Color       float64 `validate:"gte=0,lte=1"`
	Marks       float64 `validate:"gte=0,lte=1"`
	Category    float64 `validate:"gte=0,lte=1"`
}

func DefaultAttributeWeights() AttributeWeights {
	return AttributeWeights{
		Title:       0.30,
		Description: 0.40,
		Color:       0.15,
		Marks:       0.10,
		Category:    0.05,
	}
}

func (w AttributeWeights) sum() float64 {
	return w.Title + w.Description + w.Color + w.Marks + w.Category
}

// Config tunes the finder. It is immutable once passed to NewFinder.
type Config struct {
	TextWeight     float64 `validate:"gte=0,lte=1"`
	ImageWeight    float64 `validate:"gte=0,lte=1"`
	LocationWeight float64 `validate:"gte=0,lte=1"`
	TimeWeight     float64 `validate:"gte=0,lte=1"`

	// MinThreshold is the lowest final score kept as a match.
	MinThreshold float64 `validate:"gte=0,lte=1"`
	// HighThreshold marks a match as high confidence.
	HighThreshold float64 `validate:"gtefield=MinThreshold,lte=1"`

	// CandidateLimit caps how many of the most recent candidates are scored.
	CandidateLimit int `validate:"gt=0"`
	// Workers bounds concurrent candidate scoring.
	Workers int `validate:"gt=0"`
	// MaxImagesPerSide bounds the images of each report sent to the image engine.
	MaxImagesPerSide int `validate:"gt=0"`

	Attributes AttributeWeights
}

func DefaultConfig() Config {
	return Config{
		TextWeight:       0.35,
		ImageWeight:      0.25,
		LocationWeight:   0.25,
		TimeWeight:       0.15,
		MinThreshold:     0.40,
		HighThreshold:    0.70,
		CandidateLimit:   50,
		Workers:          4,
		MaxImagesPerSide: 3,
		Attributes:       DefaultAttributeWeights(),
	}
}

// Validate checks ranges and that both weight sets sum to 1.
func (c Config) Validate() error {
	if err := models.ValidateStruct(c); err != nil {
		return err
	}

	if sum := c.TextWeight + c.ImageWeight + c.LocationWeight + c.TimeWeight; math.Abs(sum-1) > 1e-6 {
		return errors.Errorf("match weights must sum to 1, got %.4f", sum)
	}
	if sum := c.Attributes.sum(); math.Abs(sum-1) > 1e-6 {
		return errors.Errorf("attribute weights must sum to 1, got %.4f", sum)
	}
	return nil
}

// IsHighConfidence reports whether a final score clears the high threshold.
func (c Config) IsHighConfidence(finalScore float64) bool {
	return scoring.AtLeast(finalScore, c.HighThreshold)
}

package matching

import (
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/scoring"
	"github.com/Ramsey-B/fern/pkg/textsim"
)

// Attributes are the descriptive fields of a report.
type Attributes struct {
	Title       string
	Description string
	Color       string
	Marks       string
	Category    string
}

// AttributesOf extracts the descriptive fields of r.
func AttributesOf(r *models.Report) Attributes {
	return Attributes{
		Title:       r.Title,
		Description: r.Description,
		Color:       models.StringValue(r.Color),
		Marks:       models.StringValue(r.DistinguishingMarks),
		Category:    r.Category,
	}
}

// CompareAttributes fuses per-field text similarity with the default weights.
func CompareAttributes(a, b Attributes) float64 {
	return compareAttributes(textsim.New(), DefaultAttributeWeights(), a, b)
}

// Color and marks only contribute when both sides have them. Category is
// an exact comparison.
func compareAttributes(engine *textsim.Engine, w AttributeWeights, a, b Attributes) float64 {
	titleSim := engine.Similarity(a.Title, b.Title).Overall
	descSim := engine.Similarity(a.Description, b.Description).Overall

	var colorSim float64
	if a.Color != "" && b.Color != "" {
		colorSim = engine.Similarity(a.Color, b.Color).Overall
	}

	var marksSim float64
	if a.Marks != "" && b.Marks != "" {
		marksSim = engine.Similarity(a.Marks, b.Marks).Overall
	}

	var categorySim float64
	if a.Category == b.Category {
		categorySim = 1
	}

	total := titleSim*w.Title +
		descSim*w.Description +
		colorSim*w.Color +
		marksSim*w.Marks +
		categorySim*w.Category

	return scoring.Round2(scoring.Clamp01(total))
}

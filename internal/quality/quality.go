// Package quality classifies requirement content length against
// type-specific thresholds.
//
// Scores are advisory until the hard maximum: content at or past hard_max
// cannot enter review or approved status and must be decomposed.
package quality

import (
	"fmt"

	"github.com/tarka-io/raas/internal/types"
)

// Score classifies content length for a requirement type.
type Score string

const (
	ScoreOK          Score = "ok"
	ScoreNeedsReview Score = "needs_review"
	ScoreLowQuality  Score = "low_quality"
)

// Thresholds holds the per-type character limits.
type Thresholds struct {
	Target  int // authoring guideline
	Warning int // at or above: flagged for review
	HardMax int // at or above: blocks approval
}

var lengthThresholds = map[types.RequirementType]Thresholds{
	types.TypeEpic:        {Target: 3000, Warning: 5000, HardMax: 8000},
	types.TypeComponent:   {Target: 4000, Warning: 6000, HardMax: 10000},
	types.TypeFeature:     {Target: 5000, Warning: 7000, HardMax: 12000},
	types.TypeRequirement: {Target: 2000, Warning: 3000, HardMax: 5000},
}

// ThresholdsFor returns the length thresholds for a requirement type.
// Unknown types get the strictest set rather than a zero value that would
// score every length as low quality.
func ThresholdsFor(t types.RequirementType) Thresholds {
	if th, ok := lengthThresholds[t]; ok {
		return th
	}
	return lengthThresholds[types.TypeRequirement]
}

// Calculate scores content length for a requirement type.
func Calculate(contentLength int, t types.RequirementType) Score {
	th := ThresholdsFor(t)
	switch {
	case contentLength >= th.HardMax:
		return ScoreLowQuality
	case contentLength >= th.Warning:
		return ScoreNeedsReview
	default:
		return ScoreOK
	}
}

// AllowsApproval reports whether content length permits review/approved
// status. Only lengths strictly below the hard maximum qualify.
func AllowsApproval(contentLength int, t types.RequirementType) bool {
	return contentLength < ThresholdsFor(t).HardMax
}

// ApprovalBlockMessage returns a remediation message when content length
// blocks approval, or "" when the length is acceptable.
func ApprovalBlockMessage(contentLength int, t types.RequirementType) string {
	th := ThresholdsFor(t)
	if contentLength < th.HardMax {
		return ""
	}
	return fmt.Sprintf(
		"content length (%d characters) exceeds maximum allowed for %s (%d characters); "+
			"requirements exceeding the hard maximum cannot be approved and must be decomposed "+
			"into smaller, more focused items (target length: %d characters)",
		contentLength, t, th.HardMax, th.Target)
}

package engine

import (
	"strings"

	"rexline/internal/domain"
)

// Required content fields per tier. Requirements grow with the tier:
// each set implicitly includes every lower tier's set.
type requiredField struct {
	name  string
	empty func(domain.Report) bool
}

var tierRequirements = map[domain.Tier][]requiredField{
	domain.TierSignal: nil,
	domain.TierPracticeNote: {
		{"context", func(r domain.Report) bool { return strings.TrimSpace(r.Context) == "" }},
		{"means_deployed", func(r domain.Report) bool { return strings.TrimSpace(r.MeansDeployed) == "" }},
		{"lessons_learned", func(r domain.Report) bool { return strings.TrimSpace(r.LessonsLearned) == "" }},
	},
	domain.TierFullReview: {
		{"context", func(r domain.Report) bool { return strings.TrimSpace(r.Context) == "" }},
		{"means_deployed", func(r domain.Report) bool { return strings.TrimSpace(r.MeansDeployed) == "" }},
		{"lessons_learned", func(r domain.Report) bool { return strings.TrimSpace(r.LessonsLearned) == "" }},
		{"thematic_tags", func(r domain.Report) bool { return len(r.ThematicTags) == 0 }},
	},
}

// checkPromotion validates the tier edge and the target tier's field
// requirements. On success the report is unchanged; callers apply the tier
// write themselves.
func checkPromotion(rep domain.Report, target domain.Tier) error {
	current := rep.TierValue()
	if !target.Valid() || target != current+1 {
		return InvalidPromotionError{From: current, To: target}
	}
	var missing []string
	for _, f := range tierRequirements[target] {
		if f.empty(rep) {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return IncompleteFieldsError{Missing: missing}
	}
	return nil
}

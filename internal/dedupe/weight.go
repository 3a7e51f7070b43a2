package dedupe

import "github.com/cohen-center/survey-cli/internal/model"

// WeightFor maps a final duplicate status to its analysis weight.
// Unresolved duplicates are down-weighted rather than discarded so weighted
// analyses keep their information without double-counting; dropped records
// stay in the dataset at zero weight for audit.
func WeightFor(status model.DuplicateStatus) float64 {
	switch status {
	case model.StatusKeep:
		return 1.0
	case model.StatusDuplicate:
		return 0.5
	case model.StatusDrop:
		return 0.0
	default:
		return 0.0
	}
}

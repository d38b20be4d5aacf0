// Package selector computes rule-based dynamic vocabulary lists from a
// learner's progress records.
package selector

import (
	"time"

	"github.com/example/wordmastery/pkg/models"
)

// Rules holds the thresholds used by the selection rules.
type Rules struct {
	// Items at or above this score are left out of daily review
	ReviewMasteryCeiling float64
	// Minimum attempts before an item can count as struggling
	StrugglingMinAttempts int
	// Items below this score with enough attempts are struggling
	StrugglingMasteryCeiling float64
}

// DefaultRules returns the standard thresholds.
func DefaultRules() Rules {
	return Rules{
		ReviewMasteryCeiling:     0.85,
		StrugglingMinAttempts:    5,
		StrugglingMasteryCeiling: 0.5,
	}
}

// Selector evaluates smart resource definitions.
type Selector struct {
	rules Rules
}

// New creates a Selector using rules.
func New(rules Rules) *Selector {
	return &Selector{rules: rules}
}

// Refresh recomputes the full membership of def. Only ids in allItemIDs can
// be members; progress for items missing from the catalog is ignored.
func (s *Selector) Refresh(def models.SmartResourceDefinition, allProgress []models.LearnerProgress, allItemIDs []int64, now time.Time) models.ItemSet {
	catalog := models.NewItemSet(allItemIDs...)
	byItem := make(map[int64]models.LearnerProgress, len(allProgress))
	for _, p := range allProgress {
		if def.LearnerID != 0 && p.LearnerID != def.LearnerID {
			continue
		}
		byItem[p.ItemID] = p
	}

	members := models.NewItemSet()
	switch def.Kind {
	case models.DailyReview:
		for id, p := range byItem {
			if catalog.Contains(id) && s.isDueForReview(p, now) {
				members.Add(id)
			}
		}
	case models.NewWords:
		for _, id := range allItemIDs {
			if p, ok := byItem[id]; !ok || p.TotalAttempts == 0 {
				members.Add(id)
			}
		}
	case models.Struggling:
		for id, p := range byItem {
			if catalog.Contains(id) && s.isStruggling(p) {
				members.Add(id)
			}
		}
	}
	return members
}

func (s *Selector) isDueForReview(p models.LearnerProgress, now time.Time) bool {
	return p.IsDue(now) && p.MasteryScore < s.rules.ReviewMasteryCeiling
}

func (s *Selector) isStruggling(p models.LearnerProgress) bool {
	return p.TotalAttempts >= s.rules.StrugglingMinAttempts && p.MasteryScore < s.rules.StrugglingMasteryCeiling
}

// RefreshAll refreshes every definition and returns copies with Members
// replaced and RefreshedAt set to now.
func (s *Selector) RefreshAll(defs []models.SmartResourceDefinition, allProgress []models.LearnerProgress, allItemIDs []int64, now time.Time) []models.SmartResourceDefinition {
	out := make([]models.SmartResourceDefinition, 0, len(defs))
	for _, def := range defs {
		refreshed := now
		def.Members = s.Refresh(def, allProgress, allItemIDs, now)
		def.RefreshedAt = &refreshed
		out = append(out, def)
	}
	return out
}

// MissingDefinitions returns the definitions to create for a learner. A
// learner with any existing definition gets none; otherwise one per rule.
func MissingDefinitions(learnerID int64, existing []models.SmartResourceDefinition) []models.SmartResourceDefinition {
	if len(existing) > 0 {
		return nil
	}
	defs := make([]models.SmartResourceDefinition, 0, len(models.SmartKinds))
	for _, kind := range models.SmartKinds {
		defs = append(defs, models.SmartResourceDefinition{
			LearnerID: learnerID,
			Kind:      kind,
			Name:      kind.Title(),
		})
	}
	return defs
}

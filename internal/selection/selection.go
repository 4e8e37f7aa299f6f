package selection

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/analytics"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
)

var (
	ErrUnknownBaseType = errors.New("unknown base type")
	ErrUnknownFVT      = errors.New("unknown fvt")
)

// Selection is an immutable copy of a session's filter choices.
type Selection struct {
	BaseType       string   `json:"base_type" yaml:"base_type"`
	FVTs           []string `json:"fvts" yaml:"fvts"`
	LimitsBaseType string   `json:"limits_base_type" yaml:"limits_base_type"`
	LimitsFVT      string   `json:"limits_fvt" yaml:"limits_fvt"`
}

// LimitsFilter returns the filter for the limits section.
func (s Selection) LimitsFilter() models.LimitsFilter {
	return models.LimitsFilter{BaseType: s.LimitsBaseType, FVT: s.LimitsFVT}
}

// Apply narrows records to the selected base type and FVTs. An empty FVT list
// does not filter.
func (s Selection) Apply(records []models.TestRecord) []models.TestRecord {
	fvts := make(map[string]bool, len(s.FVTs))
	for _, fvt := range s.FVTs {
		fvts[fvt] = true
	}

	subset := make([]models.TestRecord, 0)
	for i := range records {
		if records[i].BaseType != s.BaseType {
			continue
		}
		if len(fvts) > 0 && !fvts[records[i].FVT] {
			continue
		}
		subset = append(subset, records[i])
	}
	return subset
}

// State holds one session's selection together with the options it was
// built from. It is not safe for concurrent use.
type State struct {
	tests  []models.TestRecord
	limits []models.LimitsRecord

	baseType       string
	fvts           []string
	limitsBaseType string
	limitsFVT      string
}

// New builds the default selection: the first base type in sorted order with
// all of its FVTs, and the first limits base type / FVT pair.
func New(tests []models.TestRecord, limits []models.LimitsRecord) *State {
	s := &State{tests: tests, limits: limits}
	if baseTypes := analytics.DistinctBaseTypes(tests); len(baseTypes) > 0 {
		s.baseType = baseTypes[0]
		s.fvts = analytics.DistinctFVTs(tests, s.baseType)
	}
	s.resetLimits()
	return s
}

// Restore rebuilds a state from a previous selection, falling back to defaults
// for any choice that no longer exists in the data.
func Restore(tests []models.TestRecord, limits []models.LimitsRecord, previous Selection) *State {
	s := New(tests, limits)
	if previous.BaseType == "" {
		return s
	}
	if err := s.SelectBaseType(previous.BaseType); err != nil {
		return s
	}
	// stale FVTs leave every FVT of the base type selected
	_ = s.SelectFVTs(previous.FVTs)
	if err := s.SelectLimits(previous.LimitsBaseType, previous.LimitsFVT); err != nil {
		s.resetLimits()
	}
	return s
}

func (s *State) resetLimits() {
	s.limitsBaseType, s.limitsFVT = "", ""
	if baseTypes := analytics.DistinctLimitsBaseTypes(s.limits); len(baseTypes) > 0 {
		s.limitsBaseType = baseTypes[0]
		if fvts := analytics.DistinctLimitsFVTs(s.limits, s.limitsBaseType); len(fvts) > 0 {
			s.limitsFVT = fvts[0]
		}
	}
}

// SelectBaseType switches the product type and resets the FVT selection to
// every FVT observed under it.
func (s *State) SelectBaseType(baseType string) error {
	fvts := analytics.DistinctFVTs(s.tests, baseType)
	if len(fvts) == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownBaseType, baseType)
	}
	s.baseType = baseType
	s.fvts = fvts
	return nil
}

// SelectFVTs replaces the FVT selection. Values not observed under the current
// base type are dropped; an empty selection means all FVTs. A non-empty request
// in which no FVT is known is rejected and leaves the selection unchanged.
func (s *State) SelectFVTs(fvts []string) error {
	available := make(map[string]bool)
	for _, fvt := range analytics.DistinctFVTs(s.tests, s.baseType) {
		available[fvt] = true
	}

	selected := make([]string, 0, len(fvts))
	seen := make(map[string]bool, len(fvts))
	for _, fvt := range fvts {
		if available[fvt] && !seen[fvt] {
			selected = append(selected, fvt)
			seen[fvt] = true
		}
	}
	if len(fvts) > 0 && len(selected) == 0 {
		return fmt.Errorf("%w: %q under %q", ErrUnknownFVT, fvts, s.baseType)
	}
	s.fvts = selected
	return nil
}

// SelectLimits sets the base type / FVT pair of the limits section. An empty
// FVT selects every FVT of the base type.
func (s *State) SelectLimits(baseType, fvt string) error {
	fvts := analytics.DistinctLimitsFVTs(s.limits, baseType)
	if len(fvts) == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownBaseType, baseType)
	}
	if fvt != "" && !slices.Contains(fvts, fvt) {
		return fmt.Errorf("%w: %q under %q", ErrUnknownFVT, fvt, baseType)
	}
	s.limitsBaseType = baseType
	s.limitsFVT = fvt
	return nil
}

func (s *State) Snapshot() Selection {
	fvts := make([]string, len(s.fvts))
	copy(fvts, s.fvts)
	return Selection{
		BaseType:       s.baseType,
		FVTs:           fvts,
		LimitsBaseType: s.limitsBaseType,
		LimitsFVT:      s.limitsFVT,
	}
}

func (s *State) Apply(records []models.TestRecord) []models.TestRecord {
	return s.Snapshot().Apply(records)
}

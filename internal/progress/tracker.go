// Package progress holds the enrollment progress rules: module gating,
// completion percentage, quiz grading, practice approval and quote pricing.
// Nothing here touches storage.
package progress

import (
	"fmt"
	"math"
	"sort"

	"vmp-edtech-backend/internal/domain"
)

// SortModules returns a copy of modules ordered by Order.
func SortModules(modules []domain.Module) ([]domain.Module, error) {
	sorted := make([]domain.Module, len(modules))
	copy(sorted, modules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Order == sorted[i-1].Order {
			return nil, fmt.Errorf("%w: order %d", domain.ErrDuplicateOrder, sorted[i].Order)
		}
	}
	return sorted, nil
}

// ComputeModuleStatus derives the learner-facing status of every module.
//
// A module is COMPLETED when its id is in completed. Otherwise it is open
// (IN_PROGRESS when its id is in started, AVAILABLE if not) when it is the
// first module or the module right before it is COMPLETED, and LOCKED in
// every other case. Ids in completed or started that do not belong to the
// course are reported as ErrUnknownModule.
func ComputeModuleStatus(modules []domain.Module, completed, started []string) ([]domain.ModuleState, error) {
	sorted, err := SortModules(modules)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(sorted))
	for _, m := range sorted {
		known[m.ID] = struct{}{}
	}

	done, err := toSet(completed, known)
	if err != nil {
		return nil, err
	}
	opened, err := toSet(started, known)
	if err != nil {
		return nil, err
	}

	states := make([]domain.ModuleState, 0, len(sorted))
	for i, m := range sorted {
		st := domain.ModuleState{
			ModuleID: m.ID,
			Title:    m.Title,
			Kind:     m.Kind,
			Order:    m.Order,
		}

		switch {
		case has(done, m.ID):
			st.Status = domain.StatusCompleted
		case i == 0 || states[i-1].Status == domain.StatusCompleted:
			if has(opened, m.ID) {
				st.Status = domain.StatusInProgress
			} else {
				st.Status = domain.StatusAvailable
			}
		default:
			st.Status = domain.StatusLocked
		}
		states = append(states, st)
	}
	return states, nil
}

// StatusOf returns the state of one module out of a computed list.
func StatusOf(states []domain.ModuleState, moduleID string) (domain.ModuleState, bool) {
	for _, s := range states {
		if s.ModuleID == moduleID {
			return s, true
		}
	}
	return domain.ModuleState{}, false
}

// NextModule returns the first module the learner still has to finish.
func NextModule(states []domain.ModuleState) *domain.ModuleState {
	for i := range states {
		if states[i].Status != domain.StatusCompleted {
			next := states[i]
			return &next
		}
	}
	return nil
}

// Percentage is round(100 * completed / total), 0 for an empty course. Only
// a fully completed course reaches 100; anything short of it caps at 99.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	pct := int(math.Round(100 * float64(completed) / float64(total)))
	if pct >= 100 {
		return 99
	}
	return pct
}

// CompletedCount counts the COMPLETED states.
func CompletedCount(states []domain.ModuleState) int {
	n := 0
	for _, s := range states {
		if s.Status == domain.StatusCompleted {
			n++
		}
	}
	return n
}

func toSet(ids []string, known map[string]struct{}) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModule, id)
		}
		set[id] = struct{}{}
	}
	return set, nil
}

func has(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}

package engine

import "vrproute/pkg/apperror"

// infeasible builds the standard infeasibility error for the search driver.
// The message flows through to the webhook payload verbatim (spec §4.4 step
// 3), so it must already read well to a caller with no internal context.
func infeasible() error {
	return apperror.New(apperror.CodeInfeasible,
		"no feasible solution; time windows or capacity may be too tight")
}

// precheck applies cheap necessary conditions before the search driver spends
// its wall-clock budget: a required location with no vehicle permitted to
// visit it, or whose single-trip demand already exceeds every permitted
// vehicle's capacity, can never be served regardless of search effort. This
// is the "search driver... detects infeasibility" responsibility from the
// component table, run as a separate pass ahead of construct()'s placement;
// both report the same CodeInfeasible error and message.
func precheck(m *model) error {
	for i, loc := range m.locByIndex {
		if i == m.depot || loc.Optional() {
			continue
		}

		reachable := false
		for v := range m.vehicleByIndex {
			if !m.allowed(i, v) {
				continue
			}
			demand := loc.Pickup - loc.Delivery
			if demand < 0 {
				demand = -demand
			}
			if demand > m.vehicleByIndex[v].Capacity {
				continue
			}
			reachable = true
			break
		}
		if !reachable {
			return infeasible()
		}
	}
	return nil
}

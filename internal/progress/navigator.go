// internal/progress/navigator.go
package progress

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Navigator tracks which day of a plan is currently displayed. It owns the
// index explicitly (rather than a module-level variable tied to "whichever
// plan is active") and resets deterministically when the plan identity
// changes. All reads must go through SafeIndex so a plan that shrank under us
// never produces an out-of-range access.
type Navigator struct {
	planID       primitive.ObjectID
	currentIndex int
}

// NewNavigator returns a navigator positioned on the first day of the plan.
func NewNavigator(planID primitive.ObjectID) *Navigator {
	return &Navigator{planID: planID}
}

// SetPlan switches the navigator to a plan. If the identity differs from the
// current one the index resets to 0; re-setting the same plan keeps position.
func (n *Navigator) SetPlan(planID primitive.ObjectID) {
	if n.planID == planID {
		return
	}
	n.planID = planID
	n.currentIndex = 0
}

// PlanID returns the identity of the plan being navigated.
func (n *Navigator) PlanID() primitive.ObjectID {
	return n.planID
}

// Previous moves one day back; no-op at the first day.
func (n *Navigator) Previous() {
	if n.currentIndex > 0 {
		n.currentIndex--
	}
}

// Next moves one day forward; no-op at the last day.
func (n *Navigator) Next(totalDays int) {
	if n.currentIndex < totalDays-1 {
		n.currentIndex++
	}
}

// GoTo jumps to an arbitrary day, clamped into [0, totalDays-1].
func (n *Navigator) GoTo(i, totalDays int) {
	if totalDays <= 0 {
		n.currentIndex = 0
		return
	}
	if i < 0 {
		i = 0
	}
	if i > totalDays-1 {
		i = totalDays - 1
	}
	n.currentIndex = i
}

// SafeIndex returns the current index clamped to the plan's actual day count,
// so callers never read past the end after the plan was edited down.
func (n *Navigator) SafeIndex(totalDays int) int {
	if totalDays <= 0 {
		return 0
	}
	if n.currentIndex > totalDays-1 {
		return totalDays - 1
	}
	return n.currentIndex
}

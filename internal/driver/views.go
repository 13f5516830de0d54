package driver

import "shopsync/internal/domain"

// DayColor is the calendar heat level for one delivery day.
type DayColor string

const (
	ColorGrey   DayColor = "grey"
	ColorRed    DayColor = "red"
	ColorYellow DayColor = "yellow"
	ColorOrange DayColor = "orange"
	ColorGreen  DayColor = "green"
)

// ColorFor grades a delivery day. Confirmed and completed stay distinct here:
// green only when every assignment is customer-confirmed, orange when every
// one is at least delivered, yellow for partial, red for none.
func ColorFor(day domain.DeliveryDay) DayColor {
	if day.NumDeliveries == 0 || len(day.Assignments) == 0 {
		return ColorGrey
	}
	var confirmed, completed int
	for _, a := range day.Assignments {
		switch a.Status {
		case domain.OrderStatusConfirmed:
			confirmed++
		case domain.OrderStatusCompleted:
			completed++
		}
	}
	total := len(day.Assignments)
	switch {
	case confirmed == total:
		return ColorGreen
	case confirmed+completed == total:
		return ColorOrange
	case confirmed+completed > 0:
		return ColorYellow
	default:
		return ColorRed
	}
}

// Tab is a dashboard quick filter. Unlike the calendar, the completed tab
// groups delivered and confirmed assignments together.
type Tab string

const (
	TabAssigned  Tab = "assigned"
	TabAccepted  Tab = "accepted"
	TabCompleted Tab = "completed"
)

func FilterByTab(assignments []domain.Assignment, tab Tab) []domain.Assignment {
	out := make([]domain.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if matchesTab(a.Status, tab) {
			out = append(out, a)
		}
	}
	return out
}

// TabCounts returns the per-tab totals shown on the filter buttons.
func TabCounts(assignments []domain.Assignment) map[Tab]int {
	counts := map[Tab]int{TabAssigned: 0, TabAccepted: 0, TabCompleted: 0}
	for _, a := range assignments {
		for _, tab := range []Tab{TabAssigned, TabAccepted, TabCompleted} {
			if matchesTab(a.Status, tab) {
				counts[tab]++
			}
		}
	}
	return counts
}

func matchesTab(status domain.OrderStatus, tab Tab) bool {
	switch tab {
	case TabAssigned:
		return status == domain.OrderStatusAssigned
	case TabAccepted:
		return status == domain.OrderStatusAccepted
	case TabCompleted:
		return status == domain.OrderStatusCompleted || status == domain.OrderStatusConfirmed
	default:
		return false
	}
}

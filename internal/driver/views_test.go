package driver

import (
	"testing"

	"shopsync/internal/domain"
)

func day(statuses ...domain.OrderStatus) domain.DeliveryDay {
	d := domain.DeliveryDay{NumDeliveries: len(statuses)}
	for i, st := range statuses {
		d.Assignments = append(d.Assignments, domain.Assignment{ID: int64(i + 1), Status: st})
	}
	return d
}

func TestColorFor(t *testing.T) {
	cases := []struct {
		name string
		day  domain.DeliveryDay
		want DayColor
	}{
		{"no deliveries", domain.DeliveryDay{}, ColorGrey},
		{"all confirmed", day(domain.OrderStatusConfirmed, domain.OrderStatusConfirmed), ColorGreen},
		{"all delivered, not all confirmed", day(domain.OrderStatusConfirmed, domain.OrderStatusCompleted), ColorOrange},
		{"partial", day(domain.OrderStatusCompleted, domain.OrderStatusAssigned), ColorYellow},
		{"none delivered", day(domain.OrderStatusAssigned, domain.OrderStatusAccepted), ColorRed},
	}
	for _, tc := range cases {
		if got := ColorFor(tc.day); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestFilterByTab_CompletedGroupsConfirmed(t *testing.T) {
	assignments := []domain.Assignment{
		{ID: 1, Status: domain.OrderStatusAssigned},
		{ID: 2, Status: domain.OrderStatusAccepted},
		{ID: 3, Status: domain.OrderStatusCompleted},
		{ID: 4, Status: domain.OrderStatusConfirmed},
	}
	completed := FilterByTab(assignments, TabCompleted)
	if len(completed) != 2 {
		t.Fatalf("expected completed tab to group delivered and confirmed, got %d", len(completed))
	}
	if len(FilterByTab(assignments, TabAssigned)) != 1 {
		t.Fatal("expected one assigned")
	}
	if len(FilterByTab(assignments, Tab("bogus"))) != 0 {
		t.Fatal("expected unknown tab to match nothing")
	}
}

func TestTabCounts(t *testing.T) {
	counts := TabCounts([]domain.Assignment{
		{Status: domain.OrderStatusAssigned},
		{Status: domain.OrderStatusCompleted},
		{Status: domain.OrderStatusConfirmed},
	})
	if counts[TabAssigned] != 1 || counts[TabAccepted] != 0 || counts[TabCompleted] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

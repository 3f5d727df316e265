package service

import (
	"testing"
	"time"

	"github.com/fastkart-next/internal/constants"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		current string
		target  string
		allowed bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusConfirmed, constants.OrderStatusProcessing, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusCancelled, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusDelivered, false},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusProcessing, constants.OrderStatusCancelled, false},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusShipped, constants.OrderStatusCancelled, false},
		{constants.OrderStatusDelivered, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPending, false},
	}
	for _, tc := range cases {
		if got := isTransitionAllowed(tc.current, tc.target); got != tc.allowed {
			t.Fatalf("transition %s -> %s: got %v, want %v", tc.current, tc.target, got, tc.allowed)
		}
	}
}

func TestTransitionNormalizesInput(t *testing.T) {
	if !isTransitionAllowed(" Pending ", "CONFIRMED") {
		t.Fatalf("expected normalized transition to be allowed")
	}
	if isTransitionAllowed("unknown", constants.OrderStatusConfirmed) {
		t.Fatalf("expected unknown current status to be rejected")
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{
		constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
	} {
		if !isValidStatus(status) {
			t.Fatalf("expected %s to be a valid status", status)
		}
	}
	if isValidStatus("refunded") {
		t.Fatalf("expected unknown status to be invalid")
	}
}

func TestEstimateDelivery(t *testing.T) {
	from := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		status string
		days   int
	}{
		{constants.OrderStatusPending, 7},
		{constants.OrderStatusConfirmed, 6},
		{constants.OrderStatusProcessing, 5},
		{constants.OrderStatusShipped, 3},
		{constants.OrderStatusDelivered, 0},
		{constants.OrderStatusCancelled, 0},
	}
	for _, tc := range cases {
		got := EstimateDelivery(tc.status, from)
		want := from.AddDate(0, 0, tc.days)
		if !got.Equal(want) {
			t.Fatalf("estimate for %s = %s, want %s", tc.status, got, want)
		}
	}
}

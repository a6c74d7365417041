package handlers

import (
	"testing"

	"philabasket/internal/models"
)

func TestCanTransitionForwardPath(t *testing.T) {
	path := []string{
		models.StatusPlaced,
		models.StatusPacking,
		models.StatusShipped,
		models.StatusOutForDelivery,
		models.StatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		if !canTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionRejectsBackward(t *testing.T) {
	if canTransition(models.StatusShipped, models.StatusPacking) {
		t.Fatal("expected Shipped -> Packing to be rejected")
	}
	if canTransition(models.StatusDelivered, models.StatusOutForDelivery) {
		t.Fatal("expected Delivered -> Out for delivery to be rejected")
	}
}

func TestCanTransitionAllowsSkippingStages(t *testing.T) {
	if !canTransition(models.StatusPlaced, models.StatusDelivered) {
		t.Fatal("expected Placed -> Delivered to be allowed")
	}
}

func TestCancellationOnlyBeforeShipping(t *testing.T) {
	cancellable := []string{models.StatusPlaced, models.StatusPacking}
	for _, status := range cancellable {
		if !canTransition(status, models.StatusCancelled) {
			t.Fatalf("expected %s -> Cancelled to be allowed", status)
		}
	}

	committed := []string{models.StatusShipped, models.StatusOutForDelivery, models.StatusDelivered}
	for _, status := range committed {
		if canTransition(status, models.StatusCancelled) {
			t.Fatalf("expected %s -> Cancelled to be rejected", status)
		}
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	targets := []string{models.StatusPlaced, models.StatusShipped, models.StatusDelivered, models.StatusCancelled}
	for _, to := range targets {
		if canTransition(models.StatusCancelled, to) {
			t.Fatalf("expected Cancelled -> %s to be rejected", to)
		}
	}
}

func TestIsKnownStatus(t *testing.T) {
	for _, status := range []string{
		models.StatusPlaced, models.StatusPacking, models.StatusShipped,
		models.StatusOutForDelivery, models.StatusDelivered, models.StatusCancelled,
	} {
		if !isKnownStatus(status) {
			t.Fatalf("expected %q to be known", status)
		}
	}
	if isKnownStatus("Returned") {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestCoerceStatusForTrackingPromotesToShipped(t *testing.T) {
	got := coerceStatusForTracking(models.StatusPacking, models.StatusPlaced, "RR123456789IN")
	if got != models.StatusShipped {
		t.Fatalf("expected promotion to Shipped, got %q", got)
	}
}

func TestCoerceStatusForTrackingKeepsExplicitLaterStatus(t *testing.T) {
	got := coerceStatusForTracking(models.StatusOutForDelivery, models.StatusPacking, "RR123456789IN")
	if got != models.StatusOutForDelivery {
		t.Fatalf("expected requested status kept, got %q", got)
	}
}

func TestCoerceStatusForTrackingNoTrackingNoChange(t *testing.T) {
	got := coerceStatusForTracking(models.StatusPacking, models.StatusPlaced, "")
	if got != models.StatusPacking {
		t.Fatalf("expected requested status kept, got %q", got)
	}
}

func TestCoerceStatusForTrackingIgnoredAfterShipping(t *testing.T) {
	got := coerceStatusForTracking(models.StatusOutForDelivery, models.StatusShipped, "RR123456789IN")
	if got != models.StatusOutForDelivery {
		t.Fatalf("expected requested status kept, got %q", got)
	}
}

func TestDeliveryPointsFloors(t *testing.T) {
	tests := []struct {
		amount float64
		want   int
	}{
		{0, 0},
		{-50, 0},
		{99.99, 9},
		{100, 10},
		{101, 10},
		{149.5, 14},
	}
	for _, tt := range tests {
		if got := deliveryPoints(tt.amount); got != tt.want {
			t.Fatalf("deliveryPoints(%v) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestOrderAmountSubtractsPointsAndDiscount(t *testing.T) {
	// 100 PTS = 10 currency units.
	if got := orderAmount(500, 100, 40); got != 450 {
		t.Fatalf("expected 450, got %v", got)
	}
}

func TestOrderAmountNeverNegative(t *testing.T) {
	if got := orderAmount(5, 100, 10); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestCanUnwindPaymentOnlineUnpaidPlaced(t *testing.T) {
	if !canUnwindPayment(models.PaymentStripe, models.StatusPlaced, false) {
		t.Fatal("expected unpaid Stripe order in Order Placed to be unwindable")
	}
	if !canUnwindPayment(models.PaymentRazorpay, models.StatusPlaced, false) {
		t.Fatal("expected unpaid Razorpay order in Order Placed to be unwindable")
	}
}

func TestCanUnwindPaymentRejectsCOD(t *testing.T) {
	// A COD order that was cancelled already had its stock and points
	// restored once; a failed-payment callback must not restore them again.
	if canUnwindPayment(models.PaymentCOD, models.StatusPlaced, false) {
		t.Fatal("expected COD order to be rejected")
	}
	if canUnwindPayment(models.PaymentCOD, models.StatusCancelled, false) {
		t.Fatal("expected cancelled COD order to be rejected")
	}
}

func TestCanUnwindPaymentRejectsAfterFulfilmentStarts(t *testing.T) {
	for _, status := range []string{
		models.StatusPacking, models.StatusShipped,
		models.StatusOutForDelivery, models.StatusDelivered, models.StatusCancelled,
	} {
		if canUnwindPayment(models.PaymentStripe, status, false) {
			t.Fatalf("expected %q order to be rejected", status)
		}
	}
}

func TestCanUnwindPaymentRejectsPaidOrders(t *testing.T) {
	if canUnwindPayment(models.PaymentStripe, models.StatusPlaced, true) {
		t.Fatal("expected paid order to be rejected")
	}
}

func TestPointsValue(t *testing.T) {
	if got := pointsValue(25); got != 2.5 {
		t.Fatalf("expected 2.5, got %v", got)
	}
	if got := pointsValue(-5); got != 0 {
		t.Fatalf("expected 0 for negative points, got %v", got)
	}
}

package handlers

import (
	"math"

	"philabasket/internal/models"
)

// statusRank encodes the linear fulfilment path. Cancelled is deliberately
// absent: it is not on the path and has its own reachability rule.
var statusRank = map[string]int{
	models.StatusPlaced:         0,
	models.StatusPacking:        1,
	models.StatusShipped:        2,
	models.StatusOutForDelivery: 3,
	models.StatusDelivered:      4,
}

func isKnownStatus(status string) bool {
	if status == models.StatusCancelled {
		return true
	}
	_, ok := statusRank[status]
	return ok
}

// isCancellable reports whether an order may still be cancelled. Once the
// parcel has shipped the order is committed; Cancelled itself is terminal.
func isCancellable(status string) bool {
	rank, ok := statusRank[status]
	if !ok {
		return false
	}
	return rank < statusRank[models.StatusShipped]
}

// canTransition validates an admin status change: forward moves along the
// fulfilment path, or a cancellation while still cancellable.
func canTransition(from, to string) bool {
	if from == models.StatusCancelled {
		return false
	}
	if to == models.StatusCancelled {
		return isCancellable(from)
	}
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// coerceStatusForTracking promotes a pre-shipment order straight to Shipped
// when the admin supplies a tracking number alongside the update.
func coerceStatusForTracking(requested, current, trackingNumber string) string {
	if trackingNumber == "" {
		return requested
	}
	if current != models.StatusPlaced && current != models.StatusPacking {
		return requested
	}
	if rank, ok := statusRank[requested]; ok && rank >= statusRank[models.StatusShipped] {
		return requested
	}
	return models.StatusShipped
}

// canUnwindPayment reports whether a failed hosted-checkout payment may roll
// the order back. Only an unpaid Stripe or Razorpay order still in Order
// Placed qualifies; COD orders and anything already cancelled or moving
// through fulfilment settle through the cancel flow instead.
func canUnwindPayment(paymentMethod, status string, paid bool) bool {
	if paid {
		return false
	}
	if paymentMethod != models.PaymentStripe && paymentMethod != models.PaymentRazorpay {
		return false
	}
	return status == models.StatusPlaced
}

// deliveryPoints is the PTS accrual on delivery: 10% of the order amount,
// floored.
func deliveryPoints(amount float64) int {
	if amount <= 0 {
		return 0
	}
	return int(math.Floor(amount * 0.10))
}

// pointsValue converts redeemed PTS into currency at 10 PTS = 1 unit.
func pointsValue(points int) float64 {
	if points <= 0 {
		return 0
	}
	return float64(points) / 10
}

// orderAmount computes the charge: item subtotal less redeemed points and
// coupon discount, never below zero.
func orderAmount(subtotal float64, pointsUsed int, discountAmount float64) float64 {
	amount := subtotal - pointsValue(pointsUsed) - discountAmount
	if amount < 0 {
		return 0
	}
	return amount
}

package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"philabasket/internal/models"
)

func TestStatusUpdateFilterPinsValidatedStatus(t *testing.T) {
	orderID := primitive.NewObjectID()

	filter := statusUpdateFilter(orderID, models.StatusPacking)

	if filter["_id"] != orderID {
		t.Fatal("expected filter to be scoped to the order")
	}
	if filter["status"] != models.StatusPacking {
		t.Fatalf("expected status pinned to %q, got %v", models.StatusPacking, filter["status"])
	}
}

func TestDeliveredClaimFilterExcludesDeliveredAndCancelled(t *testing.T) {
	filter := deliveredClaimFilter(primitive.NewObjectID())

	statusCond, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatal("expected a status condition")
	}
	excluded, ok := statusCond["$nin"].([]string)
	if !ok {
		t.Fatal("expected a status $nin list")
	}
	found := map[string]bool{}
	for _, status := range excluded {
		found[status] = true
	}
	if !found[models.StatusDelivered] {
		t.Fatal("expected Delivered to be excluded so the credit fires once")
	}
	if !found[models.StatusCancelled] {
		// A cancelled order already had its points refunded; crediting it
		// would pay the customer twice.
		t.Fatal("expected Cancelled to be excluded from the delivery claim")
	}

	creditCond, ok := filter["pointsCredited"].(bson.M)
	if !ok || creditCond["$ne"] != true {
		t.Fatal("expected pointsCredited guard to be kept")
	}
}

package handlers

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"philabasket/internal/models"
)

func TestPlaceOrderCoreRejectsNegativeDiscount(t *testing.T) {
	req := placeOrderRequest{
		Items: []placeOrderItemRequest{
			{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},
		},
		DiscountAmount: -25,
	}

	// Validation runs before any database access, so a nil database is safe.
	_, err := placeOrderCore(context.Background(), nil, primitive.NewObjectID(), req, models.PaymentCOD)
	if err == nil {
		t.Fatal("expected negative discount to be rejected")
	}
}

func TestPaymentUnwindFilterGuards(t *testing.T) {
	orderID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	filter := paymentUnwindFilter(orderID, userID)

	if filter["_id"] != orderID || filter["userId"] != userID {
		t.Fatal("expected filter to be scoped to the order and its owner")
	}
	if filter["payment"] != false {
		t.Fatal("expected filter to match only unpaid orders")
	}
	if filter["status"] != models.StatusPlaced {
		t.Fatalf("expected filter to match only %q orders, got %v", models.StatusPlaced, filter["status"])
	}

	methods, ok := filter["paymentMethod"].(bson.M)
	if !ok {
		t.Fatal("expected a paymentMethod condition")
	}
	allowed, ok := methods["$in"].([]string)
	if !ok {
		t.Fatal("expected paymentMethod $in list")
	}
	for _, method := range allowed {
		if method == models.PaymentCOD {
			t.Fatal("expected COD to be excluded from the unwind filter")
		}
	}
	if len(allowed) != 2 {
		t.Fatalf("expected exactly the two hosted-checkout methods, got %v", allowed)
	}
}

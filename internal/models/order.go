package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. The only legal path is Placed, Packing, Shipped,
// Out for delivery, Delivered; Cancelled is reachable only before Shipped.
const (
	StatusPlaced         = "Order Placed"
	StatusPacking        = "Packing"
	StatusShipped        = "Shipped"
	StatusOutForDelivery = "Out for delivery"
	StatusDelivered      = "Delivered"
	StatusCancelled      = "Cancelled"
)

// Payment methods accepted at checkout.
const (
	PaymentCOD      = "COD"
	PaymentStripe   = "Stripe"
	PaymentRazorpay = "Razorpay"
)

// OrderItem is a denormalized snapshot of the product at purchase time.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
}

// OrderAddress captures the shipping destination for an order.
type OrderAddress struct {
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Street    string `bson:"street" json:"street"`
	City      string `bson:"city" json:"city"`
	State     string `bson:"state,omitempty" json:"state,omitempty"`
	Zip       string `bson:"zip" json:"zip"`
	Country   string `bson:"country" json:"country"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Order is the persisted order document.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNo        int64              `bson:"orderNo" json:"orderNo"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Items          []OrderItem        `bson:"items" json:"items"`
	Amount         float64            `bson:"amount" json:"amount"`
	Address        OrderAddress       `bson:"address" json:"address"`
	Status         string             `bson:"status" json:"status"`
	PaymentMethod  string             `bson:"paymentMethod" json:"paymentMethod"`
	Payment        bool               `bson:"payment" json:"payment"`
	TrackingNumber string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	PointsUsed     int                `bson:"pointsUsed" json:"pointsUsed"`
	PointsCredited bool               `bson:"pointsCredited" json:"-"`
	CouponUsed     string             `bson:"couponUsed,omitempty" json:"couponUsed,omitempty"`
	DiscountAmount float64            `bson:"discountAmount,omitempty" json:"discountAmount,omitempty"`
	Currency       string             `bson:"currency" json:"currency"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

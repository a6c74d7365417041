package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"philabasket/internal/database"
	"philabasket/internal/mailer"
	"philabasket/internal/models"
	"philabasket/internal/notify"
)

/* =========================
   REQUEST DTOs
========================= */

type placeOrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type placeOrderRequest struct {
	Items          []placeOrderItemRequest `json:"items" binding:"required"`
	Address        models.OrderAddress     `json:"address" binding:"required"`
	Currency       string                  `json:"currency"`
	UsePoints      bool                    `json:"usePoints"`
	PointsUsed     int                     `json:"pointsUsed" binding:"gte=0"`
	CouponUsed     string                  `json:"couponUsed"`
	DiscountAmount float64                 `json:"discountAmount" binding:"gte=0"`
}

/* =========================
   SENTINEL ERRORS
========================= */

type outOfStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e outOfStockError) Error() string {
	return "product out of stock"
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return "product not found"
}

type insufficientPointsError struct {
	Requested int
}

func (e insufficientPointsError) Error() string {
	return "insufficient reward points"
}

/* =========================
   PLACEMENT CORE
========================= */

// placeOrderCore runs the whole placement inside one mongo transaction:
// per-item conditional stock decrements (stock >= qty in the update filter,
// so stock can never go negative under concurrent checkouts), conditional
// point redemption, and the order insert. Any failure rolls everything back.
func placeOrderCore(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, req placeOrderRequest, paymentMethod string) (models.Order, error) {
	if len(req.Items) == 0 {
		return models.Order{}, errors.New("at least one item is required")
	}

	items := make([]placeOrderItemRequest, 0, len(req.Items))
	ids := make([]primitive.ObjectID, 0, len(req.Items))
	for _, item := range req.Items {
		id, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return models.Order{}, errors.New("invalid productId")
		}
		if item.Quantity <= 0 {
			return models.Order{}, errors.New("quantity must be greater than zero")
		}
		items = append(items, item)
		ids = append(ids, id)
	}

	// A negative discount would inflate the charge past the item subtotal.
	if req.DiscountAmount < 0 {
		return models.Order{}, errors.New("discountAmount cannot be negative")
	}

	pointsUsed := 0
	if req.UsePoints && req.PointsUsed > 0 {
		pointsUsed = req.PointsUsed
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	orderNo, err := database.NextSequence(ctx, db, "orderNo")
	if err != nil {
		return models.Order{}, err
	}

	now := time.Now()
	order := models.Order{
		OrderNo:        orderNo,
		UserID:         userID,
		Address:        req.Address,
		Status:         models.StatusPlaced,
		PaymentMethod:  paymentMethod,
		Payment:        false,
		PointsUsed:     pointsUsed,
		CouponUsed:     req.CouponUsed,
		DiscountAmount: req.DiscountAmount,
		Currency:       currency,
		CreatedAt:      now,
	}

	session, err := db.Client().StartSession()
	if err != nil {
		return models.Order{}, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		snapshot := make([]models.OrderItem, 0, len(items))
		subtotal := 0.0

		for i, item := range items {
			productID := ids[i]

			var product models.Product
			err := db.Collection("products").FindOne(sessCtx, bson.M{
				"_id":       productID,
				"isDeleted": bson.M{"$ne": true},
			}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				return nil, productNotFoundError{ProductID: productID}
			}
			if err != nil {
				return nil, err
			}

			res, err := db.Collection("products").UpdateOne(
				sessCtx,
				bson.M{
					"_id":       productID,
					"isDeleted": bson.M{"$ne": true},
					"stock":     bson.M{"$gte": item.Quantity},
				},
				bson.M{"$inc": bson.M{"stock": -item.Quantity}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, outOfStockError{
					ProductID: productID,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}

			image := ""
			if len(product.Images) > 0 {
				image = product.Images[0]
			}
			snapshot = append(snapshot, models.OrderItem{
				ProductID: productID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  item.Quantity,
				Image:     image,
			})
			subtotal += product.Price * float64(item.Quantity)
		}

		if pointsUsed > 0 {
			res, err := db.Collection("users").UpdateOne(
				sessCtx,
				bson.M{
					"_id":               userID,
					"totalRewardPoints": bson.M{"$gte": pointsUsed},
				},
				bson.M{"$inc": bson.M{"totalRewardPoints": -pointsUsed}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, insufficientPointsError{Requested: pointsUsed}
			}
		}

		order.Items = snapshot
		order.Amount = orderAmount(subtotal, pointsUsed, req.DiscountAmount)

		res, err := db.Collection("orders").InsertOne(sessCtx, order)
		if err != nil {
			return nil, err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}

		if pointsUsed > 0 {
			entry := models.RewardTransaction{
				UserEmail: "",
				Type:      models.RewardRedeemOrder,
				Title:     fmt.Sprintf("Redeemed on order #%d", orderNo),
				Points:    -pointsUsed,
				OrderNo:   orderNo,
				CreatedAt: now,
			}
			var user models.User
			if err := db.Collection("users").FindOne(sessCtx, bson.M{"_id": userID}).Decode(&user); err == nil {
				entry.UserEmail = user.Email
			}
			if _, err := db.Collection("rewardtransactions").InsertOne(sessCtx, entry); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return models.Order{}, err
	}

	return order, nil
}

func respondPlacementError(c *gin.Context, route string, err error) {
	var stockErr outOfStockError
	if errors.As(err, &stockErr) {
		log.Printf("[%s] returning error %d: out of stock", route, http.StatusBadRequest)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Insufficient stock",
			"productId": stockErr.ProductID.Hex(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}
	var notFoundErr productNotFoundError
	if errors.As(err, &notFoundErr) {
		respondError(c, http.StatusBadRequest, route, "Product not found: "+notFoundErr.ProductID.Hex())
		return
	}
	var pointsErr insufficientPointsError
	if errors.As(err, &pointsErr) {
		respondError(c, http.StatusBadRequest, route, "Insufficient reward points")
		return
	}
	respondError(c, http.StatusInternalServerError, route, "Order could not be placed")
}

func notifyOrderPlaced(db *mongo.Database, mail *mailer.Pool, order models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": order.UserID}).Decode(&user); err != nil {
		log.Println("[ORDER] [ERROR] notification user lookup failed:", err)
		return
	}

	msg := mailer.OrderConfirmation(user.Name, order.OrderNo, order.Amount, order.Currency)
	msg.To = user.Email
	mail.Enqueue(msg)

	go notify.SendWhatsApp(order.Address.Phone,
		fmt.Sprintf("PhilaBasket: order #%d received (%s %.2f). We'll message you when it ships.",
			order.OrderNo, order.Currency, order.Amount))
}

/* =========================
   HANDLERS
========================= */

func placeOrderHandler(db *mongo.Database, mail *mailer.Pool, paymentMethod, route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		order, err := placeOrderCore(ctx, db, userID, req, paymentMethod)
		if err != nil {
			respondPlacementError(c, route, err)
			return
		}

		notifyOrderPlaced(db, mail, order)

		log.Printf("[ORDER] [INFO] order #%d placed by %s via %s", order.OrderNo, userID.Hex(), paymentMethod)
		respondSuccess(c, http.StatusCreated, "Order placed", gin.H{
			"orderId": order.ID.Hex(),
			"orderNo": order.OrderNo,
			"amount":  order.Amount,
		})
	}
}

// PlaceOrder is cash-on-delivery checkout.
func PlaceOrder(db *mongo.Database, mail *mailer.Pool) gin.HandlerFunc {
	return placeOrderHandler(db, mail, models.PaymentCOD, "POST /api/order/place")
}

// PlaceOrderStripe books the order with payment pending; the SPA completes
// the hosted checkout and then calls VerifyPayment.
func PlaceOrderStripe(db *mongo.Database, mail *mailer.Pool) gin.HandlerFunc {
	return placeOrderHandler(db, mail, models.PaymentStripe, "POST /api/order/stripe")
}

func PlaceOrderRazorpay(db *mongo.Database, mail *mailer.Pool) gin.HandlerFunc {
	return placeOrderHandler(db, mail, models.PaymentRazorpay, "POST /api/order/razorpay")
}

type verifyPaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Success *bool  `json:"success" binding:"required"`
}

// VerifyPayment settles a hosted-checkout order: marks it paid on success,
// or unwinds it (stock restored, points refunded, order removed) on failure.
func VerifyPayment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/verify"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		if *req.Success {
			res, err := db.Collection("orders").UpdateOne(
				ctx,
				bson.M{"_id": orderID, "userId": userID},
				bson.M{"$set": bson.M{"payment": true, "updatedAt": time.Now()}},
			)
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if res.MatchedCount == 0 {
				respondError(c, http.StatusNotFound, route, "Order not found")
				return
			}
			respondSuccess(c, http.StatusOK, "Payment confirmed", nil)
			return
		}

		// Claim the order atomically: the filter admits only an unpaid
		// hosted-checkout order still in Order Placed, and the same update
		// flips it to Cancelled, so a repeat call matches nothing and the
		// stock/points restore can never run twice.
		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			paymentUnwindFilter(orderID, userID),
			bson.M{"$set": bson.M{"status": models.StatusCancelled, "updatedAt": time.Now()}},
		).Decode(&order)
		if err == mongo.ErrNoDocuments {
			var existing models.Order
			lookupErr := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&existing)
			if lookupErr != nil {
				respondError(c, http.StatusNotFound, route, "Order not found")
				return
			}
			if !canUnwindPayment(existing.PaymentMethod, existing.Status, existing.Payment) {
				if existing.Payment {
					respondError(c, http.StatusBadRequest, route, "Order already paid")
					return
				}
				respondError(c, http.StatusBadRequest, route, "Order cannot be rolled back")
				return
			}
			// Eligible on this read but not claimed: a concurrent call won.
			respondError(c, http.StatusConflict, route, "Order is being settled, retry")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := unwindOrder(ctx, db, order); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if _, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": order.ID}); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[ORDER] [INFO] order #%d unwound after failed payment", order.OrderNo)
		respondSuccess(c, http.StatusOK, "Payment failed, order removed", nil)
	}
}

// paymentUnwindFilter is the mongo form of canUnwindPayment, applied as the
// update filter so the eligibility check and the claim are one operation.
func paymentUnwindFilter(orderID, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":           orderID,
		"userId":        userID,
		"payment":       false,
		"paymentMethod": bson.M{"$in": []string{models.PaymentStripe, models.PaymentRazorpay}},
		"status":        models.StatusPlaced,
	}
}

// unwindOrder restores stock for every item and refunds redeemed points,
// writing the matching ledger row. Used by both payment failure and
// cancellation.
func unwindOrder(ctx context.Context, db *mongo.Database, order models.Order) error {
	for _, item := range order.Items {
		_, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": item.ProductID},
			bson.M{"$inc": bson.M{"stock": item.Quantity}},
		)
		if err != nil {
			return err
		}
	}

	if order.PointsUsed > 0 {
		var user models.User
		err := db.Collection("users").FindOneAndUpdate(
			ctx,
			bson.M{"_id": order.UserID},
			bson.M{"$inc": bson.M{"totalRewardPoints": order.PointsUsed}},
		).Decode(&user)
		if err != nil {
			return err
		}

		entry := models.RewardTransaction{
			UserEmail: user.Email,
			Type:      models.RewardRefundCancelled,
			Title:     fmt.Sprintf("Points refunded for order #%d", order.OrderNo),
			Points:    order.PointsUsed,
			OrderNo:   order.OrderNo,
			CreatedAt: time.Now(),
		}
		if _, err := db.Collection("rewardtransactions").InsertOne(ctx, entry); err != nil {
			return err
		}
	}

	return nil
}

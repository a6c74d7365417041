package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"philabasket/internal/mailer"
	"philabasket/internal/models"
)

// ListOrders serves the dashboard order table, newest first, with optional
// status filtering.
func ListOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/list"

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, filter, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"orders": orders})
	}
}

type updateStatusRequest struct {
	OrderID        string `json:"orderId" binding:"required"`
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"trackingNumber"`
}

// UpdateStatus moves an order along the fulfilment path. Supplying a
// tracking number while the order is still being packed promotes it straight
// to Shipped. Every write carries a status guard in its filter, so a
// cancellation racing the update loses cleanly, and the Delivered transition
// is a one-time claim that can never credit points twice.
func UpdateStatus(db *mongo.Database, mail *mailer.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/status"
		defer handlePanic(c, route)

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		requested := strings.TrimSpace(req.Status)
		if !isKnownStatus(requested) {
			respondError(c, http.StatusBadRequest, route, "unknown status: "+requested)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			respondError(c, http.StatusNotFound, route, "Order not found")
			return
		}

		tracking := strings.TrimSpace(req.TrackingNumber)
		target := coerceStatusForTracking(requested, order.Status, tracking)

		if target == order.Status && tracking == "" {
			respondSuccess(c, http.StatusOK, "Status unchanged", nil)
			return
		}

		if target != order.Status && !canTransition(order.Status, target) {
			respondError(c, http.StatusBadRequest, route,
				fmt.Sprintf("cannot move order from %q to %q", order.Status, target))
			return
		}

		if target == models.StatusCancelled {
			if err := cancelByAdmin(ctx, db, order); err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			respondSuccess(c, http.StatusOK, "Order cancelled", nil)
			return
		}

		if target == models.StatusDelivered {
			delivered, err := markDelivered(ctx, db, mail, order)
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if !delivered {
				respondSuccess(c, http.StatusOK, "Order already delivered or cancelled", nil)
				return
			}
			respondSuccess(c, http.StatusOK, "Order delivered", nil)
			return
		}

		updateSet := bson.M{"status": target, "updatedAt": time.Now()}
		if tracking != "" {
			updateSet["trackingNumber"] = tracking
		}

		// Pin the update to the status the transition was validated against,
		// so a cancellation landing in between leaves the order untouched.
		res, err := db.Collection("orders").UpdateOne(ctx, statusUpdateFilter(orderID, order.Status), bson.M{"$set": updateSet})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusConflict, route, "Order changed since it was read, retry")
			return
		}

		if target == models.StatusShipped {
			go sendShippedMail(db, mail, order, tracking)
		}

		log.Printf("[ORDER] [INFO] order #%d moved to %s", order.OrderNo, target)
		respondSuccess(c, http.StatusOK, "Status updated", nil)
	}
}

// statusUpdateFilter pins a generic status write to the status it was
// validated against.
func statusUpdateFilter(orderID primitive.ObjectID, from string) bson.M {
	return bson.M{"_id": orderID, "status": from}
}

// deliveredClaimFilter matches an order that can still take the one-time
// delivery credit: not yet Delivered, not Cancelled, credit not yet applied.
func deliveredClaimFilter(orderID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":            orderID,
		"status":         bson.M{"$nin": []string{models.StatusDelivered, models.StatusCancelled}},
		"pointsCredited": bson.M{"$ne": true},
	}
}

func cancelByAdmin(ctx context.Context, db *mongo.Database, order models.Order) error {
	var cancelled models.Order
	err := db.Collection("orders").FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":    order.ID,
			"status": bson.M{"$in": []string{models.StatusPlaced, models.StatusPacking}},
		},
		bson.M{"$set": bson.M{"status": models.StatusCancelled, "updatedAt": time.Now()}},
	).Decode(&cancelled)
	if err == mongo.ErrNoDocuments {
		// Lost the race against another transition; nothing to unwind.
		return nil
	}
	if err != nil {
		return err
	}
	return unwindOrder(ctx, db, cancelled)
}

// markDelivered performs the one-time delivery accrual. The claim filter
// rejects orders already Delivered or Cancelled, so the credit fires at most
// once and never lands on an order whose points were already refunded.
// Returns false when the claim matched nothing.
func markDelivered(ctx context.Context, db *mongo.Database, mail *mailer.Pool, order models.Order) (bool, error) {
	var previous models.Order
	err := db.Collection("orders").FindOneAndUpdate(
		ctx,
		deliveredClaimFilter(order.ID),
		bson.M{"$set": bson.M{
			"status":         models.StatusDelivered,
			"payment":        true,
			"pointsCredited": true,
			"updatedAt":      time.Now(),
		}},
	).Decode(&previous)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	points := deliveryPoints(order.Amount)

	var user models.User
	err = db.Collection("users").FindOneAndUpdate(
		ctx,
		bson.M{"_id": order.UserID},
		bson.M{"$inc": bson.M{"totalRewardPoints": points}},
	).Decode(&user)
	if err != nil {
		log.Printf("[ORDER] [ERROR] delivery credit for #%d failed: %v", order.OrderNo, err)
		return true, nil
	}

	entry := models.RewardTransaction{
		UserEmail: user.Email,
		Type:      models.RewardEarnDelivery,
		Title:     fmt.Sprintf("Earned on delivered order #%d", order.OrderNo),
		Points:    points,
		OrderNo:   order.OrderNo,
		CreatedAt: time.Now(),
	}
	if _, err := db.Collection("rewardtransactions").InsertOne(ctx, entry); err != nil {
		log.Printf("[ORDER] [ERROR] delivery ledger insert for #%d failed: %v", order.OrderNo, err)
	}

	msg := mailer.OrderDelivered(user.Name, order.OrderNo, points)
	msg.To = user.Email
	mail.Enqueue(msg)

	log.Printf("[ORDER] [INFO] order #%d delivered, %d PTS credited to %s", order.OrderNo, points, user.Email)
	return true, nil
}

func sendShippedMail(db *mongo.Database, mail *mailer.Pool, order models.Order, tracking string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": order.UserID}).Decode(&user); err != nil {
		log.Println("[ORDER] [ERROR] shipped mail user lookup failed:", err)
		return
	}

	msg := mailer.OrderShipped(user.Name, order.OrderNo, tracking)
	msg.To = user.Email
	mail.Enqueue(msg)
}

type deleteOrderRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

func DeleteOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/delete"

		var req deleteOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": orderID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Order not found")
			return
		}

		respondSuccess(c, http.StatusOK, "Order deleted", nil)
	}
}

/* =========================
   ANALYTICS
========================= */

// AdminStats returns the dashboard headline numbers.
func AdminStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/order/admin-stats"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		totalOrders, err := db.Collection("orders").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalProducts, err := db.Collection("products").CountDocuments(ctx, bson.M{"isDeleted": bson.M{"$ne": true}})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalUsers, err := db.Collection("users").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		revenuePipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": models.StatusCancelled}}}},
			{{Key: "$group", Value: bson.M{
				"_id":     nil,
				"revenue": bson.M{"$sum": "$amount"},
			}}},
		}
		revenue := 0.0
		cursor, err := db.Collection("orders").Aggregate(ctx, revenuePipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		var revenueRows []struct {
			Revenue float64 `bson:"revenue"`
		}
		if err := cursor.All(ctx, &revenueRows); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		if len(revenueRows) > 0 {
			revenue = revenueRows[0].Revenue
		}

		statusPipeline := mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id":   "$status",
				"count": bson.M{"$sum": 1},
			}}},
		}
		cursor, err = db.Collection("orders").Aggregate(ctx, statusPipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		var statusRows []struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.All(ctx, &statusRows); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		byStatus := gin.H{}
		for _, row := range statusRows {
			byStatus[row.Status] = row.Count
		}

		respondSuccess(c, http.StatusOK, "", gin.H{
			"totalOrders":    totalOrders,
			"totalProducts":  totalProducts,
			"totalUsers":     totalUsers,
			"totalRevenue":   revenue,
			"ordersByStatus": byStatus,
		})
	}
}

// DetailedAnalytics backs the dashboard charts: monthly revenue and the top
// selling specimens, both delegated to aggregation pipelines.
func DetailedAnalytics(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/order/detailed-analytics"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		monthlyPipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": models.StatusCancelled}}}},
			{{Key: "$group", Value: bson.M{
				"_id": bson.M{"$dateToString": bson.M{
					"format": "%Y-%m",
					"date":   "$createdAt",
				}},
				"revenue": bson.M{"$sum": "$amount"},
				"orders":  bson.M{"$sum": 1},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		}
		cursor, err := db.Collection("orders").Aggregate(ctx, monthlyPipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		var monthly []struct {
			Month   string  `bson:"_id" json:"month"`
			Revenue float64 `bson:"revenue" json:"revenue"`
			Orders  int64   `bson:"orders" json:"orders"`
		}
		if err := cursor.All(ctx, &monthly); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		topPipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": models.StatusCancelled}}}},
			{{Key: "$unwind", Value: "$items"}},
			{{Key: "$group", Value: bson.M{
				"_id":      "$items.productId",
				"name":     bson.M{"$first": "$items.name"},
				"quantity": bson.M{"$sum": "$items.quantity"},
				"revenue":  bson.M{"$sum": bson.M{"$multiply": []interface{}{"$items.price", "$items.quantity"}}},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}}}},
			{{Key: "$limit", Value: 10}},
		}
		cursor, err = db.Collection("orders").Aggregate(ctx, topPipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		var topProducts []struct {
			ProductID primitive.ObjectID `bson:"_id" json:"productId"`
			Name      string             `bson:"name" json:"name"`
			Quantity  int64              `bson:"quantity" json:"quantity"`
			Revenue   float64            `bson:"revenue" json:"revenue"`
		}
		if err := cursor.All(ctx, &topProducts); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{
			"monthly":     monthly,
			"topProducts": topProducts,
		})
	}
}

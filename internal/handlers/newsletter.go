package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"philabasket/internal/mailer"
	"philabasket/internal/models"
)

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Subscribe registers a newsletter address. Duplicate signups succeed
// quietly so the form never leaks whether an address is already known.
func Subscribe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/newsletter/subscribe"

		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		subscriber := models.Subscriber{Email: email, SubscribedAt: time.Now()}
		if _, err := db.Collection("subscribers").InsertOne(ctx, subscriber); err != nil {
			if !mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
		}

		respondSuccess(c, http.StatusOK, "Subscribed to newsletter", nil)
	}
}

// ListSubscribers returns every newsletter address for the admin panel.
func ListSubscribers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/newsletter/list"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "subscribedAt", Value: -1}})
		cursor, err := db.Collection("subscribers").Find(ctx, bson.M{}, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		subscribers := make([]models.Subscriber, 0)
		if err := cursor.All(ctx, &subscribers); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"subscribers": subscribers})
	}
}

type bulkMailRequest struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// SendBulkMail fans a campaign out to every subscriber through the mail
// worker pool. The response reports how many were queued, not delivered.
func SendBulkMail(db *mongo.Database, mail *mailer.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/mail/send-bulk"
		defer handlePanic(c, route)

		var req bulkMailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		cursor, err := db.Collection("subscribers").Find(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		subscribers := make([]models.Subscriber, 0)
		if err := cursor.All(ctx, &subscribers); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		if len(subscribers) == 0 {
			respondError(c, http.StatusBadRequest, route, "No subscribers to mail")
			return
		}

		queued := 0
		for _, subscriber := range subscribers {
			msg := mailer.Bulk(req.Subject, req.Body)
			msg.To = subscriber.Email
			if mail.Enqueue(msg) {
				queued++
			}
		}

		log.Printf("[MAIL] [INFO] bulk campaign %q queued for %d/%d subscribers", req.Subject, queued, len(subscribers))
		respondSuccess(c, http.StatusOK, "Campaign queued", gin.H{
			"queued": queued,
			"total":  len(subscribers),
		})
	}
}

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"philabasket/internal/models"
)

type FeedbackCreateRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
}

// AddFeedback stores a visitor testimonial. New entries start unfeatured.
func AddFeedback(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/feedback/add"

		var req FeedbackCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		feedback := models.Feedback{
			Name:      strings.TrimSpace(req.Name),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Message:   strings.TrimSpace(req.Message),
			Rating:    req.Rating,
			Featured:  false,
			CreatedAt: time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("feedbacks").InsertOne(ctx, feedback)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		feedback.ID = result.InsertedID.(primitive.ObjectID)
		respondSuccess(c, http.StatusCreated, "Thank you for your feedback", gin.H{"feedback": feedback})
	}
}

// FeaturedFeedback returns the curated testimonials for the storefront.
func FeaturedFeedback(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/feedback/featured"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(10)
		cursor, err := db.Collection("feedbacks").Find(ctx, bson.M{"featured": true}, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		feedbacks := make([]models.Feedback, 0)
		if err := cursor.All(ctx, &feedbacks); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"feedbacks": feedbacks})
	}
}

// ListFeedback returns every entry for the admin review screen.
func ListFeedback(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/feedback/list"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("feedbacks").Find(ctx, bson.M{}, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		feedbacks := make([]models.Feedback, 0)
		if err := cursor.All(ctx, &feedbacks); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"feedbacks": feedbacks})
	}
}

type FeedbackFeatureRequest struct {
	FeedbackID string `json:"feedbackId" binding:"required"`
	Featured   *bool  `json:"featured" binding:"required"`
}

// FeatureFeedback toggles the featured flag on one entry.
func FeatureFeedback(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/feedback/feature"

		var req FeedbackFeatureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.FeedbackID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid feedbackId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("feedbacks").UpdateOne(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"featured": *req.Featured}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Feedback not found")
			return
		}

		respondSuccess(c, http.StatusOK, "Feedback updated", nil)
	}
}

type feedbackIDRequest struct {
	FeedbackID string `json:"feedbackId" binding:"required"`
}

func RemoveFeedback(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/feedback/remove"

		var req feedbackIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.FeedbackID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid feedbackId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("feedbacks").DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Feedback not found")
			return
		}

		respondSuccess(c, http.StatusOK, "Feedback removed", nil)
	}
}

package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"philabasket/internal/models"
	"philabasket/internal/storage"
)

// UploadMedia stores an image in the media library. The original file name
// doubles as the library key, so re-uploading the same name is rejected.
func UploadMedia(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/media/upload"
		defer handlePanic(c, route)

		fileHeader, err := c.FormFile("image")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "image file required")
			return
		}

		originalName := strings.TrimSpace(fileHeader.Filename)
		if originalName == "" {
			respondError(c, http.StatusBadRequest, route, "image file required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("media").CountDocuments(ctx, bson.M{"originalName": originalName})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, route, "An image with this name already exists")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "could not read image")
			return
		}
		defer file.Close()

		uploaded, err := storage.UploadImage(file)
		if err != nil {
			log.Printf("[MEDIA] [ERROR] cloudinary upload failed: %v", err)
			respondError(c, http.StatusInternalServerError, route, "image upload failed")
			return
		}

		media := models.Media{
			OriginalName: originalName,
			ImageURL:     uploaded.SecureURL,
			PublicID:     uploaded.PublicID,
			IsAssigned:   false,
			CreatedAt:    time.Now(),
		}

		result, err := db.Collection("media").InsertOne(ctx, media)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, route, "An image with this name already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		media.ID = result.InsertedID.(primitive.ObjectID)
		respondSuccess(c, http.StatusCreated, "Image uploaded", gin.H{"media": media})
	}
}

// ListMedia returns library entries, optionally filtered by assignment state
// via ?assigned=true|false.
func ListMedia(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/media/list"

		filter := bson.M{}
		if v := strings.TrimSpace(c.Query("assigned")); v != "" {
			filter["isAssigned"] = v == "true"
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("media").Find(ctx, filter, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		media := make([]models.Media, 0)
		if err := cursor.All(ctx, &media); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"media": media})
	}
}

type mediaIDRequest struct {
	MediaID string `json:"mediaId" binding:"required"`
}

// DeleteMedia removes the Cloudinary asset first, then the library row. An
// assigned image cannot be deleted until it is released.
func DeleteMedia(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/media/delete"
		defer handlePanic(c, route)

		var req mediaIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.MediaID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid mediaId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var media models.Media
		if err := db.Collection("media").FindOne(ctx, bson.M{"_id": id}).Decode(&media); err != nil {
			respondError(c, http.StatusNotFound, route, "Media not found")
			return
		}
		if media.IsAssigned {
			respondError(c, http.StatusBadRequest, route, "Image is in use, release it first")
			return
		}

		if media.PublicID != "" {
			if err := storage.DeleteImage(media.PublicID); err != nil {
				log.Printf("[MEDIA] [WARN] cloudinary delete of %s failed: %v", media.PublicID, err)
			}
		}

		if _, err := db.Collection("media").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "Image deleted", nil)
	}
}

// AssignMedia marks a library image as in use.
func AssignMedia(db *mongo.Database) gin.HandlerFunc {
	return setMediaAssigned(db, "POST /api/media/assign", true, "Image assigned")
}

// ReleaseMedia marks a library image as free again.
func ReleaseMedia(db *mongo.Database) gin.HandlerFunc {
	return setMediaAssigned(db, "POST /api/media/release", false, "Image released")
}

func setMediaAssigned(db *mongo.Database, route string, assigned bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req mediaIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.MediaID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid mediaId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("media").UpdateOne(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"isAssigned": assigned}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Media not found")
			return
		}

		respondSuccess(c, http.StatusOK, message, nil)
	}
}

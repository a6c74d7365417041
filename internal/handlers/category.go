package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"philabasket/internal/models"
)

func ListCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/category/list"

		filter := bson.M{"isActive": true}
		if v := strings.TrimSpace(c.Query("isActive")); v != "" {
			filter["isActive"] = v == "true"
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
		cursor, err := db.Collection("categories").Find(ctx, filter, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		categories := make([]models.Category, 0)
		if err := cursor.All(ctx, &categories); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"categories": categories})
	}
}

// GroupedCategories buckets active categories by group for the storefront
// menu; ungrouped ones land under the "Independent" bucket.
func GroupedCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/category/grouped"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"isActive": true}}},
			{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}}}},
			{{Key: "$group", Value: bson.M{
				"_id":        bson.M{"$ifNull": []interface{}{"$group", models.DefaultCategoryGroup}},
				"categories": bson.M{"$push": "$$ROOT"},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		}

		cursor, err := db.Collection("categories").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var groups []struct {
			Group      string            `bson:"_id" json:"group"`
			Categories []models.Category `bson:"categories" json:"categories"`
		}
		if err := cursor.All(ctx, &groups); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"groups": groups})
	}
}

type CategoryCreateRequest struct {
	Name  string `json:"name" binding:"required"`
	Group string `json:"group"`
}

func AddCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/category/add"

		var req CategoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondError(c, http.StatusBadRequest, route, "name required")
			return
		}

		group := strings.TrimSpace(req.Group)
		if group == "" {
			group = models.DefaultCategoryGroup
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"name": name})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, route, "Category already exists")
			return
		}

		category := models.Category{
			Name:      name,
			Slug:      slug.Make(name),
			Group:     group,
			IsActive:  true,
			CreatedAt: time.Now(),
		}

		result, err := db.Collection("categories").InsertOne(ctx, category)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, route, "Category already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		category.ID = result.InsertedID.(primitive.ObjectID)
		respondSuccess(c, http.StatusCreated, "Category added", gin.H{"category": category})
	}
}

type CategoryUpdateRequest struct {
	CategoryID string  `json:"categoryId" binding:"required"`
	Name       *string `json:"name"`
	Group      *string `json:"group"`
	IsActive   *bool   `json:"isActive"`
}

func UpdateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/category/update"

		var req CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.CategoryID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid categoryId")
			return
		}

		update := bson.M{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			update["name"] = name
			update["slug"] = slug.Make(name)
		}
		if req.Group != nil {
			group := strings.TrimSpace(*req.Group)
			if group == "" {
				group = models.DefaultCategoryGroup
			}
			update["group"] = group
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}

		if len(update) == 0 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var updated models.Category
		err = db.Collection("categories").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "Category not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "Category updated", gin.H{"category": updated})
	}
}

type CategoryRemoveRequest struct {
	CategoryID string `json:"categoryId" binding:"required"`
}

func RemoveCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/category/remove"

		var req CategoryRemoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.CategoryID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid categoryId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("categories").UpdateOne(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"isActive": false}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Category not found")
			return
		}

		respondSuccess(c, http.StatusOK, "Category removed", nil)
	}
}

// RecountCategories rebuilds the denormalized productCount on every
// category. The count drifts because product writes do not touch it.
func RecountCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/category/recount"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"isDeleted": bson.M{"$ne": true}}}},
			{{Key: "$unwind", Value: "$category"}},
			{{Key: "$group", Value: bson.M{
				"_id":   "$category",
				"count": bson.M{"$sum": 1},
			}}},
		}
		cursor, err := db.Collection("products").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		var counts []struct {
			Name  string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.All(ctx, &counts); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		countByName := make(map[string]int, len(counts))
		for _, row := range counts {
			countByName[row.Name] = row.Count
		}

		catCursor, err := db.Collection("categories").Find(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		var categories []models.Category
		if err := catCursor.All(ctx, &categories); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		updated := 0
		for _, category := range categories {
			count := countByName[category.Name]
			if count == category.ProductCount {
				continue
			}
			if _, err := db.Collection("categories").UpdateByID(ctx, category.ID, bson.M{
				"$set": bson.M{"productCount": count},
			}); err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			updated++
		}

		respondSuccess(c, http.StatusOK, "Recount complete", gin.H{"updated": updated})
	}
}

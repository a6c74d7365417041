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

// ListBlogs returns published posts, newest first, paginated.
func ListBlogs(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/blog/list"

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{"published": true}
		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("blogs").Find(ctx, filter, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		blogs := make([]models.Blog, 0)
		if err := cursor.All(ctx, &blogs); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		total, err := db.Collection("blogs").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{
			"blogs":      blogs,
			"total":      total,
			"page":       page,
			"totalPages": (total + limit - 1) / limit,
		})
	}
}

// SingleBlog fetches one published post by slug.
func SingleBlog(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/blog/post/:slug"

		blogSlug := strings.TrimSpace(c.Param("slug"))
		if blogSlug == "" {
			respondError(c, http.StatusBadRequest, route, "slug required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var blog models.Blog
		err := db.Collection("blogs").FindOne(ctx, bson.M{"slug": blogSlug, "published": true}).Decode(&blog)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "Blog not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"blog": blog})
	}
}

type BlogCreateRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
	CoverImage string `json:"coverImage"`
	Author     string `json:"author"`
	Published  *bool  `json:"published"`
}

func AddBlog(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/blog/add"

		var req BlogCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		published := true
		if req.Published != nil {
			published = *req.Published
		}

		now := time.Now()
		blog := models.Blog{
			Title:      strings.TrimSpace(req.Title),
			Slug:       slug.Make(req.Title),
			Content:    req.Content,
			CoverImage: req.CoverImage,
			Author:     strings.TrimSpace(req.Author),
			Published:  published,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("blogs").InsertOne(ctx, blog)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		blog.ID = result.InsertedID.(primitive.ObjectID)
		respondSuccess(c, http.StatusCreated, "Blog added", gin.H{"blog": blog})
	}
}

type BlogUpdateRequest struct {
	BlogID     string  `json:"blogId" binding:"required"`
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	CoverImage *string `json:"coverImage"`
	Author     *string `json:"author"`
	Published  *bool   `json:"published"`
}

func UpdateBlog(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/blog/update"

		var req BlogUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.BlogID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid blogId")
			return
		}

		update := bson.M{}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				respondError(c, http.StatusBadRequest, route, "title cannot be empty")
				return
			}
			update["title"] = title
			update["slug"] = slug.Make(title)
		}
		if req.Content != nil {
			update["content"] = *req.Content
		}
		if req.CoverImage != nil {
			update["coverImage"] = *req.CoverImage
		}
		if req.Author != nil {
			update["author"] = strings.TrimSpace(*req.Author)
		}
		if req.Published != nil {
			update["published"] = *req.Published
		}

		if len(update) == 0 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}
		update["updatedAt"] = time.Now()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var updated models.Blog
		err = db.Collection("blogs").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "Blog not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "Blog updated", gin.H{"blog": updated})
	}
}

type blogIDRequest struct {
	BlogID string `json:"blogId" binding:"required"`
}

func RemoveBlog(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/blog/remove"

		var req blogIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.BlogID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid blogId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("blogs").DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Blog not found")
			return
		}

		respondSuccess(c, http.StatusOK, "Blog removed", nil)
	}
}

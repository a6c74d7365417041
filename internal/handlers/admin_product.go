package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"philabasket/internal/models"
	"philabasket/internal/storage"
)

/* =======================
   MULTIPART INPUT
======================= */

type MultipartProductInput struct {
	Name           string
	NameSet        bool
	Description    string
	DescriptionSet bool
	Price          float64
	PriceSet       bool
	Categories     []string
	CategorySet    bool
	Year           int
	YearSet        bool
	Condition      string
	ConditionSet   bool
	Country        string
	CountrySet     bool
	Stock          int
	StockSet       bool
	Bestseller     bool
	BestsellerSet  bool
	ImageURLs      []string
}

// parseMultipartProductRequest reads the admin form. Images arrive as form
// files image1..image4 and are pushed to the CDN as they are parsed.
func parseMultipartProductRequest(c *gin.Context) (MultipartProductInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		log.Println("[PRODUCT] [ERROR] multipart parse failed:", err)
		return MultipartProductInput{}, err
	}

	input := MultipartProductInput{}

	if value, ok := c.GetPostForm("name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}
	if value, ok := c.GetPostForm("description"); ok {
		input.Description = strings.TrimSpace(value)
		input.DescriptionSet = true
	}
	if value, ok := c.GetPostForm("condition"); ok {
		input.Condition = strings.TrimSpace(value)
		input.ConditionSet = true
	}
	if value, ok := c.GetPostForm("country"); ok {
		input.Country = strings.TrimSpace(value)
		input.CountrySet = true
	}

	if value, ok := c.GetPostForm("price"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Price = parsed
		input.PriceSet = true
	}
	if value, ok := c.GetPostForm("year"); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Year = parsed
		input.YearSet = true
	}
	if value, ok := c.GetPostForm("stock"); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Stock = parsed
		input.StockSet = true
	}
	if value, ok := c.GetPostForm("bestseller"); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(value)))
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Bestseller = parsed
		input.BestsellerSet = true
	}

	if value, ok := c.GetPostForm("category"); ok {
		input.Categories = parseCategoryField(value)
		input.CategorySet = true
	}

	for _, field := range []string{"image1", "image2", "image3", "image4"} {
		file, err := c.FormFile(field)
		if err != nil {
			continue
		}
		opened, err := file.Open()
		if err != nil {
			return MultipartProductInput{}, err
		}
		result, err := storage.UploadImage(opened)
		opened.Close()
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.ImageURLs = append(input.ImageURLs, result.SecureURL)
	}

	return input, nil
}

/* =======================
   CREATE
======================= */

func AddProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/product/add"
		defer handlePanic(c, route)

		if !strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			respondError(c, http.StatusUnsupportedMediaType, route, "multipart/form-data required")
			return
		}

		input, err := parseMultipartProductRequest(c)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		name := strings.TrimSpace(input.Name)
		if !input.NameSet || name == "" {
			respondError(c, http.StatusBadRequest, route, "name required")
			return
		}
		if !input.PriceSet || input.Price <= 0 {
			respondError(c, http.StatusBadRequest, route, "invalid price")
			return
		}
		if !input.StockSet || input.Stock < 0 {
			respondError(c, http.StatusBadRequest, route, "stock must be zero or greater")
			return
		}
		if !input.CategorySet || len(input.Categories) == 0 {
			respondError(c, http.StatusBadRequest, route, "category required")
			return
		}
		if input.ConditionSet && input.Condition != "" && !isValidCondition(input.Condition) {
			respondError(c, http.StatusBadRequest, route, "invalid condition")
			return
		}
		if len(input.ImageURLs) == 0 {
			respondError(c, http.StatusBadRequest, route, "at least one image required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		count, err := db.Collection("products").CountDocuments(ctx, bson.M{
			"nameLower": strings.ToLower(name),
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, route, "Product already exists")
			return
		}

		now := time.Now()
		product := models.Product{
			Name:         name,
			NameLower:    strings.ToLower(name),
			Description:  input.Description,
			Price:        input.Price,
			Images:       input.ImageURLs,
			Category:     models.StringList(input.Categories),
			Year:         input.Year,
			Condition:    input.Condition,
			Country:      input.Country,
			Stock:        input.Stock,
			Bestseller:   input.Bestseller,
			RewardPoints: rewardPointsFor(input.Price),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, route, "Product already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.ID = res.InsertedID.(primitive.ObjectID)
		product.InStock = product.Stock > 0

		log.Println("[PRODUCT] [INFO] product added:", product.Name)
		respondSuccess(c, http.StatusCreated, "Product added", gin.H{"product": product})
	}
}

/* =======================
   UPDATE
======================= */

type ProductUpdateRequest struct {
	ProductID   string    `json:"productId" binding:"required"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *[]string `json:"category"`
	Year        *int      `json:"year"`
	Condition   *string   `json:"condition"`
	Country     *string   `json:"country"`
	Stock       *int      `json:"stock"`
	Bestseller  *bool     `json:"bestseller"`
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/product/update"
		defer handlePanic(c, route)

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		updateSet := bson.M{"updatedAt": time.Now()}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondError(c, http.StatusBadRequest, route, "name required")
				return
			}
			updateSet["name"] = name
			updateSet["nameLower"] = strings.ToLower(name)
		}
		if req.Description != nil {
			updateSet["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Price != nil {
			if *req.Price <= 0 {
				respondError(c, http.StatusBadRequest, route, "invalid price")
				return
			}
			updateSet["price"] = *req.Price
			updateSet["rewardPoints"] = rewardPointsFor(*req.Price)
		}
		if req.Category != nil {
			categories := normalizeCategories(*req.Category)
			if len(categories) == 0 {
				respondError(c, http.StatusBadRequest, route, "category required")
				return
			}
			updateSet["category"] = models.StringList(categories)
		}
		if req.Year != nil {
			updateSet["year"] = *req.Year
		}
		if req.Condition != nil {
			condition := strings.TrimSpace(*req.Condition)
			if condition != "" && !isValidCondition(condition) {
				respondError(c, http.StatusBadRequest, route, "invalid condition")
				return
			}
			updateSet["condition"] = condition
		}
		if req.Country != nil {
			updateSet["country"] = strings.TrimSpace(*req.Country)
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				respondError(c, http.StatusBadRequest, route, "stock must be zero or greater")
				return
			}
			updateSet["stock"] = *req.Stock
		}
		if req.Bestseller != nil {
			updateSet["bestseller"] = *req.Bestseller
		}

		if len(updateSet) == 1 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": updateSet},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		var raw bson.M
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product, err := normalizeProductDocument(raw)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "Product updated", gin.H{"product": product})
	}
}

/* =======================
   IMAGES
======================= */

// UpdateProductImages replaces the image set from newly uploaded files plus
// any retained URLs passed in the keepImages form field.
func UpdateProductImages(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/product/update-images"
		defer handlePanic(c, route)

		if !strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			respondError(c, http.StatusUnsupportedMediaType, route, "multipart/form-data required")
			return
		}

		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid form")
			return
		}
		productIDRaw := c.Request.FormValue("productId")

		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(productIDRaw))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		images := make([]string, 0, 4)
		for _, kept := range c.PostFormArray("keepImages") {
			if url := strings.TrimSpace(kept); url != "" {
				images = append(images, url)
			}
		}

		for _, field := range []string{"image1", "image2", "image3", "image4"} {
			file, err := c.FormFile(field)
			if err != nil {
				continue
			}
			opened, err := file.Open()
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "could not read "+field)
				return
			}
			result, err := storage.UploadImage(opened)
			opened.Close()
			if err != nil {
				log.Println("[PRODUCT] [ERROR] image upload failed:", err)
				respondError(c, http.StatusBadGateway, route, "image upload failed")
				return
			}
			images = append(images, result.SecureURL)
		}

		if len(images) == 0 {
			respondError(c, http.StatusBadRequest, route, "at least one image required")
			return
		}
		if len(images) > 4 {
			images = images[:4]
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		result, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{"image": images, "updatedAt": time.Now()}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		respondSuccess(c, http.StatusOK, "Images updated", gin.H{"image": images})
	}
}

/* =======================
   DELETE (SOFT)
======================= */

type RemoveProductRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func RemoveProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/product/remove"

		var req RemoveProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
			bson.M{
				"$set":   bson.M{"isDeleted": true, "deletedAt": now},
				"$unset": bson.M{"nameLower": ""},
			},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		log.Println("[PRODUCT] [INFO] product removed:", id.Hex())
		respondSuccess(c, http.StatusOK, "Product removed", nil)
	}
}

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

	"philabasket/internal/models"
)

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}

// GetProfile returns the signed-in user's account, points balance included.
func GetProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/user/profile"

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "User not found")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"user": user})
	}
}

type ProfileUpdateRequest struct {
	Name *string `json:"name"`
}

func UpdateProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/profile/update"

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		var req ProfileUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			update["name"] = name
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": update})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "User not found")
			return
		}

		respondSuccess(c, http.StatusOK, "Profile updated", nil)
	}
}

type CartUpdateRequest struct {
	CartData map[string]int `json:"cartData" binding:"required"`
}

// UpdateCart replaces the whole cart map; the SPA owns the merge logic and
// writes the document back verbatim.
func UpdateCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/cart/update"

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		var req CartUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		for id, qty := range req.CartData {
			if _, err := primitive.ObjectIDFromHex(id); err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid product id in cart: "+id)
				return
			}
			if qty <= 0 {
				delete(req.CartData, id)
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": bson.M{
			"cartData":  req.CartData,
			"updatedAt": time.Now(),
		}})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "User not found")
			return
		}

		respondSuccess(c, http.StatusOK, "Cart updated", nil)
	}
}

func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/cart/get"

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "User not found")
			return
		}

		if user.CartData == nil {
			user.CartData = map[string]int{}
		}
		respondSuccess(c, http.StatusOK, "", gin.H{"cartData": user.CartData})
	}
}

type WishlistToggleRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// ToggleWishlist adds the product when absent and removes it when present.
func ToggleWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/wishlist/toggle"

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		var req WishlistToggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "User not found")
			return
		}

		update := bson.M{"$addToSet": bson.M{"wishlistData": productID}}
		added := true
		for _, existing := range user.Wishlist {
			if existing == productID {
				update = bson.M{"$pull": bson.M{"wishlistData": productID}}
				added = false
				break
			}
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, update); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		message := "Added to wishlist"
		if !added {
			message = "Removed from wishlist"
		}
		respondSuccess(c, http.StatusOK, message, gin.H{"added": added})
	}
}

func GetWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/user/wishlist"

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "User not found")
			return
		}

		if len(user.Wishlist) == 0 {
			respondSuccess(c, http.StatusOK, "", gin.H{"wishlist": []models.Product{}})
			return
		}

		cursor, err := db.Collection("products").Find(ctx, bson.M{
			"_id":       bson.M{"$in": user.Wishlist},
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"wishlist": products})
	}
}

package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"philabasket/internal/config"
	"philabasket/internal/mailer"
	"philabasket/internal/middleware"
	"philabasket/internal/models"
)

type RegisterRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferrerCode string `json:"referrerCode"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a storefront account. A valid referrer code credits the
// referrer exactly once: the credit runs only after this email's first
// insert succeeds, and the unique email index rejects any replay.
func Register(db *mongo.Database, jwtSecret string, accessTTL time.Duration, mail *mailer.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		name := strings.TrimSpace(req.Name)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, route, "User already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		now := time.Now()
		user := models.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			CartData:     map[string]int{},
			Wishlist:     []primitive.ObjectID{},
			ReferralCode: generateReferralCode(),
			ReferredBy:   strings.TrimSpace(req.ReferrerCode),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, route, "User already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		userID, _ := res.InsertedID.(primitive.ObjectID)

		if user.ReferredBy != "" {
			creditReferrer(ctx, db, user.ReferredBy, email)
		}

		token, err := issueUserToken(userID, email, jwtSecret, accessTTL)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		mail.Enqueue(welcomeMessage(name, email))

		log.Println("[AUTH] [INFO] user registered:", email)
		respondSuccess(c, http.StatusCreated, "Account created", gin.H{
			"token": token,
			"user": gin.H{
				"id":           userID.Hex(),
				"name":         name,
				"email":        email,
				"referralCode": user.ReferralCode,
			},
		})
	}
}

func creditReferrer(ctx context.Context, db *mongo.Database, code, newUserEmail string) {
	bonus := config.AppEnv.ReferralBonusPoints

	var referrer models.User
	err := db.Collection("users").FindOneAndUpdate(
		ctx,
		bson.M{"referralCode": code},
		bson.M{"$inc": bson.M{
			"totalRewardPoints": bonus,
			"referralCount":     1,
		}},
	).Decode(&referrer)
	if err == mongo.ErrNoDocuments {
		log.Println("[AUTH] [INFO] unknown referral code ignored:", code)
		return
	}
	if err != nil {
		log.Println("[AUTH] [ERROR] referral credit failed:", err)
		return
	}

	entry := models.RewardTransaction{
		UserEmail: referrer.Email,
		Type:      models.RewardEarnReferral,
		Title:     "Referral bonus for inviting " + newUserEmail,
		Points:    bonus,
		CreatedAt: time.Now(),
	}
	if _, err := db.Collection("rewardtransactions").InsertOne(ctx, entry); err != nil {
		log.Println("[AUTH] [ERROR] referral ledger insert failed:", err)
	}
}

func Login(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			log.Println("[AUTH] [ERROR] login user lookup failed:", err)
			respondError(c, http.StatusUnauthorized, route, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondError(c, http.StatusUnauthorized, route, "Invalid credentials")
			return
		}

		token, err := issueUserToken(user.ID, user.Email, jwtSecret, accessTTL)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] user login succeeded:", user.Email)
		respondSuccess(c, http.StatusOK, "", gin.H{
			"token": token,
			"user": gin.H{
				"id":    user.ID.Hex(),
				"name":  user.Name,
				"email": user.Email,
			},
		})
	}
}

// GoogleLogin verifies a Google ID token and signs the user in, creating the
// account on first sight of the email.
func GoogleLogin(db *mongo.Database, jwtSecret string, accessTTL time.Duration, clientID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/google-login"
		defer handlePanic(c, route)

		var req GoogleLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		verifier := googleAuthIDTokenVerifier.Verifier{}
		if err := verifier.VerifyIDToken(req.IDToken, []string{clientID}); err != nil {
			log.Println("[AUTH] [ERROR] google id token rejected:", err)
			respondError(c, http.StatusUnauthorized, route, "Invalid Google token")
			return
		}

		claims, err := googleAuthIDTokenVerifier.Decode(req.IDToken)
		if err != nil || strings.TrimSpace(claims.Email) == "" {
			respondError(c, http.StatusUnauthorized, route, "Invalid Google token")
			return
		}

		email := strings.ToLower(strings.TrimSpace(claims.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err = db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			now := time.Now()
			user = models.User{
				Name:          claims.Name,
				Email:         email,
				GoogleAccount: true,
				CartData:      map[string]int{},
				Wishlist:      []primitive.ObjectID{},
				ReferralCode:  generateReferralCode(),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			res, insertErr := db.Collection("users").InsertOne(ctx, user)
			if insertErr != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			user.ID, _ = res.InsertedID.(primitive.ObjectID)
			log.Println("[AUTH] [INFO] google account created:", email)
		} else if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		token, err := issueUserToken(user.ID, user.Email, jwtSecret, accessTTL)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{
			"token": token,
			"user": gin.H{
				"id":    user.ID.Hex(),
				"name":  user.Name,
				"email": user.Email,
			},
		})
	}
}

// AdminLogin checks the dashboard credentials configured in the environment
// and issues a role-bearing token.
func AdminLogin(jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/admin"
		defer handlePanic(c, route)

		var req AdminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		env := config.AppEnv
		if env.AdminEmail == "" || req.Email != env.AdminEmail || req.Password != env.AdminPassword {
			respondError(c, http.StatusUnauthorized, route, "Invalid credentials")
			return
		}

		claims := jwt.MapClaims{
			"email": env.AdminEmail,
			"role":  "admin",
			"exp":   time.Now().Add(accessTTL).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] admin login succeeded")
		respondSuccess(c, http.StatusOK, "", gin.H{"token": token})
	}
}

// Logout blacklists the presented token until it would have expired anyway.
func Logout(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/logout"

		token := strings.TrimSpace(c.GetHeader("token"))
		if token == "" {
			respondError(c, http.StatusBadRequest, route, "token required")
			return
		}

		if err := middleware.RevokeToken(c.Request.Context(), rdb, token); err != nil {
			log.Println("[AUTH] [ERROR] token revoke failed:", err)
			respondError(c, http.StatusInternalServerError, route, "logout failed")
			return
		}

		respondSuccess(c, http.StatusOK, "Logged out", nil)
	}
}

func issueUserToken(userID primitive.ObjectID, email, secret string, accessTTL time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"email":  email,
		"exp":    time.Now().Add(accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func generateReferralCode() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return "PB-" + strings.ToUpper(hex.EncodeToString(buf))
}

func welcomeMessage(name, email string) mailer.Message {
	msg := mailer.Welcome(name)
	msg.To = email
	return msg
}

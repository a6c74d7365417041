package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"philabasket/internal/config"
	"philabasket/internal/database"
	"philabasket/internal/handlers"
	"philabasket/internal/mailer"
	"philabasket/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("[BOOT] [WARN] user index: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("[BOOT] [WARN] product index: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("[BOOT] [WARN] order index: %v", err)
	}
	if err := database.EnsureCategoryIndexes(db); err != nil {
		log.Printf("[BOOT] [WARN] category index: %v", err)
	}
	if err := database.EnsureMediaIndexes(db); err != nil {
		log.Printf("[BOOT] [WARN] media index: %v", err)
	}
	if err := database.EnsureSubscriberIndexes(db); err != nil {
		log.Printf("[BOOT] [WARN] subscriber index: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.AppEnv.RedisAddr,
		Password: config.AppEnv.RedisPassword,
	})

	mail := mailer.NewPool(config.AppEnv.MailWorkers)
	defer mail.Stop()

	secret := config.AppEnv.JWTSecret
	ttl := config.AppEnv.AccessTokenTTL

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "token"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	api := r.Group("/api")
	api.Use(middleware.RateLimiter(rdb))

	userAuth := middleware.UserAuth(secret, rdb)
	adminAuth := middleware.AdminAuth(secret, rdb)

	user := api.Group("/user")
	{
		user.POST("/register", handlers.Register(db, secret, ttl, mail))
		user.POST("/login", handlers.Login(db, secret, ttl))
		user.POST("/google-login", handlers.GoogleLogin(db, secret, ttl, config.AppEnv.GoogleClientID))
		user.POST("/admin", handlers.AdminLogin(secret, ttl))
		user.POST("/logout", userAuth, handlers.Logout(rdb))

		user.GET("/profile", userAuth, handlers.GetProfile(db))
		user.POST("/profile/update", userAuth, handlers.UpdateProfile(db))
		user.POST("/cart/update", userAuth, handlers.UpdateCart(db))
		user.POST("/cart/get", userAuth, handlers.GetCart(db))
		user.POST("/wishlist/toggle", userAuth, handlers.ToggleWishlist(db))
		user.GET("/wishlist", userAuth, handlers.GetWishlist(db))
	}

	product := api.Group("/product")
	{
		product.GET("/list", handlers.ListProducts(db))
		product.POST("/single", handlers.SingleProduct(db))
		product.GET("/bestsellers", handlers.ListBestsellers(db))

		product.POST("/add", adminAuth, handlers.AddProduct(db))
		product.POST("/update", adminAuth, handlers.UpdateProduct(db))
		product.POST("/update-images", adminAuth, handlers.UpdateProductImages(db))
		product.POST("/remove", adminAuth, handlers.RemoveProduct(db))
		product.POST("/bulk-add", adminAuth, handlers.BulkAddProducts(db))
	}

	order := api.Group("/order")
	{
		order.POST("/place", userAuth, handlers.PlaceOrder(db, mail))
		order.POST("/stripe", userAuth, handlers.PlaceOrderStripe(db, mail))
		order.POST("/razorpay", userAuth, handlers.PlaceOrderRazorpay(db, mail))
		order.POST("/verify", userAuth, handlers.VerifyPayment(db))
		order.POST("/userorders", userAuth, handlers.UserOrders(db))
		order.POST("/cancel", userAuth, handlers.CancelOrder(db))

		order.POST("/list", adminAuth, handlers.ListOrders(db))
		order.POST("/status", adminAuth, handlers.UpdateStatus(db, mail))
		order.POST("/delete", adminAuth, handlers.DeleteOrder(db))
		order.GET("/admin-stats", adminAuth, handlers.AdminStats(db))
		order.GET("/detailed-analytics", adminAuth, handlers.DetailedAnalytics(db))
	}

	reward := api.Group("/reward")
	{
		reward.GET("/history", userAuth, handlers.RewardHistory(db))
		reward.POST("/redeem", userAuth, handlers.RedeemPoints(db))
	}

	category := api.Group("/category")
	{
		category.GET("/list", handlers.ListCategories(db))
		category.GET("/grouped", handlers.GroupedCategories(db))

		category.POST("/add", adminAuth, handlers.AddCategory(db))
		category.POST("/update", adminAuth, handlers.UpdateCategory(db))
		category.POST("/remove", adminAuth, handlers.RemoveCategory(db))
		category.POST("/recount", adminAuth, handlers.RecountCategories(db))
	}

	media := api.Group("/media")
	media.Use(adminAuth)
	{
		media.POST("/upload", handlers.UploadMedia(db))
		media.GET("/list", handlers.ListMedia(db))
		media.POST("/delete", handlers.DeleteMedia(db))
		media.POST("/assign", handlers.AssignMedia(db))
		media.POST("/release", handlers.ReleaseMedia(db))
	}

	blog := api.Group("/blog")
	{
		blog.GET("/list", handlers.ListBlogs(db))
		blog.GET("/post/:slug", handlers.SingleBlog(db))

		blog.POST("/add", adminAuth, handlers.AddBlog(db))
		blog.POST("/update", adminAuth, handlers.UpdateBlog(db))
		blog.POST("/remove", adminAuth, handlers.RemoveBlog(db))
	}

	feedback := api.Group("/feedback")
	{
		feedback.POST("/add", handlers.AddFeedback(db))
		feedback.GET("/featured", handlers.FeaturedFeedback(db))

		feedback.GET("/list", adminAuth, handlers.ListFeedback(db))
		feedback.POST("/feature", adminAuth, handlers.FeatureFeedback(db))
		feedback.POST("/remove", adminAuth, handlers.RemoveFeedback(db))
	}

	newsletter := api.Group("/newsletter")
	{
		newsletter.POST("/subscribe", handlers.Subscribe(db))
		newsletter.GET("/list", adminAuth, handlers.ListSubscribers(db))
	}

	api.POST("/mail/send-bulk", adminAuth, handlers.SendBulkMail(db, mail))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}

package router

import (
	"github.com/avyhea/avyhea-backend/config"
	"github.com/avyhea/avyhea-backend/internal/app/controller"
	"github.com/avyhea/avyhea-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authController     *controller.AuthController
	categoryController *controller.CategoryController
	productController  *controller.ProductController
	cartController     *controller.CartController
	orderController    *controller.OrderController
	reviewController   *controller.ReviewController
	uploadController   *controller.UploadController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	categoryController *controller.CategoryController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	reviewController *controller.ReviewController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		categoryController: categoryController,
		productController:  productController,
		cartController:     cartController,
		orderController:    orderController,
		reviewController:   reviewController,
		uploadController:   uploadController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "AVYHEA API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.POST("/reset-password", r.authController.ResetPassword)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/profile", r.authMiddleware.Authenticate(), r.authController.GetProfile)
			auth.PUT("/profile", r.authMiddleware.Authenticate(), r.authController.UpdateProfile)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", r.categoryController.GetCategories)
			categories.GET("/:id", r.categoryController.GetCategoryByID)

			categories.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.categoryController.CreateCategory,
			)
			categories.PUT("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.categoryController.UpdateCategory,
			)
			categories.DELETE("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.categoryController.DeleteCategory,
			)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.GetProducts)
			products.GET("/:id", r.productController.GetProductByID)
			products.GET("/:id/reviews", r.reviewController.GetProductReviews)

			products.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.CreateProduct,
			)
			products.PUT("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.UpdateProduct,
			)
			products.DELETE("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.DeleteProduct,
			)
		}

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.GET("/count", r.cartController.GetCartCount)
			cart.POST("", r.cartController.AddToCart)
			cart.PUT("/:itemId", r.cartController.UpdateCartItem)

			// Body-addressed aliases kept for the mobile client
			cart.GET("/items", r.cartController.GetCart)
			cart.POST("/add", r.cartController.AddToCart)
			cart.PUT("/update", r.cartController.UpdateCartItem)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrderByID)
			orders.POST("/create", r.orderController.CreateOrder)
			orders.PUT("/:id/cancel", r.orderController.CancelOrder)
		}

		reviews := v1.Group("/reviews")
		reviews.Use(r.authMiddleware.Authenticate())
		{
			reviews.POST("", r.reviewController.CreateReview)
			reviews.GET("/my", r.reviewController.GetMyReviews)
			reviews.PUT("/:id", r.reviewController.UpdateReview)
			reviews.DELETE("/:id", r.reviewController.DeleteReview)
		}

		upload := v1.Group("/upload")
		upload.Use(r.authMiddleware.Authenticate())
		{
			upload.POST("/presigned-url", r.uploadController.PresignUpload)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/orders", r.orderController.GetAllOrders)
			admin.GET("/reviews", r.reviewController.GetAllReviews)
			admin.GET("/orders/export", r.orderController.ExportOrders)
			admin.GET("/orders/delivered-stats", r.orderController.GetSalesStats)
			admin.PUT("/orders/:id", r.orderController.UpdateOrderStatus)
			admin.DELETE("/orders/:id", r.orderController.DeleteOrder)

			// Body-addressed aliases kept for the mobile client
			admin.PUT("/orders/update", r.orderController.UpdateOrderStatus)
			admin.DELETE("/orders/delete", r.orderController.DeleteOrder)

			admin.GET("/users", r.authController.GetAllUsers)
			admin.PUT("/users/:id", r.authController.UpdateUser)
			admin.DELETE("/users/:id", r.authController.DeleteUser)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

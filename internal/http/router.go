package api

import (
	stdhttp "net/http"

	intconfig "storefront/internal/config"
	h "storefront/internal/http/handlers"
	"storefront/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		logrus.Warnf("failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	sellerOnly := []gin.HandlerFunc{
		middleware.RequireJWT([]byte(env.JWTSecret)),
		middleware.RequireRoles("seller", "admin"),
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/ready", h.Ready)
		api.GET("/routes", h.Routes)

		// Catalog & pricing
		catalog := api.Group("/catalog/items/:id")
		catalog.GET("", h.GetItem)
		catalog.GET("/price", h.GetItemPrice)
		catalog.GET("/special-dates", h.GetSpecialDates)
		catalog.POST("/quote", h.QuoteItem)

		special := catalog.Group("/special-prices", sellerOnly...)
		special.PUT("/:date", h.PutSpecialPrice)
		special.DELETE("/:date", h.DeleteSpecialPrice)

		// Checkout
		api.POST("/checkout/orders", h.CreateCheckoutOrder)

		// Payment reconciliation, one attempt per browser session
		attempt := api.Group("/payments/attempt", middleware.Session())
		attempt.POST("", h.BeginPaymentAttempt)
		attempt.GET("", h.RestorePaymentAttempt)
		attempt.DELETE("", h.AbandonPaymentAttempt)
		attempt.POST("/check", h.CheckPaymentStatus)
		attempt.POST("/verify", h.RetryPaymentVerification)
		attempt.POST("/poll", h.StartPaymentPolling)
		attempt.DELETE("/poll", h.StopPaymentPolling)
		attempt.GET("/state", h.GetPaymentState)

		// Documents
		api.GET("/bookings/:id/receipt", h.GetBookingReceiptPDF)
	}

	h.SetRouter(r)
	return r
}

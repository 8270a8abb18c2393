package routes

import (
	"net/http"

	"payments-service/controllers"
	"payments-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the checkout endpoints onto the engine.
func RegisterRoutes(r *gin.Engine, cc *controllers.CheckoutController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	checkout := r.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(), middleware.RateLimitMiddleware())
	checkout.POST("", cc.CreateCheckout)
	checkout.GET("/:orderId", cc.GetTransaction)

	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware())
	payments.GET("/status/:transactionId", cc.CheckPaymentStatus)
}

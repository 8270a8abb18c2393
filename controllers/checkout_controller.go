package controllers

import (
	"net/http"

	"payments-service/middleware"
	"payments-service/models"
	"payments-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckoutController exposes the checkout and settlement-status endpoints.
type CheckoutController struct {
	Checkout *services.CheckoutService
	Logger   *zap.Logger
}

// CreateCheckout handles POST /checkout.
func (cc *CheckoutController) CreateCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)

	resp, svcErr := cc.Checkout.Checkout(c.Request.Context(), userID, &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetTransaction handles GET /checkout/:orderId.
func (cc *CheckoutController) GetTransaction(c *gin.Context) {
	orderID := c.Param("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing order id"})
		return
	}

	txn, svcErr := cc.Checkout.GetTransaction(c.Request.Context(), orderID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, txn)
}

// CheckPaymentStatus handles GET /payments/status/:transactionId for
// mobile-money payments.
func (cc *CheckoutController) CheckPaymentStatus(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing transaction id"})
		return
	}

	result, svcErr := cc.Checkout.CheckMobileMoneyPayment(c.Request.Context(), transactionID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, result)
}

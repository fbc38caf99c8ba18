package handlers

import (
	"net/http"

	"storefront/internal/http/middleware"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
}

// CreateCheckoutOrder opens the payment order the checkout widget needs.
func CreateCheckoutOrder(c *gin.Context) {
	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	d := deps()
	svc := services.CheckoutService{
		Orders:    d.Orders,
		Currency:  d.Currency,
		RequestID: middleware.GetRequestID(c),
	}
	order, err := svc.CreateOrder(c.Request.Context(), req.Amount, req.Currency, req.Receipt)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

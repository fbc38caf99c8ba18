package services

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "INR"

// OrderCreator opens payment orders on the backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error)
}

// CheckoutService prepares the payment order the checkout widget is opened
// with. Capture itself happens in the widget.
type CheckoutService struct {
	Orders    OrderCreator
	Currency  string
	RequestID string
}

func (s CheckoutService) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (models.Order, error) {
	if !amount.IsPositive() {
		return models.Order{}, domain.ValidationError{Field: "amount", Msg: "amount must be greater than zero"}
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	receipt = strings.TrimSpace(receipt)
	if receipt == "" {
		receipt = "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	}

	order, err := s.Orders.CreateOrder(ctx, models.OrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		utils.LogWarn(s.RequestID, "checkout", "create_order", err.Error())
		return models.Order{}, err
	}

	utils.LogEvent(s.RequestID, "checkout", "create_order", fmt.Sprintf("order=%s amount=%s receipt=%s", order.ID, utils.FormatCurrency(currency, amount), receipt))
	return order, nil
}

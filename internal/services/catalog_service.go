package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/pricing"
	"storefront/internal/repositories"
	"storefront/internal/utils"

	"github.com/shopspring/decimal"
)

// ItemSource loads catalog items.
type ItemSource interface {
	GetByID(ctx context.Context, id string) (models.BookableItem, error)
	UpdateSpecialPrices(ctx context.Context, id string, fn func(map[string]models.PriceFields) error) error
}

// CatalogService serves prices and quotes for catalog items and lets
// sellers manage per-date overrides.
type CatalogService struct {
	Items     ItemSource
	Cache     repositories.ItemCache
	Resolver  pricing.Resolver
	RequestID string
}

// PriceQuote is a resolved price for one field on one date.
type PriceQuote struct {
	ItemID  string          `json:"itemId"`
	Field   string          `json:"field"`
	Date    string          `json:"date,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Special bool            `json:"special"`
}

// OrderQuote is the totals of a ticket order.
type OrderQuote struct {
	ItemID       string          `json:"itemId"`
	Date         string          `json:"date,omitempty"`
	AdultCount   int             `json:"adultCount"`
	ChildCount   int             `json:"childCount"`
	IsSpecialDay bool            `json:"isSpecialDay"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
	AdvanceTotal decimal.Decimal `json:"advanceTotal"`
}

// Item reads through the cache. Cache failures only cost a database read.
func (s CatalogService) Item(ctx context.Context, id string) (models.BookableItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.BookableItem{}, domain.ValidationError{Field: "id", Msg: "item id is required"}
	}

	if s.Cache != nil {
		item, err := s.Cache.Get(ctx, id)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, repositories.ErrCacheMiss) {
			utils.LogWarn(s.RequestID, "catalog", "cache_get", err.Error())
		}
	}

	item, err := s.Items.GetByID(ctx, id)
	if err != nil {
		return models.BookableItem{}, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, item); err != nil {
			utils.LogWarn(s.RequestID, "catalog", "cache_set", err.Error())
		}
	}
	return item, nil
}

// Price resolves field on date. An empty date reads the base price.
func (s CatalogService) Price(ctx context.Context, id, field, date string) (PriceQuote, error) {
	field = utils.NormalizeField(field)
	if field == "" {
		return PriceQuote{}, domain.ValidationError{Field: "field", Msg: "price field is required"}
	}
	date, err := normalizeOptionalDate(date)
	if err != nil {
		return PriceQuote{}, err
	}

	item, err := s.Item(ctx, id)
	if err != nil {
		return PriceQuote{}, err
	}

	return PriceQuote{
		ItemID:  item.ID,
		Field:   field,
		Date:    date,
		Amount:  s.Resolver.EffectivePrice(&item, field, date),
		Special: date != "" && pricing.HasSpecialPricing(&item, date),
	}, nil
}

// SpecialDates lists the dates with overrides, ascending.
func (s CatalogService) SpecialDates(ctx context.Context, id string) ([]string, error) {
	item, err := s.Item(ctx, id)
	if err != nil {
		return nil, err
	}
	return pricing.SpecialPricingDates(&item), nil
}

// Quote totals a ticket order.
func (s CatalogService) Quote(ctx context.Context, id string, adults, children int, date string, special bool) (OrderQuote, error) {
	if adults < 0 {
		return OrderQuote{}, domain.ValidationError{Field: "adultCount", Msg: "must not be negative"}
	}
	if children < 0 {
		return OrderQuote{}, domain.ValidationError{Field: "childCount", Msg: "must not be negative"}
	}
	date, err := normalizeOptionalDate(date)
	if err != nil {
		return OrderQuote{}, err
	}

	item, err := s.Item(ctx, id)
	if err != nil {
		return OrderQuote{}, err
	}

	totals := s.Resolver.TicketOrderTotal(models.TicketOrder{
		Item:         &item,
		AdultCount:   adults,
		ChildCount:   children,
		Date:         date,
		IsSpecialDay: special,
	})
	utils.LogEvent(s.RequestID, "catalog", "quote", fmt.Sprintf("item=%s adults=%d children=%d date=%s total=%s", item.ID, adults, children, date, utils.FormatMoney(totals.GrandTotal)))

	return OrderQuote{
		ItemID:       item.ID,
		Date:         date,
		AdultCount:   adults,
		ChildCount:   children,
		IsSpecialDay: special,
		GrandTotal:   totals.GrandTotal,
		AdvanceTotal: totals.AdvanceTotal,
	}, nil
}

// SetSpecialPrice merges fields into the override for date.
func (s CatalogService) SetSpecialPrice(ctx context.Context, id, date string, fields models.PriceFields) (models.PriceFields, error) {
	day, ok := utils.NormalizeDate(date)
	if !ok {
		return nil, domain.ValidationError{Field: "date", Msg: "date must be YYYY-MM-DD"}
	}
	if len(fields) == 0 {
		return nil, domain.ValidationError{Field: "prices", Msg: "at least one price field is required"}
	}
	clean := models.PriceFields{}
	for k, v := range fields {
		name := utils.NormalizeField(k)
		if name == "" {
			return nil, domain.ValidationError{Field: "prices", Msg: "empty price field name"}
		}
		if v.IsNegative() {
			return nil, domain.ValidationError{Field: name, Msg: "price must be a non-negative number"}
		}
		clean[name] = v
	}

	var merged models.PriceFields
	err := s.Items.UpdateSpecialPrices(ctx, id, func(sp map[string]models.PriceFields) error {
		cur := sp[day]
		if cur == nil {
			cur = models.PriceFields{}
		}
		for k, v := range clean {
			cur[k] = v
		}
		sp[day] = cur
		merged = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	utils.LogEvent(s.RequestID, "catalog", "set_special_price", fmt.Sprintf("item=%s date=%s fields=%d", id, day, len(clean)))
	return merged, nil
}

// ClearSpecialPrice removes the override for date.
func (s CatalogService) ClearSpecialPrice(ctx context.Context, id, date string) error {
	day, ok := utils.NormalizeDate(date)
	if !ok {
		return domain.ValidationError{Field: "date", Msg: "date must be YYYY-MM-DD"}
	}

	err := s.Items.UpdateSpecialPrices(ctx, id, func(sp map[string]models.PriceFields) error {
		if _, ok := sp[day]; !ok {
			return domain.NotFoundError{Resource: "special price"}
		}
		delete(sp, day)
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	utils.LogEvent(s.RequestID, "catalog", "clear_special_price", "item="+id+" date="+day)
	return nil
}

func (s CatalogService) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, strings.TrimSpace(id)); err != nil {
		utils.LogWarn(s.RequestID, "catalog", "cache_delete", err.Error())
	}
}

func normalizeOptionalDate(date string) (string, error) {
	if strings.TrimSpace(date) == "" {
		return "", nil
	}
	day, ok := utils.NormalizeDate(date)
	if !ok {
		return "", domain.ValidationError{Field: "date", Msg: "date must be YYYY-MM-DD or an ISO timestamp"}
	}
	return day, nil
}

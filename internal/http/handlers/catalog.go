package handlers

import (
	"net/http"

	"storefront/internal/domain/models"
	"storefront/internal/http/middleware"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

func catalogService(c *gin.Context) services.CatalogService {
	d := deps()
	return services.CatalogService{
		Items:     d.Items,
		Cache:     d.Cache,
		Resolver:  d.Resolver,
		RequestID: middleware.GetRequestID(c),
	}
}

// GetItem returns the item in the backend's flat shape.
func GetItem(c *gin.Context) {
	item, err := catalogService(c).Item(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetItemPrice resolves ?field= on ?date= (base price when date is empty).
func GetItemPrice(c *gin.Context) {
	q, err := catalogService(c).Price(c.Request.Context(), c.Param("id"), c.Query("field"), c.Query("date"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func GetSpecialDates(c *gin.Context) {
	dates, err := catalogService(c).SpecialDates(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itemId": c.Param("id"), "dates": dates})
}

type quoteRequest struct {
	AdultCount   int    `json:"adultCount"`
	ChildCount   int    `json:"childCount"`
	Date         string `json:"date"`
	IsSpecialDay bool   `json:"isSpecialDay"`
}

func QuoteItem(c *gin.Context) {
	var req quoteRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := catalogService(c).Quote(c.Request.Context(), c.Param("id"), req.AdultCount, req.ChildCount, req.Date, req.IsSpecialDay)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// PutSpecialPrice merges a {field: amount} body into the override for :date.
func PutSpecialPrice(c *gin.Context) {
	var fields models.PriceFields
	if !bindJSON(c, &fields) {
		return
	}
	merged, err := catalogService(c).SetSpecialPrice(c.Request.Context(), c.Param("id"), c.Param("date"), fields)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itemId": c.Param("id"), "date": c.Param("date"), "prices": merged})
}

func DeleteSpecialPrice(c *gin.Context) {
	if err := catalogService(c).ClearSpecialPrice(c.Request.Context(), c.Param("id"), c.Param("date")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "special price removed"})
}

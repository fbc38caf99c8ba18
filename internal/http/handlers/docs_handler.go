package handlers

import (
	"net/http"

	"storefront/internal/http/middleware"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

// GetBookingReceiptPDF returns the payment receipt of a paid booking (inline).
func GetBookingReceiptPDF(c *gin.Context) {
	d := deps()
	svc := services.DocsService{
		Bookings:  d.Bookings,
		Currency:  d.Currency,
		RequestID: middleware.GetRequestID(c),
	}
	pdfBytes, filename, err := svc.GenerateReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

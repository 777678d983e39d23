package commerceserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/ports"
)

type EmailAPI struct {
	service ports.Service
}

func NewEmailAPI(service ports.Service) *EmailAPI {
	return &EmailAPI{service: service}
}

// Post /emails/payment/confirmation
func (api *EmailAPI) SendPaymentConfirmation(c *gin.Context) {
	var req domain.PaymentConfirmation
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := api.service.SendPaymentConfirmation(c.Request.Context(), req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// Post /emails/inventory/low-stock
func (api *EmailAPI) SendLowStock(c *gin.Context) {
	var req domain.LowStock
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := api.service.SendLowStock(c.Request.Context(), req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

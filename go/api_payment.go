package commerceserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	checkoutports "github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	ordermapper "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/http/mapper"
	paymentmapper "github.com/Apurer/go-gin-commerce/internal/domains/payments/adapters/http/mapper"
	paymentsports "github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
)

// PaymentAPI serves the payment catalog, the ledger reads and the
// confirmation saga.
type PaymentAPI struct {
	ledger   paymentsports.Service
	checkout checkoutports.Service
}

func NewPaymentAPI(ledger paymentsports.Service, checkout checkoutports.Service) *PaymentAPI {
	return &PaymentAPI{ledger: ledger, checkout: checkout}
}

// ConfirmationResponse is the body of a successful confirmation.
type ConfirmationResponse struct {
	Message  string                  `json:"message"`
	Order    ordermapper.Order       `json:"order"`
	Amount   float64                 `json:"amount"`
	Payments []paymentmapper.Payment `json:"payments"`
}

// Get /payments/types
func (api *PaymentAPI) PaymentTypes(c *gin.Context) {
	methods, err := api.ledger.PaymentTypes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentmapper.MethodNames(methods))
}

// Post /payments/confirm
func (api *PaymentAPI) ConfirmPayment(c *gin.Context) {
	if api.checkout == nil {
		DefaultHandleFunc(c)
		return
	}
	var input types.ConfirmPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	result, err := api.checkout.ConfirmPayment(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ConfirmationResponse{
		Message:  "Payment confirmed.",
		Order:    ordermapper.FromDomain(result.Order),
		Amount:   result.Amount,
		Payments: paymentmapper.FromDomainList(result.Payments),
	})
}

// Get /payments/order/:orderId
func (api *PaymentAPI) ListByOrder(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))
	payments, err := api.ledger.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentmapper.FromDomainList(payments))
}

package commerceserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every resource. A nil API leaves
// its routes unregistered, which is how a process serves a subset.
type ApiHandleFunctions struct {
	HealthAPI  *HealthAPI
	UserAPI    *UserAPI
	ProductAPI *ProductAPI
	OrderAPI   *OrderAPI
	PaymentAPI *PaymentAPI
	EmailAPI   *EmailAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	return NewRouterWithGinEngine(router, handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes that have no implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(h ApiHandleFunctions) []Route {
	var routes []Route
	if h.HealthAPI != nil {
		routes = append(routes, Route{"Health", http.MethodGet, "/health", h.HealthAPI.Health})
	}
	if h.UserAPI != nil {
		routes = append(routes,
			Route{"CreateUser", http.MethodPost, "/users", h.UserAPI.CreateUser},
			Route{"ListUsers", http.MethodGet, "/users", h.UserAPI.ListUsers},
			Route{"GetUser", http.MethodGet, "/users/:id", h.UserAPI.GetUser},
			Route{"UpdateUser", http.MethodPut, "/users/:id", h.UserAPI.UpdateUser},
		)
	}
	if h.ProductAPI != nil {
		routes = append(routes,
			Route{"ListProducts", http.MethodGet, "/products", h.ProductAPI.ListProducts},
			Route{"CreateProduct", http.MethodPost, "/products", h.ProductAPI.CreateProduct},
			Route{"GetProduct", http.MethodGet, "/products/:id", h.ProductAPI.GetProduct},
			Route{"UpdateProduct", http.MethodPut, "/products/:id", h.ProductAPI.UpdateProduct},
			Route{"DeleteProduct", http.MethodDelete, "/products/:id", h.ProductAPI.DeleteProduct},
			Route{"AdjustStock", http.MethodPatch, "/products/:id/stock", h.ProductAPI.AdjustStock},
			Route{"ReserveStock", http.MethodPost, "/products/:id/reserve", h.ProductAPI.Reserve},
			Route{"ReleaseStock", http.MethodPost, "/products/:id/release", h.ProductAPI.Release},
		)
	}
	if h.OrderAPI != nil {
		routes = append(routes,
			Route{"CreateOrder", http.MethodPost, "/orders", h.OrderAPI.CreateOrder},
			Route{"ListOrders", http.MethodGet, "/orders", h.OrderAPI.ListOrders},
			Route{"GetOrder", http.MethodGet, "/orders/:id", h.OrderAPI.GetOrder},
			Route{"InsertOrder", http.MethodPut, "/orders/:id", h.OrderAPI.InsertOrder},
			Route{"ListOrdersByUser", http.MethodGet, "/orders/user/:userId", h.OrderAPI.ListOrdersByUser},
			Route{"UpdateOrderStatus", http.MethodPatch, "/orders/:id/status", h.OrderAPI.UpdateStatus},
		)
	}
	if h.PaymentAPI != nil {
		routes = append(routes,
			Route{"PaymentTypes", http.MethodGet, "/payments/types", h.PaymentAPI.PaymentTypes},
			Route{"ConfirmPayment", http.MethodPost, "/payments/confirm", h.PaymentAPI.ConfirmPayment},
			Route{"ListOrderPayments", http.MethodGet, "/payments/order/:orderId", h.PaymentAPI.ListByOrder},
		)
	}
	if h.EmailAPI != nil {
		routes = append(routes,
			Route{"SendPaymentConfirmation", http.MethodPost, "/emails/payment/confirmation", h.EmailAPI.SendPaymentConfirmation},
			Route{"SendLowStock", http.MethodPost, "/emails/inventory/low-stock", h.EmailAPI.SendLowStock},
		)
	}
	return routes
}

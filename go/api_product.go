package commerceserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	inventorymapper "github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/http/mapper"
	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	inventoryports "github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
)

// ProductAPI serves the inventory ledger, including the stock moves used by
// remote orchestrators.
type ProductAPI struct {
	service inventoryports.Service
}

func NewProductAPI(service inventoryports.Service) *ProductAPI {
	return &ProductAPI{service: service}
}

// Get /products
func (api *ProductAPI) ListProducts(c *gin.Context) {
	products, err := api.service.ListProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventorymapper.FromDomainList(products))
}

// Post /products
func (api *ProductAPI) CreateProduct(c *gin.Context) {
	var payload inventorymapper.ProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	product, err := api.service.CreateProduct(c.Request.Context(), payload.ToDomain())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inventorymapper.FromDomain(product))
}

// Get /products/:id
func (api *ProductAPI) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventorymapper.FromDomain(product))
}

// Put /products/:id
func (api *ProductAPI) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload inventorymapper.ProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	product, err := api.service.UpdateProduct(c.Request.Context(), id, payload.ToDomain())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventorymapper.FromDomain(product))
}

// Delete /products/:id
func (api *ProductAPI) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Patch /products/:id/stock
// Accepts {delta} or the older {stock} form.
func (api *ProductAPI) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload inventorymapper.StockChange
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	var current int64
	if payload.Delta == nil {
		product, err := api.service.GetProduct(ctx, id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		current = product.Stock
	}
	delta, err := payload.ResolveDelta(current)
	if err != nil {
		badRequest(c, err)
		return
	}
	product, err := api.service.AdjustStock(ctx, id, delta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventorymapper.FromDomain(product))
}

// Post /products/:id/reserve
func (api *ProductAPI) Reserve(c *gin.Context) {
	api.move(c, api.service.Reserve)
}

// Post /products/:id/release
func (api *ProductAPI) Release(c *gin.Context) {
	api.move(c, api.service.Release)
}

func (api *ProductAPI) move(c *gin.Context, op func(ctx context.Context, id, quantity int64) (*inventorydomain.Product, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload inventorymapper.Quantity
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	product, err := op(c.Request.Context(), id, payload.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventorymapper.FromDomain(product))
}

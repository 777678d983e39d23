package commerceserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	usermapper "github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/http/mapper"
	usersports "github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
)

// UserAPI serves the user directory.
type UserAPI struct {
	service usersports.Service
}

func NewUserAPI(service usersports.Service) *UserAPI {
	return &UserAPI{service: service}
}

// Post /users
func (api *UserAPI) CreateUser(c *gin.Context) {
	var payload usermapper.UserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	user, err := api.service.CreateUser(c.Request.Context(), payload.Name, payload.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, usermapper.FromDomain(user))
}

// Get /users
func (api *UserAPI) ListUsers(c *gin.Context) {
	users, err := api.service.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromDomainList(users))
}

// Get /users/:id
func (api *UserAPI) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := api.service.GetUser(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromDomain(user))
}

// Put /users/:id
func (api *UserAPI) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload usermapper.UserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	user, err := api.service.UpdateUser(c.Request.Context(), id, payload.Name, payload.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromDomain(user))
}

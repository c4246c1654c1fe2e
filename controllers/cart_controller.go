package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/repository"
)

type CartController struct {
	carts repository.CartRepository
}

func NewCartController(carts repository.CartRepository) *CartController {
	return &CartController{carts: carts}
}

// ListCart returns the cart of ?email=. Ownership is enforced by the route
// guard; without an email the cart is empty.
func (cc *CartController) ListCart(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusOK, []models.CartItem{})
		return
	}

	items, err := cc.carts.FindByEmail(c.Request.Context(), email)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (cc *CartController) AddToCart(c *gin.Context) {
	var item models.CartItem
	if !bindJSON(c, &item) {
		return
	}
	item.Email = strings.TrimSpace(item.Email)
	if item.Email == "" {
		apperrors.Abort(c, apperrors.BadRequest("email is required", nil))
		return
	}
	item.ID = primitive.NilObjectID

	result, err := cc.carts.Create(c.Request.Context(), &item)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (cc *CartController) RemoveFromCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := cc.carts.Delete(c.Request.Context(), id)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

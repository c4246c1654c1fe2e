package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/common/logger"
	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/repository"
)

type MenuController struct {
	menu    repository.MenuRepository
	reviews repository.ReviewRepository
}

func NewMenuController(menu repository.MenuRepository, reviews repository.ReviewRepository) *MenuController {
	return &MenuController{menu: menu, reviews: reviews}
}

func (m *MenuController) ListMenu(c *gin.Context) {
	items, err := m.menu.FindAll(c.Request.Context())
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (m *MenuController) CreateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if !bindJSON(c, &item) {
		return
	}
	item.ID = primitive.NilObjectID

	result, err := m.menu.Create(c.Request.Context(), &item)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	logger.Info(c, "menu item created", zap.String("item_id", result.InsertedID), zap.String("category", item.Category))
	c.JSON(http.StatusOK, result)
}

func (m *MenuController) DeleteMenuItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := m.menu.Delete(c.Request.Context(), id)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (m *MenuController) ListReviews(c *gin.Context) {
	reviews, err := m.reviews.FindAll(c.Request.Context())
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/common/logger"
	"github.com/imam0321/bistro-boss-server/middleware"
	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/repository"
)

type UserController struct {
	users repository.UserRepository
}

func NewUserController(users repository.UserRepository) *UserController {
	return &UserController{users: users}
}

func (u *UserController) ListUsers(c *gin.Context) {
	users, err := u.users.FindAll(c.Request.Context())
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser inserts the user unless one with the same email exists. The
// role is never taken from the request.
func (u *UserController) CreateUser(c *gin.Context) {
	var user models.User
	if !bindJSON(c, &user) {
		return
	}
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		apperrors.Abort(c, apperrors.BadRequest("email is required", nil))
		return
	}
	user.ID = primitive.NilObjectID
	user.Role = ""

	ctx := c.Request.Context()
	existing, err := u.users.FindByEmail(ctx, user.Email)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusOK, gin.H{"message": "user already exists", "insertedId": nil})
		return
	}

	result, err := u.users.Create(ctx, &user)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	logger.Info(c, "user created", zap.String("user_id", result.InsertedID))
	c.JSON(http.StatusOK, result)
}

// AdminStatus reports whether :email is an admin. Callers may only ask
// about themselves; any other email is answered with admin=false.
func (u *UserController) AdminStatus(c *gin.Context) {
	email := c.Param("email")
	if email != middleware.GetEmail(c) {
		c.JSON(http.StatusOK, models.AdminStatus{Admin: false})
		return
	}

	user, err := u.users.FindByEmail(c.Request.Context(), email)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AdminStatus{Admin: user.IsAdmin()})
}

func (u *UserController) MakeAdmin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := u.users.PromoteToAdmin(c.Request.Context(), id)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	logger.Info(c, "user promoted to admin", zap.String("user_id", id.Hex()), zap.Int64("modified", result.ModifiedCount))
	c.JSON(http.StatusOK, result)
}

package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/repository"
)

// pathID parses the :id path parameter, aborting with 400 when malformed.
func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := repository.ParseID(c.Param("id"))
	if err != nil {
		apperrors.Abort(c, apperrors.BadRequest("invalid id", err))
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindJSON decodes the request body into dst, aborting with 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("invalid request body", err))
		return false
	}
	return true
}

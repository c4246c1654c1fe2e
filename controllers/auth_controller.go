package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/services"
)

type AuthController struct {
	tokens services.TokenIssuer
}

func NewAuthController(tokens services.TokenIssuer) *AuthController {
	return &AuthController{tokens: tokens}
}

// IssueToken signs whatever identity payload the client posts, normally
// {email}. The payload shape is not checked.
func (a *AuthController) IssueToken(c *gin.Context) {
	var claims map[string]interface{}
	if !bindJSON(c, &claims) {
		return
	}

	token, err := a.tokens.Issue(claims)
	if err != nil {
		apperrors.Abort(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

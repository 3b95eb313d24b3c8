package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/daybook/internal/api"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/server/users"
)

func tokenResponse(res *users.AuthResult) api.TokenResponse {
	return api.TokenResponse{
		IdentityID:   res.User.ID,
		Anonymous:    res.User.Anonymous,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}
}

// abortWithError maps service sentinels to HTTP statuses.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.Is(err, common.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case errors.Is(err, common.ErrNotAnonymous):
		c.JSON(http.StatusBadRequest, gin.H{"error": "identity is not anonymous"})
	case errors.Is(err, common.ErrInvalidDate), errors.Is(err, common.ErrInvalidMood):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(c.Request.Context(), "internal error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) registerAnonymous(c *gin.Context) {
	res, err := h.users.RegisterAnonymous(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *Handler) refresh(c *gin.Context) {
	var input api.RefreshRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.users.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *Handler) login(c *gin.Context) {
	var input api.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.users.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *Handler) link(c *gin.Context) {
	var input api.LinkRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.users.Link(c.Request.Context(), currentUserID(c), input.Username, input.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(res))
}

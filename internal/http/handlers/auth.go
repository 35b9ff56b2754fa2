package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	jwt         *auth.JWTManager
	operatorKey string
	accessTTL   time.Duration
}

func NewAuthHandler(jwt *auth.JWTManager, operatorKey string, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{jwt: jwt, operatorKey: operatorKey, accessTTL: accessTTL}
}

// Login exchanges the shared operator key for a short-lived bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		OperatorKey string `json:"operator_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	key := strings.TrimSpace(req.OperatorKey)
	if h.operatorKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.operatorKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_operator_key"})
		return
	}

	token, err := h.jwt.MintOperatorToken(h.accessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_mint_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_in":   int64(h.accessTTL.Seconds()),
	})
}

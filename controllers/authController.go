package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kd-resto/dtos"
	"kd-resto/services"
)

type AuthController struct {
	auth services.AuthService
	log  *slog.Logger
}

func NewAuthController(auth services.AuthService, log *slog.Logger) *AuthController {
	return &AuthController{auth: auth, log: log}
}

func (ctl *AuthController) Login(c *gin.Context) {
	var input dtos.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := ctl.auth.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": response.Message,
		"token":   response.Token,
		"role":    response.Role,
	})
}

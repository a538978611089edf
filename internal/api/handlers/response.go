// Package handlers provides the HTTP handlers of the GreenWipe API: certificate
// creation, verification, anchoring and report download, impact statistics,
// wipe suggestions, setup and authentication, and health checks.
//
// Every handler answers with the Response envelope.
package handlers

import (
	"github.com/gin-gonic/gin"
)

// Response is the envelope returned by every endpoint
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

package core

import "github.com/gin-gonic/gin"

// respondError sends unified error payload {"error": {"code", "message", "request_id"}}.
func respondError(c *gin.Context, status int, code, message string) {
	body := gin.H{"code": code, "message": message}
	if rid := c.GetString(requestIDKey); rid != "" {
		body["request_id"] = rid
	}
	c.JSON(status, gin.H{"error": body})
}

package auth

import "github.com/gin-gonic/gin"

const (
	accountIDKey = "accountID"
	roleKey      = "role"
)

// GetAccountID returns the authenticated company or vendor id, or empty string.
func GetAccountID(c *gin.Context) string {
	if v, ok := c.Get(accountIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole returns the authenticated role or empty string.
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get(roleKey); ok {
		if r, ok := v.(Role); ok {
			return r
		}
	}
	return ""
}

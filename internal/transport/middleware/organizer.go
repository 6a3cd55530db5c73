package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	OrganizerHeader    = "X-Organizer-ID"
	OrganizerIDKey     = "organizer_id"
	SweeperTokenHeader = "X-Sweeper-Token"
)

// Organizer requires the X-Organizer-ID header. Ownership of the campaign is
// checked by the services.
func Organizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		organizerID := strings.TrimSpace(c.GetHeader(OrganizerHeader))
		if organizerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + OrganizerHeader + " header"})
			return
		}
		c.Set(OrganizerIDKey, organizerID)
		c.Next()
	}
}

// SweeperToken guards the scheduler trigger. An empty token disables the trigger.
func SweeperToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(SweeperTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid sweeper token"})
			return
		}
		c.Next()
	}
}

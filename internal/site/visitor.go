package site

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	VisitorCookie = "classy_visitor"
	visitorKey    = "visitor_id"
	visitorMaxAge = 365 * 24 * 60 * 60
)

// VisitorMiddleware gives every browser a stable id so its view state and
// draft survive reloads.
func VisitorMiddleware(cookiePath string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(VisitorCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(VisitorCookie, id, visitorMaxAge, cookiePath, "", secure, true)
		}
		c.Set(visitorKey, id)
		c.Next()
	}
}

func visitorID(c *gin.Context) string {
	return c.GetString(visitorKey)
}

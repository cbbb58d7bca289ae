package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"canokart/internal/domain"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"
	headerUserRole  = "X-User-Role"

	ctxRequestID = "requestId"
	ctxIdentity  = "identity"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// accessLog replaces gin.Logger with one structured line per request
func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("requestId", c.GetString(ctxRequestID)),
		)
	}
}

// identify reads the caller set by the upstream auth layer
func identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		who := domain.Identity{UserID: strings.TrimSpace(c.GetHeader(headerUserID))}
		if who.UserID != "" {
			who.Role = domain.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(headerUserRole))))
			if who.Role == "" {
				who.Role = domain.RoleCustomer
			}
		}
		c.Set(ctxIdentity, who)
		c.Next()
	}
}

func identity(c *gin.Context) domain.Identity {
	if v, ok := c.Get(ctxIdentity); ok {
		if who, ok := v.(domain.Identity); ok {
			return who
		}
	}
	return domain.Identity{}
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func requireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := identity(c)
		if !who.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		for _, r := range roles {
			if who.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}

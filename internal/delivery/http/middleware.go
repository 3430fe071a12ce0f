package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/logger"
	"vmp-edtech-backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// AuthMiddleware validates the bearer token and stores user_id, role and
// company_id in the context. With roles given, other roles get 403.
func AuthMiddleware(tokens *utils.TokenManager, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid auth header format"})
			return
		}

		claims, err := tokens.ValidateJWT(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			return
		}

		role := domain.Role(claims.Role)
		if len(roles) > 0 {
			allowed := false
			for _, r := range roles {
				if r == role {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Forbidden access"})
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", role)
		c.Set("company_id", claims.CompanyID)
		c.Next()
	}
}

// CORS allows the configured front-end origins.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := c.Get("user_id"); ok {
			fields = append(fields, "user_id", userID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// RateLimit is a fixed one-minute window per client ip and route, counted in
// Redis. The counter and its expiry go out in one pipeline. A nil client or a
// limit of zero disables it; Redis errors let the request through.
func RateLimit(rdb *redis.Client, limit int, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("ratelimit:%s:%s:%d", c.FullPath(), c.ClientIP(), window)
		ctx := c.Request.Context()

		var (
			incr   *redis.IntCmd
			expire *redis.BoolCmd
		)
		_, _ = rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			expire = pipe.Expire(ctx, key, 2*time.Minute)
			return nil
		})
		count, err := incr.Result()
		if err != nil {
			log.Warn("rate limit unavailable", "error", err)
			c.Next()
			return
		}
		if err := expire.Err(); err != nil {
			log.Error("rate limit key expiry not set", "key", key, "error", err)
		}

		c.Header("X-RateLimit-Limit", fmt.Sprint(limit))
		if count > int64(limit) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Demasiadas solicitudes, intente nuevamente en un minuto"})
			return
		}
		c.Next()
	}
}

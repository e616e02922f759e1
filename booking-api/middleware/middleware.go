package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"salon-booking/shared/auth"
	"salon-booking/shared/config"
)

func CORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(cfg.Security.CORSOrigins) == 1 && cfg.Security.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Security.CORSOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "Accept-Language")
	return cors.New(corsConfig)
}

func RateLimit(cfg *config.Config) gin.HandlerFunc {
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		limiter, exists := limiters[ip]
		if !exists {
			limiter = rate.NewLimiter(
				rate.Every(cfg.Security.RateLimitWindow),
				cfg.Security.RateLimitRequests,
			)
			limiters[ip] = limiter
		}

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// LanguageDetector resolves the response language from ?lang= or the
// Accept-Language header, defaulting to Polish.
func LanguageDetector(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var language string

		if query := c.Query("lang"); query != "" {
			for _, supported := range cfg.I18n.SupportedLanguages {
				if query == supported {
					language = supported
					break
				}
			}
		}

		if language == "" {
			acceptLang := c.GetHeader("Accept-Language")
			if acceptLang != "" {
				langs := strings.Split(acceptLang, ",")
				if len(langs) > 0 {
					lang := strings.TrimSpace(strings.Split(langs[0], ";")[0])
					for _, supported := range cfg.I18n.SupportedLanguages {
						if strings.HasPrefix(lang, supported) {
							language = supported
							break
						}
					}
				}
			}
		}

		if language == "" {
			language = cfg.I18n.DefaultLanguage
		}

		c.Set("language", language)
		c.Next()
	}
}

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_auth_token",
				"message": "Authorization header required",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Set("user_email", claims.Email)

		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "role_not_found",
				"message": "User role not found in context",
			})
			c.Abort()
			return
		}

		roleStr := userRole.(string)
		for _, role := range roles {
			if roleStr == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "insufficient_permissions",
			"message": "Insufficient permissions for this action",
		})
		c.Abort()
	}
}

package core

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	sessionName   = "scorekeeper_session"
	sessionMaxAge = 7 * 24 * 3600 // 1 week

	requestIDKey = "request_id"
	userIDKey    = "user_id"
)

// RequestIDMiddleware propagates or assigns X-Request-ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if rid == "" || len(rid) > 128 {
			rid = NewRequestID()
		}
		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// CORSMiddleware sets CORS headers for the frontend origin. Requests from other
// origins still reach the handler, just without the headers; only their
// preflights are refused.
func CORSMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range strings.Split(cfg.FrontendOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, ok := allowed[strings.ToLower(origin)]

		if c.Request.Method == http.MethodOptions && origin != "" {
			if !ok {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
				c.Abort()
				return
			}
			setCORSHeaders(c, origin)
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		if origin != "" && ok {
			setCORSHeaders(c, origin)
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Credentials", "true")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
}

// RequireToken is the session gate: it verifies the bearer token and exposes the
// subject user id to handlers. The handler chain stops on any failure.
func RequireToken(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization Header")
			c.Abort()
			return
		}
		userID, err := tokens.Verify(raw)
		if err != nil {
			log.Printf("token rejected rid=%s path=%s: %v", c.GetString(requestIDKey), c.Request.URL.Path, err)
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID returns the subject stored by RequireToken.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

// browserSession loads the cookie session used by the index page.
// A broken cookie yields a fresh session rather than an error.
func browserSession(c *gin.Context, cfg Config, store sessions.Store) *sessions.Session {
	sess, err := store.Get(c.Request, sessionName)
	if err != nil {
		sess, _ = store.New(c.Request, sessionName)
	}
	applySessionOptions(cfg, sess)
	return sess
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	session.Options.Path = "/"
	session.Options.MaxAge = sessionMaxAge
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = http.SameSiteLaxMode
}

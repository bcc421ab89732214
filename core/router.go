package core

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templatesFS embed.FS

const maxJSONBody = 1 << 20

// RouterDeps carries the collaborators the HTTP layer needs.
type RouterDeps struct {
	Auth   AuthService
	Tokens *TokenIssuer
	Users  UserRepository
	Games  GameRepository
	Cache  StatsCache     // nil disables caching
	Store  sessions.Store // cookie store for the index page
	DB     Pinger         // nil reports the database as unreachable
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, deps RouterDeps) *gin.Engine {
	startedAt := time.Now()
	cache := deps.Cache
	if cache == nil {
		cache = noopStatsCache{}
	}

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.Use(gin.LoggerWithFormatter(accessLogFormatter))
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", func(c *gin.Context) {
		users, err := deps.Users.List(c.Request.Context())
		if err != nil {
			log.Printf("index: list users: %v", err)
			users = nil
		}
		sess := browserSession(c, cfg, deps.Store)
		lastLogin, _ := sess.Values["username"].(string)
		c.HTML(http.StatusOK, "index.html", gin.H{"Users": users, "LastLogin": lastLogin})
	})

	r.GET("/healthz", func(c *gin.Context) {
		st := CollectSystemStatus(c.Request.Context(), deps.DB, cache, startedAt)
		status := http.StatusOK
		if st.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, st)
	})

	api := r.Group("/api")
	api.Use(CORSMiddleware(cfg))
	// Preflight requests are answered by CORSMiddleware; the route only has to exist.
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	{
		api.POST("/login", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			user, err := deps.Auth.Authenticate(c.Request.Context(), req.Username, req.Password)
			if err != nil {
				log.Printf("login failed username=%q rid=%s", req.Username, c.GetString(requestIDKey))
				respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Bad username or password")
				return
			}

			token, err := deps.Tokens.Issue(user.ID)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to issue token")
				return
			}

			sess := browserSession(c, cfg, deps.Store)
			sess.Values = map[interface{}]interface{}{"username": user.Username}
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Printf("login: save browser session: %v", err)
			}

			log.Printf("login ok user_id=%d username=%s", user.ID, user.Username)
			c.JSON(http.StatusOK, gin.H{"msg": "Login successful", "access_token": token})
		})

		api.POST("/logout", func(c *gin.Context) {
			// Tokens are stateless; logout only forgets the browser session.
			sess := browserSession(c, cfg, deps.Store)
			sess.Values = map[interface{}]interface{}{}
			sess.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to delete the cookie
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Printf("logout: clear browser session: %v", err)
			}
			c.JSON(http.StatusOK, gin.H{"msg": "Logout successful"})
		})

		api.POST("/register", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			if strings.TrimSpace(req.Username) == "" || req.Password == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing username or password")
				return
			}
			if utf8.RuneCountInString(strings.TrimSpace(req.Username)) > 80 {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "username must be at most 80 characters")
				return
			}
			if len(req.Password) > 72 {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "password must be at most 72 bytes")
				return
			}

			if _, err := deps.Auth.Register(c.Request.Context(), req.Username, req.Password); err != nil {
				if errors.Is(err, ErrUserExists) {
					respondError(c, http.StatusConflict, "CONFLICT", "Username already exists")
					return
				}
				log.Printf("register failed username=%q: %v", req.Username, err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An error occurred during registration")
				return
			}
			c.JSON(http.StatusCreated, gin.H{"msg": "User created successfully"})
		})

		api.GET("/message", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"text": "hello!"})
		})

		authed := api.Group("")
		authed.Use(RequireToken(deps.Tokens))

		authed.GET("/data", func(c *gin.Context) {
			user, ok := loadCurrentUser(c, deps.Users)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"message":      "Hello, World!",
				"logged_in_as": UserListItem{ID: user.ID, Username: user.Username},
			})
		})

		authed.POST("/data", func(c *gin.Context) {
			body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONBody))
			if err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "failed to read body")
				return
			}
			if len(body) > 0 && !json.Valid(body) {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			log.Printf("post request received user_id=%d payload=%s", currentUserID(c), body)
			c.String(http.StatusOK, "test post")
		})

		authed.GET("/users", func(c *gin.Context) {
			users, err := deps.Users.ListExcept(c.Request.Context(), currentUserID(c))
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch users")
				return
			}
			c.JSON(http.StatusOK, users)
		})

		authed.POST("/score", func(c *gin.Context) {
			var data map[string]json.RawMessage
			if err := c.ShouldBindJSON(&data); err != nil || data == nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			in, err := ParseScoreInput(data)
			if err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
				return
			}

			ctx := c.Request.Context()
			userID := currentUserID(c)
			if in.OpponentUserID != nil {
				if *in.OpponentUserID == userID {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "opponent_user_id must differ from the recording user")
					return
				}
				if _, err := deps.Users.FindByID(ctx, *in.OpponentUserID); err != nil {
					if errors.Is(err, ErrUserNotFound) {
						respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Referenced opponent_user_id does not exist")
						return
					}
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to verify opponent")
					return
				}
			}

			game, err := deps.Games.Create(ctx, NewGame{
				UserID:            userID,
				OpponentUserID:    in.OpponentUserID,
				GuestOpponentName: in.GuestOpponentName,
				UserScore:         in.UserScore,
				OpponentScore:     in.OpponentScore,
				IsSkunk:           in.IsSkunk,
				IsDoubleSkunk:     in.IsDoubleSkunk,
				Notes:             in.Notes,
			})
			if err != nil {
				log.Printf("score: create game user_id=%d: %v", userID, err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to record game")
				return
			}

			affected := []int64{userID}
			if in.OpponentUserID != nil {
				affected = append(affected, *in.OpponentUserID)
			}
			if err := cache.Invalidate(ctx, affected...); err != nil {
				log.Printf("score: invalidate dashboard cache: %v", err)
			}

			c.JSON(http.StatusCreated, gin.H{
				"message":        "Cribbage game logged successfully!",
				"game_id":        game.ID,
				"user_id":        game.UserID,
				"user_score":     game.UserScore,
				"opponent_score": game.OpponentScore,
			})
		})

		authed.GET("/dashboard-stats", func(c *gin.Context) {
			ctx := c.Request.Context()
			userID := currentUserID(c)
			if cached, err := cache.Get(ctx, userID); err != nil {
				log.Printf("dashboard: cache get user_id=%d: %v", userID, err)
			} else if cached != nil {
				c.JSON(http.StatusOK, cached)
				return
			}

			user, ok := loadCurrentUser(c, deps.Users)
			if !ok {
				return
			}
			games, err := deps.Games.ListForUser(ctx, user.ID)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch games")
				return
			}
			stats := ComputeDashboardStats(*user, games)
			if err := cache.Set(ctx, user.ID, stats); err != nil {
				log.Printf("dashboard: cache set user_id=%d: %v", user.ID, err)
			}
			c.JSON(http.StatusOK, stats)
		})
	}

	return r
}

// loadCurrentUser resolves the token subject; a subject whose account is gone is a 404.
func loadCurrentUser(c *gin.Context, users UserRepository) (*UserRecord, bool) {
	u, err := users.FindByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "User not found")
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load user")
		return nil, false
	}
	return u, true
}

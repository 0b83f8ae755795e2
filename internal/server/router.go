package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	adminSubjectContextKey = "scoreboard_admin_subject"
	defaultVersion         = "1.0.0"
)

var (
	errMissingLeaderboardService = errors.New("leaderboard service dependency required")
	errMissingDispatcher         = errors.New("activity dispatcher dependency required")
)

// TokenValidator checks admin bearer tokens and returns their subject.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

type Dependencies struct {
	Service    *leaderboard.Service
	Dispatcher *ActivityDispatcher
	// Tokens guards mutating routes; nil leaves them open.
	Tokens  TokenValidator
	Metrics *metrics.Recorder
	Logger  *zap.Logger
	Version string
	Clock   func() time.Time
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Service == nil {
		return nil, errMissingLeaderboardService
	}
	if deps.Dispatcher == nil {
		return nil, errMissingDispatcher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	version := deps.Version
	if version == "" {
		version = defaultVersion
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	router.Use(corsMiddleware())

	handler := &httpHandler{
		service:           deps.Service,
		dispatcher:        deps.Dispatcher,
		tokens:            deps.Tokens,
		logger:            logger,
		version:           version,
		clock:             clock,
		startedAt:         clock(),
		heartbeatInterval: defaultHeartbeatPeriod,
	}

	api := router.Group("/api")
	api.GET("/players", handler.handleListPlayers)
	api.GET("/games", handler.handleListGames)
	api.GET("/scores", handler.handleListScores)
	api.GET("/activities", handler.handleListActivities)
	api.POST("/activities", handler.handleCreateActivity)
	api.DELETE("/activities", handler.handleDeleteActivities)
	api.GET("/activities/stream", handler.handleActivityStream)
	api.GET("/leaderboard", handler.handleLeaderboard)
	api.GET("/data", handler.handleExportData)
	api.POST("/data", handler.handleImportData)
	api.DELETE("/data", handler.handleResetData)
	api.GET("/health", handler.handleHealth)
	api.HEAD("/health", handler.handleHealthHead)

	mutating := api.Group("")
	if deps.Tokens != nil {
		mutating.Use(handler.authorizeRequest)
	}
	mutating.POST("/players", handler.handleAddPlayer)
	mutating.DELETE("/players", handler.handleRemovePlayer)
	mutating.DELETE("/players/:id", handler.handleRemovePlayer)
	mutating.POST("/games", handler.handleAddGame)
	mutating.DELETE("/games", handler.handleRemoveGame)
	mutating.DELETE("/games/:id", handler.handleRemoveGame)
	mutating.PUT("/scores", handler.handleUpsertScore)
	mutating.POST("/scores", handler.handleCreateScore)
	mutating.DELETE("/scores", handler.handleResetScore)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	})
}

type httpHandler struct {
	service           *leaderboard.Service
	dispatcher        *ActivityDispatcher
	tokens            TokenValidator
	logger            *zap.Logger
	version           string
	clock             func() time.Time
	startedAt         time.Time
	heartbeatInterval time.Duration
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token, ok := auth.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: "authorization header missing or invalid"})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: "unauthorized"})
		return
	}
	c.Set(adminSubjectContextKey, subject)
	c.Next()
}

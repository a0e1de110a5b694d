package main

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/UnknownRpg/Sketch-Master-AI/auth"
	"github.com/UnknownRpg/Sketch-Master-AI/commentary"
	"github.com/UnknownRpg/Sketch-Master-AI/config"
	"github.com/UnknownRpg/Sketch-Master-AI/crypto"
	"github.com/UnknownRpg/Sketch-Master-AI/game"
	"github.com/UnknownRpg/Sketch-Master-AI/logger"
	"github.com/UnknownRpg/Sketch-Master-AI/migrations"
	"github.com/UnknownRpg/Sketch-Master-AI/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()

	// Registered before the origin check: probes and scrapers send no
	// Origin header.
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	logger.Setup(cfg.Debug)

	if err := migrations.Up(cfg.PostgresURL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not reach postgres")
	}
	defer pgRepo.Close()

	passwordHasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
	tokenManager := crypto.NewJWTManager(cfg.JWTKey, cfg.TokenAge)

	authService := auth.NewService(pgRepo, passwordHasher, tokenManager)
	authHandler := auth.NewAuthHandler(authService, cfg.TokenAge)

	r := CreateServer(cfg.Origins())

	{
		authGroup := r.Group("/auth")
		authGroup.POST("/signup", authHandler.SignupHandler)
		authGroup.POST("/login", authHandler.LoginHandler)
		authGroup.POST("/logout", authHandler.LogoutHandler)
		authGroup.GET("/refresh", authHandler.RefreshSessionHandler)
	}

	idGen := game.NewIdGen()
	tickerGen := game.NewTickerGen()

	lobby := game.NewLobby(idGen, tickerGen)

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	roomDefaults := game.RoomConfigs{
		MaxPlayers:             8,
		RoundsCount:            3,
		ChoosingPromptDuration: cfg.ChoosingPromptDuration,
		DrawingDuration:        cfg.DrawingDuration,
		TurnSummaryDuration:    cfg.TurnSummaryDuration,
		CommentaryInterval:     cfg.CommentaryInterval,
		HistoryDepth:           cfg.HistoryDepth,
	}

	gameHandler := game.NewGameHandler(lobby, pgRepo, pgRepo, pgRepo, pgRepo, commentary.New(), roomDefaults)
	{
		gameGroup := r.Group("/game")
		gameGroup.Use(authHandler.RequireAuthMiddleware(time.Second * 2))

		gameGroup.GET("/create", gameHandler.CreateGameHandler)
		gameGroup.GET("/join/:roomid", gameHandler.JoinGameHandler)
		gameGroup.GET("/games", gameHandler.GetPublicGamesHandler)
		gameGroup.GET("/leaderboard", gameHandler.GetLeaderboardHandler)
	}

	log.Info().Str("addr", cfg.Addr).Msg("server starting")
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

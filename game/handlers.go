package game

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/UnknownRpg/Sketch-Master-AI/commentary"
)

// LobbyService is the lobby surface the HTTP handlers need.
type LobbyService interface {
	RequestAddAndRunRoom(ctx context.Context, r RoomHandle)
	ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest)
	GetPublicGames(ctx context.Context) []RoomInfo
}

type GameHandler struct {
	lobby       LobbyService
	userGetter  UserGetter
	promptGen   PromptGenerator
	resultSaver ResultSaver
	leaderboard LeaderboardReader
	commentator *commentary.Engine
	defaults    RoomConfigs
}

func NewGameHandler(lobby LobbyService, userGetter UserGetter, promptGen PromptGenerator, resultSaver ResultSaver, leaderboard LeaderboardReader, commentator *commentary.Engine, defaults RoomConfigs) *GameHandler {
	return &GameHandler{
		lobby:       lobby,
		userGetter:  userGetter,
		promptGen:   promptGen,
		resultSaver: resultSaver,
		leaderboard: leaderboard,
		commentator: commentator,
		defaults:    defaults,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin is enforced by the allow-list middleware in front of the
	// router, before the upgrade is ever reached.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// parseConfigs reads room settings from query params, since the create
// request is a websocket upgrade and carries no body.
func (h *GameHandler) parseConfigs(ctx *gin.Context) (RoomConfigs, string) {
	configs := h.defaults

	if raw := ctx.Query("maxPlayers"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2 || v > 20 {
			return configs, "maxPlayers must be between 2 and 20"
		}
		configs.MaxPlayers = v
	}
	if configs.MaxPlayers == 0 {
		configs.MaxPlayers = 8
	}

	if raw := ctx.Query("roundsCount"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 10 {
			return configs, "roundsCount must be between 1 and 10"
		}
		configs.RoundsCount = v
	}
	if configs.RoundsCount == 0 {
		configs.RoundsCount = 3
	}

	if raw := ctx.Query("drawingDuration"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 20 || v > 300 {
			return configs, "drawingDuration must be between 20 and 300 seconds"
		}
		configs.DrawingDuration = time.Duration(v) * time.Second
	}

	return configs, ""
}

func (h *GameHandler) CreateGameHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		ctx.String(http.StatusUnauthorized, "unauthenticated")
		return
	}

	configs, problem := h.parseConfigs(ctx)
	if problem != "" {
		ctx.String(http.StatusBadRequest, problem)
		return
	}

	user, err := h.userGetter.GetUserById(ctx.Request.Context(), id)
	if err != nil {
		ctx.String(http.StatusInternalServerError, "unknown-error")
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	private := ctx.Query("private") == "true"
	player := NewPlayer(id, user.Username, NewWebsocketConnection(conn))
	room := NewRoom(player, private, configs, h.promptGen, h.commentator, h.resultSaver)

	h.lobby.RequestAddAndRunRoom(ctx.Request.Context(), room)
	go player.ReadPump()
	go player.WritePump()
}

func (h *GameHandler) JoinGameHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		ctx.String(http.StatusUnauthorized, "unauthenticated")
		return
	}

	roomId := ctx.Param("roomid")

	user, err := h.userGetter.GetUserById(ctx.Request.Context(), id)
	if err != nil {
		ctx.String(http.StatusInternalServerError, "unknown-error")
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	player := NewPlayer(id, user.Username, NewWebsocketConnection(conn))
	jreq := NewRoomJoinRequest(roomId, player)

	h.lobby.ForwardPlayerJoinRequestToRoom(ctx.Request.Context(), jreq)

	select {
	case err := <-jreq.errChan:
		if err != nil {
			player.socket.Close(err.Error())
		}
	case <-time.After(5 * time.Second):
		player.socket.Close("join-timeout")
	}
}

func (h *GameHandler) GetPublicGamesHandler(ctx *gin.Context) {
	games := h.lobby.GetPublicGames(ctx.Request.Context())
	ctx.JSON(http.StatusOK, games)
}

func (h *GameHandler) GetLeaderboardHandler(ctx *gin.Context) {
	limit := 10
	if raw := ctx.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			ctx.String(http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = v
	}

	results, err := h.leaderboard.TopResults(ctx.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load the leaderboard")
		ctx.String(http.StatusInternalServerError, "unknown-error")
		return
	}
	ctx.JSON(http.StatusOK, results)
}

package match

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/protocol"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/stats"
	"go.uber.org/zap"
)

// MatchHandler 场次处理器
type MatchHandler struct {
	service *MatchService
	logger  *zap.Logger
}

// NewMatchHandler 创建场次处理器
func NewMatchHandler(service *MatchService, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes 注册路由，organizer 保护所有修改场次的端点
func (h *MatchHandler) RegisterRoutes(r chi.Router, organizer func(http.Handler) http.Handler) {
	r.Get("/archive", h.handleFinishedSessions)
	r.Get("/archive/{key}", h.handleArchivedStandings)

	r.Route("/sessions", func(r chi.Router) {
		r.With(organizer).Post("/", h.handleCreateSession)

		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Get("/standings", h.handleStandings)

			r.Group(func(r chi.Router) {
				r.Use(organizer)
				r.Delete("/", h.handleDeleteSession)
				r.Post("/finish", h.handleFinishSession)
				r.Post("/restart", h.handleRestartSession)

				r.Post("/players", h.handleCreatePlayer)
				r.Put("/players/{playerID}", h.handleRenamePlayer)
				r.Delete("/players/{playerID}", h.handleDeletePlayer)

				r.Post("/matches", h.handleCreateMatch)
				r.Post("/matches/{matchID}/winner", h.handleReportWinner)
				r.Post("/matches/{matchID}/revert", h.handleRevertMatch)
			})
		})
	})
}

// 创建场次请求
type createSessionRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// 球员请求
type playerRequest struct {
	Name string `json:"name" validate:"required"`
}

// 录入胜方请求
type winnerRequest struct {
	Winner models.TeamSide `json:"winner" validate:"required,oneof=team1 team2"`
}

// 归档排名响应数据
type archiveData struct {
	Key        string            `json:"key"`
	FinishedAt time.Time         `json:"finished_at"`
	Standings  []models.Standing `json:"standings"`
}

// 结束场次响应数据
type finishData struct {
	Standings []models.Standing `json:"standings"`
	Leaders   []models.Standing `json:"leaders"`
}

// 回退响应数据
type revertData struct {
	Removed int `json:"removed"`
}

// handleCreateSession 创建场次
func (h *MatchHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := protocol.DecodeRequest(r, &req); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}

	key, session, err := h.service.CreateSession(r.Context(), req.Name)
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusCreated, "场次已创建", protocol.ConvertSessionToView(key, session))
}

// handleGetSession 获取场次
func (h *MatchHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	session, err := h.service.GetSession(r.Context(), key)
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "获取场次成功", protocol.ConvertSessionToView(key, session))
}

// handleDeleteSession 删除场次
func (h *MatchHandler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), chi.URLParam(r, "key")); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "场次已删除", nil)
}

// handleStandings 当前排名
func (h *MatchHandler) handleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.service.Standings(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "获取排名成功", standings)
}

// handleFinishSession 结束场次
func (h *MatchHandler) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	standings, err := h.service.FinishSession(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "场次已结束", finishData{
		Standings: standings,
		Leaders:   stats.Leaders(standings),
	})
}

// handleRestartSession 重新开始
func (h *MatchHandler) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	session, err := h.service.RestartSession(r.Context(), key)
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "场次已重新开始", protocol.ConvertSessionToView(key, session))
}

// handleCreatePlayer 添加球员
func (h *MatchHandler) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := protocol.DecodeRequest(r, &req); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}

	player, err := h.service.CreatePlayer(r.Context(), chi.URLParam(r, "key"), req.Name)
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusCreated, "球员已添加", protocol.ConvertPlayerToView(&player))
}

// handleRenamePlayer 修改球员名
func (h *MatchHandler) handleRenamePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := protocol.DecodeRequest(r, &req); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}

	player, err := h.service.RenamePlayer(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "playerID"), req.Name)
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "球员已改名", protocol.ConvertPlayerToView(&player))
}

// handleDeletePlayer 删除球员
func (h *MatchHandler) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePlayer(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "playerID")); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "球员已删除", nil)
}

// handleCreateMatch 创建下一场
func (h *MatchHandler) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, err := h.service.CreateNextMatch(r.Context(), key); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	h.respondWithSession(w, r, key, http.StatusCreated, "比赛已创建")
}

// handleReportWinner 录入胜方
func (h *MatchHandler) handleReportWinner(w http.ResponseWriter, r *http.Request) {
	var req winnerRequest
	if err := protocol.DecodeRequest(r, &req); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}

	key := chi.URLParam(r, "key")
	if _, err := h.service.ReportWinner(r.Context(), key, chi.URLParam(r, "matchID"), req.Winner); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	h.respondWithSession(w, r, key, http.StatusOK, "比赛结果已录入")
}

// handleRevertMatch 回退比赛
func (h *MatchHandler) handleRevertMatch(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.RevertMatch(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "matchID"))
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "比赛已回退", revertData{Removed: removed})
}

func (h *MatchHandler) respondWithSession(w http.ResponseWriter, r *http.Request, key string, status int, message string) {
	session, err := h.service.GetSession(r.Context(), key)
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, status, message, protocol.ConvertSessionToView(key, session))
}

// handleFinishedSessions 最近结束的场次
func (h *MatchHandler) handleFinishedSessions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			protocol.SendMessage(w, http.StatusBadRequest, "limit 必须在 1 到 100 之间")
			return
		}
		limit = n
	}

	keys, err := h.service.FinishedSessions(r.Context(), limit)
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "获取已结束场次成功", keys)
}

// handleArchivedStandings 已结束场次的排名
func (h *MatchHandler) handleArchivedStandings(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	standings, finishedAt, err := h.service.ArchivedStandings(r.Context(), key)
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "获取归档排名成功", archiveData{
		Key:        key,
		FinishedAt: finishedAt,
		Standings:  standings,
	})
}

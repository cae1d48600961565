package controller

import (
	"english_club_backend/internal/service"
	"english_club_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type XPController struct {
	XPService          *service.XPService
	LeaderboardService *service.LeaderboardService
	DefaultLimit       int
}

func NewXPController(xp *service.XPService, leaderboard *service.LeaderboardService, defaultLimit int) *XPController {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &XPController{
		XPService:          xp,
		LeaderboardService: leaderboard,
		DefaultLimit:       defaultLimit,
	}
}

// @Summary 我的经验流水
// @Tags 经验
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(25)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/v1/xp/transactions [get]
func (c *XPController) Transactions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page := util.ParsePage(ctx.Query("page"))
	limit := util.ClampLimit(ctx.Query("limit"), util.DefaultPageSize)

	entries, total, err := c.XPService.ListTransactions(ctx.Request.Context(), claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  entries,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 经验排行榜
// @Tags 经验
// @Produce json
// @Security BearerAuth
// @Param limit query int false "数量"
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/v1/leaderboard [get]
func (c *XPController) Leaderboard(ctx *gin.Context) {
	limit := util.ClampLimit(ctx.Query("limit"), c.DefaultLimit)

	entries, err := c.LeaderboardService.Top(ctx.Request.Context(), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

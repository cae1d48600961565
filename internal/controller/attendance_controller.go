package controller

import (
	"english_club_backend/internal/service"
	"english_club_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type AttendanceController struct {
	Service *service.AttendanceService
}

func NewAttendanceController(svc *service.AttendanceService) *AttendanceController {
	return &AttendanceController{Service: svc}
}

// @Summary 出勤列表
// @Tags 出勤
// @Produce json
// @Security BearerAuth
// @Param date query string false "日期 YYYY-MM-DD，默认今天"
// @Success 200 {object} util.Response
// @Router /api/v1/attendance [get]
func (c *AttendanceController) List(ctx *gin.Context) {
	date := ctx.Query("date")
	if date != "" {
		if _, err := time.Parse(util.DateFormat, date); err != nil {
			util.Unprocessable(ctx, map[string][]string{"date": {"The date field must match the format Y-m-d."}})
			return
		}
	}

	records, date, err := c.Service.List(ctx.Request.Context(), date)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"items": records,
		"date":  date,
	})
}

// @Summary 记录出勤
// @Description 同一用户同一天只有一条记录；出席时发放经验，重复标记不会重复发放
// @Tags 出勤
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.AttendanceReq true "出勤信息"
// @Success 201 {object} util.Response{data=model.Attendance}
// @Failure 422 {object} util.ValidationResponse
// @Router /api/v1/attendance [post]
func (c *AttendanceController) Mark(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AttendanceReq
	if !bindJSON(ctx, &req) {
		return
	}

	record, err := c.Service.Mark(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, record)
}

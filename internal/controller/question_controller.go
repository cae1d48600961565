package controller

import (
	"english_club_backend/internal/service"
	"english_club_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	Service *service.QuestionService
}

func NewQuestionController(svc *service.QuestionService) *QuestionController {
	return &QuestionController{Service: svc}
}

// @Summary 题目列表
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/v1/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	page := util.ParsePage(ctx.Query("page"))

	questions, total, err := c.Service.List(ctx.Request.Context(), page, util.DefaultPageSize)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  questions,
		Total: total,
		Page:  page,
		Limit: util.DefaultPageSize,
	})
}

// @Summary 创建题目
// @Tags 题库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuestionCreateReq true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 422 {object} util.ValidationResponse
// @Router /api/v1/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req service.QuestionCreateReq
	if !bindJSON(ctx, &req) {
		return
	}

	q, err := c.Service.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// @Summary 更新题目
// @Tags 题库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Param body body service.QuestionUpdateReq true "题目"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/v1/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.QuestionUpdateReq
	if !bindJSON(ctx, &req) {
		return
	}

	q, err := c.Service.Update(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// @Summary 删除题目
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/v1/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.Service.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Question deleted"})
}

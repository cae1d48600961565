package controller

import (
	"english_club_backend/internal/model"
	"english_club_backend/internal/service"
	"english_club_backend/internal/util"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// AttemptReq 提交答案；answers 为空时仅查询已有结果
// swagger:model AttemptReq
type AttemptReq struct {
	Answers []service.SubmittedAnswer `json:"answers"`
}

type QuizController struct {
	QuizService    *service.QuizService
	AttemptService *service.AttemptService
}

func NewQuizController(quizService *service.QuizService, attemptService *service.AttemptService) *QuizController {
	return &QuizController{
		QuizService:    quizService,
		AttemptService: attemptService,
	}
}

// @Summary 测验列表
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.QuizView}
// @Router /api/v1/quizzes [get]
func (c *QuizController) List(ctx *gin.Context) {
	quizzes, err := c.QuizService.List(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// @Summary 测验详情
// @Description 学员视图不包含正确答案与解析
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Failure 404 {object} util.Response
// @Router /api/v1/quizzes/{id} [get]
func (c *QuizController) Show(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	withAnswers := claims != nil && (claims.Role == model.Admin || claims.Role == model.Staff)

	quiz, err := c.QuizService.Get(ctx.Request.Context(), id, withAnswers)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 创建测验
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuizCreateReq true "测验信息"
// @Success 201 {object} util.Response{data=service.QuizView}
// @Failure 422 {object} util.ValidationResponse
// @Router /api/v1/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	var req service.QuizCreateReq
	if !bindJSON(ctx, &req) {
		return
	}

	quiz, err := c.QuizService.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 更新测验
// @Description questions 字段存在时整体替换题目
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param body body service.QuizUpdateReq true "测验信息"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Router /api/v1/quizzes/{id} [put]
func (c *QuizController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req service.QuizUpdateReq
	if !bindJSON(ctx, &req) {
		return
	}

	quiz, err := c.QuizService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 删除测验
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/v1/quizzes/{id} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.QuizService.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Quiz deleted"})
}

// @Summary 提交测验答案
// @Description 每个用户每个测验只计分一次，重复提交返回已有结果（already_attempted=true）
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param body body AttemptReq false "答案"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Failure 422 {object} util.ValidationResponse
// @Failure 500 {object} util.Response
// @Router /api/v1/quizzes/{id}/attempts [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AttemptReq
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.respondBindError(ctx, claims.UserID, id, err)
		return
	}

	c.respondAttempt(ctx, claims.UserID, id, req.Answers)
}

// respondBindError 已有作答记录时优先返回该结果，否则报告请求体错误
func (c *QuizController) respondBindError(ctx *gin.Context, userID, quizID uint, bindErr error) {
	result, err := c.AttemptService.SubmitAttempt(ctx.Request.Context(), userID, quizID, nil)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			respondError(ctx, err)
			return
		}
		util.ValidationFailed(ctx, bindErr)
		return
	}
	if result.Attempt.AlreadyAttempted {
		util.Success(ctx, result)
		return
	}
	util.ValidationFailed(ctx, bindErr)
}

// @Summary 我的测验结果
// @Description 等同于不带答案提交
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Router /api/v1/quizzes/{id}/attempts/me [get]
func (c *QuizController) MyAttempt(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	c.respondAttempt(ctx, claims.UserID, id, nil)
}

func (c *QuizController) respondAttempt(ctx *gin.Context, userID, quizID uint, answers []service.SubmittedAnswer) {
	result, err := c.AttemptService.SubmitAttempt(ctx.Request.Context(), userID, quizID, answers)
	if err != nil {
		if errors.Is(err, util.ErrAttemptNotSaved) {
			// 具体原因已记录日志
			util.Error(ctx, 500, util.ErrAttemptNotSaved.Error())
			return
		}
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

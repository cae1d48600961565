package controller

import (
	"english_club_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// bindJSON 绑定失败时输出 422
func bindJSON(ctx *gin.Context, obj interface{}) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		util.ValidationFailed(ctx, err)
		return false
	}
	return true
}

func pathID(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.NotFound(ctx)
		return 0, false
	}
	return id, true
}

// respondError 把业务错误映射为 HTTP 状态
func respondError(ctx *gin.Context, err error) {
	var verr *util.ValidationError
	switch {
	case errors.As(err, &verr):
		util.Unprocessable(ctx, verr.Fields)
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrAttemptNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

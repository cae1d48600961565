package controller

import (
	"english_club_backend/internal/service"
	"english_club_backend/internal/util"
	"io"

	"github.com/gin-gonic/gin"
)

const maxAvatarSize = 2 << 20

type MemberController struct {
	Service *service.MemberService
}

func NewMemberController(svc *service.MemberService) *MemberController {
	return &MemberController{Service: svc}
}

// @Summary 成员列表
// @Description 仅包含 member 与 pengurus，按注册时间倒序，每页 25 条
// @Tags 成员
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/v1/members [get]
func (c *MemberController) List(ctx *gin.Context) {
	page := util.ParsePage(ctx.Query("page"))

	users, total, err := c.Service.List(ctx.Request.Context(), page)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  service.NewUserProfiles(users),
		Total: total,
		Page:  page,
		Limit: util.DefaultPageSize,
	})
}

// @Summary 新增成员
// @Tags 成员
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.MemberCreateReq true "成员信息"
// @Success 201 {object} util.Response{data=service.UserProfile}
// @Failure 422 {object} util.ValidationResponse
// @Router /api/v1/members [post]
func (c *MemberController) Create(ctx *gin.Context) {
	var req service.MemberCreateReq
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.Service.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, service.NewUserProfile(user))
}

// @Summary 上传成员头像
// @Tags 成员
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param avatar formData file true "头像图片"
// @Success 200 {object} util.Response{data=service.UserProfile}
// @Failure 422 {object} util.ValidationResponse
// @Router /api/v1/members/{id}/avatar [post]
func (c *MemberController) UploadAvatar(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	header, err := ctx.FormFile("avatar")
	if err != nil {
		util.Unprocessable(ctx, map[string][]string{"avatar": {"The avatar field is required."}})
		return
	}
	if header.Size > maxAvatarSize || !util.HasImageExtension(header.Filename) {
		util.Unprocessable(ctx, map[string][]string{"avatar": {"The avatar must be an image no larger than 2MB."}})
		return
	}

	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		util.Unprocessable(ctx, map[string][]string{"avatar": {"The avatar must be an image."}})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	user, err := c.Service.UpdateAvatar(ctx.Request.Context(), id, header.Filename, file, header.Size, mimeType)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, service.NewUserProfile(user))
}

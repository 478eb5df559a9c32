package controller

import (
	"corplearn_backend/internal/model"
	"corplearn_backend/internal/service"
	"corplearn_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	Progression *service.ProgressionService
}

func NewEnrollmentController(progression *service.ProgressionService) *EnrollmentController {
	return &EnrollmentController{Progression: progression}
}

func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// requireEnrollmentAccess loads the enrollment and checks it belongs to the
// caller (admins may act on any enrollment).
func requireEnrollmentAccess(ctx *gin.Context, p *service.ProgressionService) (*model.Enrollment, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return nil, false
	}
	e, err := p.Enrollment(id)
	if err != nil {
		if errors.Is(err, util.ErrEnrollmentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}
	if e.UserID != user.UserID && user.Role != model.RoleAdmin {
		util.Forbidden(ctx)
		return nil, false
	}
	return e, true
}

// @Summary Enroll the learner in a course
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response
// @Router /api/courses/{courseId}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseUintParam(ctx, "courseId")
	if !ok {
		return
	}

	e, err := c.Progression.Enroll(user.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrCourseEmpty):
			util.UnprocessableEntity(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, e)
}

// @Summary Get an enrollment record
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id} [get]
func (c *EnrollmentController) Get(ctx *gin.Context) {
	e, ok := requireEnrollmentAccess(ctx, c.Progression)
	if !ok {
		return
	}
	util.Success(ctx, e)
}

// @Summary Reset an enrollment to not_started
// @Description Clears scores, stash fields and completion state. Admin only.
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/reset [post]
func (c *EnrollmentController) Reset(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}
	e, err := c.Progression.Reset(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, util.ErrEnrollmentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, e)
}

package controller

import (
	"corplearn_backend/internal/service"
	"corplearn_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type LearningController struct {
	Progression *service.ProgressionService
}

func NewLearningController(progression *service.ProgressionService) *LearningController {
	return &LearningController{Progression: progression}
}

func (c *LearningController) session(ctx *gin.Context) (*service.Session, bool) {
	if _, ok := requireEnrollmentAccess(ctx, c.Progression); !ok {
		return nil, false
	}
	id, _ := parseUintParam(ctx, "id")
	sess, err := c.Progression.Session(id)
	if err != nil {
		// Structure-load failure is fatal to the session; nothing partial renders.
		util.LogInternalError(ctx, err)
		return nil, false
	}
	return sess, true
}

// @Summary Resume a session and get its full snapshot
// @Tags progression
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/session [get]
func (c *LearningController) GetSession(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	util.Success(ctx, sess.Snapshot())
}

// @Summary Advance to the next module
// @Description Fails while any blocking item of the current module is incomplete.
// @Tags progression
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/advance [post]
func (c *LearningController) Advance(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	if err := sess.Advance(); err != nil {
		if errors.Is(err, util.ErrModuleBlocked) {
			util.Conflict(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sess.Snapshot())
}

// @Summary Go back one module
// @Tags progression
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/retreat [post]
func (c *LearningController) Retreat(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	if err := sess.Retreat(); err != nil {
		if errors.Is(err, util.ErrAtFirstModule) {
			util.Conflict(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sess.Snapshot())
}

type itemEventReq struct {
	Type         service.ItemEventType `json:"type" binding:"required"`
	WatchedRatio float64               `json:"watchedRatio"`
}

// @Summary Deliver a runtime completion signal for an item
// @Description Media ended events, watched-ratio progress and embed signals.
// @Tags progression
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/items/{itemId}/events [post]
func (c *LearningController) ItemEvent(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	itemID, ok := parseUintParam(ctx, "itemId")
	if !ok {
		return
	}
	var req itemEventReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	err := sess.HandleItemEvent(itemID, service.ItemEvent{
		Type:         req.Type,
		WatchedRatio: req.WatchedRatio,
	})
	if err != nil {
		if errors.Is(err, util.ErrItemNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sess.Snapshot())
}

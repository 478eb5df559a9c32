package controller

import (
	"corplearn_backend/internal/service"
	"corplearn_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type ScormController struct {
	Progression *service.ProgressionService
}

func NewScormController(progression *service.ProgressionService) *ScormController {
	return &ScormController{Progression: progression}
}

func (c *ScormController) bridge(ctx *gin.Context) (*service.Session, *service.ScormBridge, bool) {
	if _, ok := requireEnrollmentAccess(ctx, c.Progression); !ok {
		return nil, nil, false
	}
	id, _ := parseUintParam(ctx, "id")
	sess, err := c.Progression.Session(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return nil, nil, false
	}
	itemID, ok := parseUintParam(ctx, "itemId")
	if !ok {
		return nil, nil, false
	}
	bridge, err := sess.Scorm(itemID)
	if err != nil {
		if errors.Is(err, util.ErrItemNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, nil, false
	}
	return sess, bridge, true
}

// @Summary Read a CMI element for the runtime
// @Tags scorm
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/scorm/{itemId}/value/{key} [get]
func (c *ScormController) GetValue(ctx *gin.Context) {
	_, bridge, ok := c.bridge(ctx)
	if !ok {
		return
	}
	key := ctx.Param("key")
	util.Success(ctx, gin.H{"key": key, "value": bridge.GetValue(key)})
}

type scormValueReq struct {
	Value string `json:"value"`
}

// @Summary Write a CMI element for the runtime
// @Tags scorm
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/scorm/{itemId}/value/{key} [put]
func (c *ScormController) SetValue(ctx *gin.Context) {
	_, bridge, ok := c.bridge(ctx)
	if !ok {
		return
	}
	var req scormValueReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	bridge.SetValue(ctx.Param("key"), req.Value)
	util.Success(ctx, nil)
}

// @Summary Runtime commit/finish notification
// @Description Surfaces lesson_status and score; the completion signal is latched per session.
// @Tags scorm
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/scorm/{itemId}/commit [post]
func (c *ScormController) Commit(ctx *gin.Context) {
	sess, _, ok := c.bridge(ctx)
	if !ok {
		return
	}
	itemID, _ := parseUintParam(ctx, "itemId")
	commit, err := sess.CommitScorm(itemID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, commit)
}

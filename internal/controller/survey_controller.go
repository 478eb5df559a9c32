package controller

import (
	"corplearn_backend/internal/service"
	"corplearn_backend/internal/util"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
)

type SurveyController struct {
	Progression *service.ProgressionService
}

func NewSurveyController(progression *service.ProgressionService) *SurveyController {
	return &SurveyController{Progression: progression}
}

func (c *SurveyController) session(ctx *gin.Context) (*service.Session, uint, bool) {
	if _, ok := requireEnrollmentAccess(ctx, c.Progression); !ok {
		return nil, 0, false
	}
	id, _ := parseUintParam(ctx, "id")
	sess, err := c.Progression.Session(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return nil, 0, false
	}
	itemID, ok := parseUintParam(ctx, "itemId")
	if !ok {
		return nil, 0, false
	}
	return sess, itemID, true
}

type surveySubmitReq struct {
	Answers json.RawMessage `json:"answers"`
}

// @Summary Submit a survey item
// @Description Completing the last outstanding mandatory survey finalizes a stashed passing result.
// @Tags survey
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/items/{itemId}/survey [post]
func (c *SurveyController) Submit(ctx *gin.Context) {
	sess, itemID, ok := c.session(ctx)
	if !ok {
		return
	}
	var req surveySubmitReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := sess.SubmitSurvey(itemID, req.Answers); err != nil {
		switch {
		case errors.Is(err, util.ErrItemNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSurveyRequired):
			util.UnprocessableEntity(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sess.Snapshot())
}

type signatureReq struct {
	SignatureRef string `json:"signatureRef" binding:"required"`
	Consent      bool   `json:"consent"`
}

// @Summary Submit a signature capture with consent
// @Tags survey
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/items/{itemId}/signature [post]
func (c *SurveyController) Signature(ctx *gin.Context) {
	sess, itemID, ok := c.session(ctx)
	if !ok {
		return
	}
	var req signatureReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := sess.SubmitSignature(itemID, req.SignatureRef, req.Consent); err != nil {
		switch {
		case errors.Is(err, util.ErrItemNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrConsentRequired):
			util.UnprocessableEntity(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sess.Snapshot())
}

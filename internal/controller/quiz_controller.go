package controller

import (
	"corplearn_backend/internal/service"
	"corplearn_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Progression *service.ProgressionService
}

func NewQuizController(progression *service.ProgressionService) *QuizController {
	return &QuizController{Progression: progression}
}

func (c *QuizController) engine(ctx *gin.Context) (*service.Session, *service.QuizEngine, bool) {
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
	engine, err := sess.Quiz(ctx.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, util.ErrItemNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, nil, false
	}
	return sess, engine, true
}

// @Summary Get the quiz state, restoring any autosaved draft
// @Tags quiz
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/quiz/{itemId} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	_, engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	util.Success(ctx, engine.Snapshot())
}

type quizAnswerReq struct {
	QuestionID string `json:"questionId" binding:"required"`
	OptionID   string `json:"optionId" binding:"required"`
}

// @Summary Record an answer for the current attempt
// @Tags quiz
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/quiz/{itemId}/answer [post]
func (c *QuizController) Answer(ctx *gin.Context) {
	_, engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	var req quizAnswerReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := engine.Answer(ctx.Request.Context(), req.QuestionID, req.OptionID); err != nil {
		switch {
		case errors.Is(err, util.ErrQuizFinished):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrItemNotFound), errors.Is(err, util.ErrUnknownOption):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, engine.Snapshot())
}

// @Summary Move to the next question, finishing the quiz on the last one
// @Tags quiz
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/quiz/{itemId}/next [post]
func (c *QuizController) Next(ctx *gin.Context) {
	sess, engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	itemID, _ := parseUintParam(ctx, "itemId")

	if !engine.CurrentAnswered() {
		util.UnprocessableEntity(ctx, util.ErrQuestionUnanswered.Error())
		return
	}

	finished, err := engine.Next(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, util.ErrQuizFinished) {
			util.Conflict(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	if finished {
		// Route the score through the session so evaluation modules recompute.
		score, outcome, err := sess.FinishQuiz(ctx.Request.Context(), itemID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		util.Success(ctx, gin.H{
			"quiz":    engine.Snapshot(),
			"score":   score,
			"outcome": outcome,
		})
		return
	}
	util.Success(ctx, engine.Snapshot())
}

// @Summary Move back one question
// @Tags quiz
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/quiz/{itemId}/previous [post]
func (c *QuizController) Previous(ctx *gin.Context) {
	_, engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	if err := engine.Previous(ctx.Request.Context()); err != nil {
		util.Conflict(ctx, err.Error())
		return
	}
	util.Success(ctx, engine.Snapshot())
}

// @Summary Finish the quiz and grade the attempt
// @Tags quiz
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/quiz/{itemId}/finish [post]
func (c *QuizController) Finish(ctx *gin.Context) {
	sess, engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	itemID, _ := parseUintParam(ctx, "itemId")

	score, outcome, err := sess.FinishQuiz(ctx.Request.Context(), itemID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"quiz":    engine.Snapshot(),
		"score":   score,
		"outcome": outcome,
	})
}

// @Summary Restart the attempt with empty answers
// @Tags quiz
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments/{id}/quiz/{itemId}/repeat [post]
func (c *QuizController) Repeat(ctx *gin.Context) {
	sess, engine, ok := c.engine(ctx)
	if !ok {
		return
	}
	itemID, _ := parseUintParam(ctx, "itemId")
	if err := sess.RepeatQuiz(ctx.Request.Context(), itemID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, engine.Snapshot())
}

package handlers

import (
	"net/http"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/services"
	"qaforum_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	*BaseHandler
	answerService     services.AnswerService
	voteService       services.VoteService
	acceptanceService services.AcceptanceService
	commentService    services.CommentService
}

func NewAnswerHandler(
	base *BaseHandler,
	answerService services.AnswerService,
	voteService services.VoteService,
	acceptanceService services.AcceptanceService,
	commentService services.CommentService,
) *AnswerHandler {
	return &AnswerHandler{
		BaseHandler:       base,
		answerService:     answerService,
		voteService:       voteService,
		acceptanceService: acceptanceService,
		commentService:    commentService,
	}
}

func (h *AnswerHandler) RegisterRoutes(r *gin.RouterGroup, g *RouteGuards) {
	answers := r.Group("/answers")
	{
		answers.GET("/:id/comments", h.ListComments)

		answers.POST("", g.Auth, g.limit(ActionAnswer), h.CreateAnswer)
		answers.POST("/:id/vote", g.Auth, g.limit(ActionVote), h.VoteAnswer)
		answers.PUT("/:id/accept", g.Auth, h.AcceptAnswer)
		answers.POST("/:id/comments", g.Auth, g.limit(ActionComment), h.CreateComment)
	}
}

func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.CreateAnswerRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	answer, err := h.answerService.Create(c.Request.Context(), h.GetDB(c), user, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, answer)
}

func (h *AnswerHandler) VoteAnswer(c *gin.Context) {
	castVote(h.BaseHandler, h.voteService, c, models.TargetAnswer)
}

// AcceptAnswer переключает принятие: принять, сменить принятый ответ или снять принятие
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.AcceptAnswerRequest
	if !h.BindOptional_JSON(c, &req) {
		return
	}

	result, err := h.acceptanceService.Toggle(c.Request.Context(), h.GetDB(c), user, c.Param("id"), req.QuestionID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AcceptResponse{
		QuestionID:       result.QuestionID,
		AnswerID:         result.AnswerID,
		IsAccepted:       result.Accepted,
		IsSolved:         result.Accepted,
		AcceptedAnswerID: result.AcceptedAnswerID(),
	})
}

func (h *AnswerHandler) CreateComment(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), h.GetDB(c), user, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *AnswerHandler) ListComments(c *gin.Context) {
	comments, err := h.commentService.ListByAnswer(c.Request.Context(), h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

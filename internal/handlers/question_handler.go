package handlers

import (
	"net/http"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/services"
	"qaforum_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	*BaseHandler
	questionService services.QuestionService
	voteService     services.VoteService
}

func NewQuestionHandler(base *BaseHandler, questionService services.QuestionService, voteService services.VoteService) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     base,
		questionService: questionService,
		voteService:     voteService,
	}
}

func (h *QuestionHandler) RegisterRoutes(r *gin.RouterGroup, g *RouteGuards) {
	questions := r.Group("/questions")
	{
		questions.GET("/:id", h.GetQuestion)
		questions.POST("", g.Auth, g.limit(ActionQuestion), h.CreateQuestion)
		questions.POST("/:id/vote", g.Auth, g.limit(ActionVote), h.VoteQuestion)
	}
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.CreateQuestionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), h.GetDB(c), user.ID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.questionService.Get(c.Request.Context(), h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) VoteQuestion(c *gin.Context) {
	castVote(h.BaseHandler, h.voteService, c, models.TargetQuestion)
}

// castVote - общий код голосования для вопросов и ответов
func castVote(h *BaseHandler, voteService services.VoteService, c *gin.Context, targetType models.TargetType) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.VoteRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	target := services.VoteTarget{Type: targetType, ID: c.Param("id")}
	result, err := voteService.CastVote(c.Request.Context(), h.GetDB(c), user, target, models.VoteType(req.VoteType))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	resp := dto.VoteResponse{VoteScore: result.Score}
	if result.Current != "" {
		current := string(result.Current)
		resp.UserVote = &current
	}
	c.JSON(http.StatusOK, resp)
}

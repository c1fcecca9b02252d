package handlers

import (
	"net/http"

	"qaforum_backend/internal/services"
	"qaforum_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, g *RouteGuards) {
	me := r.Group("/me")
	me.Use(g.Auth)
	{
		me.GET("", h.GetMe)
		me.PUT("/preferences", h.UpdatePreferences)
		me.POST("/api-token", h.IssueAPIToken)
	}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	fresh, err := h.userService.GetByID(c.Request.Context(), h.GetDB(c), user.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMeResponse(fresh))
}

// UpdatePreferences - PUT /me/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.UpdatePreferencesRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	updated, err := h.userService.UpdatePreferences(c.Request.Context(), h.GetDB(c), user.ID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMeResponse(updated))
}

// IssueAPIToken выпускает новый API-токен; старый перестаёт действовать
func (h *UserHandler) IssueAPIToken(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	token, err := h.userService.IssueAPIToken(c.Request.Context(), h.GetDB(c), user.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

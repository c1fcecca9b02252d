package handlers

import "github.com/gin-gonic/gin"

// Действия, на которые вешаются лимиты
const (
	ActionQuestion = "questions"
	ActionAnswer   = "answers"
	ActionVote     = "votes"
	ActionComment  = "comments"
)

// RouteGuards - middleware, которые хэндлеры навешивают на свои маршруты
type RouteGuards struct {
	Auth gin.HandlerFunc
	// Limit возвращает rate-limit middleware для действия
	Limit func(action string) gin.HandlerFunc
}

func (g *RouteGuards) limit(action string) gin.HandlerFunc {
	if g.Limit == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return g.Limit(action)
}

// @title           QA Forum API
// @version         1.0
// @description     Вопросы/ответы: голоса, принятие ответа, уведомления в реальном времени.
// @host            localhost:4000
// @BasePath        /api/v1

package main

import "qaforum_backend/internal/app"

func main() {
	app.Run()
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IndexPage рисует главную; для вошедших счётчики ремонтов, клиентов и склада
func IndexPage(c *gin.Context) {
	if currentUserID(c) == 0 {
		render(c, http.StatusOK, "index.html", gin.H{"isAuthed": false})
		return
	}

	stats, err := repo().DashboardStats(c.Request.Context())
	if err != nil {
		fail(c, err, "Ошибка загрузки статистики")
		return
	}

	render(c, http.StatusOK, "index.html", gin.H{
		"isAuthed": true,
		"stats":    stats,
	})
}

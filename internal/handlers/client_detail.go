package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func ShowClientDetail(c *gin.Context) {
	id, ok := paramID(c, "id", "клиент")
	if !ok {
		return
	}

	// клиент сразу с устройствами и их ремонтами
	client, err := repo().ClientDetail(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Ошибка загрузки клиента")
		return
	}

	render(c, http.StatusOK, "client_detail.html", gin.H{
		"client": client,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const auditPageSize = 200

func ListAuditLogs(c *gin.Context) {
	logs, err := repo().ListAuditLogs(c.Request.Context(), auditPageSize)
	if err != nil {
		fail(c, err, "Ошибка загрузки журнала")
		return
	}

	render(c, http.StatusOK, "audit_list.html", gin.H{
		"logs": logs,
	})
}

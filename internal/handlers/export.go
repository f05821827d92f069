package handlers

import (
	"net/http"
	"time"

	"repair-shop/internal/export"
	"repair-shop/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

func ExportComponents(c *gin.Context) {
	components, err := repo().ListComponents(c.Request.Context(), repository.ComponentFilter{})
	if err != nil {
		fail(c, err, "Ошибка загрузки склада")
		return
	}

	f, err := export.Stock(components)
	if err != nil {
		fail(c, err, "Ошибка формирования файла")
		return
	}
	sendXLSX(c, f, export.FileName("stock", time.Now()))
}

func ExportRepairs(c *gin.Context) {
	repairs, err := repo().ListRepairs(c.Request.Context(), repository.RepairFilter{})
	if err != nil {
		fail(c, err, "Ошибка загрузки ремонтов")
		return
	}

	f, err := export.Repairs(repairs)
	if err != nil {
		fail(c, err, "Ошибка формирования файла")
		return
	}
	sendXLSX(c, f, export.FileName("repairs", time.Now()))
}

func sendXLSX(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail(c, err, "Ошибка записи файла")
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

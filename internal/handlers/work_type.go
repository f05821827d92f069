package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"repair-shop/internal/database"
	"repair-shop/internal/models"

	"github.com/gin-gonic/gin"
)

func ListWorkTypes(c *gin.Context) {
	types, err := repo().ListWorkTypes(c.Request.Context())
	if err != nil {
		fail(c, err, "Ошибка загрузки видов работ")
		return
	}

	render(c, http.StatusOK, "worktypes_list.html", gin.H{
		"workTypes": types,
	})
}

type workTypeForm struct {
	ID            uint
	Name          string
	Description   string
	StandardPrice string
}

func readWorkTypeForm(c *gin.Context, wt *models.WorkType) (workTypeForm, string) {
	f := workTypeForm{
		ID:            wt.ID,
		Name:          strings.TrimSpace(c.PostForm("name")),
		Description:   strings.TrimSpace(c.PostForm("description")),
		StandardPrice: strings.TrimSpace(c.PostForm("standard_price")),
	}

	price, ok, err := parseMoney(f.StandardPrice)
	switch {
	case f.Name == "":
		return f, "Укажите название"
	case err != nil || !ok || price.IsNegative():
		return f, "Укажите цену не меньше нуля"
	}

	wt.Name = f.Name
	wt.Description = f.Description
	wt.StandardPrice = price.Round(2)
	return f, ""
}

func renderWorkTypeForm(c *gin.Context, status int, f workTypeForm, msg string) {
	render(c, status, "worktype_form.html", gin.H{
		"isNew":    f.ID == 0,
		"workType": f,
		"error":    msg,
	})
}

func ShowNewWorkType(c *gin.Context) {
	renderWorkTypeForm(c, http.StatusOK, workTypeForm{}, "")
}

func CreateWorkType(c *gin.Context) {
	var wt models.WorkType
	f, msg := readWorkTypeForm(c, &wt)
	if msg != "" {
		renderWorkTypeForm(c, http.StatusBadRequest, f, msg)
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Create(&wt).Error; err != nil {
		renderWorkTypeForm(c, statusFor(err), f, failText(c, err, "Ошибка сохранения вида работы"))
		return
	}

	audit(c, "work_type", wt.ID, "create", "Добавлен вид работы: "+wt.Name)

	c.Redirect(http.StatusFound, "/worktypes")
}

func ShowEditWorkType(c *gin.Context) {
	id, ok := paramID(c, "id", "вид работы")
	if !ok {
		return
	}

	var wt models.WorkType
	if err := database.DB.WithContext(c.Request.Context()).First(&wt, id).Error; err != nil {
		c.String(http.StatusNotFound, "Вид работы не найден")
		return
	}

	renderWorkTypeForm(c, http.StatusOK, workTypeForm{
		ID:            wt.ID,
		Name:          wt.Name,
		Description:   wt.Description,
		StandardPrice: wt.StandardPrice.StringFixed(2),
	}, "")
}

// UpdateWorkType меняет прайс; цены в уже записанных строках ремонтов не трогаются
func UpdateWorkType(c *gin.Context) {
	id, ok := paramID(c, "id", "вид работы")
	if !ok {
		return
	}

	var wt models.WorkType
	if err := database.DB.WithContext(c.Request.Context()).First(&wt, id).Error; err != nil {
		c.String(http.StatusNotFound, "Вид работы не найден")
		return
	}

	f, msg := readWorkTypeForm(c, &wt)
	if msg != "" {
		renderWorkTypeForm(c, http.StatusBadRequest, f, msg)
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Save(&wt).Error; err != nil {
		renderWorkTypeForm(c, statusFor(err), f, failText(c, err, "Ошибка сохранения вида работы"))
		return
	}

	audit(c, "work_type", wt.ID, "update", "Изменён вид работы: "+wt.Name)

	c.Redirect(http.StatusFound, "/worktypes")
}

func DeleteWorkType(c *gin.Context) {
	id, ok := paramID(c, "id", "вид работы")
	if !ok {
		return
	}

	if err := repo().DeleteWorkType(c.Request.Context(), id); err != nil {
		fail(c, err, "Ошибка удаления вида работы")
		return
	}

	audit(c, "work_type", id, "delete", fmt.Sprintf("Удалён вид работы #%d", id))

	c.Redirect(http.StatusFound, "/worktypes")
}

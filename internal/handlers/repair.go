package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"repair-shop/internal/database"
	"repair-shop/internal/models"
	"repair-shop/internal/repository"

	"github.com/gin-gonic/gin"
)

const formDateLayout = "2006-01-02"

// СПИСОК

func ListRepairs(c *gin.Context) {
	filter := repository.RepairFilter{
		Status: models.RepairStatus(strings.TrimSpace(c.Query("status"))),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		filter.Status = ""
	}

	repairs, err := repo().ListRepairs(c.Request.Context(), filter)
	if err != nil {
		fail(c, err, "Ошибка загрузки ремонтов")
		return
	}

	render(c, http.StatusOK, "repairs_list.html", gin.H{
		"repairs":  repairs,
		"status":   filter.Status,
		"search":   filter.Search,
		"statuses": models.RepairStatuses,
	})
}

func ShowRepairDetail(c *gin.Context) {
	id, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}

	repair, err := repo().RepairDetail(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Ошибка загрузки ремонта")
		return
	}

	render(c, http.StatusOK, "repair_detail.html", gin.H{
		"repair":  repair,
		"hasAct":  repair.Act != nil,
		"warning": c.Query("warning"),
	})
}

// СОЗДАНИЕ / РЕДАКТИРОВАНИЕ

func renderRepairForm(c *gin.Context, status int, isNew bool, r models.Repair, msg string) {
	devices, err := repo().ListDevices(c.Request.Context())
	if err != nil {
		fail(c, err, "Ошибка загрузки устройств")
		return
	}

	render(c, status, "repair_form.html", gin.H{
		"isNew":    isNew,
		"repair":   r,
		"devices":  devices,
		"statuses": models.RepairStatuses,
		"error":    msg,
	})
}

func ShowNewRepair(c *gin.Context) {
	r := models.Repair{Status: models.StatusAccepted}
	if v, err := strconv.ParseUint(c.Query("device_id"), 10, 64); err == nil {
		r.DeviceID = uint(v)
	}
	renderRepairForm(c, http.StatusOK, true, r, "")
}

// readRepairForm: поля формы; даты в формате 2006-01-02, пустая дата сбрасывает поле
func readRepairForm(c *gin.Context, r *models.Repair) string {
	r.DeviceID = formUint(c, "device_id")
	r.ProblemDescription = strings.TrimSpace(c.PostForm("problem_description"))
	r.MasterNotes = strings.TrimSpace(c.PostForm("master_notes"))
	if s := strings.TrimSpace(c.PostForm("status")); s != "" {
		r.Status = models.RepairStatus(s)
	}

	dates := []struct {
		field string
		dst   **time.Time
	}{
		{"started_at", &r.StartedAt},
		{"completed_at", &r.CompletedAt},
		{"issued_at", &r.IssuedAt},
	}
	for _, d := range dates {
		s := strings.TrimSpace(c.PostForm(d.field))
		if s == "" {
			*d.dst = nil
			continue
		}
		t, err := time.ParseInLocation(formDateLayout, s, time.Local)
		if err != nil {
			return "Некорректная дата"
		}
		*d.dst = &t
	}

	switch {
	case r.DeviceID == 0:
		return "Выберите устройство"
	case r.ProblemDescription == "":
		return "Опишите неисправность"
	case !r.Status.Valid():
		return "Неверный статус"
	}
	return ""
}

func CreateRepair(c *gin.Context) {
	r := models.Repair{Status: models.StatusAccepted}
	if msg := readRepairForm(c, &r); msg != "" {
		renderRepairForm(c, http.StatusBadRequest, true, r, msg)
		return
	}
	if uid := currentUserID(c); uid != 0 {
		r.CreatedByID = &uid
	}

	if err := ledgerSvc().SaveRepair(c.Request.Context(), &r); err != nil {
		renderRepairForm(c, statusFor(err), true, r, failText(c, err, "Ошибка сохранения ремонта"))
		return
	}

	audit(c, "repair", r.ID, "create", "Принят ремонт: "+r.ProblemDescription)

	c.Redirect(http.StatusFound, fmt.Sprintf("/repairs/%d", r.ID))
}

func ShowEditRepair(c *gin.Context) {
	id, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}

	var r models.Repair
	if err := database.DB.WithContext(c.Request.Context()).First(&r, id).Error; err != nil {
		c.String(http.StatusNotFound, "Ремонт не найден")
		return
	}

	renderRepairForm(c, http.StatusOK, false, r, "")
}

func UpdateRepair(c *gin.Context) {
	id, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}

	var r models.Repair
	if err := database.DB.WithContext(c.Request.Context()).First(&r, id).Error; err != nil {
		c.String(http.StatusNotFound, "Ремонт не найден")
		return
	}
	prevStatus := r.Status

	if msg := readRepairForm(c, &r); msg != "" {
		renderRepairForm(c, http.StatusBadRequest, false, r, msg)
		return
	}

	if err := ledgerSvc().SaveRepair(c.Request.Context(), &r); err != nil {
		renderRepairForm(c, statusFor(err), false, r, failText(c, err, "Ошибка сохранения ремонта"))
		return
	}

	details := "Изменён ремонт"
	if prevStatus != r.Status {
		details = fmt.Sprintf("Статус: %s → %s", prevStatus.Label(), r.Status.Label())
	}
	audit(c, "repair", r.ID, "update", details)

	c.Redirect(http.StatusFound, fmt.Sprintf("/repairs/%d", r.ID))
}

func DeleteRepair(c *gin.Context) {
	id, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}

	if err := repo().DeleteRepair(c.Request.Context(), id); err != nil {
		fail(c, err, "Ошибка удаления ремонта")
		return
	}

	audit(c, "repair", id, "delete", fmt.Sprintf("Удалён ремонт #%d", id))

	c.Redirect(http.StatusFound, "/repairs")
}

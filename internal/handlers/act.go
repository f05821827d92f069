package handlers

import (
	"fmt"
	"net/http"

	"repair-shop/internal/logger"

	"github.com/gin-gonic/gin"
)

// ShowAct: печатная форма акта; акт создаётся при первом открытии
func ShowAct(c *gin.Context) {
	id, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	act, created, err := ledgerSvc().EnsureAct(ctx, id)
	if err != nil {
		fail(c, err, "Ошибка формирования акта")
		return
	}
	if created {
		audit(c, "act", act.ID, "create", "Сформирован акт "+act.ActNumber)
	}

	repair, err := repo().RepairDetail(ctx, id)
	if err != nil {
		fail(c, err, "Ошибка загрузки ремонта")
		return
	}

	render(c, http.StatusOK, "repair_act.html", gin.H{
		"act":    act,
		"repair": repair,
		"print":  c.Query("print") != "",
	})
}

// PrintAct отмечает первую печать и открывает форму в режиме печати
func PrintAct(c *gin.Context) {
	id, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	l := ledgerSvc()

	act, _, err := l.EnsureAct(ctx, id)
	if err != nil {
		fail(c, err, "Ошибка формирования акта")
		return
	}
	firstPrint := act.PrintedAt == nil

	if act, err = l.MarkActPrinted(ctx, act.ID); err != nil {
		fail(c, err, "Ошибка отметки печати")
		return
	}
	if firstPrint {
		audit(c, "act", act.ID, "print", "Напечатан акт "+act.ActNumber)
		logger.Info(ctx, "act printed", logger.String("act_number", act.ActNumber))
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/repairs/%d/act?print=1", id))
}

func UpdateActNotes(c *gin.Context) {
	id, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	l := ledgerSvc()

	act, _, err := l.EnsureAct(ctx, id)
	if err != nil {
		fail(c, err, "Ошибка формирования акта")
		return
	}
	if err := l.UpdateActNotes(ctx, act.ID, c.PostForm("notes")); err != nil {
		fail(c, err, "Ошибка сохранения примечаний")
		return
	}

	audit(c, "act", act.ID, "update", "Изменены примечания акта "+act.ActNumber)

	c.Redirect(http.StatusFound, fmt.Sprintf("/repairs/%d/act", id))
}

func ListActs(c *gin.Context) {
	acts, err := repo().ListActs(c.Request.Context())
	if err != nil {
		fail(c, err, "Ошибка загрузки актов")
		return
	}

	render(c, http.StatusOK, "acts_list.html", gin.H{
		"acts": acts,
	})
}

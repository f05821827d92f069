package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"repair-shop/internal/database"
	"repair-shop/internal/ledger"
	"repair-shop/internal/models"
	"repair-shop/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// warningStock ставится в карточку ремонта, если списание со склада пропущено
const warningStock = "stock"

func loadRepair(c *gin.Context) (*models.Repair, bool) {
	id, ok := paramID(c, "id", "ремонт")
	if !ok {
		return nil, false
	}
	var r models.Repair
	if err := database.DB.WithContext(c.Request.Context()).Preload("Device").First(&r, id).Error; err != nil {
		c.String(http.StatusNotFound, "Ремонт не найден")
		return nil, false
	}
	return &r, true
}

// lineForm: значения формы строки для повторного показа
type lineForm struct {
	ID           uint
	RefID        uint
	Quantity     int
	UnitPrice    string
	WasPurchased bool
	Notes        string
}

// readLineForm разбирает общие поля строки. Пустая цена, ok=false, подставляется цена из справочника.
func readLineForm(c *gin.Context, refField string) (lineForm, decimal.Decimal, bool, string) {
	f := lineForm{
		RefID:        formUint(c, refField),
		UnitPrice:    strings.TrimSpace(c.PostForm("unit_price")),
		WasPurchased: c.PostForm("was_purchased") != "",
		Notes:        strings.TrimSpace(c.PostForm("notes")),
	}

	qty, err := formInt(c, "quantity", 1)
	if err != nil {
		return f, decimal.Zero, false, "Количество должно быть целым числом"
	}
	f.Quantity = qty

	price, ok, err := parseMoney(f.UnitPrice)
	if err != nil {
		return f, decimal.Zero, false, "Некорректная цена"
	}

	switch {
	case f.RefID == 0:
		return f, price, ok, "Выберите позицию из справочника"
	case f.Quantity < 1:
		return f, price, ok, "Количество должно быть не меньше 1"
	case ok && price.IsNegative():
		return f, price, ok, "Цена не может быть отрицательной"
	}
	return f, price, ok, ""
}

//
// РАБОТЫ
//

func renderWorkLineForm(c *gin.Context, status int, r *models.Repair, f lineForm, msg string) {
	types, err := repo().ListWorkTypes(c.Request.Context())
	if err != nil {
		fail(c, err, "Ошибка загрузки видов работ")
		return
	}
	render(c, status, "work_line_form.html", gin.H{
		"repair":    r,
		"line":      f,
		"workTypes": types,
		"error":     msg,
	})
}

func ShowNewWorkLine(c *gin.Context) {
	r, ok := loadRepair(c)
	if !ok {
		return
	}
	renderWorkLineForm(c, http.StatusOK, r, lineForm{Quantity: 1}, "")
}

func ShowEditWorkLine(c *gin.Context) {
	r, ok := loadRepair(c)
	if !ok {
		return
	}
	lineID, ok := paramID(c, "line_id", "строка")
	if !ok {
		return
	}

	var line models.RepairWork
	if err := database.DB.WithContext(c.Request.Context()).
		Where("repair_id = ?", r.ID).
		First(&line, lineID).Error; err != nil {
		c.String(http.StatusNotFound, "Строка не найдена")
		return
	}

	renderWorkLineForm(c, http.StatusOK, r, lineForm{
		ID:        line.ID,
		RefID:     line.WorkTypeID,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice.StringFixed(2),
		Notes:     line.Notes,
	}, "")
}

// SaveWorkLine: добавление (без :line_id) и изменение строки работ
func SaveWorkLine(c *gin.Context) {
	r, ok := loadRepair(c)
	if !ok {
		return
	}

	f, price, hasPrice, msg := readLineForm(c, "work_type_id")
	if c.Param("line_id") != "" {
		if f.ID, ok = paramID(c, "line_id", "строка"); !ok {
			return
		}
	}
	if msg != "" {
		renderWorkLineForm(c, http.StatusBadRequest, r, f, msg)
		return
	}

	ctx := c.Request.Context()
	var wt models.WorkType
	if err := database.DB.WithContext(ctx).First(&wt, f.RefID).Error; err != nil {
		renderWorkLineForm(c, http.StatusBadRequest, r, f, "Вид работы не найден")
		return
	}
	if !hasPrice {
		price = wt.StandardPrice
	}

	res, err := ledgerSvc().RecordWorkLine(ctx, ledger.WorkLineInput{
		ID:         f.ID,
		RepairID:   r.ID,
		WorkTypeID: wt.ID,
		Quantity:   f.Quantity,
		UnitPrice:  price,
		Notes:      f.Notes,
	})
	if err != nil {
		renderWorkLineForm(c, statusFor(err), r, f, failText(c, err, "Ошибка сохранения работы"))
		return
	}

	action := "add_work"
	if f.ID != 0 {
		action = "update_work"
	}
	audit(c, "repair", r.ID, action, fmt.Sprintf("%s × %d = %s, итого %s",
		wt.Name, f.Quantity, res.LineCost.StringFixed(2), res.TotalCost.StringFixed(2)))

	c.Redirect(http.StatusFound, fmt.Sprintf("/repairs/%d", r.ID))
}

func DeleteWorkLine(c *gin.Context) {
	repairID, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}
	lineID, ok := paramID(c, "line_id", "строка")
	if !ok {
		return
	}

	res, err := ledgerSvc().RemoveWorkLine(c.Request.Context(), repairID, lineID)
	if err != nil {
		fail(c, err, "Ошибка удаления работы")
		return
	}

	audit(c, "repair", repairID, "delete_work",
		fmt.Sprintf("Удалена работа #%d, итого %s", lineID, res.TotalCost.StringFixed(2)))

	c.Redirect(http.StatusFound, fmt.Sprintf("/repairs/%d", repairID))
}

//
// КОМПОНЕНТЫ
//

func renderComponentLineForm(c *gin.Context, status int, r *models.Repair, f lineForm, msg string) {
	components, err := repo().ListComponents(c.Request.Context(), repository.ComponentFilter{})
	if err != nil {
		fail(c, err, "Ошибка загрузки склада")
		return
	}
	render(c, status, "component_line_form.html", gin.H{
		"repair":     r,
		"line":       f,
		"components": components,
		"error":      msg,
	})
}

func ShowNewComponentLine(c *gin.Context) {
	r, ok := loadRepair(c)
	if !ok {
		return
	}
	renderComponentLineForm(c, http.StatusOK, r, lineForm{Quantity: 1}, "")
}

func ShowEditComponentLine(c *gin.Context) {
	r, ok := loadRepair(c)
	if !ok {
		return
	}
	lineID, ok := paramID(c, "line_id", "строка")
	if !ok {
		return
	}

	var line models.RepairComponent
	if err := database.DB.WithContext(c.Request.Context()).
		Where("repair_id = ?", r.ID).
		First(&line, lineID).Error; err != nil {
		c.String(http.StatusNotFound, "Строка не найдена")
		return
	}

	renderComponentLineForm(c, http.StatusOK, r, lineForm{
		ID:           line.ID,
		RefID:        line.ComponentID,
		Quantity:     line.Quantity,
		UnitPrice:    line.UnitPrice.StringFixed(2),
		WasPurchased: line.WasPurchased,
		Notes:        line.Notes,
	}, "")
}

// SaveComponentLine: добавление и изменение строки компонентов.
// Нехватка на складе не ошибка: строка сохраняется, в карточке ремонта показывается предупреждение.
func SaveComponentLine(c *gin.Context) {
	r, ok := loadRepair(c)
	if !ok {
		return
	}

	f, price, hasPrice, msg := readLineForm(c, "component_id")
	if c.Param("line_id") != "" {
		if f.ID, ok = paramID(c, "line_id", "строка"); !ok {
			return
		}
	}
	if msg != "" {
		renderComponentLineForm(c, http.StatusBadRequest, r, f, msg)
		return
	}

	ctx := c.Request.Context()
	var comp models.Component
	if err := database.DB.WithContext(ctx).First(&comp, f.RefID).Error; err != nil {
		renderComponentLineForm(c, http.StatusBadRequest, r, f, "Компонент не найден")
		return
	}
	if !hasPrice {
		price = comp.UnitPrice
	}

	res, err := ledgerSvc().RecordComponentLine(ctx, ledger.ComponentLineInput{
		ID:           f.ID,
		RepairID:     r.ID,
		ComponentID:  comp.ID,
		Quantity:     f.Quantity,
		UnitPrice:    price,
		WasPurchased: f.WasPurchased,
		Notes:        f.Notes,
	})
	if err != nil {
		renderComponentLineForm(c, statusFor(err), r, f, failText(c, err, "Ошибка сохранения компонента"))
		return
	}

	action := "add_component"
	if f.ID != 0 {
		action = "update_component"
	}
	audit(c, "repair", r.ID, action, fmt.Sprintf("%s × %d = %s, склад %+d, итого %s",
		comp.Name, f.Quantity, res.LineCost.StringFixed(2), res.StockDelta, res.TotalCost.StringFixed(2)))

	target := fmt.Sprintf("/repairs/%d", r.ID)
	if res.StockShortfall {
		target += "?warning=" + warningStock
	}
	c.Redirect(http.StatusFound, target)
}

func DeleteComponentLine(c *gin.Context) {
	repairID, ok := paramID(c, "id", "ремонт")
	if !ok {
		return
	}
	lineID, ok := paramID(c, "line_id", "строка")
	if !ok {
		return
	}

	res, err := ledgerSvc().RemoveComponentLine(c.Request.Context(), repairID, lineID)
	if err != nil {
		fail(c, err, "Ошибка удаления компонента")
		return
	}

	audit(c, "repair", repairID, "delete_component",
		fmt.Sprintf("Удалён компонент #%d, на склад %d, итого %s", lineID, res.StockDelta, res.TotalCost.StringFixed(2)))

	c.Redirect(http.StatusFound, fmt.Sprintf("/repairs/%d", repairID))
}

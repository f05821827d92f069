package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"repair-shop/internal/database"
	"repair-shop/internal/models"
	"repair-shop/internal/repository"

	"github.com/gin-gonic/gin"
)

// СКЛАД

func ListComponents(c *gin.Context) {
	filter := repository.ComponentFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		LowStock: c.Query("low_stock") != "",
	}

	components, err := repo().ListComponents(c.Request.Context(), filter)
	if err != nil {
		fail(c, err, "Ошибка загрузки склада")
		return
	}

	render(c, http.StatusOK, "components_list.html", gin.H{
		"components": components,
		"search":     filter.Search,
		"lowStock":   filter.LowStock,
		"threshold":  models.LowStockThreshold,
	})
}

// componentForm: значения формы как ввёл пользователь
type componentForm struct {
	ID         uint
	Name       string
	PartNumber string
	Quantity   string
	UnitPrice  string
	Supplier   string

	// остаток на момент открытия формы
	QuantityWas string
}

func componentFormOf(comp models.Component) componentForm {
	return componentForm{
		ID:          comp.ID,
		Name:        comp.Name,
		PartNumber:  comp.PartNumber,
		Quantity:    fmt.Sprint(comp.Quantity),
		UnitPrice:   comp.UnitPrice.StringFixed(2),
		Supplier:    comp.Supplier,
		QuantityWas: fmt.Sprint(comp.Quantity),
	}
}

func readComponentForm(c *gin.Context, comp *models.Component) (componentForm, string) {
	f := componentForm{
		ID:          comp.ID,
		Name:        strings.TrimSpace(c.PostForm("name")),
		PartNumber:  strings.TrimSpace(c.PostForm("part_number")),
		Quantity:    strings.TrimSpace(c.PostForm("quantity")),
		UnitPrice:   strings.TrimSpace(c.PostForm("unit_price")),
		Supplier:    strings.TrimSpace(c.PostForm("supplier")),
		QuantityWas: strings.TrimSpace(c.PostForm("quantity_was")),
	}

	qty, err := formInt(c, "quantity", 0)
	if err != nil || qty < 0 {
		return f, "Остаток должен быть целым неотрицательным числом"
	}
	price, ok, err := parseMoney(f.UnitPrice)
	switch {
	case f.Name == "":
		return f, "Укажите название"
	case err != nil || !ok || price.IsNegative():
		return f, "Укажите цену не меньше нуля"
	}

	comp.Name = f.Name
	comp.PartNumber = f.PartNumber
	comp.Quantity = qty
	comp.UnitPrice = price.Round(2)
	comp.Supplier = f.Supplier
	return f, ""
}

func renderComponentForm(c *gin.Context, status int, f componentForm, msg string) {
	render(c, status, "component_form.html", gin.H{
		"isNew":     f.ID == 0,
		"component": f,
		"error":     msg,
	})
}

func ShowNewComponent(c *gin.Context) {
	renderComponentForm(c, http.StatusOK, componentForm{Quantity: "0"}, "")
}

func CreateComponent(c *gin.Context) {
	var comp models.Component
	f, msg := readComponentForm(c, &comp)
	if msg != "" {
		renderComponentForm(c, http.StatusBadRequest, f, msg)
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Create(&comp).Error; err != nil {
		renderComponentForm(c, statusFor(err), f, failText(c, err, "Ошибка сохранения компонента"))
		return
	}

	audit(c, "component", comp.ID, "create", fmt.Sprintf("Добавлен компонент: %s, остаток %d", comp.Name, comp.Quantity))

	c.Redirect(http.StatusFound, "/components")
}

func ShowEditComponent(c *gin.Context) {
	id, ok := paramID(c, "id", "компонент")
	if !ok {
		return
	}

	var comp models.Component
	if err := database.DB.WithContext(c.Request.Context()).First(&comp, id).Error; err != nil {
		c.String(http.StatusNotFound, "Компонент не найден")
		return
	}

	renderComponentForm(c, http.StatusOK, componentFormOf(comp), "")
}

// UpdateComponent: ручная правка карточки склада, в том числе остатка (приход, инвентаризация).
// Остаток пишется, только если с открытия формы его никто не менял.
func UpdateComponent(c *gin.Context) {
	id, ok := paramID(c, "id", "компонент")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var comp models.Component
	if err := database.DB.WithContext(ctx).First(&comp, id).Error; err != nil {
		c.String(http.StatusNotFound, "Компонент не найден")
		return
	}

	f, msg := readComponentForm(c, &comp)
	if msg != "" {
		renderComponentForm(c, http.StatusBadRequest, f, msg)
		return
	}
	prevQty, err := formInt(c, "quantity_was", -1)
	if err != nil || prevQty < 0 {
		renderComponentForm(c, http.StatusBadRequest, f, "Форма устарела, откройте её заново")
		return
	}

	if err := repo().UpdateComponent(ctx, &comp, prevQty); err != nil {
		if errors.Is(err, models.ErrConflict) {
			var current models.Component
			if database.DB.WithContext(ctx).First(&current, id).Error == nil {
				f.QuantityWas = fmt.Sprint(current.Quantity)
				msg = fmt.Sprintf("Пока форма была открыта, остаток изменился: сейчас %d. Проверьте и сохраните ещё раз", current.Quantity)
			}
		}
		if msg == "" {
			msg = failText(c, err, "Ошибка сохранения компонента")
		}
		renderComponentForm(c, statusFor(err), f, msg)
		return
	}

	audit(c, "component", comp.ID, "update",
		fmt.Sprintf("Изменён компонент: %s, остаток %d → %d", comp.Name, prevQty, comp.Quantity))

	c.Redirect(http.StatusFound, "/components")
}

func DeleteComponent(c *gin.Context) {
	id, ok := paramID(c, "id", "компонент")
	if !ok {
		return
	}

	if err := repo().DeleteComponent(c.Request.Context(), id); err != nil {
		fail(c, err, "Ошибка удаления компонента")
		return
	}

	audit(c, "component", id, "delete", fmt.Sprintf("Удалён компонент #%d", id))

	c.Redirect(http.StatusFound, "/components")
}

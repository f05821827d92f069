package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"repair-shop/internal/database"
	"repair-shop/internal/ledger"
	"repair-shop/internal/logger"
	"repair-shop/internal/models"
	"repair-shop/internal/repository"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// render — обёртка над c.HTML, которая во все шаблоны прокидывает CurrentUser.
func render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	// пользователя кладёт middleware.InjectUser
	if uVal, ok := c.Get("CurrentUser"); ok {
		if u, ok := uVal.(models.User); ok {
			data["CurrentUser"] = u
			data["CurrentUsername"] = u.Username
			data["CurrentUserRole"] = u.Role
			data["CanEdit"] = u.Role.CanEdit()
			data["IsAdmin"] = u.Role == models.RoleAdmin
		}
	}

	c.HTML(status, tmpl, data)
}

func ledgerSvc() *ledger.Ledger {
	return ledger.New(database.DB)
}

func repo() *repository.Repository {
	return repository.New(database.DB)
}

// currentUserID: id пользователя из сессии, 0 если не вошёл
func currentUserID(c *gin.Context) uint {
	uid, _ := sessions.Default(c).Get("user_id").(uint)
	return uid
}

func currentRole(c *gin.Context) models.UserRole {
	role, _ := sessions.Default(c).Get("role").(string)
	return models.UserRole(role)
}

func audit(c *gin.Context, entity string, entityID uint, action, details string) {
	database.CreateAuditLog(c.Request.Context(), currentUserID(c), entity, entityID, action, details)
}

// paramID разбирает :name из пути; при ошибке сам отвечает 400
func paramID(c *gin.Context, name, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.String(http.StatusBadRequest, "Некорректный ID: "+what)
		return 0, false
	}
	return uint(id), true
}

func formUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(c.PostForm(name)), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func formInt(c *gin.Context, name string, def int) (int, error) {
	s := strings.TrimSpace(c.PostForm(name))
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// parseMoney принимает и точку, и запятую; пустая строка, ok=false
func parseMoney(s string) (d decimal.Decimal, ok bool, err error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return decimal.Zero, false, nil
	}
	d, err = decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// statusFor переводит ошибки слоёв ниже в HTTP-статус
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrProtected), errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// failText: текст ошибки для страницы; внутренние ошибки в лог, пользователю общий текст
func failText(c *gin.Context, err error, fallback string) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "Проверьте введённые данные"
	case http.StatusNotFound:
		return "Запись не найдена"
	case http.StatusConflict:
		if errors.Is(err, models.ErrProtected) {
			return "Запись используется в ремонтах, удалить нельзя"
		}
		return "Запись уже существует"
	}
	logger.Error(c.Request.Context(), fallback, logger.ErrorF(err))
	return fallback
}

// fail отвечает текстом ошибки с нужным статусом
func fail(c *gin.Context, err error, fallback string) {
	c.String(statusFor(err), failText(c, err, fallback))
}

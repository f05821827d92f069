package handlers

import (
	"fmt"
	"net/http"

	"repair-shop/internal/database"
	"repair-shop/internal/models"

	"github.com/gin-gonic/gin"
)

// ПОЛЬЗОВАТЕЛИ

func ListUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.WithContext(c.Request.Context()).Order("username asc").Find(&users).Error; err != nil {
		fail(c, err, "Ошибка загрузки пользователей")
		return
	}

	render(c, http.StatusOK, "users_list.html", gin.H{
		"users":  users,
		"roles":  models.UserRoles,
		"selfID": currentUserID(c),
	})
}

// UpdateUserRole меняет роль; новая роль действует со следующего входа пользователя
func UpdateUserRole(c *gin.Context) {
	id, ok := paramID(c, "id", "пользователь")
	if !ok {
		return
	}

	role := models.UserRole(c.PostForm("role"))
	if !role.Valid() {
		c.String(http.StatusBadRequest, "Неверная роль")
		return
	}
	// иначе единственный админ может остаться без доступа к этой странице
	if id == currentUserID(c) {
		c.String(http.StatusBadRequest, "Свою роль менять нельзя")
		return
	}

	res := database.DB.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role)
	if res.Error != nil {
		fail(c, res.Error, "Ошибка сохранения пользователя")
		return
	}
	if res.RowsAffected == 0 {
		c.String(http.StatusNotFound, "Пользователь не найден")
		return
	}

	audit(c, "user", id, "update", fmt.Sprintf("Роль пользователя #%d: %s", id, role))

	c.Redirect(http.StatusFound, "/users")
}

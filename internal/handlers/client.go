package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"repair-shop/internal/database"
	"repair-shop/internal/models"

	"github.com/gin-gonic/gin"
)

//
// СПИСОК / СОЗДАНИЕ
//

func ListClients(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))

	clients, err := repo().ListClients(c.Request.Context(), search)
	if err != nil {
		fail(c, err, "Ошибка загрузки клиентов")
		return
	}

	render(c, http.StatusOK, "clients_list.html", gin.H{
		"clients": clients,
		"search":  search,
		// наблюдатель видит контакты в маске
		"MaskContacts": currentRole(c) == models.RoleViewer,
	})
}

func ShowNewClient(c *gin.Context) {
	render(c, http.StatusOK, "client_form.html", gin.H{
		"isNew":  true,
		"client": models.Client{},
		"error":  "",
	})
}

// readClientForm переносит поля формы в client; возвращает текст ошибки валидации
func readClientForm(c *gin.Context, client *models.Client) string {
	client.LastName = strings.TrimSpace(c.PostForm("last_name"))
	client.FirstName = strings.TrimSpace(c.PostForm("first_name"))
	client.MiddleName = strings.TrimSpace(c.PostForm("middle_name"))
	client.Phone = strings.TrimSpace(c.PostForm("phone"))
	client.Email = strings.TrimSpace(c.PostForm("email"))
	client.Address = strings.TrimSpace(c.PostForm("address"))

	switch {
	case client.LastName == "" || client.FirstName == "":
		return "Укажите фамилию и имя"
	case client.Phone == "":
		return "Укажите телефон"
	case len([]rune(client.Phone)) > 20:
		return "Слишком длинный телефон"
	case client.Email != "" && !strings.Contains(client.Email, "@"):
		return "Некорректный e-mail"
	}
	return ""
}

func CreateClient(c *gin.Context) {
	var client models.Client
	if msg := readClientForm(c, &client); msg != "" {
		render(c, http.StatusBadRequest, "client_form.html", gin.H{"isNew": true, "client": client, "error": msg})
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Create(&client).Error; err != nil {
		render(c, statusFor(err), "client_form.html", gin.H{
			"isNew":  true,
			"client": client,
			"error":  failText(c, err, "Ошибка сохранения клиента в БД"),
		})
		return
	}

	audit(c, "client", client.ID, "create", "Создан клиент: "+client.FullName())

	c.Redirect(http.StatusFound, fmt.Sprintf("/clients/%d", client.ID))
}

//
// РЕДАКТИРОВАНИЕ / УДАЛЕНИЕ
//

func ShowEditClient(c *gin.Context) {
	id, ok := paramID(c, "id", "клиент")
	if !ok {
		return
	}

	var client models.Client
	if err := database.DB.WithContext(c.Request.Context()).First(&client, id).Error; err != nil {
		c.String(http.StatusNotFound, "Клиент не найден")
		return
	}

	render(c, http.StatusOK, "client_form.html", gin.H{
		"client": client,
		"error":  "",
	})
}

func UpdateClient(c *gin.Context) {
	id, ok := paramID(c, "id", "клиент")
	if !ok {
		return
	}

	var client models.Client
	if err := database.DB.WithContext(c.Request.Context()).First(&client, id).Error; err != nil {
		c.String(http.StatusNotFound, "Клиент не найден")
		return
	}

	if msg := readClientForm(c, &client); msg != "" {
		render(c, http.StatusBadRequest, "client_form.html", gin.H{"client": client, "error": msg})
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Omit("Devices").Save(&client).Error; err != nil {
		render(c, statusFor(err), "client_form.html", gin.H{
			"client": client,
			"error":  failText(c, err, "Ошибка сохранения клиента"),
		})
		return
	}

	audit(c, "client", client.ID, "update", "Изменён клиент: "+client.FullName())

	c.Redirect(http.StatusFound, fmt.Sprintf("/clients/%d", client.ID))
}

// DeleteClient удаляет клиента со всеми устройствами и ремонтами
func DeleteClient(c *gin.Context) {
	id, ok := paramID(c, "id", "клиент")
	if !ok {
		return
	}

	if err := repo().DeleteClient(c.Request.Context(), id); err != nil {
		fail(c, err, "Ошибка удаления клиента")
		return
	}

	audit(c, "client", id, "delete", fmt.Sprintf("Удалён клиент #%d", id))

	c.Redirect(http.StatusFound, "/clients")
}

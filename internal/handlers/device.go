package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"repair-shop/internal/database"
	"repair-shop/internal/models"

	"github.com/gin-gonic/gin"
)

// СОЗДАНИЕ УСТРОЙСТВА (из карточки клиента)

func ShowNewDevice(c *gin.Context) {
	clientID, ok := paramID(c, "id", "клиент")
	if !ok {
		return
	}

	var client models.Client
	if err := database.DB.WithContext(c.Request.Context()).First(&client, clientID).Error; err != nil {
		c.String(http.StatusNotFound, "Клиент не найден")
		return
	}

	render(c, http.StatusOK, "device_form.html", gin.H{
		"isNew":       true,
		"client":      client,
		"device":      models.Device{ClientID: client.ID, DeviceType: models.DeviceWashingMachine},
		"deviceTypes": models.DeviceTypes,
		"error":       "",
	})
}

func readDeviceForm(c *gin.Context, d *models.Device) string {
	d.DeviceType = models.DeviceType(strings.TrimSpace(c.PostForm("device_type")))
	d.Brand = strings.TrimSpace(c.PostForm("brand"))
	d.Model = strings.TrimSpace(c.PostForm("model"))
	d.SerialNumber = strings.TrimSpace(c.PostForm("serial_number"))
	d.Description = strings.TrimSpace(c.PostForm("description"))

	switch {
	case !d.DeviceType.Valid():
		return "Укажите тип устройства"
	case d.Brand == "" || d.Model == "":
		return "Укажите марку и модель"
	}
	return ""
}

func renderDeviceForm(c *gin.Context, status int, isNew bool, client models.Client, d models.Device, msg string) {
	render(c, status, "device_form.html", gin.H{
		"isNew":       isNew,
		"client":      client,
		"device":      d,
		"deviceTypes": models.DeviceTypes,
		"error":       msg,
	})
}

func CreateDevice(c *gin.Context) {
	clientID, ok := paramID(c, "id", "клиент")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var client models.Client
	if err := database.DB.WithContext(ctx).First(&client, clientID).Error; err != nil {
		c.String(http.StatusNotFound, "Клиент не найден")
		return
	}

	device := models.Device{ClientID: client.ID}
	if msg := readDeviceForm(c, &device); msg != "" {
		renderDeviceForm(c, http.StatusBadRequest, true, client, device, msg)
		return
	}

	if err := database.DB.WithContext(ctx).Omit("Client", "Repairs").Create(&device).Error; err != nil {
		renderDeviceForm(c, statusFor(err), true, client, device, failText(c, err, "Ошибка сохранения устройства"))
		return
	}

	audit(c, "device", device.ID, "create", "Добавлено устройство: "+device.Title())

	c.Redirect(http.StatusFound, fmt.Sprintf("/clients/%d", client.ID))
}

// РЕДАКТИРОВАНИЕ / УДАЛЕНИЕ

func ShowEditDevice(c *gin.Context) {
	id, ok := paramID(c, "id", "устройство")
	if !ok {
		return
	}

	var device models.Device
	if err := database.DB.WithContext(c.Request.Context()).Preload("Client").First(&device, id).Error; err != nil {
		c.String(http.StatusNotFound, "Устройство не найдено")
		return
	}

	renderDeviceForm(c, http.StatusOK, false, device.Client, device, "")
}

func UpdateDevice(c *gin.Context) {
	id, ok := paramID(c, "id", "устройство")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var device models.Device
	if err := database.DB.WithContext(ctx).Preload("Client").First(&device, id).Error; err != nil {
		c.String(http.StatusNotFound, "Устройство не найдено")
		return
	}

	if msg := readDeviceForm(c, &device); msg != "" {
		renderDeviceForm(c, http.StatusBadRequest, false, device.Client, device, msg)
		return
	}

	if err := database.DB.WithContext(ctx).Omit("Client", "Repairs").Save(&device).Error; err != nil {
		renderDeviceForm(c, statusFor(err), false, device.Client, device, failText(c, err, "Ошибка сохранения устройства"))
		return
	}

	audit(c, "device", device.ID, "update", "Изменено устройство: "+device.Title())

	c.Redirect(http.StatusFound, fmt.Sprintf("/clients/%d", device.ClientID))
}

func DeleteDevice(c *gin.Context) {
	id, ok := paramID(c, "id", "устройство")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var device models.Device
	if err := database.DB.WithContext(ctx).First(&device, id).Error; err != nil {
		c.String(http.StatusNotFound, "Устройство не найдено")
		return
	}

	if err := repo().DeleteDevice(ctx, id); err != nil {
		fail(c, err, "Ошибка удаления устройства")
		return
	}

	audit(c, "device", id, "delete", "Удалено устройство: "+device.Title())

	c.Redirect(http.StatusFound, fmt.Sprintf("/clients/%d", device.ClientID))
}

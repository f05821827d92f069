package server

import (
	"html/template"
	"net/http"
	"time"

	"repair-shop/internal/config"
	"repair-shop/internal/handlers"
	"repair-shop/internal/middleware"
	"repair-shop/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func maskEmail(email string) string {
	runes := []rune(email)
	atIdx := -1
	for i, r := range runes {
		if r == '@' {
			atIdx = i
			break
		}
	}
	if atIdx <= 0 {
		return "***"
	}
	prefix := string(runes[:atIdx])
	domain := string(runes[atIdx:])
	if len(prefix) <= 2 {
		return prefix + "***" + domain
	}
	return string(runes[0:2]) + "***" + domain
}

func maskPhone(phone string) string {
	runes := []rune(phone)
	n := len(runes)
	if n <= 4 {
		return "***"
	}
	masked := make([]rune, n)
	for i := range runes {
		if i >= n-2 {
			masked[i] = runes[i]
		} else {
			masked[i] = '*'
		}
	}
	return string(masked)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// fmtDate принимает time.Time и *time.Time; пустая дата, прочерк
func fmtDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return "—"
		}
		return t.Format("02.01.2006")
	case *time.Time:
		if t == nil {
			return "—"
		}
		return fmtDate(*t)
	}
	return ""
}

func fmtDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// inputDate: значение для <input type="date">
func inputDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"maskEmail":   maskEmail,
		"maskPhone":   maskPhone,
		"money":       money,
		"fmtDate":     fmtDate,
		"fmtDateTime": fmtDateTime,
		"inputDate":   inputDate,
	}
}

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(), gin.Recovery())

	r.Static("/static", cfg.StaticDir)

	r.SetFuncMap(TemplateFuncs())
	r.LoadHTMLGlob(cfg.TemplatesGlob)

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 12 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("repair_session", store))

	r.Use(middleware.InjectUser())

	editor := middleware.RequireEditor()
	admin := middleware.RequireRole(models.RoleAdmin)

	// ГЛАВНАЯ
	r.GET("/", handlers.IndexPage)

	// AUTH
	r.GET("/register", handlers.ShowRegister)
	r.POST("/register", handlers.Register)
	r.GET("/login", handlers.ShowLogin)
	r.POST("/login", handlers.Login)
	r.GET("/logout", handlers.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	// КЛИЕНТЫ И УСТРОЙСТВА
	auth.GET("/clients", handlers.ListClients)
	auth.GET("/clients/new", editor, handlers.ShowNewClient)
	auth.POST("/clients/new", editor, handlers.CreateClient)
	auth.GET("/clients/:id", handlers.ShowClientDetail)
	auth.GET("/clients/:id/edit", editor, handlers.ShowEditClient)
	auth.POST("/clients/:id/edit", editor, handlers.UpdateClient)
	// удаление клиента уносит все его ремонты — только админ
	auth.POST("/clients/:id/delete", admin, handlers.DeleteClient)

	auth.GET("/clients/:id/devices/new", editor, handlers.ShowNewDevice)
	auth.POST("/clients/:id/devices/new", editor, handlers.CreateDevice)
	auth.GET("/devices/:id/edit", editor, handlers.ShowEditDevice)
	auth.POST("/devices/:id/edit", editor, handlers.UpdateDevice)
	auth.POST("/devices/:id/delete", admin, handlers.DeleteDevice)

	// РЕМОНТЫ
	auth.GET("/repairs", handlers.ListRepairs)
	auth.GET("/repairs/export.xlsx", handlers.ExportRepairs)
	auth.GET("/repairs/new", editor, handlers.ShowNewRepair)
	auth.POST("/repairs/new", editor, handlers.CreateRepair)
	auth.GET("/repairs/:id", handlers.ShowRepairDetail)
	auth.GET("/repairs/:id/edit", editor, handlers.ShowEditRepair)
	auth.POST("/repairs/:id/edit", editor, handlers.UpdateRepair)
	auth.POST("/repairs/:id/delete", admin, handlers.DeleteRepair)

	// строки ремонта
	auth.GET("/repairs/:id/works/new", editor, handlers.ShowNewWorkLine)
	auth.POST("/repairs/:id/works/new", editor, handlers.SaveWorkLine)
	auth.GET("/repairs/:id/works/:line_id/edit", editor, handlers.ShowEditWorkLine)
	auth.POST("/repairs/:id/works/:line_id/edit", editor, handlers.SaveWorkLine)
	auth.POST("/repairs/:id/works/:line_id/delete", editor, handlers.DeleteWorkLine)

	auth.GET("/repairs/:id/components/new", editor, handlers.ShowNewComponentLine)
	auth.POST("/repairs/:id/components/new", editor, handlers.SaveComponentLine)
	auth.GET("/repairs/:id/components/:line_id/edit", editor, handlers.ShowEditComponentLine)
	auth.POST("/repairs/:id/components/:line_id/edit", editor, handlers.SaveComponentLine)
	auth.POST("/repairs/:id/components/:line_id/delete", editor, handlers.DeleteComponentLine)

	// АКТЫ
	auth.GET("/acts", handlers.ListActs)
	auth.GET("/repairs/:id/act", handlers.ShowAct)
	auth.POST("/repairs/:id/act/print", editor, handlers.PrintAct)
	auth.POST("/repairs/:id/act/notes", editor, handlers.UpdateActNotes)

	// СКЛАД
	auth.GET("/components", handlers.ListComponents)
	auth.GET("/components/export.xlsx", handlers.ExportComponents)
	auth.GET("/components/new", editor, handlers.ShowNewComponent)
	auth.POST("/components/new", editor, handlers.CreateComponent)
	auth.GET("/components/:id/edit", editor, handlers.ShowEditComponent)
	auth.POST("/components/:id/edit", editor, handlers.UpdateComponent)
	auth.POST("/components/:id/delete", admin, handlers.DeleteComponent)

	// ВИДЫ РАБОТ
	auth.GET("/worktypes", handlers.ListWorkTypes)
	auth.GET("/worktypes/new", editor, handlers.ShowNewWorkType)
	auth.POST("/worktypes/new", editor, handlers.CreateWorkType)
	auth.GET("/worktypes/:id/edit", editor, handlers.ShowEditWorkType)
	auth.POST("/worktypes/:id/edit", editor, handlers.UpdateWorkType)
	auth.POST("/worktypes/:id/delete", admin, handlers.DeleteWorkType)

	// АУДИТ
	auth.GET("/audit",
		middleware.RequireRole(models.RoleAdmin, models.RoleViewer),
		handlers.ListAuditLogs,
	)

	// ПОЛЬЗОВАТЕЛИ
	auth.GET("/users", admin, handlers.ListUsers)
	auth.POST("/users/:id/role", admin, handlers.UpdateUserRole)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}

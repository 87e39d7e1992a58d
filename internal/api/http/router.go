package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/api/http/handlers"
	"github.com/holainformatica/soporte-backend/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	TicketRecursos *handlers.TicketRecursosHandler
	Empresas       *handlers.EmpresasHandler
	Dispositivos   *handlers.DispositivosHandler
	Usuarios       *handlers.UsuariosHandler
	Estadisticas   *handlers.EstadisticasHandler
	Chat           *handlers.ChatHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("", cfg.AuthMiddleware.Handle)
	api.Get("/auth/me", cfg.Auth.Me)

	tickets := api.Group("/tickets")
	tickets.Get("", cfg.Tickets.List)
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.Delete)
	tickets.Put("/:id/notas", cfg.Tickets.UpdateNotas)
	tickets.Post("/:id/notas-internas", cfg.Tickets.AddNotaInterna)
	tickets.Get("/:id/historial", cfg.Tickets.Historial)

	tickets.Post("/:id/asignaciones", cfg.TicketRecursos.Asignar)
	tickets.Delete("/:id/asignaciones/:userId", cfg.TicketRecursos.Desasignar)
	tickets.Get("/:id/horas", cfg.TicketRecursos.ListHoras)
	tickets.Post("/:id/horas", cfg.TicketRecursos.RegistrarHoras)
	tickets.Get("/:id/archivos", cfg.TicketRecursos.ListArchivos)
	tickets.Post("/:id/archivos", cfg.TicketRecursos.UploadArchivos)
	tickets.Get("/:id/comentarios", cfg.TicketRecursos.ListComentarios)
	tickets.Post("/:id/comentarios", cfg.TicketRecursos.CreateComentario)

	api.Delete("/horas/:id", cfg.TicketRecursos.DeleteHoras)
	api.Delete("/archivos/:id", cfg.TicketRecursos.DeleteArchivo)
	api.Patch("/comentarios/:id", cfg.TicketRecursos.UpdateComentario)
	api.Delete("/comentarios/:id", cfg.TicketRecursos.DeleteComentario)

	empresas := api.Group("/empresas")
	empresas.Get("", cfg.Empresas.List)
	empresas.Post("", cfg.Empresas.Create)
	empresas.Get("/:id", cfg.Empresas.Get)
	empresas.Patch("/:id", cfg.Empresas.Update)
	empresas.Delete("/:id", auth.RequireAdmin(), cfg.Empresas.Delete)

	dispositivos := api.Group("/dispositivos")
	dispositivos.Get("", cfg.Dispositivos.List)
	dispositivos.Post("", cfg.Dispositivos.Create)
	dispositivos.Get("/:id", cfg.Dispositivos.Get)
	dispositivos.Patch("/:id", cfg.Dispositivos.Update)
	dispositivos.Delete("/:id", auth.RequireAdmin(), cfg.Dispositivos.Delete)

	api.Get("/operarios", cfg.Usuarios.ListOperarios)

	usuarios := api.Group("/usuarios", auth.RequireAdmin())
	usuarios.Get("", cfg.Usuarios.List)
	usuarios.Post("", cfg.Usuarios.Create)
	usuarios.Patch("/:id", cfg.Usuarios.Update)
	usuarios.Delete("/:id", cfg.Usuarios.Delete)

	estadisticas := api.Group("/estadisticas", auth.RequireAdmin())
	estadisticas.Get("/resumen", cfg.Estadisticas.Resumen)
	estadisticas.Get("/operarios", cfg.Estadisticas.PorOperario)
	estadisticas.Get("/empresas", cfg.Estadisticas.PorEmpresa)

	chat := api.Group("/chat")
	chat.Get("/canales", cfg.Chat.ListCanales)
	chat.Post("/canales", cfg.Chat.CrearCanal)
	chat.Patch("/canales/:id", cfg.Chat.ActualizarCanal)
	chat.Delete("/canales/:id", cfg.Chat.EliminarCanal)
	chat.Post("/canales/:id/miembros", cfg.Chat.AddMiembro)
	chat.Delete("/canales/:id/miembros/:userId", cfg.Chat.RemoveMiembro)
	chat.Get("/canales/:id/mensajes", cfg.Chat.ListMensajes)
	chat.Post("/canales/:id/mensajes", cfg.Chat.EnviarMensaje)
	chat.Post("/directos", cfg.Chat.AbrirDirecto)
	chat.Patch("/mensajes/:id", cfg.Chat.EditarMensaje)
	chat.Put("/mensajes/:id/anclado", cfg.Chat.AnclarMensaje)
	chat.Delete("/mensajes/:id", cfg.Chat.EliminarMensaje)
}

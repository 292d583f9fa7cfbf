package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Routes groups the handlers mounted on the server
type Routes struct {
	Upload      *UploadHandler
	Transcribe  *TranscribeHandler
	Transcripts *TranscriptsHandler
	Stream      *StreamHandler
	GDrive      *GDriveHandler
	Logs        func() []string
	Version     string
}

// Register mounts every route on app. Nil handlers are skipped.
func Register(app *fiber.App, r Routes) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": r.Version,
		})
	})

	if r.Upload != nil {
		app.Post("/upload", r.Upload.Handle)
		app.Get("/list", r.Upload.List)
	}
	if r.Transcribe != nil {
		app.Post("/transcribe", r.Transcribe.Handle)
		app.Post("/jobs", r.Transcribe.Enqueue)
	}
	if r.GDrive != nil {
		app.Post("/gdrive", r.GDrive.Handle)
	}
	if r.Stream != nil {
		app.Get("/ws/stream", websocket.New(r.Stream.Handle))
	}
	if r.Transcripts != nil {
		app.Get("/transcripts", r.Transcripts.List)
		app.Get("/transcripts/:id", r.Transcripts.Get)
		app.Get("/transcripts/:id/text", r.Transcripts.Text)
	}
	if r.Logs != nil {
		app.Get("/logs", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"logs": r.Logs()})
		})
	}
}

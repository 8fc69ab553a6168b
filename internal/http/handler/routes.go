package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"

	"filedrop/internal/service"
	"filedrop/internal/storage"
	"filedrop/web"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic; the service owns naming,
// policy, and storage semantics.
func RegisterRoutes(app *fiber.App, store storage.Storage, fileSvc service.FileService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", Docs())

	// Readiness: storage backend must be listable
	app.Get("/health", HealthCheck(store))

	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	// Browser UI: index page and its static assets
	app.Get("/", Index())
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(web.StaticFS),
		PathPrefix: "static",
	}))

	// File store API; these paths are the compatibility contract
	app.Post("/upload", UploadFile(fileSvc))
	app.Get("/view", ViewFiles(fileSvc))
	app.Delete("/delete/:fileName", DeleteFile(fileSvc))
	app.Get("/uploads/:fileName", ServeFile(fileSvc))
}

// Index serves the embedded upload page.
func Index() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("html")
		return c.Send(web.IndexHTML)
	}
}

// HealthCheck reports readiness by listing the storage backend.
func HealthCheck(store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if _, err := store.List(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadFile accepts a multipart form with a single "file" field and redirects
// the browser back to the index on success.
func UploadFile(fileSvc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		if _, err := fileSvc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size); err != nil {
			switch {
			case errors.Is(err, service.ErrTooLarge):
				return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload size limit")
			case errors.Is(err, service.ErrTypeNotAllowed):
				return writeError(c, fiber.StatusUnsupportedMediaType, "TYPE_NOT_ALLOWED", "file type is not allowed")
			case errors.Is(err, service.ErrNameRequired), errors.Is(err, service.ErrInvalidName):
				return writeError(c, fiber.StatusBadRequest, "INVALID_NAME", "invalid file name")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// ViewFiles returns every stored name as {"files": [...]}.
func ViewFiles(fileSvc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		files, err := fileSvc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.StoredName)
		}
		return c.JSON(fiber.Map{"files": names})
	}
}

// DeleteFile removes a stored file by name. A missing file is an observable
// not-found, not a silent no-op.
func DeleteFile(fileSvc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("fileName"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_NAME", "invalid file name")
		}

		if err := fileSvc.Delete(c.UserContext(), name); err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			case errors.Is(err, service.ErrNameRequired), errors.Is(err, service.ErrInvalidName):
				return writeError(c, fiber.StatusBadRequest, "INVALID_NAME", "invalid file name")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		return c.JSON(fiber.Map{"message": "file deleted", "file": name})
	}
}

// ServeFile streams the raw bytes of a stored file. Content-Type is inferred
// from the extension when the backend reports none.
func ServeFile(fileSvc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("fileName"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_NAME", "invalid file name")
		}

		rc, file, err := fileSvc.Get(c.UserContext(), name)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			case errors.Is(err, service.ErrNameRequired), errors.Is(err, service.ErrInvalidName):
				return writeError(c, fiber.StatusBadRequest, "INVALID_NAME", "invalid file name")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		ct := file.ContentType
		if ct == "" {
			ct = mime.TypeByExtension(filepath.Ext(name))
		}
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Set(fiber.HeaderContentType, ct)

		if file.Size > 0 {
			return c.SendStream(rc, int(file.Size))
		}
		return c.SendStream(rc)
	}
}

// Docs serves a Swagger UI page over the hand-written OpenAPI spec.
func Docs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	}
}

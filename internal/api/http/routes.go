package httpapi

import (
	"bytes"
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-web/internal/weather"
)

// Reader is the weather core as seen by the HTTP layer.
type Reader interface {
	Read(ctx context.Context, bypassCache bool) (weather.Payload, error)
}

// Options controls how handlers report failures.
type Options struct {
	// ExposeErrors includes error details in error responses.
	ExposeErrors bool
	Log          *zap.SugaredLogger
	Service      string
}

type handlers struct {
	reader Reader
	opts   Options
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
//
//	GET /          HTML page, always rendered from freshly fetched data
//	GET /api/data  JSON payload, served from cache while within TTL
//	GET /health    liveness probe
func RegisterRoutes(app *fiber.App, reader Reader, opts Options) {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.Service == "" {
		opts.Service = "weather-web"
	}
	h := &handlers{reader: reader, opts: opts}

	app.Get("/", h.index)
	app.Get("/api/data", h.data)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": opts.Service,
		})
	})
}

func (h *handlers) index(c *fiber.Ctx) error {
	payload, err := h.reader.Read(c.UserContext(), true)
	if err != nil {
		return h.renderError(c, err)
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, payload); err != nil {
		h.logFailure(c, "render weather page", err)
		return h.renderPage(c, fiber.StatusInternalServerError, err)
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (h *handlers) data(c *fiber.Ctx) error {
	payload, err := h.reader.Read(c.UserContext(), false)
	if err != nil {
		h.logFailure(c, "read weather data", err)
		status := statusFor(err)
		return c.Status(status).JSON(fiber.Map{
			"error":   true,
			"kind":    kindFor(err),
			"message": messageFor(err, status, h.opts.ExposeErrors),
		})
	}
	return c.JSON(payload)
}

func (h *handlers) renderError(c *fiber.Ctx, err error) error {
	h.logFailure(c, "load weather page", err)
	return h.renderPage(c, statusFor(err), err)
}

func (h *handlers) renderPage(c *fiber.Ctx, status int, err error) error {
	var buf bytes.Buffer
	execErr := errorTmpl.Execute(&buf, struct {
		Status  int
		Title   string
		Message string
	}{
		Status:  status,
		Title:   fiber.NewError(status).Message,
		Message: messageFor(err, status, h.opts.ExposeErrors),
	})
	if execErr != nil {
		return fiber.NewError(status, messageFor(err, status, h.opts.ExposeErrors))
	}

	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

func (h *handlers) logFailure(c *fiber.Ctx, msg string, err error) {
	h.opts.Log.Errorw(msg,
		"path", c.Path(),
		"request_id", c.Locals("requestid"),
		"status", statusFor(err),
		"error", err,
	)
}

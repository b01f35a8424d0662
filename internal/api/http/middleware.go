package http

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/pengaduan-service/internal/config"
	"github.com/spec-kit/pengaduan-service/internal/observability"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as CORS, error
// handling and request logging.
func RegisterMiddlewares(app *fiber.App, cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowCredentials: true,
	}))
	if timeout := cfg.RequestTimeout(); timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	// the request logger wraps error handling so it observes the status the
	// error middleware actually wrote, not the pre-conversion 200
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics, cfg.IsDevelopment()))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware converts every error into the response envelope
// {success:false, message}. Internal detail leaks only in development mode.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, development bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

				response := fiber.Map{
					"success": false,
					"message": domainErr.Message,
				}
				if len(domainErr.Details) > 0 {
					response["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
					if development && domainErr.Err != nil {
						response["error"] = domainErr.Err.Error()
					}
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

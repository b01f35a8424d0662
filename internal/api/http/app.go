package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pengaduan-service/internal/config"
)

// multipart framing and the remaining form fields ride along with the photo
// bytes, so the body limit needs headroom beyond the photo cap itself
const uploadOverheadBytes = 1 << 20

// NewApp builds the fiber app. The body limit tracks the configured photo size
// cap; otherwise fiber's 4MB default would reject an in-limit upload with a
// raw 413 before the handler ever sees it.
func NewApp(appCfg config.AppConfig, upload config.UploadConfig) *fiber.App {
	cfg := fiber.Config{
		AppName:               appCfg.Name,
		DisableStartupMessage: !appCfg.IsDevelopment(),
	}
	if upload.MaxSizeBytes > 0 {
		cfg.BodyLimit = int(upload.MaxSizeBytes) + uploadOverheadBytes
	}
	return fiber.New(cfg)
}

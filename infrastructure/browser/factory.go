package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// Driver names
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
	DriverSelenium   = "selenium"
)

// ErrUnsupported is returned for operations a driver cannot perform
var ErrUnsupported = errors.New("not supported by driver")

// Drivers lists the supported driver names
var Drivers = []string{DriverPlaywright, DriverChromedp, DriverSelenium}

// Settings configures the browser process
type Settings struct {
	Driver   string
	Headless bool
	Viewport entities.Viewport
	// RemoteDebuggingURL attaches chromedp to a running browser instead of launching one
	RemoteDebuggingURL string
	ChromeDriverPath   string
	ChromeBinary       string
	ChromeDriverPort   int
	// SlowMo delays every playwright operation
	SlowMo time.Duration
}

// DefaultSettings - headless playwright at the desktop viewport
func DefaultSettings() Settings {
	return Settings{
		Driver:           DriverPlaywright,
		Headless:         true,
		Viewport:         entities.ViewportDesktop,
		ChromeDriverPort: 9515,
	}
}

// New launches the browser selected by settings.Driver
func New(ctx context.Context, settings Settings, logger *logrus.Logger) (interfaces.Browser, error) {
	if settings.Viewport.IsZero() {
		settings.Viewport = entities.ViewportDesktop
	}
	logger.WithFields(logrus.Fields{
		"driver":   settings.Driver,
		"headless": settings.Headless,
		"viewport": settings.Viewport.String(),
	}).Info("starting browser")

	switch settings.Driver {
	case DriverPlaywright, "":
		return NewPlaywrightBrowser(settings, logger)
	case DriverChromedp:
		return NewChromedpBrowser(ctx, settings, logger)
	case DriverSelenium:
		return NewSeleniumBrowser(settings, logger)
	default:
		return nil, fmt.Errorf("unknown driver %q (supported: %v)", settings.Driver, Drivers)
	}
}

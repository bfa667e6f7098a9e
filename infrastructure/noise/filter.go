package noise

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultKeywords match error messages raised by analytics, marketing and
// subscription widgets rather than by the theme
var DefaultKeywords = []string{
	"gtag", "fbq", "klaviyo", "skio",
	"Script error",
	"ResizeObserver loop",
	"Non-Error promise rejection",
	"Cannot read properties of undefined",
	"Cannot read properties of null",
	"ChunkLoadError", "Loading chunk",
	"Network Error", "NetworkError", "net::ERR",
	"timeout",
	"Shopify", "analytics", "tracking",
	"Failed to fetch", "fetch",
	"AbortError", "The operation was aborted",
	"Load failed", "cancelled",
	"CORS", "cross-origin",
}

// DefaultDomains are vendor hosts whose scripts may throw without failing a check
var DefaultDomains = []string{
	"skio.com", "cdn.skio.com",
	"shopify.com", "cdn.shopify.com",
	"googletagmanager.com", "google-analytics.com",
	"facebook.com", "facebook.net",
	"klaviyo.com",
	"gorgias.chat",
	"triplewhale",
	"taboola",
	"getangler.ai",
}

// Filter classifies uncaught page errors as third-party noise
type Filter struct {
	keywords []string
	domains  []string
	logger   logrus.FieldLogger
}

// NewFilter - creates a filter; nil lists fall back to the defaults
func NewFilter(keywords, domains []string, logger logrus.FieldLogger) *Filter {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	if domains == nil {
		domains = DefaultDomains
	}
	return &Filter{
		keywords: lowerAll(keywords),
		domains:  lowerAll(domains),
		logger:   logger,
	}
}

// Ignore reports whether the error message or its source mentions a known
// keyword, or the source points at a vendor domain
func (f *Filter) Ignore(message, source string) bool {
	lowerMessage := strings.ToLower(message)
	lowerSource := strings.ToLower(source)

	for _, keyword := range f.keywords {
		if strings.Contains(lowerMessage, keyword) || strings.Contains(lowerSource, keyword) {
			f.logger.Debugf("Ignoring page error (keyword %q): %s", keyword, message)
			return true
		}
	}

	for _, domain := range f.domains {
		if strings.Contains(lowerSource, domain) {
			f.logger.Debugf("Ignoring page error (domain %q): %s", domain, message)
			return true
		}
	}

	return false
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}

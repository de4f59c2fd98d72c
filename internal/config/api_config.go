package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
)

type API struct {
	// BaseURL is the backend origin every relative path is appended to
	BaseURL string `env:"MARKET_API_BASE_URL" envDefault:"http://localhost:8080"`
	// HTTPTimeout of zero leaves the transport default in place
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT"     envDefault:"0s"`
	LogDedupWindow time.Duration `env:"LOG_DEDUP_WINDOW" envDefault:"5s"`
}

var _ APIConfig = API{}

func (a API) GetAPIBaseURL() string {
	return a.BaseURL
}

func (a API) GetHTTPTimeout() time.Duration {
	return a.HTTPTimeout
}

func (a API) GetLogDedupWindow() time.Duration {
	return a.LogDedupWindow
}

func (a *API) sanitize() error {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: MARKET_API_BASE_URL %q must be an absolute url", apperrors.ErrInvalidConfig, a.BaseURL)
	}
	if a.HTTPTimeout < 0 {
		a.HTTPTimeout = 0
	}
	if a.LogDedupWindow <= 0 {
		a.LogDedupWindow = 5 * time.Second
	}
	return nil
}

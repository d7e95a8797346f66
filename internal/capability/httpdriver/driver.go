// Package httpdriver реализует capability.Driver для удалённого UI
// с серверным рендерингом.
//
// Сессия — это http.Client с cookie jar, предзагруженным внешними cookies,
// и "текущая страница", разобранная через goquery. Шаги:
//   - navigate — GET по URL, сброс введённых значений формы
//   - wait — опрос текущей страницы, пока селектор не найдётся
//   - fill — запоминает значение поля (отправляется вместе с формой)
//   - press — Enter в поле отправляет его форму
//   - click — ссылка/data-href → GET, кнопка формы → отправка формы
//
// Все запросы проходят через rate.Limiter, чтобы не перегружать сервис.
package httpdriver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaiso/Harvest/internal/capability"
)

// Значения по умолчанию.
const (
	defaultSignInMarker = "signin"
	defaultPollInterval = 500 * time.Millisecond
	defaultRPS          = 5.0
	defaultBurst        = 2
	defaultUserAgent    = "Harvest/1.0"
	defaultMaxBodyBytes = 32 << 20
)

// ErrBodyTooLarge — ответ больше Config.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Config — конфигурация драйвера.
type Config struct {
	// BaseURL — базовый адрес сервиса (для относительных URL и cookies).
	BaseURL string

	// DashboardURL — страница, доступная только авторизованным.
	DashboardURL string

	// SignInMarker — подстрока URL страницы логина (default: "signin").
	SignInMarker string

	// PollInterval — интервал опроса для wait (default: 500ms).
	PollInterval time.Duration

	// RequestsPerSecond, Burst — ограничение частоты запросов.
	RequestsPerSecond float64
	Burst             int

	// MaxBodyBytes — предел размера ответа (default: 32 MiB). Больший ответ
	// не обрезается, а считается ошибкой.
	MaxBodyBytes int64

	// Transport — http.RoundTripper (опционально, для тестов и прокси).
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Driver открывает HTTP-сессии.
type Driver struct {
	cfg    Config
	logger *slog.Logger
}

// New создаёт Driver.
func New(cfg Config) *Driver {
	if cfg.SignInMarker == "" {
		cfg.SignInMarker = defaultSignInMarker
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{cfg: cfg, logger: logger}
}

// Open открывает сессию: создаёт cookie jar, загружает cookies
// и готовит каталог загрузок.
func (d *Driver) Open(_ context.Context, sc capability.SessionConfig) (capability.Session, error) {
	base, err := url.Parse(d.cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", capability.ErrSession, d.cfg.BaseURL)
	}

	dashboard := d.cfg.DashboardURL
	if dashboard == "" {
		dashboard = base.JoinPath("dashboard").String()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: cookie jar: %v", capability.ErrSession, err)
	}
	jar.SetCookies(base, toHTTPCookies(sc.Cookies))

	downloadDir := sc.DownloadDir
	if downloadDir == "" {
		downloadDir = os.TempDir()
	}
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create download dir: %v", capability.ErrSession, err)
	}

	userAgent := sc.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	client := &http.Client{Jar: jar}
	if d.cfg.Transport != nil {
		client.Transport = d.cfg.Transport
	}

	s := &session{
		id:           sc.SessionID,
		base:         base,
		dashboard:    dashboard,
		marker:       d.cfg.SignInMarker,
		client:       client,
		limiter:      rate.NewLimiter(rate.Limit(d.cfg.RequestsPerSecond), d.cfg.Burst),
		pollInterval: d.cfg.PollInterval,
		downloadDir:  downloadDir,
		stepTimeout:  sc.StepTimeout,
		userAgent:    userAgent,
		maxBody:      d.cfg.MaxBodyBytes,
		staged:       make(map[string]string),
		logger:       d.logger.With("session_id", sc.SessionID),
	}

	s.logger.Debug("session opened",
		"base_url", base.String(),
		"cookies", len(sc.Cookies),
	)

	return s, nil
}

// toHTTPCookies конвертирует cookies из конфигурации.
// Domain не переносится: cookies привязываются к хосту BaseURL.
func toHTTPCookies(cookies []capability.Cookie) []*http.Cookie {
	result := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if hc.Path == "" {
			hc.Path = "/"
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		result = append(result, hc)
	}
	return result
}

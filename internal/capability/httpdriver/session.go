package httpdriver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/shaiso/Harvest/internal/capability"
)

// page — загруженный ответ сервиса.
type page struct {
	url    *url.URL
	status int
	header http.Header
	body   []byte
	doc    *goquery.Document // nil для не-HTML ответов
}

// session — реализация capability.Session поверх HTTP.
type session struct {
	id           string
	base         *url.URL
	dashboard    string
	marker       string
	client       *http.Client
	limiter      *rate.Limiter
	pollInterval time.Duration
	downloadDir  string
	stepTimeout  time.Duration
	userAgent    string
	maxBody      int64
	logger       *slog.Logger

	mu        sync.Mutex
	current   *page
	staged    map[string]string // значения, введённые через fill
	downloads int
	closed    bool
}

// ID возвращает идентификатор сессии.
func (s *session) ID() string {
	return s.id
}

// VerifyAuthenticated открывает dashboard и проверяет, не перенаправил ли
// сервис на страницу логина.
func (s *session) VerifyAuthenticated(ctx context.Context) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, capability.EffectiveTimeout(capability.Step{}, s.stepTimeout))
	defer cancel()

	p, err := s.fetch(ctx, http.MethodGet, s.dashboard, nil)
	if err != nil {
		return false, err
	}
	s.setCurrent(p, true)

	if p.status == http.StatusUnauthorized || p.status == http.StatusForbidden {
		return false, nil
	}
	if strings.Contains(strings.ToLower(p.url.String()), strings.ToLower(s.marker)) {
		s.logger.Debug("redirected to sign-in", "url", p.url.String())
		return false, nil
	}
	return p.status < 400, nil
}

// RunStep выполняет один шаг в пределах бюджета.
func (s *session) RunStep(ctx context.Context, step capability.Step) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, capability.EffectiveTimeout(step, s.stepTimeout))
	defer cancel()

	switch step.Action {
	case capability.ActionNavigate:
		return s.navigate(ctx, step.URL)
	case capability.ActionWait:
		_, err := s.waitFor(ctx, step.Selector)
		return err
	case capability.ActionFill:
		return s.fill(ctx, step.Selector, step.Value)
	case capability.ActionPress:
		return s.press(ctx, step.Selector, step.Value)
	case capability.ActionClick:
		return s.click(ctx, step.Selector)
	default:
		return fmt.Errorf("%w: %s", capability.ErrUnsupportedAction, step.Action)
	}
}

// AwaitDownload кликает по trigger и сохраняет полученный файл.
// Текущая страница не меняется.
func (s *session) AwaitDownload(ctx context.Context, trigger capability.Step) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, capability.EffectiveTimeout(trigger, s.stepTimeout))
	defer cancel()

	el, err := s.waitFor(ctx, trigger.Selector)
	if err != nil {
		return "", fmt.Errorf("%w: %w", capability.ErrDownload, err)
	}

	method, target, form, err := s.clickTarget(el)
	if err != nil {
		return "", fmt.Errorf("%w: %w", capability.ErrDownload, err)
	}

	p, err := s.fetch(ctx, method, target, form)
	if err != nil {
		return "", fmt.Errorf("%w: %w", capability.ErrDownload, err)
	}
	if p.status >= 400 {
		return "", fmt.Errorf("%w: HTTP %d from %s", capability.ErrDownload, p.status, p.url)
	}
	if p.doc != nil && !isAttachment(p.header) {
		return "", fmt.Errorf("%w: %s returned a page, not a file", capability.ErrDownload, p.url)
	}

	s.mu.Lock()
	s.downloads++
	seq := s.downloads
	s.mu.Unlock()

	name := fmt.Sprintf("%s-%03d-%s", sessionPrefix(s.id), seq, downloadName(p))
	path := filepath.Join(s.downloadDir, name)
	if err := os.WriteFile(path, p.body, 0o644); err != nil {
		return "", fmt.Errorf("%w: save %s: %v", capability.ErrDownload, path, err)
	}

	s.logger.Debug("download saved", "path", path, "bytes", len(p.body))
	return path, nil
}

// CaptureSnapshot возвращает HTML текущей страницы с заголовком-комментарием.
func (s *session) CaptureSnapshot(_ context.Context, label string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, capability.ErrSessionLost
	}

	var buf bytes.Buffer
	if s.current == nil {
		fmt.Fprintf(&buf, "<!-- %s: no page loaded -->\n", label)
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "<!-- %s: %s HTTP %d, captured %s -->\n",
		label, s.current.url, s.current.status, time.Now().UTC().Format(time.RFC3339))
	buf.Write(s.current.body)
	return buf.Bytes(), nil
}

// Close закрывает сессию. Повторный вызов ничего не делает.
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.current = nil
	s.staged = make(map[string]string)
	s.client.CloseIdleConnections()

	s.logger.Debug("session closed")
	return nil
}

func (s *session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return capability.ErrSessionLost
	}
	return nil
}

// setCurrent делает p текущей страницей.
// reset=true сбрасывает значения, введённые через fill.
func (s *session) setCurrent(p *page, reset bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
	if reset {
		s.staged = make(map[string]string)
	}
}

func (s *session) currentPage() *page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// navigate загружает страницу и начинает с чистой формы.
func (s *session) navigate(ctx context.Context, rawURL string) error {
	target, err := s.resolve(rawURL)
	if err != nil {
		return err
	}

	p, err := s.fetch(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	s.setCurrent(p, true)

	if p.status >= 400 {
		return fmt.Errorf("navigate %s: HTTP %d", target, p.status)
	}
	return nil
}

// waitFor опрашивает текущую страницу, пока selector не найдётся.
func (s *session) waitFor(ctx context.Context, selector string) (*goquery.Selection, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("%w: empty selector", capability.ErrElementNotFound)
	}

	for {
		cur := s.currentPage()
		if cur == nil {
			return nil, fmt.Errorf("%w: %s: no page loaded", capability.ErrElementNotFound, selector)
		}
		if cur.doc != nil {
			if sel := cur.doc.Find(selector); sel.Length() > 0 {
				return sel.First(), nil
			}
		}

		timer := time.NewTimer(s.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, timeoutErr(ctx, fmt.Errorf("%w: %s", capability.ErrElementNotFound, selector))
		case <-timer.C:
		}

		p, err := s.fetch(ctx, http.MethodGet, cur.url.String(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, timeoutErr(ctx, fmt.Errorf("%w: %s", capability.ErrElementNotFound, selector))
			}
			return nil, err
		}
		s.setCurrent(p, false)
	}
}

// fill запоминает значение поля формы.
func (s *session) fill(ctx context.Context, selector, value string) error {
	el, err := s.waitFor(ctx, selector)
	if err != nil {
		return err
	}

	switch goquery.NodeName(el) {
	case "input", "textarea", "select":
	default:
		return fmt.Errorf("%w: fill %s: <%s> is not a form field",
			capability.ErrUnsupportedAction, selector, goquery.NodeName(el))
	}

	name, ok := el.Attr("name")
	if !ok || name == "" {
		return fmt.Errorf("%w: fill %s: field has no name", capability.ErrUnsupportedAction, selector)
	}

	s.mu.Lock()
	s.staged[name] = value
	s.mu.Unlock()
	return nil
}

// press поддерживает Enter: отправляет форму поля.
func (s *session) press(ctx context.Context, selector, key string) error {
	el, err := s.waitFor(ctx, selector)
	if err != nil {
		return err
	}

	if !strings.EqualFold(key, "enter") {
		s.logger.Debug("key ignored", "selector", selector, "key", key)
		return nil
	}

	form := el.Closest("form")
	if form.Length() == 0 {
		return fmt.Errorf("%w: press %s: field is outside a form", capability.ErrUnsupportedAction, selector)
	}

	method, target, values, err := s.formRequest(form)
	if err != nil {
		return err
	}
	return s.load(ctx, method, target, values)
}

// click активирует элемент и загружает результат как текущую страницу.
func (s *session) click(ctx context.Context, selector string) error {
	el, err := s.waitFor(ctx, selector)
	if err != nil {
		return err
	}

	method, target, values, err := s.clickTarget(el)
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return s.load(ctx, method, target, values)
}

func (s *session) load(ctx context.Context, method, target string, values url.Values) error {
	p, err := s.fetch(ctx, method, target, values)
	if err != nil {
		return err
	}
	s.setCurrent(p, false)

	if p.status >= 400 {
		return fmt.Errorf("%s %s: HTTP %d", method, target, p.status)
	}
	return nil
}

// clickTarget определяет запрос, который выполняет клик по элементу.
func (s *session) clickTarget(el *goquery.Selection) (method, target string, values url.Values, err error) {
	if href, ok := el.Attr("data-href"); ok && href != "" {
		target, err = s.resolve(href)
		return http.MethodGet, target, nil, err
	}

	node := goquery.NodeName(el)
	if node == "a" {
		if href, ok := el.Attr("href"); ok && href != "" && !strings.HasPrefix(href, "#") {
			target, err = s.resolve(href)
			return http.MethodGet, target, nil, err
		}
	}

	if isSubmit(el) {
		form := el.Closest("form")
		if form.Length() == 0 {
			return "", "", nil, fmt.Errorf("%w: submit button outside a form", capability.ErrUnsupportedAction)
		}
		method, target, values, err = s.formRequest(form)
		if err != nil {
			return "", "", nil, err
		}
		if name, ok := el.Attr("name"); ok && name != "" {
			values.Set(name, el.AttrOr("value", ""))
		}
		return method, target, values, nil
	}

	return "", "", nil, fmt.Errorf("%w: <%s> is not clickable", capability.ErrUnsupportedAction, node)
}

// formRequest собирает запрос отправки формы: значения полей страницы,
// перекрытые значениями из fill.
func (s *session) formRequest(form *goquery.Selection) (string, string, url.Values, error) {
	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", http.MethodGet)))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	target, err := s.resolve(form.AttrOr("action", ""))
	if err != nil {
		return "", "", nil, err
	}

	values := url.Values{}
	form.Find("input[name], select[name], textarea[name]").Each(func(_ int, field *goquery.Selection) {
		name := field.AttrOr("name", "")
		switch goquery.NodeName(field) {
		case "textarea":
			values.Set(name, field.Text())
		case "select":
			opt := field.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = field.Find("option").First()
			}
			values.Set(name, opt.AttrOr("value", strings.TrimSpace(opt.Text())))
		default:
			switch strings.ToLower(field.AttrOr("type", "text")) {
			case "submit", "button", "image", "reset", "file":
				return
			case "checkbox", "radio":
				if _, checked := field.Attr("checked"); !checked {
					return
				}
			}
			values.Set(name, field.AttrOr("value", ""))
		}
	})

	s.mu.Lock()
	for name, v := range s.staged {
		if form.Find(fmt.Sprintf("[name=%q]", name)).Length() > 0 {
			values.Set(name, v)
		}
	}
	s.mu.Unlock()

	return method, target, values, nil
}

// resolve строит абсолютный URL относительно текущей страницы или BaseURL.
func (s *session) resolve(ref string) (string, error) {
	base := s.base
	if cur := s.currentPage(); cur != nil {
		base = cur.url
	}

	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", ref, err)
	}
	return base.ResolveReference(u).String(), nil
}

// fetch выполняет запрос с учётом rate limit.
func (s *session) fetch(ctx context.Context, method, target string, values url.Values) (*page, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, timeoutErr(ctx, fmt.Errorf("rate limit wait: %w", err))
	}

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(values.Encode())
	} else if len(values) > 0 {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse url %q: %w", target, err)
		}
		u.RawQuery = values.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, timeoutErr(ctx, fmt.Errorf("%s %s: %w", method, target, err))
		}
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, timeoutErr(ctx, fmt.Errorf("read %s: %w", target, err))
	}
	if int64(len(data)) > s.maxBody {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, target, s.maxBody)
	}

	p := &page{
		url:    resp.Request.URL,
		status: resp.StatusCode,
		header: resp.Header,
		body:   data,
	}

	if isHTML(resp.Header) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse html %s: %w", target, err)
		}
		p.doc = doc
	}

	return p, nil
}

// timeoutErr помечает ошибку как ErrStepTimeout, если истёк бюджет шага.
func timeoutErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", capability.ErrStepTimeout, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func isSubmit(el *goquery.Selection) bool {
	typ := strings.ToLower(el.AttrOr("type", ""))
	switch goquery.NodeName(el) {
	case "button":
		return typ == "" || typ == "submit"
	case "input":
		return typ == "submit" || typ == "image"
	}
	return false
}

func isHTML(h http.Header) bool {
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func isAttachment(h http.Header) bool {
	disposition, _, err := mime.ParseMediaType(h.Get("Content-Disposition"))
	return err == nil && disposition == "attachment"
}

// downloadName извлекает имя файла из Content-Disposition.
func downloadName(p *page) string {
	if _, params, err := mime.ParseMediaType(p.header.Get("Content-Disposition")); err == nil {
		if name := filepath.Base(params["filename"]); name != "" && name != "." && name != "/" {
			return name
		}
	}
	if name := filepath.Base(p.url.Path); name != "" && name != "." && name != "/" {
		return name
	}
	return "download"
}

func sessionPrefix(id string) string {
	if id == "" {
		return "session"
	}
	return id
}

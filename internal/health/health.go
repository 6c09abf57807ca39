package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

const defaultCheckTimeout = 2 * time.Second

// Status — состояние компонента сервиса заказов.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check — результат проверки одного компонента.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Report — агрегированное состояние сервиса.
// Degraded не делает сервис неготовым: заказы принимаются, страдают только события.
type Report struct {
	Status        Status           `json:"status"`
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Components    map[string]Check `json:"components,omitempty"`
}

// Ready сообщает, может ли сервис принимать заказы.
func (r Report) Ready() bool {
	return r.Status != StatusUnhealthy
}

// Checker проверяет один компонент. Реализация обязана уважать ctx.
type Checker interface {
	Check(ctx context.Context) Check
}

// Handler собирает проверки компонентов (хранилище, брокер) и отдаёт их по HTTP.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	version  string
	started  time.Time
	timeout  time.Duration
	now      func() time.Time
}

// HandlerOption настраивает Handler.
type HandlerOption func(*Handler)

// WithCheckTimeout ограничивает время одной проверки.
func WithCheckTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

// WithHandlerClock подменяет часы для отчёта.
func WithHandlerClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler создаёт обработчик для указанной версии сборки.
func NewHandler(version string, opts ...HandlerOption) *Handler {
	h := &Handler{
		checkers: make(map[string]Checker),
		version:  version,
		timeout:  defaultCheckTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.started = h.now()
	return h
}

// Register добавляет или заменяет проверку компонента.
func (h *Handler) Register(component string, checker Checker) {
	if checker == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[component] = checker
}

// Components возвращает имена зарегистрированных компонентов по алфавиту.
func (h *Handler) Components() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate выполняет все проверки параллельно и сводит их в отчёт.
func (h *Handler) Evaluate(ctx context.Context) Report {
	h.mu.RLock()
	checkers := make(map[string]Checker, len(h.checkers))
	for name, checker := range h.checkers {
		checkers[name] = checker
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Check, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			result := checker.Check(checkCtx)
			if result.Name == "" {
				result.Name = name
			}

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	now := h.now()
	return Report{
		Status:        aggregate(results),
		Timestamp:     now.UTC().Format(time.RFC3339Nano),
		Version:       h.version,
		UptimeSeconds: int64(now.Sub(h.started).Seconds()),
		Components:    results,
	}
}

// ServeHTTP отдаёт полный отчёт; 503 только при unhealthy.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := h.Evaluate(r.Context())

	code := http.StatusOK
	if !report.Ready() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

// ReadinessHandler отвечает ready/not ready по тем же проверкам.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	report := h.Evaluate(r.Context())
	if !report.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LivenessHandler отвечает 200, пока процесс обслуживает HTTP.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func aggregate(results map[string]Check) Status {
	overall := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

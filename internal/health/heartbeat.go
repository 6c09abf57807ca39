package health

import (
	"context"
	"time"
)

// HeartbeatResponse — ответ тривиальной проверки живости сервиса заказов.
type HeartbeatResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Heartbeat отвечает {status:"ok", timestamp} без обращения к зависимостям.
type Heartbeat struct {
	now func() time.Time
}

// NewHeartbeat создаёт heartbeat; nil now означает time.Now.
func NewHeartbeat(now func() time.Time) *Heartbeat {
	if now == nil {
		now = time.Now
	}
	return &Heartbeat{now: now}
}

// Check возвращает текущий статус.
func (h *Heartbeat) Check() HeartbeatResponse {
	return HeartbeatResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	}
}

// PingChecker проверяет компонент вызовом ping, например PostgreSQL.
type PingChecker struct {
	name    string
	ping    func(context.Context) error
	timeout time.Duration
}

// NewPingChecker создаёт проверку; timeout<=0 означает таймаут Handler.
func NewPingChecker(name string, ping func(context.Context) error, timeout time.Duration) *PingChecker {
	return &PingChecker{name: name, ping: ping, timeout: timeout}
}

// Check выполняет ping; ошибка делает компонент unhealthy.
func (c *PingChecker) Check(ctx context.Context) Check {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.ping(ctx)
	result := Check{
		Name:       c.name,
		Status:     StatusHealthy,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

// StaticChecker всегда возвращает заранее известное состояние.
// Используется для брокера, недоступного при старте: сервис работает без событий.
type StaticChecker struct {
	check Check
}

// NewStaticChecker создаёт проверку с фиксированным результатом.
func NewStaticChecker(name string, status Status, message string) *StaticChecker {
	return &StaticChecker{check: Check{Name: name, Status: status, Message: message}}
}

// Check возвращает зафиксированный результат.
func (c *StaticChecker) Check(context.Context) Check {
	return c.check
}

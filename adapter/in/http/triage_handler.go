// Package http exposes the read-only ops API: health, ticket lookup and
// recent triage activity.
package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"mailtriage/core/port/out"
	"mailtriage/pkg/apperr"
)

type TriageHandler struct {
	tickets   out.TicketRepository
	triageLog out.TriageLogRepository
}

func NewTriageHandler(tickets out.TicketRepository, triageLog out.TriageLogRepository) *TriageHandler {
	return &TriageHandler{tickets: tickets, triageLog: triageLog}
}

func (h *TriageHandler) Register(api fiber.Router) {
	api.Get("/tickets/:id", h.GetTicket)
	api.Get("/triage/recent", h.RecentTriage)
}

func (h *TriageHandler) GetTicket(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	if ticketID == "" {
		return apperr.BadRequest("missing ticket id")
	}

	ticket, err := h.tickets.GetByID(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

func (h *TriageHandler) RecentTriage(c *fiber.Ctx) error {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperr.BadRequest("invalid limit")
		}
		limit = parsed
	}

	records, err := h.triageLog.Recent(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"count":   len(records),
		"records": records,
	})
}

// HealthHandler reports liveness and backing-store readiness.
type HealthHandler struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewHealthHandler(db *pgxpool.Pool, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/healthz", h.Health)
	app.Get("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["postgres"] = "healthy"
		}
	} else {
		checks["postgres"] = "not configured"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := "ready"
	statusCode := fiber.StatusOK
	if !allHealthy {
		status = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

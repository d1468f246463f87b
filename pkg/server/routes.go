package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-drivethru/pkg/order"
)

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Voice Restaurant Ordering System API"})
}

func (s *Server) handleMenu(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"menu": s.deps.Catalog.Items()})
}

func (s *Server) handleOrders(c *fiber.Ctx) error {
	orders, err := s.deps.Store.List(c.UserContext())
	if err != nil {
		s.log.Error("list orders", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "orders unavailable"})
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":   "ok",
		"version":  version,
		"sessions": s.deps.Metrics.ActiveSessions(),
	}
	if s.deps.Kitchen != nil {
		resp["kitchen_displays"] = s.deps.Kitchen.ClientCount()
	}

	if c.QueryBool("deep") && len(s.deps.Health) > 0 {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		checks := fiber.Map{}
		for name, check := range s.deps.Health {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				resp["status"] = "degraded"
				continue
			}
			checks[name] = "ok"
		}
		resp["checks"] = checks
		if resp["status"] != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return s.deps.Metrics.WritePrometheus(c)
}

package handlers

import (
	"encoding/json"
	"log/slog"

	"cad-bridge/internal/cad/service"
	"cad-bridge/internal/common/logging"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ============================================================
// RPC Handler
// ============================================================

type RPC struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewRPC(svc *service.Service, logger *slog.Logger) *RPC {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RPC{svc: svc, logger: logger}
}

// Call decodes the JSON object body as named arguments and runs the method
// named in the path. Operation failures are reported in the payload with
// status 200; only an undecodable body is a 400.
func (h *RPC) Call(c fiber.Ctx) error {
	method := c.Params("method")
	requestID := c.Get(fiber.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, requestID)

	args := service.Args{}
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			h.logger.Warn("rpc.bad_request", "method", method, "request_id", requestID, "error", err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "request body must be a JSON object of named arguments",
			})
		}
	}

	h.logger.Debug("rpc.request", "method", method, "request_id", requestID)
	body, err := json.Marshal(h.svc.Call(c.Context(), method, args))
	if err != nil {
		h.logger.Error("rpc.encode_failed", "method", method, "request_id", requestID, "error", err.Error())
		return c.JSON(fiber.Map{
			"success": false,
			"error":   "result could not be encoded: " + err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// Methods lists the callable methods.
func (h *RPC) Methods(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"methods": h.svc.Methods(),
	})
}

package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/refcue/internal/services/connection"
)

type ConnectionHandler struct {
	svc     *connection.Service
	schemas *Schemas
	logger  *slog.Logger
}

func NewConnectionHandler(svc *connection.Service, schemas *Schemas, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{svc: svc, schemas: schemas, logger: logger}
}

func (h *ConnectionHandler) Register(r fiber.Router) {
	g := r.Group("/connections")
	g.Post("/", h.create)
	g.Get("/", h.list)
	g.Get("/:id", h.get)
	g.Patch("/:id", h.update)
	g.Delete("/:id", h.delete)
}

func (h *ConnectionHandler) create(c *fiber.Ctx) error {
	var body createConnectionBody
	if err := h.schemas.Decode("connection_create.json", c.Body(), &body); err != nil {
		return err
	}
	conn, err := h.svc.CreateConnection(c.UserContext(), connection.CreateConnectionRequest{
		Name:         body.Name,
		CompanyGuess: body.CompanyGuess,
		Source:       body.Source,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toConnectionResponse(conn))
}

func (h *ConnectionHandler) list(c *fiber.Ctx) error {
	conns, err := h.svc.ListConnections(c.UserContext(), c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(mapSlice(conns, toConnectionResponse))
}

func (h *ConnectionHandler) get(c *fiber.Ctx) error {
	conn, err := h.svc.GetConnection(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toConnectionResponse(conn))
}

func (h *ConnectionHandler) update(c *fiber.Ctx) error {
	var body updateConnectionBody
	if err := h.schemas.Decode("connection_update.json", c.Body(), &body); err != nil {
		return err
	}
	conn, err := h.svc.UpdateConnectionStatus(c.UserContext(), c.Params("id"), body.Status)
	if err != nil {
		return err
	}
	return c.JSON(toConnectionResponse(conn))
}

func (h *ConnectionHandler) delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteConnection(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

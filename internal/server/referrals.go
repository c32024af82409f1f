package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/export"
	"github.com/joseph-ayodele/refcue/internal/services/referral"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReferralHandler struct {
	svc     *referral.Service
	export  *export.Service
	schemas *Schemas
	logger  *slog.Logger
}

func NewReferralHandler(svc *referral.Service, exp *export.Service, schemas *Schemas, logger *slog.Logger) *ReferralHandler {
	return &ReferralHandler{svc: svc, export: exp, schemas: schemas, logger: logger}
}

func (h *ReferralHandler) Register(r fiber.Router) {
	g := r.Group("/referrals")
	g.Post("/", h.create)
	g.Get("/", h.list)
	// before /:id so the literal path wins
	g.Get("/export.xlsx", h.exportXLSX)
	g.Get("/:id", h.get)
	g.Patch("/:id", h.update)
	g.Delete("/:id", h.delete)
}

func (h *ReferralHandler) create(c *fiber.Ctx) error {
	var body createReferralBody
	if err := h.schemas.Decode("referral_create.json", c.Body(), &body); err != nil {
		return err
	}
	d, err := h.svc.CreateReferral(c.UserContext(), referral.CreateReferralRequest{
		JobID:        body.JobID,
		ConnectionID: body.ConnectionID,
		Note:         body.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toReferralResponse(d))
}

func (h *ReferralHandler) list(c *fiber.Ctx) error {
	refs, err := h.svc.ListReferrals(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(mapSlice(refs, toReferralResponse))
}

func (h *ReferralHandler) get(c *fiber.Ctx) error {
	d, err := h.svc.GetReferral(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toReferralResponse(d))
}

func (h *ReferralHandler) update(c *fiber.Ctx) error {
	var body updateReferralBody
	if err := h.schemas.Decode("referral_update.json", c.Body(), &body); err != nil {
		return err
	}
	d, err := h.svc.UpdateReferral(c.UserContext(), c.Params("id"), referral.UpdateReferralRequest{
		Status: body.Status,
		Note:   body.Note.Patch,
	})
	if err != nil {
		return err
	}
	return c.JSON(toReferralResponse(d))
}

func (h *ReferralHandler) delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteReferral(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReferralHandler) exportXLSX(c *fiber.Ctx) error {
	status := constants.ReferralStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return common.ValidationErrors{{
			Field:   "status",
			Value:   string(status),
			Message: fmt.Sprintf("must be one of %v", constants.ReferralStatuses()),
		}}
	}
	b, err := h.export.ExportReferralsXLSX(c.UserContext(), status)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("referrals-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(b)
}

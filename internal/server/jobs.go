package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/refcue/internal/services/job"
)

type JobHandler struct {
	svc     *job.Service
	schemas *Schemas
	logger  *slog.Logger
}

func NewJobHandler(svc *job.Service, schemas *Schemas, logger *slog.Logger) *JobHandler {
	return &JobHandler{svc: svc, schemas: schemas, logger: logger}
}

func (h *JobHandler) Register(r fiber.Router) {
	g := r.Group("/jobs")
	g.Post("/", h.create)
	g.Get("/", h.list)
	g.Get("/:id", h.get)
	g.Put("/:id", h.update)
	g.Delete("/:id", h.delete)
}

func (h *JobHandler) create(c *fiber.Ctx) error {
	var body createJobBody
	if err := h.schemas.Decode("job_create.json", c.Body(), &body); err != nil {
		return err
	}
	j, err := h.svc.CreateJob(c.UserContext(), job.CreateJobRequest{
		Company:    body.Company,
		Role:       body.Role,
		ExternalID: body.JobID,
		Link:       body.Link,
		Deadline:   body.Deadline,
		Status:     body.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toJobResponse(j))
}

func (h *JobHandler) list(c *fiber.Ctx) error {
	jobs, err := h.svc.ListJobs(c.UserContext(), job.ListJobsRequest{
		Status:  c.Query("status_filter"),
		Company: c.Query("company"),
	})
	if err != nil {
		return err
	}
	return c.JSON(mapSlice(jobs, toJobResponse))
}

func (h *JobHandler) get(c *fiber.Ctx) error {
	j, err := h.svc.GetJob(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toJobResponse(j))
}

func (h *JobHandler) update(c *fiber.Ctx) error {
	var body updateJobBody
	if err := h.schemas.Decode("job_update.json", c.Body(), &body); err != nil {
		return err
	}
	j, err := h.svc.UpdateJob(c.UserContext(), c.Params("id"), job.UpdateJobRequest{
		Company:    body.Company,
		Role:       body.Role,
		ExternalID: body.JobID.Patch,
		Link:       body.Link.Patch,
		Deadline:   body.Deadline.Patch,
		Status:     body.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(toJobResponse(j))
}

func (h *JobHandler) delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteJob(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// file: internals/features/finance/payment_plans/controller/payment_plan_controller.go
package controller

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolpay_backend/internals/features/finance/payment_plans/dto"
	"schoolpay_backend/internals/features/finance/payment_plans/service"
	helper "schoolpay_backend/internals/helpers"
)

type PaymentPlanController struct {
	Svc       *service.PlanService
	Validator *validator.Validate
}

func NewPaymentPlanController(svc *service.PlanService) *PaymentPlanController {
	return &PaymentPlanController{Svc: svc, Validator: validator.New()}
}

// POST /payment-plans/defaults
func (h *PaymentPlanController) CreateDefaults(c *fiber.Ctx) error {
	var req dto.CreateDefaultPlansRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	plans, err := h.Svc.CreateDefaultPlans(c.UserContext(), req.SchoolID, req.SchoolYearID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "default payment plans dibuat", dto.FromPlanModels(plans))
}

// GET /payment-plans?school_id=&school_year_id=
func (h *PaymentPlanController) List(c *fiber.Ctx) error {
	schoolID, err := uuid.Parse(strings.TrimSpace(c.Query("school_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "school_id tidak valid")
	}
	yearID, err := uuid.Parse(strings.TrimSpace(c.Query("school_year_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "school_year_id tidak valid")
	}

	plans, err := h.Svc.ListPlans(c.UserContext(), schoolID, yearID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromPlanModels(plans))
}

// POST /payment-plans/preview
func (h *PaymentPlanController) Preview(c *fiber.Ctx) error {
	var req dto.PreviewScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	items, err := service.GenerateSchedule(req.NumberOfInstallments, req.Explicit())
	if err != nil {
		return helper.JsonAppError(c, err)
	}

	out := make([]dto.PreviewItem, len(items))
	for i := range items {
		out[i] = dto.PreviewItem{Installment: items[i]}
	}
	if req.TotalAmount != nil && req.TotalAmount.IsPositive() {
		amounts := service.SplitAmount(*req.TotalAmount, items)
		for i := range out {
			a := amounts[i]
			out[i].Amount = &a
		}
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /payment-plans/:id/apply
func (h *PaymentPlanController) Apply(c *fiber.Ctx) error {
	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id tidak valid")
	}
	var req dto.ApplyPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	start := time.Now()
	if req.StartDate != nil {
		start = *req.StartDate
	}

	rows, err := h.Svc.ApplyPlan(c.UserContext(), planID, req.StudentFeeAccountID, start)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "jadwal pembayaran dibuat", dto.FromScheduleModels(rows))
}

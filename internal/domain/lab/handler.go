package lab

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openlis/lis/internal/platform/auth"
	"github.com/openlis/lis/pkg/pagination"
)

// Handler exposes the lifecycle operations over HTTP. Transition endpoints
// return the service Result as the body: 200 on success, 409 on a version
// conflict, 422 on any other typed failure.
type Handler struct {
	orders  *OrderService
	samples *SampleService
	exams   *ExamService
}

func NewHandler(orders *OrderService, samples *SampleService, exams *ExamService) *Handler {
	return &Handler{orders: orders, samples: samples, exams: exams}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	intake := auth.RequireRole("admin", "receptionist")
	bench := auth.RequireRole("admin", "technician")
	validation := auth.RequireRole("admin", "pathologist", "supervisor")
	anyStaff := auth.RequireRole("admin", "receptionist", "technician", "pathologist", "supervisor")

	api.POST("/work-orders", h.CreateWorkOrder, intake)
	api.GET("/work-orders", h.ListWorkOrders, anyStaff)
	api.GET("/work-orders/:id", h.GetWorkOrder, anyStaff)
	api.GET("/work-orders/:id/samples", h.ListOrderSamples, anyStaff)
	api.POST("/work-orders/:id/generate-specimens", h.GenerateSpecimens, intake)
	api.POST("/work-orders/:id/labels-printed", h.MarkLabelsPrinted, intake)
	api.POST("/work-orders/:id/ready-for-lab", h.MarkReadyForLab, intake)

	api.POST("/samples/scan", h.ScanSample, bench)
	api.GET("/samples/:id", h.GetSample, anyStaff)
	api.POST("/samples/:id/receive", h.ReceiveSample, bench)
	api.POST("/samples/:id/start", h.StartSample, bench)
	api.POST("/samples/:id/complete", h.CompleteSample, bench)
	api.POST("/samples/:id/reject", h.RejectSample, bench)
	api.POST("/samples/:id/reprint-label", h.ReprintLabel, bench)

	api.GET("/exams/validation-queue", h.ValidationQueue, validation)
	api.GET("/exams/:id", h.GetExam, anyStaff)
	api.POST("/exams/:id/start", h.StartExam, bench)
	api.POST("/exams/:id/results", h.SaveDraft, bench)
	api.POST("/exams/:id/finalize", h.FinalizeExam, bench)
	api.POST("/exams/:id/send-to-validation", h.SendToValidation, bench)
	api.POST("/exams/:id/approve", h.ApproveExam, validation)
	api.POST("/exams/:id/reject", h.RejectExam, validation)
	api.POST("/exams/:id/incidences", h.CreateIncidence, anyStaff)
}

func respond(c echo.Context, r *Result) error {
	switch {
	case r.OK:
		return c.JSON(http.StatusOK, r)
	case r.Conflict:
		return c.JSON(http.StatusConflict, r)
	default:
		return c.JSON(http.StatusUnprocessableEntity, r)
	}
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// --- work orders ---

type createWorkOrderRequest struct {
	PatientID              uuid.UUID `json:"patient_id"`
	AccessionNumber        string    `json:"accession_number"`
	RequestedExamTypeCodes []string  `json:"requested_exam_type_codes"`
	Priority               string    `json:"priority"`
	ReferringDoctor        string    `json:"referring_doctor"`
	Notes                  string    `json:"notes"`
}

func (h *Handler) CreateWorkOrder(c echo.Context) error {
	var req createWorkOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	o := &WorkOrder{
		PatientID:              req.PatientID,
		AccessionNumber:        req.AccessionNumber,
		RequestedExamTypeCodes: req.RequestedExamTypeCodes,
		Priority:               req.Priority,
		ReferringDoctor:        req.ReferringDoctor,
		Notes:                  req.Notes,
	}
	r := h.orders.Create(c.Request().Context(), o, auth.UserID(c))
	if !r.OK {
		return respond(c, r)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) ListWorkOrders(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.orders.List(c.Request().Context(), c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetWorkOrder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	o, err := h.orders.GetByID(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "work order not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrderSamples(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.samples.ListByWorkOrder(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GenerateSpecimens(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	samples, r := h.orders.GenerateSpecimens(c.Request().Context(), id, auth.UserID(c))
	if !r.OK {
		return respond(c, r)
	}
	return c.JSON(http.StatusOK, samples)
}

func (h *Handler) MarkLabelsPrinted(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return respond(c, h.orders.MarkLabelsPrinted(c.Request().Context(), id, auth.UserID(c)))
}

func (h *Handler) MarkReadyForLab(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return respond(c, h.orders.MarkReadyForLab(c.Request().Context(), id, auth.UserID(c)))
}

// --- samples ---

func (h *Handler) ScanSample(c echo.Context) error {
	var req struct {
		Barcode string `json:"barcode"`
	}
	if err := c.Bind(&req); err != nil || req.Barcode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "barcode is required")
	}
	sm, r := h.samples.ScanByBarcode(c.Request().Context(), req.Barcode, auth.UserID(c))
	if !r.OK {
		return respond(c, r)
	}
	return c.JSON(http.StatusOK, sm)
}

func (h *Handler) GetSample(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	sm, err := h.samples.GetByID(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "sample not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sm)
}

func (h *Handler) ReceiveSample(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return respond(c, h.samples.MarkReceived(c.Request().Context(), id, auth.UserID(c)))
}

func (h *Handler) StartSample(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return respond(c, h.samples.MarkInProgress(c.Request().Context(), id, auth.UserID(c)))
}

func (h *Handler) CompleteSample(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return respond(c, h.samples.MarkCompleted(c.Request().Context(), id, auth.UserID(c)))
}

func (h *Handler) RejectSample(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return respond(c, h.samples.MarkRejected(c.Request().Context(), id, auth.UserID(c), req.Reason))
}

func (h *Handler) ReprintLabel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return respond(c, h.samples.ReprintLabel(c.Request().Context(), id, auth.UserID(c)))
}

// --- exams ---

type resultsRequest struct {
	Results         map[string]interface{} `json:"results"`
	ExpectedVersion *time.Time             `json:"expected_version"`
}

type decisionRequest struct {
	Reason          string     `json:"reason"`
	Comments        string     `json:"comments"`
	ExpectedVersion *time.Time `json:"expected_version"`
}

func (h *Handler) ValidationQueue(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.exams.ListValidationQueue(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetExam(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ex, err := h.exams.GetByID(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "exam not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ex)
}

func (h *Handler) StartExam(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return respond(c, h.exams.MarkStarted(c.Request().Context(), id, auth.UserID(c)))
}

func (h *Handler) SaveDraft(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req resultsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return respond(c, h.exams.SaveDraft(c.Request().Context(), id, req.Results, auth.UserID(c), req.ExpectedVersion))
}

func (h *Handler) FinalizeExam(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req resultsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return respond(c, h.exams.Finalize(c.Request().Context(), id, req.Results, auth.UserID(c), req.ExpectedVersion))
}

func (h *Handler) SendToValidation(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return respond(c, h.exams.SendToValidation(c.Request().Context(), id, auth.UserID(c)))
}

func (h *Handler) ApproveExam(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return respond(c, h.exams.Approve(c.Request().Context(), id, auth.UserID(c), req.Comments, req.ExpectedVersion))
}

func (h *Handler) RejectExam(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return respond(c, h.exams.Reject(c.Request().Context(), id, auth.UserID(c), req.Reason, req.Comments, req.ExpectedVersion))
}

func (h *Handler) CreateIncidence(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return respond(c, h.exams.CreateIncidence(c.Request().Context(), id, auth.UserID(c), req.Type, req.Description))
}

package matrixhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/matrix"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *matrix.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *matrix.Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

type parameterRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=80"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type weightRequest struct {
	ParameterID string `json:"parameterId" validate:"required"`
	Weightage   int    `json:"weightage"`
}

type matrixRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=2000"`
	Parameters  []weightRequest `json:"parameters" validate:"dive"`
}

type activateRequest struct {
	Name        string          `json:"name" validate:"max=120"`
	Description string          `json:"description" validate:"max=2000"`
	Parameters  []weightRequest `json:"parameters" validate:"required,dive"`
}

type weightageRequest struct {
	Weightage *int `json:"weightage" validate:"required"`
}

type cloneRequest struct {
	Name string `json:"name" validate:"max=120"`
}

type rescaleRequest struct {
	Parameters []weightRequest `json:"parameters" validate:"required,min=1,dive"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermParametersRead, h.Perms)
	write := middleware.RequirePermission(auth.PermParametersWrite, h.Perms)
	r.Route("/parameters", func(r chi.Router) {
		r.With(read).Get("/", h.handleListParameters)
		r.With(write).Post("/", h.handleCreateParameter)
		r.With(read).Get("/categories", h.handleCategories)
		r.Route("/{parameterID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetParameter)
			r.With(write).Put("/", h.handleUpdateParameter)
			r.With(write).Put("/status", h.handleParameterStatus)
			r.With(write).Delete("/", h.handleDeleteParameter)
		})
	})

	mread := middleware.RequirePermission(auth.PermMatricesRead, h.Perms)
	mwrite := middleware.RequirePermission(auth.PermMatricesWrite, h.Perms)
	r.Route("/matrices", func(r chi.Router) {
		r.With(mread).Get("/", h.handleListMatrices)
		r.With(mwrite).Post("/", h.handleCreateMatrix)
		r.With(mread).Post("/rescale", h.handleRescalePreview)
		r.Route("/{matrixID}", func(r chi.Router) {
			r.With(mread).Get("/", h.handleGetMatrix)
			r.With(mread).Get("/export.pdf", h.handleExportMatrix)
			r.With(mwrite).Put("/", h.handleSaveDraft)
			r.With(mwrite).Delete("/", h.handleDeleteMatrix)
			r.With(mwrite).Post("/activate", h.handleActivate)
			r.With(mwrite).Post("/clone", h.handleClone)
			r.With(mwrite).Put("/parameters/{parameterID}", h.handleChangeWeightage)
			r.With(mwrite).Delete("/parameters/{parameterID}", h.handleRemoveParameter)
		})
	})
}

func (h *Handler) handleListParameters(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	status := strings.ToLower(strings.TrimSpace(query.Get("status")))
	v := shared.NewValidator()
	v.Enum("status", status, []string{matrix.ParameterStatusActive, matrix.ParameterStatusInactive}, "must be one of: active inactive")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	params, err := h.Service.ListParameters(r.Context(), session.OrgID, matrix.ParameterFilter{
		Query:    query.Get("q"),
		Category: query.Get("category"),
		Status:   status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(params)))
	api.Success(w, params, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	categories, err := h.Service.ParameterCategories(r.Context(), session.OrgID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, categories, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "parameterID")
	if !ok {
		return
	}
	param, err := h.Service.GetParameter(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, param, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateParameter(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var payload parameterRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	param, err := h.Service.CreateParameter(r.Context(), session.OrgID, matrix.ParameterInput(payload))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.parameter.create", "parameter", param.ID, nil, param)
	api.Created(w, param, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateParameter(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "parameterID")
	if !ok {
		return
	}
	var payload parameterRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	before, err := h.Service.GetParameter(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	param, err := h.Service.UpdateParameter(r.Context(), session.OrgID, id, matrix.ParameterInput(payload))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.parameter.update", "parameter", id, before, param)
	api.Success(w, param, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleParameterStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "parameterID")
	if !ok {
		return
	}
	var payload statusRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	param, err := h.Service.SetParameterStatus(r.Context(), session.OrgID, id, payload.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.parameter.status", "parameter", id, nil, map[string]string{"status": payload.Status})
	api.Success(w, param, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteParameter(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "parameterID")
	if !ok {
		return
	}
	if err := h.Service.DeleteParameter(r.Context(), session.OrgID, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.parameter.delete", "parameter", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMatrices(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	v := shared.NewValidator()
	v.Enum("status", status, []string{matrix.StatusDraft, matrix.StatusActive}, "must be one of: draft active")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	list, err := h.Service.ListMatrices(r.Context(), session.OrgID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetMatrix(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "matrixID")
	if !ok {
		return
	}
	m, err := h.Service.GetMatrix(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, m, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateMatrix(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var payload matrixRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	m, err := h.Service.CreateMatrix(r.Context(), session.OrgID, matrix.MatrixInput{
		Name:        payload.Name,
		Description: payload.Description,
		Weights:     toWeights(payload.Parameters),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.create", "matrix", m.ID, nil, m)
	api.Created(w, m, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "matrixID")
	if !ok {
		return
	}
	var payload matrixRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	m, err := h.Service.SaveDraft(r.Context(), session.OrgID, id, matrix.MatrixInput{
		Name:        payload.Name,
		Description: payload.Description,
		Weights:     toWeights(payload.Parameters),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.save", "matrix", id, nil, m)
	api.Success(w, m, middleware.GetRequestID(r.Context()))
}

// handleActivate accepts an empty body to activate the stored draft, or a
// final parameter list to save and activate in one step.
func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "matrixID")
	if !ok {
		return
	}
	var input *matrix.MatrixInput
	var payload activateRequest
	present, ok := shared.DecodeOptional(w, r, &payload, middleware.GetRequestID(r.Context()))
	if !ok {
		return
	}
	if present {
		input = &matrix.MatrixInput{Name: payload.Name, Description: payload.Description, Weights: toWeights(payload.Parameters)}
	}
	m, err := h.Service.Activate(r.Context(), session.OrgID, id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.activate", "matrix", id, nil, m)
	api.Success(w, m, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClone(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "matrixID")
	if !ok {
		return
	}
	var payload cloneRequest
	if _, ok := shared.DecodeOptional(w, r, &payload, middleware.GetRequestID(r.Context())); !ok {
		return
	}
	m, err := h.Service.Clone(r.Context(), session.OrgID, id, payload.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.clone", "matrix", m.ID, map[string]string{"sourceId": id}, m)
	api.Created(w, m, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangeWeightage(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "matrixID")
	if !ok {
		return
	}
	parameterID, ok := pathID(w, r, "parameterID")
	if !ok {
		return
	}
	var payload weightageRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	m, err := h.Service.ChangeWeightage(r.Context(), session.OrgID, id, parameterID, *payload.Weightage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.weightage.change", "matrix", id, nil, map[string]any{"parameterId": parameterID, "weightage": *payload.Weightage})
	api.Success(w, m, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveParameter(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "matrixID")
	if !ok {
		return
	}
	parameterID, ok := pathID(w, r, "parameterID")
	if !ok {
		return
	}
	m, rescaled, err := h.Service.RemoveParameter(r.Context(), session.OrgID, id, parameterID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.parameter.remove", "matrix", id, map[string]string{"parameterId": parameterID}, m)
	api.Success(w, map[string]any{"matrix": m, "rescaled": rescaled}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteMatrix(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "matrixID")
	if !ok {
		return
	}
	if err := h.Service.DeleteMatrix(r.Context(), session.OrgID, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "matrix.delete", "matrix", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRescalePreview(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}
	var payload rescaleRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	out, err := h.Service.RescalePreview(toWeights(payload.Parameters))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"parameters": out, "totalWeightage": matrix.Total(out)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, session auth.Session, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(r.Context(), session.OrgID, session.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after)
}

func toWeights(in []weightRequest) []matrix.Weight {
	out := make([]matrix.Weight, len(in))
	for i, w := range in {
		out[i] = matrix.Weight{ParameterID: w.ParameterID, Weightage: w.Weightage}
	}
	return out
}

func requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return session, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := shared.PathID(r, name)
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", middleware.GetRequestID(r.Context()))
	}
	return id, ok
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, matrix.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	case errors.Is(err, matrix.ErrWeightageExceeded):
		api.Fail(w, http.StatusUnprocessableEntity, "weightage_exceeded", err.Error(), requestID)
	case errors.Is(err, matrix.ErrWeightageIncomplete):
		api.Fail(w, http.StatusUnprocessableEntity, "weightage_incomplete", err.Error(), requestID)
	case errors.Is(err, matrix.ErrWeightageOutOfRange):
		api.Fail(w, http.StatusUnprocessableEntity, "weightage_out_of_range", err.Error(), requestID)
	case errors.Is(err, matrix.ErrDuplicateParameter):
		api.Fail(w, http.StatusUnprocessableEntity, "duplicate_parameter", err.Error(), requestID)
	case errors.Is(err, matrix.ErrUnknownParameter), errors.Is(err, matrix.ErrInactiveParameter), errors.Is(err, matrix.ErrParameterNotInMatrix):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_parameter", err.Error(), requestID)
	case errors.Is(err, matrix.ErrMatrixLocked):
		api.Fail(w, http.StatusConflict, "matrix_locked", err.Error(), requestID)
	case errors.Is(err, matrix.ErrMatrixInUse):
		api.Fail(w, http.StatusConflict, "matrix_in_use", err.Error(), requestID)
	case errors.Is(err, matrix.ErrParameterInUse):
		api.Fail(w, http.StatusConflict, "parameter_in_use", err.Error(), requestID)
	case errors.Is(err, matrix.ErrDuplicateName):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case errors.Is(err, matrix.ErrNameRequired):
		shared.FailField(w, requestID, "name", "is required")
	case errors.Is(err, matrix.ErrInvalidStatus):
		shared.FailField(w, requestID, "status", "must be one of: active inactive")
	default:
		slog.Error("matrix request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}

package corehandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/core"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *core.Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

type departmentRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type loginRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=org_admin line_manager employee"`
}

type employeeRequest struct {
	EmployeeNumber string        `json:"employeeNumber" validate:"max=40"`
	FirstName      string        `json:"firstName" validate:"required,max=80"`
	LastName       string        `json:"lastName" validate:"required,max=80"`
	Email          string        `json:"email" validate:"required,email"`
	Phone          string        `json:"phone" validate:"max=40"`
	Designation    string        `json:"designation" validate:"max=120"`
	DepartmentID   string        `json:"departmentId" validate:"omitempty,uuid"`
	JoinedOn       string        `json:"joinedOn" validate:"omitempty,datetime=2006-01-02"`
	Login          *loginRequest `json:"login"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type teamRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Description  string `json:"description" validate:"max=2000"`
	DepartmentID string `json:"departmentId" validate:"omitempty,uuid"`
}

type membersRequest struct {
	EmployeeIDs []string `json:"employeeIds" validate:"dive,uuid"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	orgRead := middleware.RequirePermission(auth.PermOrgRead, h.Perms)
	orgWrite := middleware.RequirePermission(auth.PermOrgWrite, h.Perms)
	empRead := middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)
	empWrite := middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)

	r.Route("/departments", func(r chi.Router) {
		r.With(orgRead).Get("/", h.handleListDepartments)
		r.With(orgWrite).Post("/", h.handleCreateDepartment)
		r.Route("/{departmentID}", func(r chi.Router) {
			r.With(orgRead).Get("/", h.handleGetDepartment)
			r.With(orgWrite).Put("/", h.handleUpdateDepartment)
			r.With(orgWrite).Delete("/", h.handleDeleteDepartment)
		})
	})
	r.Route("/employees", func(r chi.Router) {
		r.With(empRead).Get("/", h.handleListEmployees)
		r.With(empWrite).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(empRead).Get("/", h.handleGetEmployee)
			r.With(empWrite).Put("/", h.handleUpdateEmployee)
			r.With(empWrite).Put("/status", h.handleEmployeeStatus)
		})
	})
	r.Route("/teams", func(r chi.Router) {
		r.With(empRead).Get("/", h.handleListTeams)
		r.With(empWrite).Post("/", h.handleCreateTeam)
		r.Route("/{teamID}", func(r chi.Router) {
			r.With(empRead).Get("/", h.handleGetTeam)
			r.With(empWrite).Put("/", h.handleUpdateTeam)
			r.With(empWrite).Delete("/", h.handleDeleteTeam)
			r.With(empWrite).Put("/members", h.handleSetMembers)
		})
	})
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	deps, err := h.Service.ListDepartments(r.Context(), session.OrgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, deps, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "departmentID")
	if !ok {
		return
	}
	dep, err := h.Service.GetDepartment(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, dep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var payload departmentRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	dep, err := h.Service.CreateDepartment(r.Context(), session.OrgID, core.Department{Name: payload.Name, Description: payload.Description})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.department.create", "department", dep.ID, nil, dep)
	api.Created(w, dep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "departmentID")
	if !ok {
		return
	}
	var payload departmentRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	dep, err := h.Service.UpdateDepartment(r.Context(), session.OrgID, id, core.Department{Name: payload.Name, Description: payload.Description})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.department.update", "department", id, nil, dep)
	api.Success(w, dep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "departmentID")
	if !ok {
		return
	}
	if err := h.Service.DeleteDepartment(r.Context(), session.OrgID, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.department.delete", "department", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := core.EmployeeFilter{
		DepartmentID: query.Get("departmentId"),
		Status:       query.Get("status"),
		Query:        strings.TrimSpace(query.Get("q")),
	}
	page := shared.ParsePagination(r, 50, 200)
	employees, total, err := h.Service.ListEmployees(r.Context(), session.OrgID, filter, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range employees {
		core.RedactEmployee(&employees[i], session)
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, api.List{Items: employees, Total: total, Limit: page.Limit, Offset: page.Offset}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "employeeID")
	if !ok {
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	core.RedactEmployee(&emp, session)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	emp, payload, ok := decodeEmployee(w, r)
	if !ok {
		return
	}
	var login *core.Login
	if payload.Login != nil {
		login = &core.Login{Password: payload.Login.Password, Role: payload.Login.Role}
	}
	created, err := h.Service.CreateEmployee(r.Context(), session.OrgID, emp, login)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.employee.create", "employee", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "employeeID")
	if !ok {
		return
	}
	emp, payload, ok := decodeEmployee(w, r)
	if !ok {
		return
	}
	if payload.Login != nil {
		shared.FailField(w, middleware.GetRequestID(r.Context()), "login", "can only be set on create")
		return
	}
	before, err := h.Service.GetEmployee(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.Service.UpdateEmployee(r.Context(), session.OrgID, id, emp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.employee.update", "employee", id, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "employeeID")
	if !ok {
		return
	}
	var payload statusRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	emp, err := h.Service.SetEmployeeStatus(r.Context(), session.OrgID, id, payload.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.employee.status", "employee", id, nil, map[string]string{"status": payload.Status})
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	teams, err := h.Service.ListTeams(r.Context(), session.OrgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, teams, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	team, err := h.Service.GetTeam(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, team, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var payload teamRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	team, err := h.Service.CreateTeam(r.Context(), session.OrgID, core.Team{Name: payload.Name, Description: payload.Description, DepartmentID: payload.DepartmentID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.team.create", "team", team.ID, nil, team)
	api.Created(w, team, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	var payload teamRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	team, err := h.Service.UpdateTeam(r.Context(), session.OrgID, id, core.Team{Name: payload.Name, Description: payload.Description, DepartmentID: payload.DepartmentID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.team.update", "team", id, nil, team)
	api.Success(w, team, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	if err := h.Service.DeleteTeam(r.Context(), session.OrgID, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.team.delete", "team", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetMembers(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	var payload membersRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	team, err := h.Service.SetMembers(r.Context(), session.OrgID, id, payload.EmployeeIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "core.team.members", "team", id, nil, map[string]any{"employeeIds": payload.EmployeeIDs})
	api.Success(w, team, middleware.GetRequestID(r.Context()))
}

func decodeEmployee(w http.ResponseWriter, r *http.Request) (core.Employee, employeeRequest, bool) {
	var payload employeeRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return core.Employee{}, payload, false
	}
	emp := core.Employee{
		EmployeeNumber: strings.TrimSpace(payload.EmployeeNumber),
		FirstName:      strings.TrimSpace(payload.FirstName),
		LastName:       strings.TrimSpace(payload.LastName),
		Email:          strings.TrimSpace(payload.Email),
		Phone:          strings.TrimSpace(payload.Phone),
		Designation:    strings.TrimSpace(payload.Designation),
		DepartmentID:   payload.DepartmentID,
	}
	if payload.JoinedOn != "" {
		joined, err := time.Parse("2006-01-02", payload.JoinedOn)
		if err == nil {
			emp.JoinedOn = &joined
		}
	}
	return emp, payload, true
}

func (h *Handler) record(r *http.Request, session auth.Session, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(r.Context(), session.OrgID, session.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after)
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
	case errors.Is(err, core.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	case errors.Is(err, core.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, core.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case errors.Is(err, core.ErrDepartmentInUse), errors.Is(err, core.ErrTeamInUse):
		api.Fail(w, http.StatusConflict, "in_use", err.Error(), requestID)
	case errors.Is(err, core.ErrUnknownDepartment), errors.Is(err, core.ErrUnknownEmployee):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_reference", err.Error(), requestID)
	case errors.Is(err, core.ErrInvalidRole):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_role", err.Error(), requestID)
	default:
		slog.Error("core request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}

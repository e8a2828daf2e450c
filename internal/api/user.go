package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stocktake/m/domain"
	apperrors "stocktake/m/internal/errors"
	"stocktake/m/internal/session"
	"stocktake/m/internal/store"
)

// UserRouter serves the department user portal.
func (h *Handler) UserRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}
	r.Get("/departments", h.departments)
	r.Post("/session", h.userLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireSession(session.PortalUser, "please select a department first"))
		pr.Delete("/session", h.endSession(session.PortalUser))
		pr.Get("/home", h.userHome)
		pr.Get("/about", h.about)

		pr.Get("/stocktake/records", h.stocktakeRecords)
		pr.Put("/stocktake/records/{id}", h.updateRecord)

		pr.Get("/data/tables", h.dataTables)
		pr.Get("/data/tables/{id}/records", h.dataTableRecords)
		pr.Get("/data/tables/{id}/export.csv", h.dataExportCSV)
		pr.Get("/data/tables/{id}/export.xlsx", h.dataExportXLSX)
	})

	return r
}

func (h *Handler) departments(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"departments": domain.Departments})
}

type userLoginRequest struct {
	Department string `json:"department" validate:"required,department"`
	AccessCode string `json:"access_code" validate:"required"`
}

func (h *Handler) userLogin(w http.ResponseWriter, r *http.Request) {
	var req userLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.Department = strings.TrimSpace(req.Department)
	req.AccessCode = strings.TrimSpace(req.AccessCode)
	if err := validateRequest(req); err != nil {
		h.respondError(w, r, err)
		return
	}

	table, err := h.tables.FindByAccessCode(r.Context(), req.AccessCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.metrics.LoginAttempt("invalid_code")
			h.respondError(w, r, apperrors.Wrap(apperrors.CodeUnauthorized, err, "invalid access code"))
			return
		}
		h.respondError(w, r, err)
		return
	}
	if table.Department != req.Department {
		h.metrics.LoginAttempt("department_mismatch")
		h.respondError(w, r, apperrors.New(apperrors.CodeDepartmentMismatch, "code doesn't match department"))
		return
	}
	if !table.IsActive {
		h.metrics.LoginAttempt("closed")
		h.respondError(w, r, apperrors.New(apperrors.CodeForbidden, "stocktake table is closed"))
		return
	}

	h.metrics.LoginAttempt("accepted")
	h.log.Info(h.log.WithFields(r.Context(), map[string]any{
		"department": table.Department,
		"table_id":   table.ID,
	}), "user.login")
	h.startSession(w, r, session.Session{
		Portal:     session.PortalUser,
		Department: table.Department,
		TableID:    table.ID,
		TableName:  table.TableName,
	}, "Access granted to "+table.TableName)
}

func (h *Handler) userHome(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	respondJSON(w, http.StatusOK, homeResponse{
		Department: sess.Department,
		TableID:    sess.TableID,
		TableName:  sess.TableName,
	})
}

// sessionTable reloads the table the session was granted. It may have been deleted or
// closed since login.
func (h *Handler) sessionTable(r *http.Request) (*domain.StocktakeTable, error) {
	sess := currentSession(r)
	table, err := h.tables.FindByID(r.Context(), sess.TableID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, err, "stocktake table no longer exists")
		}
		return nil, err
	}
	return table, nil
}

func (h *Handler) stocktakeRecords(w http.ResponseWriter, r *http.Request) {
	table, err := h.sessionTable(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rows, err := h.records.ListByTable(r.Context(), table.ID, r.URL.Query().Get("search"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recordsResponse{Table: table, Records: rows})
}

type updateRecordRequest struct {
	Packs      *int64 `json:"packs" validate:"required,min=0"`
	Singles    *int64 `json:"singles" validate:"required,min=0"`
	ExpiryDate string `json:"expiry_date" validate:"max=20"`
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req updateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.ExpiryDate = strings.TrimSpace(req.ExpiryDate)
	if err := validateRequest(req); err != nil {
		h.respondError(w, r, err)
		return
	}

	table, err := h.sessionTable(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !table.IsActive {
		h.respondError(w, r, apperrors.New(apperrors.CodeForbidden, "stocktake table is closed"))
		return
	}

	sess := currentSession(r)
	row, err := h.records.Update(r.Context(), store.RecordUpdate{
		ID:         id,
		TableID:    table.ID,
		Packs:      *req.Packs,
		Singles:    *req.Singles,
		ExpiryDate: nullIfEmpty(req.ExpiryDate),
		UpdatedBy:  sess.Department,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, r, apperrors.Wrap(apperrors.CodeNotFound, err, "record not found"))
			return
		}
		h.respondError(w, r, err)
		return
	}

	h.metrics.RecordUpdated()
	respondJSON(w, http.StatusOK, row)
}

func (h *Handler) dataTables(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	tables, err := h.tables.List(r.Context(), sess.Department)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// departmentTable loads a table from the path, limited to the session's department.
func (h *Handler) departmentTable(r *http.Request) (*domain.StocktakeTable, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	table, err := h.tables.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, err, "stocktake table not found")
		}
		return nil, err
	}
	if table.Department != currentSession(r).Department {
		return nil, apperrors.New(apperrors.CodeNotFound, "stocktake table not found")
	}
	return table, nil
}

func (h *Handler) dataTableRecords(w http.ResponseWriter, r *http.Request) {
	table, err := h.departmentTable(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rows, err := h.records.ListByTable(r.Context(), table.ID, r.URL.Query().Get("search"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recordsResponse{Table: table, Records: rows})
}

func (h *Handler) dataExportCSV(w http.ResponseWriter, r *http.Request) {
	h.exportTable(w, r, h.departmentTable, "csv")
}

func (h *Handler) dataExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportTable(w, r, h.departmentTable, "xlsx")
}

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stocktake/m/domain"
	apperrors "stocktake/m/internal/errors"
	"stocktake/m/internal/export"
	"stocktake/m/internal/session"
	"stocktake/m/internal/store"
)

// AdminRouter serves the admin portal.
func (h *Handler) AdminRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}
	r.Post("/session", h.adminLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireSession(session.PortalAdmin, "please log in"))
		pr.Delete("/session", h.endSession(session.PortalAdmin))
		pr.Get("/home", h.adminHome)
		pr.Get("/about", h.about)

		pr.Get("/tables/access-code", h.newAccessCode)
		pr.Get("/tables", h.listTables)
		pr.Post("/tables", h.createTable)
		pr.Patch("/tables/{id}", h.setTableActive)
		pr.Delete("/tables/{id}", h.deleteTable)
		pr.Get("/tables/{id}/records", h.adminTableRecords)
		pr.Get("/tables/{id}/export.csv", h.adminExportCSV)
		pr.Get("/tables/{id}/export.xlsx", h.adminExportXLSX)

		pr.Get("/drugs", h.listDrugs)
		pr.Post("/drugs", h.createDrug)
		pr.Get("/drugs/export.csv", h.exportDrugs)
	})

	return r
}

type adminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validateRequest(req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err == nil && !user.IsAdmin {
		err = store.ErrInvalidCredentials
	}
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			h.metrics.LoginAttempt("rejected")
			h.respondError(w, r, apperrors.Wrap(apperrors.CodeUnauthorized, err, "invalid username or password"))
			return
		}
		h.respondError(w, r, err)
		return
	}

	h.metrics.LoginAttempt("accepted")
	h.log.Info(h.log.WithField(r.Context(), "username", user.Username), "admin.login")
	h.startSession(w, r, session.Session{
		Portal:     session.PortalAdmin,
		Username:   user.Username,
		Department: user.Department,
	}, "")
}

type homeResponse struct {
	Username   string `json:"username,omitempty"`
	Department string `json:"department"`
	TableID    int64  `json:"table_id,omitempty"`
	TableName  string `json:"table_name,omitempty"`
}

func (h *Handler) adminHome(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	respondJSON(w, http.StatusOK, homeResponse{Username: sess.Username, Department: sess.Department})
}

func (h *Handler) newAccessCode(w http.ResponseWriter, r *http.Request) {
	code, err := session.GenerateAccessCode()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"access_code": code})
}

// visibleDepartment is the department filter an admin's table listing is limited to.
// Empty means every department.
func visibleDepartment(sess session.Session, requested string) string {
	if !sess.IsSuperAdmin() {
		return sess.Department
	}
	if requested == store.AllDepartments {
		return ""
	}
	return requested
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	tables, err := h.tables.List(r.Context(), visibleDepartment(sess, r.URL.Query().Get("department")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

type createTableRequest struct {
	TableName  string `json:"table_name" validate:"required,max=255"`
	Department string `json:"department" validate:"required,department"`
	AccessCode string `json:"access_code" validate:"required,max=50"`
}

type createTableResponse struct {
	Table          *domain.StocktakeTable `json:"table"`
	RecordsCreated int64                  `json:"records_created"`
	Message        string                 `json:"message"`
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.TableName = strings.TrimSpace(req.TableName)
	req.Department = strings.TrimSpace(req.Department)
	req.AccessCode = strings.TrimSpace(req.AccessCode)
	sess := currentSession(r)
	if req.Department == "" && domain.IsDepartment(sess.Department) {
		req.Department = sess.Department
	}
	if err := validateRequest(req); err != nil {
		h.respondError(w, r, err)
		return
	}

	table, seeded, err := h.tables.Create(r.Context(), store.NewTable{
		TableName:  req.TableName,
		Department: req.Department,
		AccessCode: req.AccessCode,
		CreatedBy:  sess.Username,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.respondError(w, r, apperrors.Wrap(apperrors.CodeConflict, err, "database error: "+err.Error()))
			return
		}
		h.respondError(w, r, err)
		return
	}

	h.metrics.TableCreated()
	h.log.Info(h.log.WithFields(r.Context(), map[string]any{
		"table_id":        table.ID,
		"records_created": seeded,
	}), "table.created")
	respondJSON(w, http.StatusCreated, createTableResponse{
		Table:          table,
		RecordsCreated: seeded,
		Message:        "Table '" + table.TableName + "' created with access code: " + table.AccessCode,
	})
}

// adminTable loads the table named in the path, hiding tables of other departments
// from department admins.
func (h *Handler) adminTable(r *http.Request) (*domain.StocktakeTable, error) {
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
	sess := currentSession(r)
	if !sess.IsSuperAdmin() && table.Department != sess.Department {
		return nil, apperrors.New(apperrors.CodeNotFound, "stocktake table not found")
	}
	return table, nil
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *Handler) setTableActive(w http.ResponseWriter, r *http.Request) {
	table, err := h.adminTable(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		h.respondError(w, r, err)
		return
	}

	updated, err := h.tables.SetActive(r.Context(), table.ID, *req.IsActive)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.adminTable(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !confirmed {
		h.respondError(w, r, apperrors.New(apperrors.CodeValidation, "deleting a table removes all of its records; repeat with confirm=true"))
		return
	}

	removed, err := h.tables.Delete(r.Context(), table.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, r, apperrors.Wrap(apperrors.CodeNotFound, err, "stocktake table not found"))
			return
		}
		h.respondError(w, r, err)
		return
	}

	h.metrics.TableDeleted()
	h.log.Info(h.log.WithFields(r.Context(), map[string]any{
		"table_id":        table.ID,
		"records_deleted": removed,
	}), "table.deleted")
	respondJSON(w, http.StatusOK, map[string]any{
		"deleted_table_id": table.ID,
		"records_deleted":  removed,
	})
}

type recordsResponse struct {
	Table   *domain.StocktakeTable `json:"table"`
	Records []domain.RecordRow     `json:"records"`
}

func (h *Handler) adminTableRecords(w http.ResponseWriter, r *http.Request) {
	table, err := h.adminTable(r)
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

func (h *Handler) adminExportCSV(w http.ResponseWriter, r *http.Request) {
	h.exportTable(w, r, h.adminTable, "csv")
}

func (h *Handler) adminExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportTable(w, r, h.adminTable, "xlsx")
}

// exportTable downloads every record of the table resolved by load, ignoring any search.
func (h *Handler) exportTable(w http.ResponseWriter, r *http.Request, load func(*http.Request) (*domain.StocktakeTable, error), format string) {
	table, err := load(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rows, err := h.records.ListByTable(r.Context(), table.ID, "")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if format == "xlsx" {
		h.attachment(w, r, export.ContentTypeXLSX, "stocktake.xlsx", format, func(out io.Writer) error {
			return export.RecordsXLSX(out, rows)
		})
		return
	}
	h.attachment(w, r, export.ContentTypeCSV, "stocktake.csv", format, func(out io.Writer) error {
		return export.RecordsCSV(out, rows)
	})
}

func drugFilter(r *http.Request) store.DrugFilter {
	q := r.URL.Query()
	return store.DrugFilter{Search: q.Get("search"), Department: q.Get("department")}
}

func (h *Handler) listDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.drugs.List(r.Context(), drugFilter(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"drugs": drugs, "count": len(drugs)})
}

type createDrugRequest struct {
	DrugName   string `json:"drug_name" validate:"required,max=255"`
	Department string `json:"department" validate:"omitempty,department"`
}

func (h *Handler) createDrug(w http.ResponseWriter, r *http.Request) {
	var req createDrugRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.DrugName = strings.TrimSpace(req.DrugName)
	req.Department = strings.TrimSpace(req.Department)
	if req.Department == "None" {
		req.Department = ""
	}
	if err := validateRequest(req); err != nil {
		h.respondError(w, r, err)
		return
	}

	drug, err := h.drugs.Create(r.Context(), req.DrugName, nullIfEmpty(req.Department))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.respondError(w, r, apperrors.Wrap(apperrors.CodeConflict, err, "drug already exists"))
			return
		}
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, drug)
}

func (h *Handler) exportDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.drugs.List(r.Context(), drugFilter(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.attachment(w, r, export.ContentTypeCSV, "drugs.csv", "csv", func(out io.Writer) error {
		return export.DrugsCSV(out, drugs)
	})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"stocktake/m/domain"
	apperrors "stocktake/m/internal/errors"
	"stocktake/m/internal/logger"
	"stocktake/m/internal/metrics"
	"stocktake/m/internal/session"
	"stocktake/m/internal/store"
)

type UserStore interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

type DrugStore interface {
	Create(ctx context.Context, name string, department *string) (*domain.Drug, error)
	List(ctx context.Context, filter store.DrugFilter) ([]domain.Drug, error)
}

type TableStore interface {
	Create(ctx context.Context, in store.NewTable) (*domain.StocktakeTable, int64, error)
	FindByID(ctx context.Context, id int64) (*domain.StocktakeTable, error)
	FindByAccessCode(ctx context.Context, code string) (*domain.StocktakeTable, error)
	List(ctx context.Context, department string) ([]domain.StocktakeTable, error)
	SetActive(ctx context.Context, id int64, active bool) (*domain.StocktakeTable, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type RecordStore interface {
	ListByTable(ctx context.Context, tableID int64, search string) ([]domain.RecordRow, error)
	Update(ctx context.Context, in store.RecordUpdate) (*domain.RecordRow, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators shared by both portals. Metrics and DB may be nil.
type Deps struct {
	Users    UserStore
	Drugs    DrugStore
	Tables   TableStore
	Records  RecordStore
	Sessions *session.Manager
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	DB       Pinger
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	users    UserStore
	drugs    DrugStore
	tables   TableStore
	records  RecordStore
	sessions *session.Manager
	log      *logger.Logger
	metrics  *metrics.Metrics
	db       Pinger
}

// New constructs a Handler.
func New(d Deps) *Handler {
	logg := d.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Handler{
		users:    d.Users,
		drugs:    d.Drugs,
		tables:   d.Tables,
		records:  d.Records,
		sessions: d.Sessions,
		log:      logg,
		metrics:  d.Metrics,
		db:       d.DB,
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.log.Error(r.Context(), "health.db", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type aboutResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	DevelopedBy string `json:"developed_by"`
}

func (h *Handler) about(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, aboutResponse{
		Name:        "Hospital Stocktake System",
		Version:     "1.0",
		DevelopedBy: "Corporate 24 Healthcare",
	})
}

// Validation

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return domain.IsDepartment(fl.Field().String())
	})
	return v
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fe := range errs {
			details[fe.Field()] = validationMessage(fe)
		}
		return apperrors.New(apperrors.CodeValidation, "please fill in all fields correctly").WithDetails(details)
	}
	return apperrors.Wrap(apperrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "department":
		return "must be one of " + strings.Join(domain.Departments, ", ")
	}
	return "is invalid"
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	defer io.Copy(io.Discard, r.Body)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "invalid "+name)
	}
	return id, nil
}

func currentSession(r *http.Request) session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// respondError renders err in place. Typed errors keep their message; anything else is
// logged and answered with the generic internal message.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	typed := apperrors.As(err)
	if typed == nil {
		typed = apperrors.Wrap(apperrors.CodeInternal, err, "unexpected error")
	}
	meta := apperrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if meta.ShowMessage && typed.Message() != "" {
		msg = typed.Message()
	}
	if typed.Code() == apperrors.CodeInternal {
		h.log.Error(r.Context(), "request.error", err)
	}
	respondJSON(w, meta.HTTPStatus, errorResponse{Error: msg, Code: string(typed.Code()), Details: typed.Details()})
}

// attachment renders a download into memory first so a failed render still gets a
// proper error response.
func (h *Handler) attachment(w http.ResponseWriter, r *http.Request, contentType, filename, format string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.metrics.Exported(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

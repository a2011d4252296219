package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/seanrito/patients-backend/internal/domain"
	patientsvc "github.com/seanrito/patients-backend/internal/service/patient"
)

const maxBodyBytes = 1 << 20

type patientService interface {
	List(ctx context.Context, input patientsvc.ListInput) (*patientsvc.PagedResult, error)
	Get(ctx context.Context, id int64) (*domain.Patient, error)
	Create(ctx context.Context, input patientsvc.CreateInput) (*domain.Patient, error)
	Update(ctx context.Context, input patientsvc.UpdateInput) (*domain.Patient, error)
	Delete(ctx context.Context, id int64) error
	Export(ctx context.Context, input patientsvc.ExportInput) (*patientsvc.ExportResult, error)
	History(ctx context.Context, id int64) ([]domain.AuditEntry, error)
}

// PatientHandler serves the /patients endpoints.
type PatientHandler struct {
	patients patientService
	errs     errorWriter
	log      *slog.Logger
}

// NewPatientHandler creates a PatientHandler.
func NewPatientHandler(patients patientService, logger *slog.Logger) *PatientHandler {
	log := logger.With("handler", "patient")
	return &PatientHandler{
		patients: patients,
		errs:     errorWriter{log: log},
		log:      log,
	}
}

// Routes mounts the patient endpoints on r. The export route is registered
// before the {id} routes.
func (h *PatientHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/export", h.Export)
	r.Route("/{id:[0-9]+}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/history", h.History)
	})
}

// List returns a page of patients.
// GET /patients?name&documentNumber&createdFrom&createdTo&sortBy&sortDir&page&pageSize
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	input, err := listInputFromQuery(r.URL.Query())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	res, err := h.patients.List(r.Context(), input)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPagedResponse(res))
}

// Get returns one patient.
// GET /patients/{id}
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	p, err := h.patients.Get(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

// Create stores a new patient and answers 201 with its location.
// POST /patients
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if !h.decode(w, r, &req) {
		return
	}

	input, err := req.toCreateInput()
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	created, err := h.patients.Create(r.Context(), input)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/patients/%d", created.ID))
	writeJSON(w, http.StatusCreated, toPatientResponse(created))
}

// Update replaces a patient's fields. The body's rowVersion, when present,
// must match the stored one.
// PUT /patients/{id}
func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	var req PatientRequest
	if !h.decode(w, r, &req) {
		return
	}

	input, err := req.toUpdateInput(id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	updated, err := h.patients.Update(r.Context(), input)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(updated))
}

// Delete removes a patient.
// DELETE /patients/{id}
func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	if err := h.patients.Delete(r.Context(), id); err != nil {
		h.errs.write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export downloads the matching patients as CSV.
// GET /patients/export?createdFrom=2025-01-01&...
func (h *PatientHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTimeParam("createdFrom", q.Get("createdFrom"), false)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	to, err := parseTimeParam("createdTo", q.Get("createdTo"), true)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	res, err := h.patients.Export(r.Context(), patientsvc.ExportInput{
		Name:           optionalParam(q, "name"),
		DocumentNumber: optionalParam(q, "documentNumber"),
		CreatedFrom:    from,
		CreatedTo:      to,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Content); err != nil {
		h.log.WarnContext(r.Context(), "write export", slog.String("error", err.Error()))
	}
}

// History lists the audit entries of a patient, newest first.
// GET /patients/{id}/history
func (h *PatientHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	entries, err := h.patients.History(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuditEntryResponses(entries))
}

// patientID reads the {id} URL parameter. The route pattern admits digits
// only, so a parse failure is an out-of-range id and no such patient exists.
func (h *PatientHandler) patientID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusNotFound, fmt.Sprintf("patient %s not found", raw), nil)
		return 0, false
	}
	return id, true
}

func (h *PatientHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "request body too large", nil)
			return false
		}
		writeProblem(w, http.StatusBadRequest, "malformed JSON body: "+err.Error(), nil)
		return false
	}
	return true
}

func listInputFromQuery(q url.Values) (patientsvc.ListInput, error) {
	page, err := intParam(q, "page")
	if err != nil {
		return patientsvc.ListInput{}, err
	}
	pageSize, err := intParam(q, "pageSize")
	if err != nil {
		return patientsvc.ListInput{}, err
	}
	from, err := parseTimeParam("createdFrom", q.Get("createdFrom"), false)
	if err != nil {
		return patientsvc.ListInput{}, err
	}
	to, err := parseTimeParam("createdTo", q.Get("createdTo"), true)
	if err != nil {
		return patientsvc.ListInput{}, err
	}

	return patientsvc.ListInput{
		Name:           optionalParam(q, "name"),
		DocumentNumber: optionalParam(q, "documentNumber"),
		CreatedFrom:    from,
		CreatedTo:      to,
		SortBy:         q.Get("sortBy"),
		SortDir:        q.Get("sortDir"),
		Page:           page,
		PageSize:       pageSize,
	}, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", name, v, domain.ErrInvalidArgument)
	}
	return n, nil
}

func optionalParam(q url.Values, name string) *string {
	if !q.Has(name) {
		return nil
	}
	v := q.Get(name)
	return &v
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/campus-portal/internal/errors"
	"github.com/pribylovaa/campus-portal/internal/http/middleware"
	"github.com/pribylovaa/campus-portal/internal/models"
)

func (h *Handlers) FacultyHome(w http.ResponseWriter, r *http.Request) {
	students, err := h.Clients.Faculty.ListStudents(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if students == nil {
		students = []models.Student{}
	}

	writeJSON(w, http.StatusOK, models.View{
		Name:     "faculty_dashboard",
		Role:     middleware.RoleFrom(r.Context()).String(),
		Location: r.URL.RequestURI(),
		Data:     students,
	})
}

func (h *Handlers) FacultyStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	st, err := h.Clients.Faculty.Student(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.View{
		Name:     "faculty_student",
		Role:     middleware.RoleFrom(r.Context()).String(),
		Location: r.URL.RequestURI(),
		Data:     st,
	})
}

func (h *Handlers) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var in models.StudentInput
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	st, err := h.Clients.Faculty.CreateStudent(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, st)
}

func (h *Handlers) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in models.StudentInput
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	st, err := h.Clients.Faculty.UpdateStudent(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) AssignStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	res, err := h.Clients.Faculty.AssignStudent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func studentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

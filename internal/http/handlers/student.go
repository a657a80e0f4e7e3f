package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/campus-portal/internal/errors"
	"github.com/pribylovaa/campus-portal/internal/http/middleware"
	"github.com/pribylovaa/campus-portal/internal/models"
)

// maxAvatarSize — предел тела multipart-запроса с фото профиля.
const maxAvatarSize = 8 << 20

func (h *Handlers) StudentHome(w http.ResponseWriter, r *http.Request) {
	st, err := h.Clients.Students.Profile(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.View{
		Name:     "student_dashboard",
		Role:     middleware.RoleFrom(r.Context()).String(),
		Location: r.URL.RequestURI(),
		Data:     st,
	})
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileUpdate
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	st, err := h.Clients.Students.UpdateProfile(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// UploadAvatar передаёт файл из поля profile_picture в бэкенд как есть.
func (h *Handlers) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)

	file, hdr, err := r.FormFile("profile_picture")
	if err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}
	defer file.Close()

	st, err := h.Clients.Students.UploadAvatar(r.Context(), hdr.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) Subjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.Clients.Students.Subjects(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if subjects == nil {
		subjects = []models.Subject{}
	}

	writeJSON(w, http.StatusOK, models.View{
		Name:     "student_subjects",
		Role:     middleware.RoleFrom(r.Context()).String(),
		Location: r.URL.RequestURI(),
		Data:     subjects,
	})
}

package clients

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apierrors "github.com/pribylovaa/campus-portal/internal/errors"
	"github.com/pribylovaa/campus-portal/internal/models"
	"github.com/pribylovaa/campus-portal/internal/session"
	"github.com/stretchr/testify/require"
)

func TestAuth_Login_StoresTriple_RoleLowercased(t *testing.T) {
	t.Parallel()

	access := mintToken(t, "student", time.Hour)
	var (
		in   models.LoginRequest
		path string
	)
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = decodeBody(r, &in)
		writeJSON(w, http.StatusOK, models.TokenPair{Access: access, Refresh: "r1", Role: "Student", RedirectURL: "http://portal/student"})
	}))

	store := session.NewMemoryStore()
	auth := NewAuthService(newTestClient(t, srv.URL, store, nil))

	sess, err := auth.Login(context.Background(), "  ada ", "pw")
	require.NoError(t, err)
	require.Equal(t, "student", sess.Role)
	require.Equal(t, "http://portal/student", sess.RedirectURL)
	require.Equal(t, "/auth/token", path)
	require.Equal(t, models.LoginRequest{Username: "ada", Password: "pw"}, in)

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.Credentials{Access: access, Refresh: "r1", Role: session.RoleStudent}, got)
}

func TestAuth_Login_RoleFromToken_WhenOmitted(t *testing.T) {
	t.Parallel()

	access := mintToken(t, "FACULTY", time.Hour)
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.TokenPair{Access: access, Refresh: "r1"})
	}))

	store := session.NewMemoryStore()
	sess, err := NewAuthService(newTestClient(t, srv.URL, store, nil)).Login(context.Background(), "prof", "pw")
	require.NoError(t, err)
	require.Equal(t, "faculty", sess.Role)
}

func TestAuth_Login_InvalidResponse(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.TokenPair{Access: "only-access"})
	}))

	store := session.NewMemoryStore()
	_, err := NewAuthService(newTestClient(t, srv.URL, store, nil)).Login(context.Background(), "u", "p")
	require.ErrorIs(t, err, ErrInvalidResponse)

	got, _ := store.Get(context.Background())
	require.True(t, got.Empty())
}

func TestAuth_Login_BadCredentials_NoRefresh(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh" {
			refreshes.Add(1)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
	}))

	store := session.NewMemoryStore(session.Credentials{Access: "a", Refresh: "r"})
	hook := &hookCounter{}
	_, err := NewAuthService(newTestClient(t, srv.URL, store, hook)).Login(context.Background(), "u", "bad")

	require.Equal(t, http.StatusUnauthorized, apierrors.StatusOf(err))
	require.False(t, errors.Is(err, ErrSessionEnded))
	require.Zero(t, refreshes.Load())
	require.Zero(t, hook.n.Load())
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	var in models.RegisterRequest
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = decodeBody(r, &in)
		if in.Username == "taken" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"validation_errors": map[string][]string{"username": {"A user with that username already exists."}},
			})
			return
		}
		writeJSON(w, http.StatusCreated, models.RegisterResponse{Access: "a", Refresh: "r", Role: "student"})
	}))

	store := session.NewMemoryStore()
	auth := NewAuthService(newTestClient(t, srv.URL, store, nil))

	resp, err := auth.Register(context.Background(), models.RegisterRequest{Username: "new", Password: "pw", Role: "Student"})
	require.NoError(t, err)
	require.Equal(t, "student", resp.Role)
	require.Equal(t, "student", in.Role)

	// Токены регистрации не сохраняются.
	got, _ := store.Get(context.Background())
	require.True(t, got.Empty())

	_, err = auth.Register(context.Background(), models.RegisterRequest{Username: "taken", Password: "pw", Role: "student"})
	var ve *apierrors.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "username")
}

func TestAuth_Logout_And_Whoami(t *testing.T) {
	t.Parallel()

	access := mintToken(t, "Faculty", time.Hour)
	store := session.NewMemoryStore(session.Credentials{Access: access, Refresh: "r", Role: session.RoleStudent})
	auth := NewAuthService(newTestClient(t, "http://backend.invalid", store, nil))

	claims, err := auth.Whoami(context.Background())
	require.NoError(t, err)
	// Роль из токена, а не сохранённая.
	require.Equal(t, session.RoleFaculty, claims.Role)

	require.NoError(t, auth.Logout(context.Background()))

	_, err = auth.Whoami(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestStudents_ProfileAndUpdate(t *testing.T) {
	t.Parallel()

	var method string
	var patch map[string]any
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		if r.Method == http.MethodPatch {
			_ = decodeBody(r, &patch)
		}
		writeJSON(w, http.StatusOK, models.Student{ID: 3, FirstName: "Ada", ContactNumber: "555"})
	}))

	store := session.NewMemoryStore(session.Credentials{Access: "a", Refresh: "r"})
	st := NewStudentsService(newTestClient(t, srv.URL, store, nil))

	p, err := st.Profile(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, p.ID)
	require.Equal(t, http.MethodGet, method)

	phone := "555"
	_, err = st.UpdateProfile(context.Background(), models.ProfileUpdate{ContactNumber: &phone})
	require.NoError(t, err)
	require.Equal(t, http.MethodPatch, method)
	require.Equal(t, map[string]any{"contact_number": "555"}, patch)
}

func TestStudents_UploadAvatar_Multipart(t *testing.T) {
	t.Parallel()

	var (
		ct       string
		filename string
		content  []byte
	)
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct = r.Header.Get("Content-Type")
		f, hdr, err := r.FormFile("profile_picture")
		if err == nil {
			filename = hdr.Filename
			content, _ = io.ReadAll(f)
			_ = f.Close()
		}
		writeJSON(w, http.StatusOK, models.Student{ID: 3, ProfilePicture: "/media/profile_pictures/me.png"})
	}))

	store := session.NewMemoryStore(session.Credentials{Access: "a", Refresh: "r"})
	st := NewStudentsService(newTestClient(t, srv.URL, store, nil))

	out, err := st.UploadAvatar(context.Background(), "me.png", bytes.NewReader([]byte("PNGDATA")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ct, "multipart/form-data; boundary="), ct)
	require.Equal(t, "me.png", filename)
	require.Equal(t, []byte("PNGDATA"), content)
	require.Equal(t, "/media/profile_pictures/me.png", out.ProfilePicture)
}

func TestStudents_UploadAvatar_ReplayedAfterRefresh(t *testing.T) {
	t.Parallel()

	newTok := mintToken(t, "student", time.Hour)
	var sizes []int64
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh" {
			writeJSON(w, http.StatusOK, models.TokenPair{Access: newTok})
			return
		}
		sizes = append(sizes, r.ContentLength)
		if bearerOf(r) != newTok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, models.Student{})
	}))

	store := session.NewMemoryStore(session.Credentials{Access: "old", Refresh: "r"})
	st := NewStudentsService(newTestClient(t, srv.URL, store, nil))

	_, err := st.UploadAvatar(context.Background(), "me.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	require.Equal(t, sizes[0], sizes[1])
	require.Greater(t, sizes[1], int64(0))
}

func TestStudents_Subjects_BothShapes(t *testing.T) {
	t.Parallel()

	var asList atomic.Bool
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if asList.Load() {
			writeJSON(w, http.StatusOK, []models.Subject{{ID: 1, Name: "Algebra"}})
			return
		}
		writeJSON(w, http.StatusOK, models.Student{ID: 3, Subjects: []models.Subject{{ID: 2, Name: "Physics"}}})
	}))

	store := session.NewMemoryStore(session.Credentials{Access: "a", Refresh: "r"})
	st := NewStudentsService(newTestClient(t, srv.URL, store, nil))

	subs, err := st.Subjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Subject{{ID: 2, Name: "Physics"}}, subs)

	asList.Store(true)
	subs, err = st.Subjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Subject{{ID: 1, Name: "Algebra"}}, subs)
}

func TestFaculty_Operations(t *testing.T) {
	t.Parallel()

	var lastPath, lastMethod string
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath, lastMethod = r.URL.Path, r.Method
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/students":
			writeJSON(w, http.StatusOK, []models.Student{{ID: 1}, {ID: 2}})
		case r.URL.Path == "/faculty/students/7/assign":
			writeJSON(w, http.StatusOK, map[string]string{"message": "Student assigned successfully."})
		case r.URL.Path == "/faculty/students/8/assign":
			writeJSON(w, http.StatusOK, models.Student{ID: 8, FirstName: "Bo"})
		default:
			writeJSON(w, http.StatusOK, models.Student{ID: 9, FirstName: "Cy"})
		}
	}))

	store := session.NewMemoryStore(session.Credentials{Access: "a", Refresh: "r", Role: session.RoleFaculty})
	f := NewFacultyService(newTestClient(t, srv.URL, store, nil))
	ctx := context.Background()

	list, err := f.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	st, err := f.CreateStudent(ctx, models.StudentInput{FirstName: "Cy", LastName: "X"})
	require.NoError(t, err)
	require.EqualValues(t, 9, st.ID)
	require.Equal(t, http.MethodPost, lastMethod)
	require.Equal(t, "/students", lastPath)

	_, err = f.UpdateStudent(ctx, 9, models.StudentInput{FirstName: "Cy"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, lastMethod)
	require.Equal(t, "/students/9", lastPath)

	one, err := f.Student(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, "Cy", one.FirstName)
	require.Equal(t, http.MethodGet, lastMethod)
	require.Equal(t, "/students/9", lastPath)

	res, err := f.AssignStudent(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Student assigned successfully.", res.Message)
	require.Nil(t, res.Student)

	res, err = f.AssignStudent(ctx, 8)
	require.NoError(t, err)
	require.NotNil(t, res.Student)
	require.Equal(t, "Bo", res.Student.FirstName)
}

package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pribylovaa/campus-portal/internal/models"
)

// avatarField — имя поля файла в multipart-запросе профиля.
const avatarField = "profile_picture"

// StudentsService — разделы, доступные студенту.
type StudentsService struct {
	c *Client
}

func NewStudentsService(c *Client) *StudentsService { return &StudentsService{c: c} }

func (s *StudentsService) Profile(ctx context.Context) (models.Student, error) {
	const op = "clients.Students.Profile"

	var st models.Student
	if err := s.c.Do(ctx, &Request{Method: http.MethodGet, Path: s.c.paths.Profile}, &st); err != nil {
		return models.Student{}, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

func (s *StudentsService) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Student, error) {
	const op = "clients.Students.UpdateProfile"

	var st models.Student
	if err := s.c.Do(ctx, &Request{Method: http.MethodPatch, Path: s.c.paths.Profile, Body: upd}, &st); err != nil {
		return models.Student{}, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

// UploadAvatar отправляет фото профиля как multipart/form-data.
func (s *StudentsService) UploadAvatar(ctx context.Context, filename string, content io.Reader) (models.Student, error) {
	const op = "clients.Students.UploadAvatar"

	var st models.Student
	err := s.c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   s.c.paths.Profile,
		Body: &Multipart{Files: []File{{
			Field:   avatarField,
			Name:    filename,
			Content: content,
		}}},
	}, &st)
	if err != nil {
		return models.Student{}, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

// Subjects возвращает предметы студента. Бэкенд отдаёт либо список,
// либо запись студента с полем subjects.
func (s *StudentsService) Subjects(ctx context.Context) ([]models.Subject, error) {
	const op = "clients.Students.Subjects"

	var raw json.RawMessage
	if err := s.c.Do(ctx, &Request{Method: http.MethodGet, Path: s.c.paths.Subjects}, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	if raw[0] == '[' {
		var list []models.Subject
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidResponse, err)
		}

		return list, nil
	}

	var st models.Student
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidResponse, err)
	}

	return st.Subjects, nil
}

package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pribylovaa/campus-portal/internal/models"
)

// FacultyService — разделы, доступные преподавателю.
type FacultyService struct {
	c *Client
}

func NewFacultyService(c *Client) *FacultyService { return &FacultyService{c: c} }

func (s *FacultyService) ListStudents(ctx context.Context) ([]models.Student, error) {
	const op = "clients.Faculty.ListStudents"

	var list []models.Student
	if err := s.c.Do(ctx, &Request{Method: http.MethodGet, Path: s.c.paths.Students}, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Student — карточка одного студента.
func (s *FacultyService) Student(ctx context.Context, id int64) (models.Student, error) {
	const op = "clients.Faculty.Student"

	var st models.Student
	if err := s.c.Do(ctx, &Request{Method: http.MethodGet, Path: withID(s.c.paths.Student, id)}, &st); err != nil {
		return models.Student{}, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

func (s *FacultyService) CreateStudent(ctx context.Context, in models.StudentInput) (models.Student, error) {
	const op = "clients.Faculty.CreateStudent"

	var st models.Student
	if err := s.c.Do(ctx, &Request{Method: http.MethodPost, Path: s.c.paths.Students, Body: in}, &st); err != nil {
		return models.Student{}, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

func (s *FacultyService) UpdateStudent(ctx context.Context, id int64, in models.StudentInput) (models.Student, error) {
	const op = "clients.Faculty.UpdateStudent"

	var st models.Student
	err := s.c.Do(ctx, &Request{Method: http.MethodPut, Path: withID(s.c.paths.Student, id), Body: in}, &st)
	if err != nil {
		return models.Student{}, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

// AssignStudent закрепляет студента за текущим преподавателем.
// Бэкенд отвечает либо сообщением, либо обновлённой записью студента.
func (s *FacultyService) AssignStudent(ctx context.Context, id int64) (models.AssignResult, error) {
	const op = "clients.Faculty.AssignStudent"

	var raw json.RawMessage
	err := s.c.Do(ctx, &Request{Method: http.MethodPost, Path: withID(s.c.paths.AssignStudent, id)}, &raw)
	if err != nil {
		return models.AssignResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var shape struct {
		Message string `json:"message"`
		ID      *int64 `json:"id"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &shape); err != nil {
			return models.AssignResult{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidResponse, err)
		}
	}

	res := models.AssignResult{Message: shape.Message}
	if shape.ID != nil {
		var st models.Student
		if err := json.Unmarshal(raw, &st); err != nil {
			return models.AssignResult{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidResponse, err)
		}
		res.Student = &st
	}

	return res, nil
}

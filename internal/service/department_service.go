package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Minister124/BlazorAuth-sub000/internal/audit"
	"github.com/Minister124/BlazorAuth-sub000/internal/ids"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
)

var (
	ErrDepartmentNameTaken = errors.New("department name already exists")
	ErrDepartmentInUse     = errors.New("department has assigned users")
)

type DepartmentService struct {
	departments repository.DepartmentRepository
	users       repository.UserRepository
	auditor     *audit.Publisher
	log         zerolog.Logger
}

func NewDepartmentService(
	departments repository.DepartmentRepository,
	users repository.UserRepository,
	auditor *audit.Publisher,
	log zerolog.Logger,
) *DepartmentService {
	return &DepartmentService{
		departments: departments,
		users:       users,
		auditor:     auditor,
		log:         log,
	}
}

func (s *DepartmentService) Get(ctx context.Context, id string) (models.Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	return s.departments.List(ctx)
}

type DepartmentInput struct {
	Name        string
	Description string
}

func (s *DepartmentService) Create(ctx context.Context, actorID string, input DepartmentInput) (models.Department, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return models.Department{}, fmt.Errorf("department name required")
	}

	if _, err := s.departments.FindByName(ctx, input.Name); err == nil {
		return models.Department{}, ErrDepartmentNameTaken
	} else if !errors.Is(err, repository.ErrDepartmentNotFound) {
		return models.Department{}, err
	}

	dept := models.Department{
		ID:          ids.New(),
		Name:        input.Name,
		Description: input.Description,
	}

	if err := s.departments.Create(ctx, dept); err != nil {
		return models.Department{}, err
	}

	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionDepartmentCreated,
		ActorID:  actorID,
		EntityID: dept.ID,
		Detail:   dept.Name,
	})
	return dept, nil
}

func (s *DepartmentService) Update(ctx context.Context, actorID string, id string, input DepartmentInput) (models.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return models.Department{}, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name != "" && !strings.EqualFold(input.Name, dept.Name) {
		if _, err := s.departments.FindByName(ctx, input.Name); err == nil {
			return models.Department{}, ErrDepartmentNameTaken
		} else if !errors.Is(err, repository.ErrDepartmentNotFound) {
			return models.Department{}, err
		}
		dept.Name = input.Name
	}
	if input.Description != "" {
		dept.Description = input.Description
	}

	if err := s.departments.Update(ctx, dept); err != nil {
		return models.Department{}, err
	}

	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionDepartmentUpdated,
		ActorID:  actorID,
		EntityID: dept.ID,
		Detail:   dept.Name,
	})
	return dept, nil
}

func (s *DepartmentService) Delete(ctx context.Context, actorID string, id string) error {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.users.CountByDepartment(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDepartmentInUse
	}

	if err := s.departments.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionDepartmentDeleted,
		ActorID:  actorID,
		EntityID: id,
		Detail:   dept.Name,
	})
	return nil
}

package service

import (
	"context"

	"reliefhub/internal/models"
	"reliefhub/internal/repository"
	"reliefhub/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID       uint
	Name         string
	Phone        string
	Location     *models.Location
	Organization string
	Skills       []string
	Availability *bool
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		if err := validation.ValidateName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = in.Name
	}
	if in.Phone != "" {
		if err := validation.ValidatePhone(in.Phone); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Phone = in.Phone
	}
	if in.Location != nil {
		user.Location = *in.Location
	}
	if in.Organization != "" {
		user.Organization = in.Organization
	}
	if in.Skills != nil {
		user.Skills = in.Skills
	}
	if in.Availability != nil {
		user.Availability = *in.Availability
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() && actor.ID != id {
		return models.NewForbiddenError("Only the account owner or an admin can delete this account")
	}
	return s.userRepo.Delete(ctx, id)
}

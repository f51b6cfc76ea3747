package services

import (
	"context"
	"errors"
	"fmt"

	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/models/dtos"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	users      *repositories.UserRepository
	points     PointsLedger
	membership *MembershipService
}

func NewUserService(users *repositories.UserRepository, points PointsLedger, membership *MembershipService) *UserService {
	return &UserService{
		users:      users,
		points:     points,
		membership: membership,
	}
}

// GetUserDetails aggregates profile, balance and membership for one user
func (s *UserService) GetUserDetails(ctx context.Context, userID string) (*dtos.UserDetailResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user details: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	balance, err := s.points.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	membership, err := s.membership.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dtos.UserDetailResponse{
		ID:         user.ID,
		Email:      user.Email,
		UserName:   user.UserName,
		Role:       user.Role.String(),
		Points:     balance,
		Membership: membership,
	}, nil
}

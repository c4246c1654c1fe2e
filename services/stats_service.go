package services

import (
	"context"

	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/repository"
)

type StatsService interface {
	AdminStats(ctx context.Context) (*models.AdminStats, error)
	OrderStats(ctx context.Context) ([]models.CategoryStat, error)
}

type statsService struct {
	users    repository.UserRepository
	menu     repository.MenuRepository
	payments repository.PaymentRepository
}

func NewStatsService(users repository.UserRepository, menu repository.MenuRepository, payments repository.PaymentRepository) StatsService {
	return &statsService{users: users, menu: menu, payments: payments}
}

// AdminStats counts users, menu items and orders and sums all payment
// prices. The revenue sum scans every payment.
func (s *statsService) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.menu.Count(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.payments.Count(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.payments.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AdminStats{
		Users:    users,
		Products: products,
		Orders:   orders,
		Revenue:  Round2(revenue),
	}, nil
}

func (s *statsService) OrderStats(ctx context.Context) ([]models.CategoryStat, error) {
	return s.payments.OrderStats(ctx)
}

package service

import (
	"time"

	"comercial-stock-backend/internal/repository"
)

type DashboardStats struct {
	Counts         repository.StockCounts `json:"counts"`
	TotalValuation int64                  `json:"total_valuation"`
	Badges         AlertBadges            `json:"badges"`
}

type DashboardService interface {
	GetStats() (*DashboardStats, error)
	GetMovementChart(days int) ([]repository.MovementChartData, error)
}

type dashboardService struct {
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	alerts       AlertService
}

func NewDashboardService(stockRepo repository.StockRepository, movementRepo repository.MovementRepository, alerts AlertService) DashboardService {
	return &dashboardService{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		alerts:       alerts,
	}
}

func (s *dashboardService) GetStats() (*DashboardStats, error) {
	counts, err := s.stockRepo.Counts()
	if err != nil {
		return nil, err
	}

	valuation, err := s.stockRepo.TotalValuation()
	if err != nil {
		return nil, err
	}

	badges, err := s.alerts.Badges()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Counts:         *counts,
		TotalValuation: valuation,
		Badges:         *badges,
	}, nil
}

func (s *dashboardService) GetMovementChart(days int) ([]repository.MovementChartData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.movementRepo.GetMovementChart(startDate, endDate)
}

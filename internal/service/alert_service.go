package service

import (
	"sort"
	"sync"
	"time"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	// AlertScopeLowStock covers everything classified LOW..CRITICAL except
	// the hard zeros, which AlertScopeOutOfStock reports separately.
	AlertScopeLowStock   = "low-stock"
	AlertScopeOutOfStock = "out-of-stock"

	salesWindowDays = 30

	// Soft early-warning band above minStock. Records with quantity inside
	// (minStock, buffer*minStock] classify LOW; above the band they are
	// excluded from both scopes.
	defaultLowStockBuffer = 1.2

	defaultAlertCacheTTL = 30 * time.Second
)

// AlertBadges feeds dashboard notification badges.
type AlertBadges struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Total    int `json:"total"`
}

// AlertService derives stock alerts from the stock records and the trailing
// sales window. It has no side effects and is safe to poll; results are
// cached briefly so the dashboard can hammer it.
type AlertService interface {
	ComputeAlerts(scope string) ([]model.StockAlert, error)
	Badges() (*AlertBadges, error)
}

type alertService struct {
	stockRepo repository.StockRepository
	saleRepo  repository.SaleRepository
	buffer    float64
	cacheTTL  time.Duration

	mu    sync.Mutex
	cache map[string]alertCacheEntry
}

// Each scope ages on its own clock so refreshing one never extends the
// freshness of the other.
type alertCacheEntry struct {
	alerts   []model.StockAlert
	cachedAt time.Time
}

func NewAlertService(stockRepo repository.StockRepository, saleRepo repository.SaleRepository, lowStockBuffer float64) AlertService {
	if lowStockBuffer < 1 {
		lowStockBuffer = defaultLowStockBuffer
	}
	return &alertService{
		stockRepo: stockRepo,
		saleRepo:  saleRepo,
		buffer:    lowStockBuffer,
		cacheTTL:  defaultAlertCacheTTL,
		cache:     make(map[string]alertCacheEntry),
	}
}

// classifyUrgency applies the classification rules in priority order, first
// match wins. days is nil when there is no sales velocity.
func classifyUrgency(currentStock, minStock int, days *float64) model.UrgencyLevel {
	if currentStock == 0 {
		return model.UrgencyCritical
	}
	if days != nil && *days <= 3 {
		return model.UrgencyCritical
	}
	if currentStock <= minStock {
		if days != nil && *days <= 7 {
			return model.UrgencyHigh
		}
		// days > 7 or no velocity data at all
		return model.UrgencyMedium
	}
	return model.UrgencyLow
}

// daysUntilOutOfStock returns nil when averageDailySales is zero: "not
// applicable" rather than a division by zero or Infinity.
func daysUntilOutOfStock(currentStock int, averageDailySales float64) *float64 {
	if averageDailySales <= 0 {
		return nil
	}
	days := float64(currentStock) / averageDailySales
	return &days
}

func (s *alertService) ComputeAlerts(scope string) ([]model.StockAlert, error) {
	if scope != AlertScopeLowStock && scope != AlertScopeOutOfStock {
		return nil, apperr.Validationf("unknown alert scope %q", scope)
	}

	s.mu.Lock()
	if entry, ok := s.cache[scope]; ok && time.Since(entry.cachedAt) < s.cacheTTL {
		s.mu.Unlock()
		return entry.alerts, nil
	}
	s.mu.Unlock()

	records, err := s.stockRepo.FindAllWithProduct()
	if err != nil {
		return nil, err
	}

	// Missing sales data degrades each product to "not applicable" instead
	// of failing the whole computation.
	since := time.Now().AddDate(0, 0, -salesWindowDays)
	soldByProduct := map[uuid.UUID]int{}
	if aggregates, err := s.saleRepo.CompletedAggregates(since); err == nil {
		for _, a := range aggregates {
			soldByProduct[a.ProductID] = a.TotalQuantity
		}
	}

	var alerts []model.StockAlert
	for _, record := range records {
		alert, include := s.buildAlert(&record, soldByProduct[record.ProductID], scope)
		if include {
			alerts = append(alerts, alert)
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].UrgencyLevel != alerts[j].UrgencyLevel {
			return alerts[i].UrgencyLevel.Rank() < alerts[j].UrgencyLevel.Rank()
		}
		di, dj := alerts[i].DaysUntilOutOfStock, alerts[j].DaysUntilOutOfStock
		switch {
		case di != nil && dj != nil:
			return *di < *dj
		case di != nil:
			return true
		default:
			return false
		}
	})

	s.mu.Lock()
	s.cache[scope] = alertCacheEntry{alerts: alerts, cachedAt: time.Now()}
	s.mu.Unlock()

	return alerts, nil
}

func (s *alertService) buildAlert(record *model.StockRecord, sold int, scope string) (model.StockAlert, bool) {
	avg := float64(sold) / float64(salesWindowDays)
	days := daysUntilOutOfStock(record.Quantity, avg)
	urgency := classifyUrgency(record.Quantity, record.MinStock, days)

	// Above the soft buffer with no velocity concern: no alert at all.
	if urgency == model.UrgencyLow &&
		float64(record.Quantity) > s.buffer*float64(record.MinStock) {
		return model.StockAlert{}, false
	}

	outOfStock := record.IsOutOfStock()
	switch scope {
	case AlertScopeOutOfStock:
		if !outOfStock {
			return model.StockAlert{}, false
		}
	case AlertScopeLowStock:
		if outOfStock {
			return model.StockAlert{}, false
		}
	}

	alert := model.StockAlert{
		ProductID:           record.ProductID,
		CurrentStock:        record.Quantity,
		MinStock:            record.MinStock,
		MaxStock:            record.MaxStock,
		SalesLast30Days:     sold,
		AverageDailySales:   avg,
		DaysUntilOutOfStock: days,
		UrgencyLevel:        urgency,
		IsOutOfStock:        outOfStock,
	}
	if record.Product != nil {
		alert.ProductName = record.Product.Name
		alert.ProductCode = record.Product.Code
		if record.Product.Category != nil {
			alert.CategoryName = record.Product.Category.Name
		}
	}
	if outOfStock {
		alert.SuggestedReorder = record.SuggestedReorder()
	}
	return alert, true
}

func (s *alertService) Badges() (*AlertBadges, error) {
	low, err := s.ComputeAlerts(AlertScopeLowStock)
	if err != nil {
		return nil, err
	}
	out, err := s.ComputeAlerts(AlertScopeOutOfStock)
	if err != nil {
		return nil, err
	}

	badges := &AlertBadges{Total: len(low) + len(out)}
	for _, a := range append(low, out...) {
		switch a.UrgencyLevel {
		case model.UrgencyCritical:
			badges.Critical++
		case model.UrgencyHigh:
			badges.High++
		}
	}
	return badges, nil
}

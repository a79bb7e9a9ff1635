package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/gym-console/internal/classifier"
)

// KPI счётчики карточек дашборда.
type KPI struct {
	TotalUsers          int             `json:"total_users"`
	Active              int             `json:"active"`
	ExpiringSoon        int             `json:"expiring_soon"`
	Expired             int             `json:"expired"`
	Unknown             int             `json:"unknown"`
	PendingPayment      int             `json:"pending_payment"`
	NewMembersThisMonth int             `json:"new_members_this_month"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	MonthlyRevenue      decimal.Decimal `json:"monthly_revenue"`
}

// Summary ответ дашборда: KPI, короткие списки и гистограмма по тарифам.
type Summary struct {
	KPI       KPI                    `json:"kpi"`
	Recent    classifier.Result      `json:"recent"`
	Histogram []classifier.PlanCount `json:"histogram"`
	FetchedAt time.Time              `json:"fetched_at"`
	Stale     bool                   `json:"stale"`
	LastError string                 `json:"last_error,omitempty"`
}

// Summary собирает сводку по текущему снимку.
func (s *Service) Summary() (Summary, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return Summary{}, err
	}
	r := snap.Result
	sum := Summary{
		KPI: KPI{
			TotalUsers:          r.TotalUsers,
			Active:              len(r.Active),
			ExpiringSoon:        len(r.ExpiringSoon),
			Expired:             len(r.Expired),
			Unknown:             len(r.Unknown),
			PendingPayment:      len(r.PendingPayment),
			NewMembersThisMonth: r.NewMembersThisMonth,
			TotalRevenue:        snap.Revenue.TotalRevenue,
			MonthlyRevenue:      snap.Revenue.MonthlyRevenue,
		},
		Recent:    r.Top(s.topN),
		Histogram: r.Histogram(),
		FetchedAt: snap.FetchedAt,
	}
	if lastErr := s.LastError(); lastErr != nil {
		sum.Stale = true
		sum.LastError = lastErr.Error()
	}
	return sum, nil
}

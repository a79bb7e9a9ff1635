// Package classifier вычисляет статусы членов клуба по сырым данным backend'а.
//
// Classify чистая функция: по списку пользователей, списку тарифов и
// моменту now раскладывает пользователей по категориям
// (активные, истекающие, истёкшие), находит недоплаты, считает
// новых участников за месяц и распределение по тарифам.
package classifier

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/gym-console/internal/models"
)

// ExpiringSoonDays граница категории "скоро истекает" включительно.
const ExpiringSoonDays = 7

const day = 24 * time.Hour

// Status категория пользователя на момент классификации.
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
	// StatusUnknown у последнего платежа нет даты следующей оплаты.
	StatusUnknown Status = "unknown"
	// StatusNoPayments у пользователя нет ни одного платежа.
	StatusNoPayments Status = "no_payments"
)

// Member пользователь с производными полями.
type Member struct {
	User        models.User     `json:"user"`
	Status      Status          `json:"status"`
	DaysLeft    int             `json:"days_left"`
	NextDueDate time.Time       `json:"next_due_date"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
}

// PendingMember пользователь, который заплатил меньше стоимости тарифа.
type PendingMember struct {
	Member
	PendingAmount decimal.Decimal `json:"pending_amount"`
}

// PlanCount столбец гистограммы распределения по тарифам.
type PlanCount struct {
	Plan  string `json:"plan"`
	Count int    `json:"count"`
}

// Result результат классификации.
type Result struct {
	Active              []Member        `json:"active"`
	ExpiringSoon        []Member        `json:"expiring_soon"`
	Expired             []Member        `json:"expired"`
	Unknown             []Member        `json:"unknown"`
	PendingPayment      []PendingMember `json:"pending_payment"`
	Distribution        map[string]int  `json:"distribution"`
	Plans               []string        `json:"plans"`
	NewMembersThisMonth int             `json:"new_members_this_month"`
	TotalUsers          int             `json:"total_users"`
	WithPayments        int             `json:"with_payments"`
}

// DaysLeft количество дней до due, округлённое вверх. Отрицательное значение просрочка.
func DaysLeft(due, now time.Time) int {
	return int(math.Ceil(float64(due.Sub(now)) / float64(day)))
}

// StatusFor переводит количество оставшихся дней в категорию.
func StatusFor(daysLeft int) Status {
	switch {
	case daysLeft < 0:
		return StatusExpired
	case daysLeft <= ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// LatestPayment возвращает самый свежий платёж по PaymentDate.
// Порядок, в котором backend отдал платежи, не важен; при равных датах
// побеждает тот, что стоял раньше. Исходный срез не изменяется.
func LatestPayment(payments []models.Payment) (models.Payment, bool) {
	if len(payments) == 0 {
		return models.Payment{}, false
	}
	sorted := make([]models.Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PaymentDate.After(sorted[j].PaymentDate.Time)
	})
	return sorted[0], true
}

// TotalPaid сумма всех платежей.
func TotalPaid(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Evaluate вычисляет производные поля одного пользователя.
func Evaluate(user models.User, now time.Time) Member {
	m := Member{User: user, TotalPaid: TotalPaid(user.Payments)}
	latest, ok := LatestPayment(user.Payments)
	if !ok {
		m.Status = StatusNoPayments
		return m
	}
	if latest.NextDueDate.IsZero() {
		m.Status = StatusUnknown
		return m
	}
	m.NextDueDate = latest.NextDueDate.Time
	m.DaysLeft = DaysLeft(m.NextDueDate, now)
	m.Status = StatusFor(m.DaysLeft)
	return m
}

// PendingAmount возвращает недоплату пользователя, если она положительна.
func PendingAmount(user models.User, totalPaid decimal.Decimal) (decimal.Decimal, bool) {
	if user.Membership == nil || !totalPaid.LessThan(user.Membership.Fee) {
		return decimal.Zero, false
	}
	return user.Membership.Fee.Sub(totalPaid), true
}

// Classify раскладывает пользователей по категориям относительно now.
func Classify(users []models.User, memberships []models.Membership, now time.Time) Result {
	res := Result{
		Distribution: make(map[string]int, len(memberships)),
		TotalUsers:   len(users),
	}
	for _, m := range memberships {
		if _, seen := res.Distribution[m.Name]; seen {
			continue
		}
		res.Distribution[m.Name] = 0
		res.Plans = append(res.Plans, m.Name)
	}

	for _, user := range users {
		if joinedInMonth(user.JoinDate, now) {
			res.NewMembersThisMonth++
		}
		if len(user.Payments) == 0 {
			continue
		}
		res.WithPayments++

		member := Evaluate(user, now)
		if pending, ok := PendingAmount(user, member.TotalPaid); ok {
			res.PendingPayment = append(res.PendingPayment, PendingMember{Member: member, PendingAmount: pending})
		}

		switch member.Status {
		case StatusExpired:
			res.Expired = append(res.Expired, member)
		case StatusExpiringSoon:
			res.ExpiringSoon = append(res.ExpiringSoon, member)
		case StatusActive:
			res.Active = append(res.Active, member)
		default:
			res.Unknown = append(res.Unknown, member)
		}

		if user.Membership != nil {
			if _, known := res.Distribution[user.Membership.Name]; known {
				res.Distribution[user.Membership.Name]++
			}
		}
	}

	sort.SliceStable(res.Expired, func(i, j int) bool { return res.Expired[i].DaysLeft < res.Expired[j].DaysLeft })
	sort.SliceStable(res.ExpiringSoon, func(i, j int) bool { return res.ExpiringSoon[i].DaysLeft < res.ExpiringSoon[j].DaysLeft })
	sort.SliceStable(res.Active, func(i, j int) bool { return res.Active[i].DaysLeft > res.Active[j].DaysLeft })

	return res
}

// Histogram возвращает распределение по тарифам в порядке списка тарифов.
func (r Result) Histogram() []PlanCount {
	out := make([]PlanCount, 0, len(r.Plans))
	for _, plan := range r.Plans {
		out = append(out, PlanCount{Plan: plan, Count: r.Distribution[plan]})
	}
	return out
}

// Top возвращает копию результата, в которой каждая категория обрезана до n записей.
func (r Result) Top(n int) Result {
	r.Active = head(r.Active, n)
	r.ExpiringSoon = head(r.ExpiringSoon, n)
	r.Expired = head(r.Expired, n)
	r.Unknown = head(r.Unknown, n)
	if n >= 0 && len(r.PendingPayment) > n {
		r.PendingPayment = r.PendingPayment[:n:n]
	}
	return r
}

func head(members []Member, n int) []Member {
	if n < 0 || len(members) <= n {
		return members
	}
	return members[:n:n]
}

// joinedInMonth сравнивает календарные поля даты вступления с месяцем now.
func joinedInMonth(join models.Date, now time.Time) bool {
	if join.IsZero() {
		return false
	}
	return join.Year() == now.Year() && join.Month() == now.Month()
}

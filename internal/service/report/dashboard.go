package report

import (
	"context"
	"sort"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/promo"
	"loyalty-service/internal/domain/report"
	"loyalty-service/internal/domain/transaction"

	"golang.org/x/sync/errgroup"
)

const (
	activityDays = 7
	topN         = 5
)

// Dashboard snapshots the headline numbers for the back office.
func (s *ReportService) Dashboard(ctx context.Context) (report.DashboardStats, error) {
	var (
		customers []customer.Customer
		txns      []transaction.Transaction
		promos    []promo.Promo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { customers, err = s.cols.Customers.List(gctx); return })
	g.Go(func() (err error) { txns, err = s.cols.Transactions.List(gctx); return })
	g.Go(func() (err error) { promos, err = s.cols.Promos.List(gctx); return })
	if err := g.Wait(); err != nil {
		return report.DashboardStats{}, err
	}

	now := s.now().In(s.loc)
	today := now.Format(dayLayout)

	days := make([]string, activityDays)
	visits := make(map[string]int, activityDays)
	for i := range days {
		d := now.AddDate(0, 0, i-activityDays+1).Format(dayLayout)
		days[i] = d
		visits[d] = 0
	}

	stats := report.DashboardStats{TotalCustomers: len(customers)}
	for _, t := range txns {
		stats.TotalRevenue += t.TotalAmount
		day := t.TransactionDate.In(s.loc).Format(dayLayout)
		if day == today {
			stats.TodaysVisits++
		}
		if _, ok := visits[day]; ok {
			visits[day]++
		}
	}
	for _, p := range promos {
		if p.ActiveAt(now) {
			stats.ActivePromos++
		}
	}

	stats.CustomerActivity = make([]report.ActivityRow, 0, activityDays)
	for _, d := range days {
		stats.CustomerActivity = append(stats.CustomerActivity, report.ActivityRow{Date: d, Visits: visits[d]})
	}

	sort.SliceStable(customers, func(i, j int) bool { return customers[i].TotalSpent > customers[j].TotalSpent })
	stats.TopCustomers = customers[:min(topN, len(customers))]

	sort.SliceStable(txns, func(i, j int) bool { return txns[i].TransactionDate.After(txns[j].TransactionDate) })
	stats.RecentTransactions = txns[:min(topN, len(txns))]

	return stats, nil
}

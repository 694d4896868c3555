package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/domain/feedback"
	"loyalty-service/internal/domain/promo"
	"loyalty-service/internal/domain/report"
	"loyalty-service/internal/domain/transaction"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/store"

	"go.uber.org/zap"
)

func newReportService(t *testing.T) (*ReportService, *repository.Collections) {
	t.Helper()
	cols := repository.NewCollections(store.NewMemoryBackend(), nil)
	return NewReportService(cols, time.UTC, zap.NewNop()), cols
}

func addTxn(t *testing.T, cols *repository.Collections, at time.Time, amount float64, earned, used int, promoID string) {
	t.Helper()
	_, err := cols.Transactions.Create(context.Background(), transaction.Transaction{
		CustomerID:          "cust_1",
		TransactionDate:     at,
		TotalAmount:         amount,
		LoyaltyPointsEarned: earned,
		LoyaltyPointsUsed:   used,
		PromoID:             promoID,
		PosTransactionID:    fmt.Sprintf("pos_%d", at.UnixNano()),
	})
	if err != nil {
		t.Fatal(err)
	}
}

var (
	d1 = time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	d2 = time.Date(2024, 7, 11, 0, 0, 0, 0, time.UTC)
)

func TestCustomerActivityGroupsByDay(t *testing.T) {
	svc, cols := newReportService(t)
	// Inserted out of order to check the output is sorted.
	addTxn(t, cols, d2.Add(9*time.Hour), 100, 0, 0, "")
	addTxn(t, cols, d1.Add(8*time.Hour), 100, 0, 0, "")
	addTxn(t, cols, d1.Add(12*time.Hour), 100, 0, 0, "")
	addTxn(t, cols, d2.Add(23*time.Hour), 100, 0, 0, "")
	addTxn(t, cols, d1.Add(20*time.Hour), 100, 0, 0, "")
	addTxn(t, cols, d2.AddDate(0, 0, 1).Add(time.Hour), 100, 0, 0, "")

	r, err := svc.Generate(context.Background(), report.TypeCustomerActivity, "2024-07-10", "2024-07-11")
	if err != nil {
		t.Fatal(err)
	}
	rows := r.Data.([]report.ActivityRow)
	want := []report.ActivityRow{{Date: "2024-07-10", Visits: 3}, {Date: "2024-07-11", Visits: 2}}
	if len(rows) != len(want) || rows[0] != want[0] || rows[1] != want[1] {
		t.Fatalf("rows = %+v, want %+v", rows, want)
	}
	if r.Metrics["total"] != 5 || r.Metrics["totalRevenue"] != 500 {
		t.Fatalf("metrics = %v", r.Metrics)
	}
	sum := 0
	for _, row := range rows {
		sum += row.Visits
	}
	if float64(sum) != r.Metrics["total"] {
		t.Fatalf("sum of visits %d != total %v", sum, r.Metrics["total"])
	}
}

func TestReportIsDeterministic(t *testing.T) {
	svc, cols := newReportService(t)
	for i := 0; i < 20; i++ {
		addTxn(t, cols, d1.Add(time.Duration(i)*7*time.Hour), 10, 1, 0, "")
	}
	var prev []byte
	for i := 0; i < 5; i++ {
		r, err := svc.Generate(context.Background(), report.TypeCustomerActivity, "2024-07-01T00:00:00Z", "2024-07-31T23:59:59Z")
		if err != nil {
			t.Fatal(err)
		}
		b, _ := json.Marshal(r)
		if prev != nil && !bytes.Equal(prev, b) {
			t.Fatalf("output changed between calls:\n%s\n%s", prev, b)
		}
		prev = b
	}
}

func TestPromoEffectiveness(t *testing.T) {
	svc, cols := newReportService(t)
	ctx := context.Background()
	for _, p := range []promo.Promo{
		{ID: "p_jazz", PromoName: "Jazz Night", PromoType: promo.TypeEvent},
		{ID: "p_bday", PromoName: "Birthday", PromoType: promo.TypeBirthday},
		{ID: "p_none", PromoName: "Unused", PromoType: promo.TypeEvent},
	} {
		if _, err := cols.Promos.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	addTxn(t, cols, d1.Add(time.Hour), 200, 0, 0, "p_bday")
	addTxn(t, cols, d1.Add(2*time.Hour), 100, 0, 0, "p_jazz")
	addTxn(t, cols, d1.Add(3*time.Hour), 300, 0, 0, "p_jazz")
	addTxn(t, cols, d1.Add(4*time.Hour), 50, 0, 0, "")
	addTxn(t, cols, d2.AddDate(0, 1, 0), 999, 0, 0, "p_jazz")

	r, err := svc.Generate(ctx, report.TypePromoEffectiveness, "2024-07-10", "2024-07-10")
	if err != nil {
		t.Fatal(err)
	}
	rows := r.Data.([]report.PromoRow)
	want := []report.PromoRow{
		{PromoName: "Jazz Night", Redemptions: 2, Revenue: 400},
		{PromoName: "Birthday", Redemptions: 1, Revenue: 200},
		{PromoName: "Unused"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
	if r.Metrics["total"] != 3 {
		t.Fatalf("total = %v, want 3", r.Metrics["total"])
	}
}

func TestPromoEffectivenessKeepsDeletedPromos(t *testing.T) {
	svc, cols := newReportService(t)
	ctx := context.Background()
	for _, p := range []promo.Promo{
		{ID: "p_jazz", PromoName: "Jazz Night", PromoType: promo.TypeEvent},
		{ID: "p_old", PromoName: "Old Deal", PromoType: promo.TypeEvent},
	} {
		if _, err := cols.Promos.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	addTxn(t, cols, d1.Add(time.Hour), 100, 0, 0, "p_jazz")
	addTxn(t, cols, d1.Add(2*time.Hour), 250, 0, 0, "p_old")
	addTxn(t, cols, d1.Add(3*time.Hour), 150, 0, 0, "p_old")
	addTxn(t, cols, d1.Add(4*time.Hour), 80, 0, 0, "p_never_existed")
	if ok, err := cols.Promos.Delete(ctx, "p_old"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}

	r, err := svc.Generate(ctx, report.TypePromoEffectiveness, "2024-07-10", "2024-07-10")
	if err != nil {
		t.Fatal(err)
	}
	rows := r.Data.([]report.PromoRow)
	want := []report.PromoRow{
		{PromoName: "Jazz Night", Redemptions: 1, Revenue: 100},
		{PromoName: DeletedPromoName, Redemptions: 3, Revenue: 480},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
	// every transaction carrying a promo id is counted
	if r.Metrics["total"] != 4 || r.Metrics["revenue"] != 580 {
		t.Fatalf("metrics = %v", r.Metrics)
	}
}

func TestWindowDayBoundary(t *testing.T) {
	svc, cols := newReportService(t)
	addTxn(t, cols, d2.Add(-time.Nanosecond), 100, 0, 0, "")
	addTxn(t, cols, d2, 100, 0, 0, "")
	addTxn(t, cols, d2.Add(23*time.Hour+59*time.Minute+59*time.Second), 100, 0, 0, "")
	addTxn(t, cols, d2.AddDate(0, 0, 1), 100, 0, 0, "")

	tests := []struct {
		start, end string
		want       float64
	}{
		{"2024-07-11", "2024-07-11", 2},
		{"2024-07-10", "2024-07-11", 3},
		{"2024-07-11", "2024-07-12", 3},
		// a timestamp end is used as given
		{"2024-07-11", "2024-07-11T00:00:00Z", 1},
		{"2024-07-11T00:00:00Z", "2024-07-11T23:59:59Z", 2},
	}
	for _, tc := range tests {
		t.Run(tc.start+"_"+tc.end, func(t *testing.T) {
			r, err := svc.Generate(context.Background(), report.TypeCustomerActivity, tc.start, tc.end)
			if err != nil {
				t.Fatal(err)
			}
			if r.Metrics["total"] != tc.want {
				t.Errorf("total = %v, want %v", r.Metrics["total"], tc.want)
			}
		})
	}
}

func TestLoyaltyUsage(t *testing.T) {
	svc, cols := newReportService(t)
	addTxn(t, cols, d1.Add(time.Hour), 0, 30, 50, "")
	addTxn(t, cols, d1.Add(2*time.Hour), 0, 40, 0, "")

	r, err := svc.Generate(context.Background(), report.TypeLoyaltyUsage, "2024-07-10", "2024-07-10")
	if err != nil {
		t.Fatal(err)
	}
	rows := r.Data.([]report.PointsRow)
	if rows[0] != (report.PointsRow{Type: "Earned", Points: 70}) || rows[1] != (report.PointsRow{Type: "Spent", Points: 50}) {
		t.Fatalf("rows = %+v", rows)
	}
	if r.Metrics["total"] != 20 {
		t.Fatalf("total = %v", r.Metrics["total"])
	}
}

func TestFeedbackHistogram(t *testing.T) {
	svc, cols := newReportService(t)
	ctx := context.Background()

	empty, err := svc.Generate(ctx, report.TypeFeedback, "2024-07-10", "2024-07-10")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Metrics["avg"] != 0 {
		t.Fatalf("avg of nothing = %v", empty.Metrics["avg"])
	}

	for _, r := range []int{5, 4, 5, 1} {
		if _, err := cols.Feedback.Create(ctx, feedback.Feedback{CustomerID: "c", Rating: r, FeedbackDate: d1.Add(time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}
	r, err := svc.Generate(ctx, report.TypeFeedback, "2024-07-10", "2024-07-10")
	if err != nil {
		t.Fatal(err)
	}
	rows := r.Data.([]report.RatingRow)
	want := []int{1, 0, 0, 1, 2}
	for i, n := range want {
		if rows[i].Rating != i+1 || rows[i].Count != n {
			t.Errorf("row %d = %+v", i, rows[i])
		}
	}
	if r.Metrics["avg"] != 3.75 {
		t.Fatalf("avg = %v", r.Metrics["avg"])
	}
}

func TestGenerateErrors(t *testing.T) {
	svc, _ := newReportService(t)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, "revenue-forecast", "2024-07-01", "2024-07-02"); !xerrors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("unknown type err = %v", err)
	}
	for _, w := range [][2]string{{"", "2024-07-01"}, {"yesterday", "2024-07-01"}, {"2024-07-02", "2024-07-01"}} {
		if _, err := svc.Generate(ctx, report.TypeFeedback, w[0], w[1]); !xerrors.Is(err, xerrors.ErrInvalidInput) {
			t.Errorf("window %v err = %v", w, err)
		}
	}
}

func TestDashboard(t *testing.T) {
	svc, cols := newReportService(t)
	ctx := context.Background()
	now := time.Date(2024, 7, 20, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for i := 0; i < 7; i++ {
		if _, err := cols.Customers.Create(ctx, customer.Customer{Name: fmt.Sprint(i), TotalSpent: float64(i * 100)}); err != nil {
			t.Fatal(err)
		}
	}
	addTxn(t, cols, now.Add(-time.Hour), 100, 0, 0, "")
	addTxn(t, cols, now.Add(-2*time.Hour), 200, 0, 0, "")
	addTxn(t, cols, now.AddDate(0, 0, -3), 300, 0, 0, "")
	addTxn(t, cols, now.AddDate(0, 0, -10), 400, 0, 0, "")
	_, _ = cols.Promos.Create(ctx, promo.Promo{PromoName: "on", IsActive: true, StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 1, 0)})
	_, _ = cols.Promos.Create(ctx, promo.Promo{PromoName: "expired", IsActive: true, StartDate: now.AddDate(0, -2, 0), EndDate: now.AddDate(0, -1, 0)})

	stats, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCustomers != 7 || stats.TodaysVisits != 2 || stats.ActivePromos != 1 || stats.TotalRevenue != 1000 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats.CustomerActivity) != 7 || stats.CustomerActivity[6] != (report.ActivityRow{Date: "2024-07-20", Visits: 2}) ||
		stats.CustomerActivity[3] != (report.ActivityRow{Date: "2024-07-17", Visits: 1}) {
		t.Fatalf("activity = %+v", stats.CustomerActivity)
	}
	if len(stats.TopCustomers) != 5 || stats.TopCustomers[0].TotalSpent != 600 {
		t.Fatalf("top = %+v", stats.TopCustomers)
	}
	if len(stats.RecentTransactions) != 4 || stats.RecentTransactions[0].TotalAmount != 100 {
		t.Fatalf("recent = %+v", stats.RecentTransactions)
	}
}

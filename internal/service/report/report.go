// Package report aggregates transactions and feedback over time windows.
package report

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"loyalty-service/internal/domain/feedback"
	"loyalty-service/internal/domain/report"
	"loyalty-service/internal/domain/transaction"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/repository"

	"go.uber.org/zap"
)

const dayLayout = "2006-01-02"

type ReportService struct {
	cols   *repository.Collections
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService groups by calendar day in loc.
func NewReportService(cols *repository.Collections, loc *time.Location, logger *zap.Logger) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{cols: cols, loc: loc, logger: logger, now: time.Now}
}

// window is the inclusive [start, end] filter.
type window struct {
	start, end time.Time
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.start) && !t.After(w.end)
}

// parseWindow accepts RFC 3339 timestamps or plain dates. A plain end date
// covers that whole day.
func (s *ReportService) parseWindow(start, end string) (window, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return window{}, xerrors.Validation("start and end dates are required")
	}
	from, _, err := s.parseBound(start)
	if err != nil {
		return window{}, xerrors.Newf(xerrors.ErrInvalidInput, "invalid start %q", start)
	}
	to, dateOnly, err := s.parseBound(end)
	if err != nil {
		return window{}, xerrors.Newf(xerrors.ErrInvalidInput, "invalid end %q", end)
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		return window{}, xerrors.Validation("end must not be before start")
	}
	return window{start: from, end: to}, nil
}

func (s *ReportService) parseBound(v string) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dayLayout, v, s.loc); err == nil {
		return t, true, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, errors.New("unrecognized time format")
}

// Generate builds one of the four report kinds for [start, end].
func (s *ReportService) Generate(ctx context.Context, typ report.Type, start, end string) (report.Report, error) {
	switch typ {
	case report.TypeCustomerActivity, report.TypePromoEffectiveness, report.TypeLoyaltyUsage, report.TypeFeedback:
	default:
		return report.Report{}, xerrors.NotFound("report type not found")
	}
	w, err := s.parseWindow(start, end)
	if err != nil {
		return report.Report{}, err
	}

	out := report.Report{
		Type:    typ,
		Period:  report.Period{Start: start, End: end},
		Metrics: map[string]float64{},
	}

	if typ == report.TypeFeedback {
		list, err := s.cols.Feedback.Filter(ctx, func(f feedback.Feedback) bool { return w.contains(f.FeedbackDate) })
		if err != nil {
			return report.Report{}, err
		}
		s.feedbackReport(&out, list)
		return out, nil
	}

	txns, err := s.cols.Transactions.Filter(ctx, func(t transaction.Transaction) bool { return w.contains(t.TransactionDate) })
	if err != nil {
		return report.Report{}, err
	}
	switch typ {
	case report.TypeCustomerActivity:
		s.activityReport(&out, txns)
	case report.TypePromoEffectiveness:
		if err := s.promoReport(ctx, &out, txns); err != nil {
			return report.Report{}, err
		}
	case report.TypeLoyaltyUsage:
		loyaltyReport(&out, txns)
	}

	s.logger.Debug("report generated",
		zap.String("type", string(typ)),
		zap.Time("start", w.start),
		zap.Time("end", w.end),
		zap.Int("transactions", len(txns)),
	)
	return out, nil
}

func (s *ReportService) activityReport(out *report.Report, txns []transaction.Transaction) {
	counts := map[string]int{}
	revenue := 0.0
	for _, t := range txns {
		counts[t.TransactionDate.In(s.loc).Format(dayLayout)]++
		revenue += t.TotalAmount
	}
	rows := make([]report.ActivityRow, 0, len(counts))
	for day, n := range counts {
		rows = append(rows, report.ActivityRow{Date: day, Visits: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	out.Data = rows
	out.Metrics["total"] = float64(len(txns))
	out.Metrics["totalRevenue"] = revenue
}

// DeletedPromoName labels the promo report row for transactions whose promo
// no longer exists.
const DeletedPromoName = "(deleted promo)"

func (s *ReportService) promoReport(ctx context.Context, out *report.Report, txns []transaction.Transaction) error {
	promos, err := s.cols.Promos.List(ctx)
	if err != nil {
		return err
	}
	type tally struct {
		n   int
		sum float64
	}
	byPromo := map[string]*tally{}
	for _, t := range txns {
		if t.PromoID == "" {
			continue
		}
		if byPromo[t.PromoID] == nil {
			byPromo[t.PromoID] = &tally{}
		}
		byPromo[t.PromoID].n++
		byPromo[t.PromoID].sum += t.TotalAmount
	}

	rows := make([]report.PromoRow, 0, len(promos))
	total, revenue := 0, 0.0
	for _, p := range promos {
		row := report.PromoRow{PromoName: p.PromoName}
		if t := byPromo[p.ID]; t != nil {
			row.Redemptions, row.Revenue = t.n, t.sum
		}
		total += row.Redemptions
		revenue += row.Revenue
		rows = append(rows, row)
	}
	// Transactions whose promo was deleted share one row.
	orphan := report.PromoRow{PromoName: DeletedPromoName}
	known := make(map[string]bool, len(promos))
	for _, p := range promos {
		known[p.ID] = true
	}
	for id, t := range byPromo {
		if !known[id] {
			orphan.Redemptions += t.n
			orphan.Revenue += t.sum
		}
	}
	if orphan.Redemptions > 0 {
		total += orphan.Redemptions
		revenue += orphan.Revenue
		rows = append(rows, orphan)
	}

	out.Data = rows
	out.Metrics["total"] = float64(total)
	out.Metrics["revenue"] = revenue
	return nil
}

func loyaltyReport(out *report.Report, txns []transaction.Transaction) {
	earned, spent := 0, 0
	for _, t := range txns {
		earned += t.LoyaltyPointsEarned
		spent += t.LoyaltyPointsUsed
	}
	out.Data = []report.PointsRow{
		{Type: "Earned", Points: earned},
		{Type: "Spent", Points: spent},
	}
	out.Metrics["earned"] = float64(earned)
	out.Metrics["spent"] = float64(spent)
	out.Metrics["total"] = float64(earned - spent)
}

func (s *ReportService) feedbackReport(out *report.Report, list []feedback.Feedback) {
	rows := make([]report.RatingRow, 0, feedback.MaxRating-feedback.MinRating+1)
	for r := feedback.MinRating; r <= feedback.MaxRating; r++ {
		rows = append(rows, report.RatingRow{Rating: r})
	}
	sum, n := 0, 0
	for _, f := range list {
		if f.Rating < feedback.MinRating || f.Rating > feedback.MaxRating {
			continue
		}
		rows[f.Rating-feedback.MinRating].Count++
		sum += f.Rating
		n++
	}
	avg := 0.0
	if n > 0 {
		avg = float64(sum) / float64(n)
	}
	out.Data = rows
	out.Metrics["avg"] = avg
	out.Metrics["total"] = float64(n)
}

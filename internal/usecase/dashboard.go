package usecase

import (
	"context"
	"math"
	"time"

	"vmp-edtech-backend/internal/domain"

	"golang.org/x/sync/errgroup"
)

type dashboardUsecase struct {
	userRepo       domain.UserRepository
	companyRepo    domain.CompanyRepository
	courseRepo     domain.CourseRepository
	enrollmentRepo domain.EnrollmentRepository
	credRepo       domain.CredentialRepository
	quoteRepo      domain.QuoteRepository
	evidenceRepo   domain.EvidenceRepository
	now            func() time.Time
}

const (
	defaultConversionDays = 30
	maxConversionDays     = 365
	courseMetricsWorkers  = 8
)

func NewDashboardUsecase(
	ur domain.UserRepository,
	cmr domain.CompanyRepository,
	cr domain.CourseRepository,
	er domain.EnrollmentRepository,
	credr domain.CredentialRepository,
	qr domain.QuoteRepository,
	evr domain.EvidenceRepository,
) domain.DashboardUsecase {
	return &dashboardUsecase{
		userRepo:       ur,
		companyRepo:    cmr,
		courseRepo:     cr,
		enrollmentRepo: er,
		credRepo:       credr,
		quoteRepo:      qr,
		evidenceRepo:   evr,
		now:            time.Now,
	}
}

var quoteStatuses = []domain.QuoteStatus{
	domain.QuotePending,
	domain.QuoteContacted,
	domain.QuoteConverted,
	domain.QuoteRejected,
}

func (uc *dashboardUsecase) GetAdminOverview(ctx context.Context) (*domain.AdminOverview, error) {
	out := &domain.AdminOverview{}
	byStatus := make([]int64, len(quoteStatuses))

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			*dst = n
			return err
		})
	}

	count(&out.Totals.Users, uc.userRepo.Count)
	count(&out.Totals.Companies, uc.companyRepo.Count)
	count(&out.Totals.Courses, uc.courseRepo.Count)
	count(&out.Totals.Enrollments, uc.enrollmentRepo.Count)
	count(&out.Totals.Credentials, uc.credRepo.Count)
	count(&out.Totals.Quotes, uc.quoteRepo.Count)
	count(&out.PendingEvidence, uc.evidenceRepo.CountPending)
	count(&out.CompletedEnrollment, func(ctx context.Context) (int64, error) {
		return uc.enrollmentRepo.CountByStatus(ctx, domain.EnrollmentCompleted)
	})
	for i, status := range quoteStatuses {
		count(&byStatus[i], func(ctx context.Context) (int64, error) {
			return uc.quoteRepo.CountByStatus(ctx, status)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Quotes = make(map[domain.QuoteStatus]int64, len(quoteStatuses))
	for i, status := range quoteStatuses {
		out.Quotes[status] = byStatus[i]
	}
	out.ConversionRate = percent(out.Quotes[domain.QuoteConverted], out.Totals.Quotes)
	return out, nil
}

// percent is 100*part/total rounded to two decimals, 0 when total is 0.
func percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(10000*float64(part)/float64(total)) / 100
}

func (uc *dashboardUsecase) CourseMetrics(ctx context.Context) ([]domain.CourseMetrics, error) {
	courses, err := uc.courseRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CourseMetrics, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(courseMetricsWorkers)
	for i, course := range courses {
		m := &out[i]
		m.ID, m.Name, m.Code = course.ID, course.Name, course.Code
		g.Go(func() error {
			var err error
			if m.TotalEnrollments, err = uc.enrollmentRepo.CountByCourseID(gctx, course.ID); err != nil {
				return err
			}
			if m.CompletedEnrollments, err = uc.enrollmentRepo.CountByCourseAndStatus(gctx, course.ID, domain.EnrollmentCompleted); err != nil {
				return err
			}
			if m.TotalCredentials, err = uc.credRepo.CountByCourseID(gctx, course.ID); err != nil {
				return err
			}
			m.CompletionRate = percent(m.CompletedEnrollments, m.TotalEnrollments)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConversionMetrics buckets the quotes of the last days by creation day
// (UTC) and current status. Days outside 1..365 fall back to 30.
func (uc *dashboardUsecase) ConversionMetrics(ctx context.Context, days int) (*domain.ConversionMetrics, error) {
	if days <= 0 || days > maxConversionDays {
		days = defaultConversionDays
	}
	start := uc.now().AddDate(0, 0, -days)
	quotes, err := uc.quoteRepo.CreatedSince(ctx, start)
	if err != nil {
		return nil, err
	}
	return &domain.ConversionMetrics{PeriodDays: days, StartDate: start, Data: quotesByDay(quotes)}, nil
}

// quotesByDay expects quotes sorted by creation time.
func quotesByDay(quotes []domain.Quote) []domain.DailyQuotes {
	out := []domain.DailyQuotes{}
	for _, q := range quotes {
		day := q.CreatedAt.UTC().Format(time.DateOnly)
		if len(out) == 0 || out[len(out)-1].Date != day {
			out = append(out, domain.DailyQuotes{Date: day})
		}
		bucket := &out[len(out)-1]
		bucket.Total++
		switch q.Status {
		case domain.QuotePending:
			bucket.Pending++
		case domain.QuoteContacted:
			bucket.Contacted++
		case domain.QuoteConverted:
			bucket.Converted++
		case domain.QuoteRejected:
			bucket.Rejected++
		}
	}
	return out
}

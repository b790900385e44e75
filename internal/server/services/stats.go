package services

import (
	"context"
	"math"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/timex"
)

// StatsRange is either a named range or an explicit [Start, End) interval.
// Explicit bounds win when both are set.
type StatsRange struct {
	Name  string
	Start *time.Time
	End   *time.Time
}

// Metric is a count in the requested period compared with the preceding
// period of the same length.
type Metric struct {
	Current  int64   `json:"current"`
	Previous int64   `json:"previous"`
	Trend    float64 `json:"trend"`
}

type Dashboard struct {
	From               time.Time                 `json:"from"`
	To                 time.Time                 `json:"to"`
	Inmates            Metric                    `json:"inmates"`
	Visitors           Metric                    `json:"visitors"`
	Incidents          Metric                    `json:"incidents"`
	Transfers          Metric                    `json:"transfers"`
	Clearances         Metric                    `json:"clearances"`
	Notices            Metric                    `json:"notices"`
	IncidentSeverity   map[models.Severity]int64 `json:"incidentSeverity"`
	VisitorApprovalPct float64                   `json:"visitorApprovalRate"`
	ParoleEligible     int64                     `json:"paroleEligible"`
	ActiveArchives     int64                     `json:"activeArchives"`
}

// StatsService computes dashboard aggregates straight from the store. It
// keeps no state between calls.
type StatsService struct {
	store  docstore.Store
	logger logging.Logger
	now    func() time.Time
}

func NewStatsService(store docstore.Store, logger logging.Logger) *StatsService {
	return &StatsService{store: store, logger: logger.With("module", "stats"), now: time.Now}
}

// Trend is the percentage change from prev to cur, 0 when prev is 0.
func Trend(cur, prev int64) float64 {
	if prev == 0 {
		return 0
	}
	t := float64(cur-prev) / float64(prev) * 100
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	return t
}

// Rate is part/whole as a percentage, 0 when whole is 0.
func Rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func (s *StatsService) resolve(r StatsRange) (timex.Period, error) {
	if r.Start != nil || r.End != nil {
		if r.Start == nil || r.End == nil {
			return timex.Period{}, common.NewValidationError("startDate and endDate must be given together", "startDate", "endDate")
		}
		if !r.End.After(*r.Start) {
			return timex.Period{}, common.NewValidationError("endDate must be after startDate", "endDate")
		}
		return timex.Period{From: *r.Start, To: *r.End}, nil
	}
	p, err := timex.NamedPeriod(r.Name, s.now())
	if err != nil {
		return timex.Period{}, common.NewValidationError(err.Error(), "range")
	}
	return p, nil
}

func inPeriod(p timex.Period, equals map[string]any) docstore.Query {
	// CreatedTo is inclusive; the period end is not.
	from, to := p.From, p.To.Add(-time.Nanosecond)
	return docstore.Query{Equals: equals, CreatedFrom: &from, CreatedTo: &to}
}

func (s *StatsService) count(ctx context.Context, collection string, q docstore.Query) (int64, error) {
	return s.store.Collection(collection).Count(ctx, q)
}

func (s *StatsService) metric(ctx context.Context, kind models.Kind, cur, prev timex.Period) (Metric, error) {
	c, err := s.count(ctx, kind.Collection(), inPeriod(cur, nil))
	if err != nil {
		return Metric{}, err
	}
	p, err := s.count(ctx, kind.Collection(), inPeriod(prev, nil))
	if err != nil {
		return Metric{}, err
	}
	return Metric{Current: c, Previous: p, Trend: Trend(c, p)}, nil
}

// Dashboard returns the aggregates for r. Any authenticated role may call it.
func (s *StatsService) Dashboard(ctx context.Context, actor auth.Actor, r StatsRange) (*Dashboard, error) {
	if !actor.Role.Valid() {
		return nil, forbidden("role %q may not read statistics", actor.Role)
	}
	cur, err := s.resolve(r)
	if err != nil {
		return nil, err
	}
	prev := cur.Previous()

	d := &Dashboard{From: cur.From, To: cur.To, IncidentSeverity: map[models.Severity]int64{}}
	metrics := []struct {
		kind models.Kind
		dst  *Metric
	}{
		{models.KindInmate, &d.Inmates},
		{models.KindVisitor, &d.Visitors},
		{models.KindIncident, &d.Incidents},
		{models.KindTransfer, &d.Transfers},
		{models.KindClearance, &d.Clearances},
		{models.KindNotice, &d.Notices},
	}
	for _, m := range metrics {
		if *m.dst, err = s.metric(ctx, m.kind, cur, prev); err != nil {
			return nil, err
		}
	}

	for _, sev := range models.Severities {
		n, err := s.count(ctx, models.KindIncident.Collection(), inPeriod(cur, map[string]any{"severity": string(sev)}))
		if err != nil {
			return nil, err
		}
		d.IncidentSeverity[sev] = n
	}

	approved, err := s.count(ctx, models.KindVisitor.Collection(), inPeriod(cur, map[string]any{"status": string(models.VisitorApproved)}))
	if err != nil {
		return nil, err
	}
	d.VisitorApprovalPct = Rate(approved, d.Visitors.Current)

	if d.ParoleEligible, err = s.count(ctx, models.KindParoleRecord.Collection(), docstore.Query{
		Equals: map[string]any{"paroleEligible": true},
	}); err != nil {
		return nil, err
	}
	if d.ActiveArchives, err = s.count(ctx, models.CollectionArchives, docstore.Query{
		Equals: map[string]any{"isRestored": false},
	}); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "dashboard computed", "from", cur.From, "to", cur.To)
	return d, nil
}

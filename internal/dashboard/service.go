package dashboard

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Source identifies the agent in responses; the Node backend matches on it.
const Source = "flask-agent"

// Response is the body returned for a dashboard request.
type Response struct {
	Config   Config   `json:"config"`
	Mode     Mode     `json:"mode"`
	Snapshot Snapshot `json:"snapshot"`
	Source   string   `json:"source"`
	Query    string   `json:"query"`
}

// Analyzer turns a request into a dashboard Response.
type Analyzer interface {
	Analyze(ctx context.Context, query string) (*Response, error)
}

// Service builds dashboards from a Store.
type Service struct {
	store     Store
	commenter Commenter
	logger    *logrus.Logger
	now       func() time.Time
}

var _ Analyzer = (*Service)(nil)

// NewService wires a Service. A nil commenter uses the rule based comments.
func NewService(store Store, commenter Commenter, logger *logrus.Logger) *Service {
	if commenter == nil {
		commenter = RuleCommenter{}
	}
	return &Service{store: store, commenter: commenter, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for "today" in the late mail count.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Analyze snapshots the database, classifies the query and lays out the dashboard.
func (s *Service) Analyze(ctx context.Context, query string) (*Response, error) {
	s.logger.Infof("Dashboard request received: %q", query)

	snap := TakeSnapshot(ctx, s.store, s.logger, s.now())
	mode := Classify(query)
	comment := s.commenter.Comment(ctx, mode, snap, query)

	s.logger.WithFields(logrus.Fields{
		"mode":     mode,
		"incoming": snap.Totals.IncomingTotal,
		"late":     snap.IncomingKPIs.Late,
	}).Debug("Dashboard built")

	return &Response{
		Config:   BuildConfig(mode, snap, query, comment),
		Mode:     mode,
		Snapshot: snap,
		Source:   Source,
		Query:    query,
	}, nil
}

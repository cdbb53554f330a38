package backend

import (
	"context"
	"net/http"
	"net/url"
)

// OutgoingStats reads /api/courriers-sortants/stats for a period and range.
func (c *Client) OutgoingStats(ctx context.Context, period, start, end string) (map[string]interface{}, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	q := url.Values{"period": {period}}
	if start != "" {
		q.Set("startDate", start)
	}
	if end != "" {
		q.Set("endDate", end)
	}
	out := map[string]interface{}{}
	if err := c.do(ctx, http.MethodGet, "/api/courriers-sortants/stats", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stat is one counter of the dashboard stats.
type Stat struct {
	Title string `json:"title"`
	Value Flex   `json:"value"`
}

// DashboardStats are the counters shown on the backend dashboard.
type DashboardStats struct {
	Stats []Stat `json:"stats"`
}

// Find returns the counter titled title.
func (d DashboardStats) Find(title string) (int, bool) {
	for _, s := range d.Stats {
		if s.Title == title {
			return int(s.Value), true
		}
	}
	return 0, false
}

// DashboardStats reads /api/dashboard/stats.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var out DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InternalCorrespondence is the body of an internal correspondence creation.
type InternalCorrespondence struct {
	Reference    string `json:"reference"`
	Destinataire string `json:"destinataire"`
	Objet        string `json:"objet"`
	Date         string `json:"date"`
	Fonction     string `json:"fonction"`
	TypeDocument string `json:"type_document"`
	Metadata     string `json:"metadata"`
}

// CreateInternalCorrespondence posts to /api/correspondances-internes.
func (c *Client) CreateInternalCorrespondence(ctx context.Context, ic InternalCorrespondence) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/correspondances-internes", nil, ic, nil)
}

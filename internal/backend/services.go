package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Service is an organisational unit as returned by /api/services.
type Service struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	Nom            string `json:"nom"`
	Description    string `json:"description,omitempty"`
	Actif          Flex   `json:"actif"`
	Ordre          int    `json:"ordre"`
	HasArchivePage Flex   `json:"has_archive_page"`
	ArchiveIcon    string `json:"archive_icon,omitempty"`
	ArchiveColor   string `json:"archive_color,omitempty"`
}

// Slug is the route fragment of the service: lower-case code, '_' as '-'.
func (s Service) Slug() string {
	return Slug(s.Code)
}

// Slug turns a service code into its front end route fragment.
func Slug(code string) string {
	return strings.ReplaceAll(strings.ToLower(code), "_", "-")
}

// WithArchivePage keeps the services that have an archive page.
func WithArchivePage(services []Service) []Service {
	out := []Service{}
	for _, s := range services {
		if s.HasArchivePage == 1 {
			out = append(out, s)
		}
	}
	return out
}

// FindService returns the service with code, if present.
func FindService(services []Service, code string) (Service, bool) {
	for _, s := range services {
		if s.Code == code {
			return s, true
		}
	}
	return Service{}, false
}

// ListServices reads /api/services. A nil active sends no filter.
func (c *Client) ListServices(ctx context.Context, active *bool) ([]Service, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var q url.Values
	if active != nil {
		q = url.Values{"active": {strconv.FormatBool(*active)}}
	}
	var out []Service
	if err := c.do(ctx, http.MethodGet, "/api/services", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewService is the body of a service creation.
type NewService struct {
	Code           string `json:"code"`
	Nom            string `json:"nom"`
	Description    string `json:"description"`
	Actif          int    `json:"actif"`
	Ordre          int    `json:"ordre"`
	HasArchivePage int    `json:"has_archive_page"`
	ArchiveIcon    string `json:"archive_icon"`
	ArchiveColor   string `json:"archive_color"`
}

type idReply struct {
	ID        Flex `json:"id"`
	ArchiveID Flex `json:"archive_id"`
}

func (r idReply) value() int64 {
	if r.ID != 0 {
		return int64(r.ID)
	}
	return int64(r.ArchiveID)
}

// CreateService posts a new service and returns its id. A 409 matches
// shared.ErrConflict through errors.Is.
func (c *Client) CreateService(ctx context.Context, svc NewService) (int64, error) {
	if err := c.authed(); err != nil {
		return 0, err
	}
	var reply idReply
	if err := c.do(ctx, http.MethodPost, "/api/services", nil, svc, &reply); err != nil {
		return 0, err
	}
	return reply.value(), nil
}

// DeleteService removes a service and returns the backend message.
func (c *Client) DeleteService(ctx context.Context, id int64) (string, error) {
	if err := c.authed(); err != nil {
		return "", err
	}
	var reply struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/services/%d", id), nil, nil, &reply); err != nil {
		return "", err
	}
	return reply.Message, nil
}

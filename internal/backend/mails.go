package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Mail is an incoming mail as listed by /api/mails/incoming.
type Mail struct {
	ID                int64  `json:"id"`
	RefCode           string `json:"ref_code"`
	Subject           string `json:"subject"`
	Status            string `json:"status"`
	StatutGlobal      string `json:"statut_global"`
	AssignedService   string `json:"assigned_service"`
	IndexedFunctionID Flex   `json:"indexed_function_id"`
}

// MailFilter narrows /api/mails/incoming. Empty fields are not sent.
type MailFilter struct {
	Status          string
	AssignedService string
}

func (f MailFilter) values() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.AssignedService != "" {
		q.Set("assigned_service", f.AssignedService)
	}
	return q
}

// InStatutGlobal keeps the mails whose statut_global is status.
func InStatutGlobal(mails []Mail, status string) []Mail {
	out := []Mail{}
	for _, m := range mails {
		if m.StatutGlobal == status {
			out = append(out, m)
		}
	}
	return out
}

// IncomingMails lists incoming mails.
func (c *Client) IncomingMails(ctx context.Context, filter MailFilter) ([]Mail, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var out []Mail
	if err := c.do(ctx, http.MethodGet, "/api/mails/incoming", filter.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IncomingMail reads one mail; the API wraps it as {"mail": {...}}.
func (c *Client) IncomingMail(ctx context.Context, id int64) (*Mail, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var reply struct {
		Mail Mail `json:"mail"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/mails/incoming/%d", id), nil, nil, &reply); err != nil {
		return nil, err
	}
	return &reply.Mail, nil
}

// Indexation is the body of an incoming mail update.
type Indexation struct {
	IndexedFunctionID int64  `json:"indexed_function_id"`
	RefCode           string `json:"ref_code"`
	Summary           string `json:"summary"`
	Status            string `json:"status"`
	Urgent            int    `json:"urgent"`
	ResponseRequired  int    `json:"response_required"`
}

// UpdateIncomingMail indexes a mail.
func (c *Client) UpdateIncomingMail(ctx context.Context, id int64, upd Indexation) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/mails/incoming/%d", id), nil, upd, nil)
}

// Disposition puts a mail in treatment for a service.
type Disposition struct {
	AssignedService string `json:"assigned_service"`
	Comment         string `json:"comment"`
}

// Dispose sends a mail to treatment.
func (c *Client) Dispose(ctx context.Context, id int64, d Disposition) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/mails/incoming/%d/disposition", id), nil, d, nil)
}

// ShareRequest is the body of a mail share.
type ShareRequest struct {
	ServiceCodes []string `json:"service_codes"`
	Message      string   `json:"message"`
	ShareType    string   `json:"share_type"`
}

// ShareMail shares a mail with other services.
func (c *Client) ShareMail(ctx context.Context, id int64, req ShareRequest) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/mails/%d/share", id), nil, req, nil)
}

// SharedMail is a mail shared to a service.
type SharedMail struct {
	ID                int64  `json:"id"`
	RefCode           string `json:"ref_code"`
	Subject           string `json:"subject"`
	SharedByName      string `json:"shared_by_name"`
	SharedFromService string `json:"shared_from_service"`
}

// SharedMails lists the mails shared to service.
func (c *Client) SharedMails(ctx context.Context, service string) ([]SharedMail, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var out []SharedMail
	if err := c.do(ctx, http.MethodGet, "/api/mails/shared", url.Values{"service": {service}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

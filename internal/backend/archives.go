package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Archive is an archived document as listed by /api/archives.
type Archive struct {
	ID             int64  `json:"id"`
	Reference      string `json:"reference"`
	IncomingMailID Flex   `json:"incoming_mail_id"`
	ServiceCode    string `json:"service_code"`
	Category       string `json:"category"`
	CreatedAt      string `json:"created_at"`
}

// Created parses created_at in the formats the API emits.
func (a Archive) Created() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, a.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ArchivedSince counts the archives created at or after since.
func ArchivedSince(archives []Archive, since time.Time) int {
	n := 0
	for _, a := range archives {
		if t, ok := a.Created(); ok && !t.Before(since) {
			n++
		}
	}
	return n
}

// ArchiveList decodes both the bare list and the {"archives": [...]} shapes.
type ArchiveList []Archive

func (l *ArchiveList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []Archive
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	var wrapped struct {
		Archives []Archive `json:"archives"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Archives
	return nil
}

// Archives lists the archives of service. A non-positive limit sends none.
func (c *Client) Archives(ctx context.Context, service string, limit int) ([]Archive, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	q := url.Values{}
	if service != "" {
		q.Set("service", service)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out ArchiveList
	if err := c.do(ctx, http.MethodGet, "/api/archives", q, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = ArchiveList{}
	}
	return out, nil
}

// NewArchive is the body of an archive creation from an incoming mail.
type NewArchive struct {
	IncomingMailID int64  `json:"incoming_mail_id"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Classeur       string `json:"classeur"`
	Type           string `json:"type"`
}

// CreateArchive archives a mail and returns the new archive id.
func (c *Client) CreateArchive(ctx context.Context, a NewArchive) (int64, error) {
	if err := c.authed(); err != nil {
		return 0, err
	}
	var reply idReply
	if err := c.do(ctx, http.MethodPost, "/api/archives", nil, a, &reply); err != nil {
		return 0, err
	}
	return reply.value(), nil
}

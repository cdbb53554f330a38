package dashboard

import (
	"context"
	"time"

	"courrierkit/internal/repository"

	"github.com/sirupsen/logrus"
)

const incomingTable = "incoming_mails"

// Candidate column names, tried in order.
var (
	StatusColumns  = []string{"status", "statut", "etat"}
	ServiceColumns = []string{"service", "service_id", "id_service", "idService"}
	DueColumns     = []string{"due_date", "date_limite", "date_echeance", "deadline"}
)

// UnprocessedValues are the statuses of mail still waiting for treatment.
var UnprocessedValues = []string{
	"NON_TRAITE", "NON TRAITE", "NON_TRAITÉ", "NON TRAITÉ",
	"EN_ATTENTE", "EN ATTENTE", "A_TRAITER", "A TRAITER",
	"PENDING", "TO_DO", "TODO", "TO_PROCESS",
}

// DoneValues are the statuses of mail that can no longer be late.
var DoneValues = []string{
	"TRAITE", "TRAITÉ", "TERMINE", "TERMINÉ",
	"CLOS", "CLOSE", "DONE", "PROCESSED",
}

// Store is the read access the snapshot needs.
type Store interface {
	SafeCount(ctx context.Context, table string) int
	DetectColumn(ctx context.Context, table string, candidates ...string) (string, error)
	CountBy(ctx context.Context, table, column string) ([]repository.GroupCount, error)
	CountStatusIn(ctx context.Context, table, statusColumn string, values []string) (int, error)
	CountOverdue(ctx context.Context, table, dueColumn, statusColumn string, doneValues []string, today string) (int, error)
}

// Totals counts the rows of the main tables.
type Totals struct {
	IncomingTotal      int `json:"incoming_total"`
	OutgoingTotal      int `json:"outgoing_total"`
	ArchivesTotal      int `json:"archives_total"`
	NotificationsTotal int `json:"notifications_total"`
}

// StatusCount is one bucket of the incoming mails by status.
type StatusCount struct {
	Status *string `json:"status"`
	Count  int     `json:"count"`
}

// ServiceCount is one bucket of the incoming mails by service.
type ServiceCount struct {
	Service *string `json:"service"`
	Count   int     `json:"count"`
}

// IncomingKPIs are computed on incoming_mails through detected column names.
type IncomingKPIs struct {
	ByStatus    []StatusCount  `json:"by_status"`
	Unprocessed int            `json:"unprocessed"`
	Late        int            `json:"late"`
	ByService   []ServiceCount `json:"by_service"`
}

// Snapshot is everything the widgets and comments are built from.
type Snapshot struct {
	Totals       Totals       `json:"totals"`
	IncomingKPIs IncomingKPIs `json:"incoming_kpis"`
}

// TakeSnapshot reads the totals and incoming KPIs. Failing sub-queries are
// logged and leave their zero value.
func TakeSnapshot(ctx context.Context, store Store, log *logrus.Logger, now time.Time) Snapshot {
	return Snapshot{
		Totals: Totals{
			IncomingTotal:      store.SafeCount(ctx, "incoming_mails"),
			OutgoingTotal:      store.SafeCount(ctx, "courriers_sortants"),
			ArchivesTotal:      store.SafeCount(ctx, "archives"),
			NotificationsTotal: store.SafeCount(ctx, "notifications"),
		},
		IncomingKPIs: incomingKPIs(ctx, store, log, now.Format("2006-01-02")),
	}
}

func incomingKPIs(ctx context.Context, store Store, log *logrus.Logger, today string) IncomingKPIs {
	kpis := IncomingKPIs{ByStatus: []StatusCount{}, ByService: []ServiceCount{}}

	detect := func(candidates []string) string {
		col, err := store.DetectColumn(ctx, incomingTable, candidates...)
		if err != nil {
			log.Warnf("Column detection on %s failed: %v", incomingTable, err)
			return ""
		}
		return col
	}
	statusCol := detect(StatusColumns)
	serviceCol := detect(ServiceColumns)
	dueCol := detect(DueColumns)

	if statusCol != "" {
		if groups, err := store.CountBy(ctx, incomingTable, statusCol); err != nil {
			log.Warnf("by_status on %s failed: %v", incomingTable, err)
		} else {
			for _, g := range groups {
				kpis.ByStatus = append(kpis.ByStatus, StatusCount{Status: g.Key, Count: g.Count})
			}
		}

		if n, err := store.CountStatusIn(ctx, incomingTable, statusCol, UnprocessedValues); err != nil {
			log.Warnf("unprocessed on %s failed: %v", incomingTable, err)
		} else {
			kpis.Unprocessed = n
		}
	}

	if dueCol != "" {
		if n, err := store.CountOverdue(ctx, incomingTable, dueCol, statusCol, DoneValues, today); err != nil {
			log.Warnf("late on %s failed: %v", incomingTable, err)
		} else {
			kpis.Late = n
		}
	}

	if serviceCol != "" {
		if groups, err := store.CountBy(ctx, incomingTable, serviceCol); err != nil {
			log.Warnf("by_service on %s failed: %v", incomingTable, err)
		} else {
			for _, g := range groups {
				kpis.ByService = append(kpis.ByService, ServiceCount{Service: g.Key, Count: g.Count})
			}
		}
	}

	return kpis
}

// topService returns the busiest service bucket, the first one on ties.
func (k IncomingKPIs) topService() (ServiceCount, bool) {
	if len(k.ByService) == 0 {
		return ServiceCount{}, false
	}
	top := k.ByService[0]
	for _, s := range k.ByService[1:] {
		if s.Count > top.Count {
			top = s
		}
	}
	return top, true
}

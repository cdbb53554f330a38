// Package dashboard turns a free text request into a dashboard configuration
// for the courrier front end, backed by counts read from the SQLite file.
package dashboard

import "strings"

// Mode is the intent detected in a dashboard request.
type Mode string

const (
	ModeUrgent      Mode = "urgent_focus"
	ModeLate        Mode = "late_mails"
	ModeUnprocessed Mode = "unprocessed_mails"
	ModePerService  Mode = "per_service"
	ModeWorkflow    Mode = "workflow_kpis"
	ModeArchives    Mode = "archives_focus"
	ModeDefault     Mode = "default"
)

type rule struct {
	mode     Mode
	keywords []string
}

// rules are checked in order, the first one with a matching keyword wins.
var rules = []rule{
	{ModeUrgent, []string{"urgent", "urgence", "prioritaire", "haute priorité", "haute priorite"}},
	{ModeLate, []string{"retard", "en retard", "deadline dépassée", "deadline depassee", "échéance dépassée", "echeance depassee"}},
	{ModeUnprocessed, []string{"non traité", "non traites", "non traités", "pas traité", "pas traites", "non traite"}},
	{ModePerService, []string{"par service", "par département", "par departement", "par unité", "par unite", "par direction", "services", "départements", "departements"}},
	{ModeWorkflow, []string{"kpi", "performance", "workflow", "indicateur", "indicateurs"}},
	{ModeArchives, []string{"archive", "archives", "archivage"}},
}

// Classify maps a request to a Mode by substring match on the lower-cased text.
func Classify(query string) Mode {
	q := strings.ToLower(query)
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(q, k) {
				return r.mode
			}
		}
	}
	return ModeDefault
}

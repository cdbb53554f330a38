package dashboard

import "fmt"

// Size is the responsive column span of a widget per breakpoint.
type Size struct {
	Sm  int `json:"sm"`
	Md  int `json:"md"`
	Lg  int `json:"lg"`
	Xl  int `json:"xl"`
	Xxl int `json:"xxl"`
}

var (
	statsSize = Size{Sm: 6, Md: 4, Lg: 3, Xl: 3, Xxl: 3}
	wideSize  = Size{Sm: 12, Md: 8, Lg: 8, Xl: 8, Xxl: 8}
)

// NavigationTarget is the front end route opened when a widget is clicked.
type NavigationTarget struct {
	RouteName string            `json:"routeName"`
	Query     map[string]string `json:"query"`
}

func navigate(route, from string) *NavigationTarget {
	return &NavigationTarget{RouteName: route, Query: map[string]string{"fromDashboard": from}}
}

// Widget is one tile of the generated dashboard. Fields depend on Type
// ("stats", "table" or "chart").
type Widget struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	Title            string            `json:"title"`
	Icon             string            `json:"icon,omitempty"`
	Color            string            `json:"color,omitempty"`
	CurrentValue     *int              `json:"currentValue,omitempty"`
	Columns          []string          `json:"columns,omitempty"`
	Rows             *[][]interface{}  `json:"rows,omitempty"` // pointer so an empty table still sends []
	DataSource       string            `json:"dataSource,omitempty"`
	ChartType        string            `json:"chartType,omitempty"`
	Size             Size              `json:"size"`
	NavigationTarget *NavigationTarget `json:"navigationTarget,omitempty"`
}

// Config is the dashboard description sent to the front end.
type Config struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AIComment   string   `json:"ai_comment"`
	Widgets     []Widget `json:"widgets"`
}

func stat(id, title, icon, color string, value int, nav *NavigationTarget) Widget {
	return Widget{
		ID:               id,
		Type:             "stats",
		Title:            title,
		Icon:             icon,
		Color:            color,
		CurrentValue:     &value,
		Size:             statsSize,
		NavigationTarget: nav,
	}
}

// BuildConfig lays out the widgets of a mode: the three overview counters,
// then the mode specific tiles.
func BuildConfig(mode Mode, snap Snapshot, query, comment string) Config {
	t, k := snap.Totals, snap.IncomingKPIs

	widgets := []Widget{
		stat("incoming-total", fmt.Sprintf("Courriers Entrants (%d)", t.IncomingTotal), "", "info",
			t.IncomingTotal, navigate("Acquisition", "incoming_total")),
		stat("outgoing-total", fmt.Sprintf("Courriers Sortants (%d)", t.OutgoingTotal), "", "warning",
			t.OutgoingTotal, navigate("Traitement", "outgoing_total")),
		stat("archives-total", fmt.Sprintf("Archives (%d)", t.ArchivesTotal), "", "success",
			t.ArchivesTotal, navigate("Archivage", "archives_total")),
	}

	title := "Dashboard Courrier IA"

	switch mode {
	case ModeUrgent:
		title = "Focus Courriers Urgents"
		widgets = append(widgets,
			stat("urgent-unprocessed", "Courriers urgents / non traités", "cil-warning", "danger",
				k.Unprocessed, navigate("Indexation", "urgent_unprocessed")),
			stat("urgent-late", "Courriers en retard", "cil-clock", "danger",
				k.Late, navigate("Indexation", "urgent_late")),
		)

	case ModeLate:
		title = "Courriers en Retard"
		widgets = append(widgets, stat("late-mails", "Courriers en retard", "cil-clock", "danger",
			k.Late, navigate("Indexation", "late_mails")))

	case ModeUnprocessed:
		title = "Courriers Non Traités"
		widgets = append(widgets, stat("unprocessed-mails", "Courriers non traités", "cil-task", "warning",
			k.Unprocessed, navigate("Indexation", "unprocessed")))

	case ModePerService:
		title = "Charge par Service"
		rows := make([][]interface{}, 0, len(k.ByService))
		for _, s := range k.ByService {
			name := "Non renseigné"
			if s.Service != nil && *s.Service != "" {
				name = *s.Service
			}
			rows = append(rows, []interface{}{name, s.Count})
		}
		widgets = append(widgets, Widget{
			ID:               "incoming-by-service",
			Type:             "table",
			Title:            "Répartition des courriers entrants par service",
			Columns:          []string{"Service", "Nombre"},
			Rows:             &rows,
			Size:             wideSize,
			NavigationTarget: navigate("Indexation", "per_service"),
		})

	case ModeWorkflow:
		title = "Performance & KPIs du Workflow"
		widgets = append(widgets, Widget{
			ID:               "incoming-by-status-chart",
			Type:             "chart",
			Title:            "Répartition des courriers entrants par statut",
			DataSource:       "incoming_by_status",
			ChartType:        "bar",
			Size:             wideSize,
			NavigationTarget: navigate("Indexation", "workflow_kpis"),
		})

	case ModeArchives:
		// archive counters are already in the overview
		title = "Vue Archives"
	}

	return Config{
		Title:       title,
		Description: fmt.Sprintf("Configuration générée par l'agent IA pour la requête : « %s »", query),
		AIComment:   comment,
		Widgets:     widgets,
	}
}

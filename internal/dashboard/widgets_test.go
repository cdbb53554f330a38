package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetIDs(cfg Config) []string {
	ids := make([]string, len(cfg.Widgets))
	for i, w := range cfg.Widgets {
		ids[i] = w.ID
	}
	return ids
}

func TestBuildConfig_Layouts(t *testing.T) {
	snap := sampleSnapshot()
	base := []string{"incoming-total", "outgoing-total", "archives-total"}

	tests := []struct {
		mode  Mode
		title string
		extra []string
	}{
		{ModeUrgent, "Focus Courriers Urgents", []string{"urgent-unprocessed", "urgent-late"}},
		{ModeLate, "Courriers en Retard", []string{"late-mails"}},
		{ModeUnprocessed, "Courriers Non Traités", []string{"unprocessed-mails"}},
		{ModePerService, "Charge par Service", []string{"incoming-by-service"}},
		{ModeWorkflow, "Performance & KPIs du Workflow", []string{"incoming-by-status-chart"}},
		{ModeArchives, "Vue Archives", nil},
		{ModeDefault, "Dashboard Courrier IA", nil},
	}

	for _, tc := range tests {
		t.Run(string(tc.mode), func(t *testing.T) {
			cfg := BuildConfig(tc.mode, snap, "ma requête", "commentaire")
			assert.Equal(t, tc.title, cfg.Title)
			assert.Equal(t, "Configuration générée par l'agent IA pour la requête : « ma requête »", cfg.Description)
			assert.Equal(t, "commentaire", cfg.AIComment)
			assert.Equal(t, append(append([]string{}, base...), tc.extra...), widgetIDs(cfg))
		})
	}
}

func TestBuildConfig_BaseWidgets(t *testing.T) {
	cfg := BuildConfig(ModeDefault, sampleSnapshot(), "", "")

	in := cfg.Widgets[0]
	assert.Equal(t, "stats", in.Type)
	assert.Equal(t, "Courriers Entrants (12)", in.Title)
	assert.Equal(t, 12, *in.CurrentValue)
	assert.Equal(t, "info", in.Color)
	assert.Equal(t, Size{Sm: 6, Md: 4, Lg: 3, Xl: 3, Xxl: 3}, in.Size)
	assert.Equal(t, "Acquisition", in.NavigationTarget.RouteName)
	assert.Equal(t, map[string]string{"fromDashboard": "incoming_total"}, in.NavigationTarget.Query)

	out := cfg.Widgets[1]
	assert.Equal(t, "Courriers Sortants (5)", out.Title)
	assert.Equal(t, "warning", out.Color)
	assert.Equal(t, "Traitement", out.NavigationTarget.RouteName)

	arch := cfg.Widgets[2]
	assert.Equal(t, "Archives (7)", arch.Title)
	assert.Equal(t, "success", arch.Color)
	assert.Equal(t, "Archivage", arch.NavigationTarget.RouteName)
	assert.Equal(t, "archives_total", arch.NavigationTarget.Query["fromDashboard"])
}

func TestBuildConfig_ModeWidgets(t *testing.T) {
	snap := sampleSnapshot()

	t.Run("urgent", func(t *testing.T) {
		cfg := BuildConfig(ModeUrgent, snap, "", "")
		w := cfg.Widgets[3]
		assert.Equal(t, "Courriers urgents / non traités", w.Title)
		assert.Equal(t, "cil-warning", w.Icon)
		assert.Equal(t, "danger", w.Color)
		assert.Equal(t, 6, *w.CurrentValue)
		assert.Equal(t, "Indexation", w.NavigationTarget.RouteName)
		assert.Equal(t, "urgent_unprocessed", w.NavigationTarget.Query["fromDashboard"])

		late := cfg.Widgets[4]
		assert.Equal(t, "cil-clock", late.Icon)
		assert.Equal(t, 3, *late.CurrentValue)
		assert.Equal(t, "urgent_late", late.NavigationTarget.Query["fromDashboard"])
	})

	t.Run("unprocessed", func(t *testing.T) {
		w := BuildConfig(ModeUnprocessed, snap, "", "").Widgets[3]
		assert.Equal(t, "Courriers non traités", w.Title)
		assert.Equal(t, "cil-task", w.Icon)
		assert.Equal(t, "warning", w.Color)
		assert.Equal(t, "unprocessed", w.NavigationTarget.Query["fromDashboard"])
	})

	t.Run("per service table", func(t *testing.T) {
		w := BuildConfig(ModePerService, snap, "", "").Widgets[3]
		assert.Equal(t, "table", w.Type)
		assert.Equal(t, []string{"Service", "Nombre"}, w.Columns)
		require.NotNil(t, w.Rows)
		assert.Equal(t, [][]interface{}{{"RAF", 4}, {"COMPTABLE", 8}, {"Non renseigné", 8}}, *w.Rows)
		assert.Equal(t, Size{Sm: 12, Md: 8, Lg: 8, Xl: 8, Xxl: 8}, w.Size)
		assert.Nil(t, w.CurrentValue)
	})

	t.Run("workflow chart", func(t *testing.T) {
		w := BuildConfig(ModeWorkflow, snap, "", "").Widgets[3]
		assert.Equal(t, "chart", w.Type)
		assert.Equal(t, "incoming_by_status", w.DataSource)
		assert.Equal(t, "bar", w.ChartType)
		assert.Equal(t, "workflow_kpis", w.NavigationTarget.Query["fromDashboard"])
	})
}

func TestBuildConfig_JSONShape(t *testing.T) {
	cfg := BuildConfig(ModePerService, Snapshot{}, "q", "c")
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded struct {
		Widgets []map[string]interface{} `json:"widgets"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Widgets, 4)

	stats := decoded.Widgets[0]
	assert.Equal(t, float64(0), stats["currentValue"], "zero counters are still sent")
	assert.NotContains(t, stats, "rows")
	assert.NotContains(t, stats, "icon")

	table := decoded.Widgets[3]
	assert.Equal(t, []interface{}{}, table["rows"], "empty tables send an empty list")
	assert.NotContains(t, table, "currentValue")
	assert.Contains(t, table, "navigationTarget")
}

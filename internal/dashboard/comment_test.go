package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func sampleSnapshot() Snapshot {
	return Snapshot{
		Totals: Totals{IncomingTotal: 12, OutgoingTotal: 5, ArchivesTotal: 7, NotificationsTotal: 3},
		IncomingKPIs: IncomingKPIs{
			ByStatus:    []StatusCount{{Status: strPtr("NON_TRAITE"), Count: 4}, {Status: nil, Count: 2}},
			Unprocessed: 6,
			Late:        3,
			ByService:   []ServiceCount{{Service: strPtr("RAF"), Count: 4}, {Service: strPtr("COMPTABLE"), Count: 8}, {Service: nil, Count: 8}},
		},
	}
}

func TestRuleBasedComment(t *testing.T) {
	snap := sampleSnapshot()

	tests := []struct {
		mode Mode
		want string
	}{
		{ModeUrgent, "Analyse des urgences : 3 courrier(s) en retard et 6 courrier(s) possiblement non traités. Priorisez ces dossiers pour réduire les risques opérationnels."},
		{ModeLate, "On détecte 3 courrier(s) en retard. Un plan de rattrapage (réaffectation, rappels, relances) peut être nécessaire."},
		{ModeUnprocessed, "Il y a 6 courrier(s) potentiellement non traités. Vérifiez les files d'attente et les responsabilités pour éviter les blocages."},
		{ModePerService, "La répartition par service montre que « COMPTABLE » est le plus sollicité avec 8 courrier(s)."},
		{ModeWorkflow, "Vue globale du workflow : 12 courriers entrants, 5 sortants, 7 archivés. Utilisez ces indicateurs pour piloter la charge et les délais."},
		{ModeArchives, "La base contient 7 élément(s) d'archives. Pensez à vérifier la répartition par type et les délais légaux de conservation."},
		{ModeDefault, "Dashboard standard généré pour la requête « bonjour » : 12 courriers entrants et 5 sortants. Affinez votre requête pour cibler les urgences, les retards ou un service précis."},
	}

	for _, tc := range tests {
		t.Run(string(tc.mode), func(t *testing.T) {
			assert.Equal(t, tc.want, RuleBasedComment(tc.mode, snap, "bonjour"))
		})
	}
}

func TestRuleBasedComment_PerServiceEdgeCases(t *testing.T) {
	t.Run("No service column", func(t *testing.T) {
		got := RuleBasedComment(ModePerService, Snapshot{}, "par service")
		assert.Equal(t, "Impossible de détailler par service : aucune colonne de service détectée dans la table incoming_mails.", got)
	})

	t.Run("Top service without name", func(t *testing.T) {
		snap := Snapshot{IncomingKPIs: IncomingKPIs{ByService: []ServiceCount{{Service: nil, Count: 9}, {Service: strPtr("RAF"), Count: 1}}}}
		got := RuleBasedComment(ModePerService, snap, "par service")
		assert.Equal(t, "La répartition par service montre que « N/A » est le plus sollicité avec 9 courrier(s).", got)
	})
}

func TestRuleCommenter(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, RuleBasedComment(ModeLate, snap, "q"), RuleCommenter{}.Comment(context.Background(), ModeLate, snap, "q"))
}

package dashboard

import (
	"context"
	"fmt"
)

// Commenter writes the short analysis shown above the widgets.
type Commenter interface {
	Comment(ctx context.Context, mode Mode, snap Snapshot, query string) string
}

// RuleCommenter produces the built-in French comments.
type RuleCommenter struct{}

func (RuleCommenter) Comment(_ context.Context, mode Mode, snap Snapshot, query string) string {
	return RuleBasedComment(mode, snap, query)
}

// RuleBasedComment returns the canned comment of a mode filled with the snapshot figures.
func RuleBasedComment(mode Mode, snap Snapshot, query string) string {
	t, k := snap.Totals, snap.IncomingKPIs

	switch mode {
	case ModeUrgent:
		return fmt.Sprintf("Analyse des urgences : %d courrier(s) en retard et %d courrier(s) possiblement non traités. "+
			"Priorisez ces dossiers pour réduire les risques opérationnels.", k.Late, k.Unprocessed)

	case ModeLate:
		return fmt.Sprintf("On détecte %d courrier(s) en retard. "+
			"Un plan de rattrapage (réaffectation, rappels, relances) peut être nécessaire.", k.Late)

	case ModeUnprocessed:
		return fmt.Sprintf("Il y a %d courrier(s) potentiellement non traités. "+
			"Vérifiez les files d'attente et les responsabilités pour éviter les blocages.", k.Unprocessed)

	case ModePerService:
		top, ok := k.topService()
		if !ok {
			return "Impossible de détailler par service : aucune colonne de service détectée dans la table incoming_mails."
		}
		name := "N/A"
		if top.Service != nil && *top.Service != "" {
			name = *top.Service
		}
		return fmt.Sprintf("La répartition par service montre que « %s » est le plus sollicité avec %d courrier(s).", name, top.Count)

	case ModeWorkflow:
		return fmt.Sprintf("Vue globale du workflow : %d courriers entrants, %d sortants, %d archivés. "+
			"Utilisez ces indicateurs pour piloter la charge et les délais.", t.IncomingTotal, t.OutgoingTotal, t.ArchivesTotal)

	case ModeArchives:
		return fmt.Sprintf("La base contient %d élément(s) d'archives. "+
			"Pensez à vérifier la répartition par type et les délais légaux de conservation.", t.ArchivesTotal)
	}

	return fmt.Sprintf("Dashboard standard généré pour la requête « %s » : %d courriers entrants et %d sortants. "+
		"Affinez votre requête pour cibler les urgences, les retards ou un service précis.", query, t.IncomingTotal, t.OutgoingTotal)
}

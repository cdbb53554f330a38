package smoke

import (
	"context"
	"encoding/json"
	"fmt"

	"courrierkit/internal/backend"
)

const internalCounter = "Correspondances Internes"

func (r *Runner) outgoingStats(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}
	now := r.opts.Now()
	start := now.AddDate(0, 0, -6).Format("2006-01-02")
	end := now.Format("2006-01-02")

	stats, err := r.client.OutgoingStats(ctx, "7d", start, end)
	if err != nil {
		return err
	}
	raw, _ := json.Marshal(stats)
	r.out.OK("Route /api/courriers-sortants/stats fonctionne (%s → %s)", start, end)
	r.out.KV("Response", excerpt(string(raw), 300))
	return nil
}

func (r *Runner) internalCount(ctx context.Context) (int, error) {
	stats, err := r.client.DashboardStats(ctx)
	if err != nil {
		return 0, err
	}
	n, ok := stats.Find(internalCounter)
	if !ok {
		return 0, checkFailed("dashboard stats have no %q counter", internalCounter)
	}
	return n, nil
}

func (r *Runner) dashboardCount(ctx context.Context) error {
	if err := r.client.Health(ctx); err != nil {
		r.out.Warn("Health: %v", err)
	} else {
		r.out.OK("Health OK")
	}
	if _, err := r.signIn(ctx); err != nil {
		return err
	}

	before, err := r.internalCount(ctx)
	if err != nil {
		return err
	}
	r.out.KV("Stats avant", before)

	now := r.opts.Now()
	meta, _ := json.Marshal(map[string]bool{"test": true})
	err = r.client.CreateInternalCorrespondence(ctx, backend.InternalCorrespondence{
		Reference:    fmt.Sprintf("TEST-%d", now.Unix()),
		Destinataire: "Test User",
		Objet:        "Test de correspondance interne",
		Date:         now.Format("2006-01-02"),
		Fonction:     "Test",
		TypeDocument: "Lettre",
		Metadata:     string(meta),
	})
	if err != nil {
		return err
	}
	r.out.OK("Correspondance créée avec succès")

	after, err := r.internalCount(ctx)
	if err != nil {
		return err
	}
	r.out.KV("Stats après", after)
	if after != before+1 {
		return checkFailed("comptage incorrect (%d -> %d)", before, after)
	}
	r.out.OK("Comptage mis à jour correctement")
	return nil
}

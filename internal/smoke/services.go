package smoke

import (
	"context"
	"fmt"
	"time"

	"courrierkit/internal/backend"
)

func (r *Runner) login(ctx context.Context) error {
	sess, err := r.client.Login(ctx, r.opts.Email, r.opts.Password)
	if err != nil {
		return err
	}
	r.out.OK("Login réussi!")
	r.out.KV("Token", excerpt(sess.Token, 50))
	r.out.KV("User", orNA(sess.User.Username))
	r.out.KV("Role", orNA(sess.User.RoleName))
	if exp, ok := sess.ExpiresAt(); ok {
		r.out.KV("Expire", exp.Format(time.RFC3339))
	}
	return nil
}

func (r *Runner) printArchiveServices(services []backend.Service, highlight string) {
	for _, s := range services {
		marker := ""
		if highlight != "" && s.Code == highlight {
			marker = " ← NOUVEAU"
		}
		r.out.Info("%s: %s (%s, %s)%s", s.Code, s.Nom, orNA(s.ArchiveIcon), orNA(s.ArchiveColor), marker)
	}
	r.out.Info("Total: %d services", len(services))
}

func (r *Runner) services(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}
	services, err := r.client.ListServices(ctx, ptr(true))
	if err != nil {
		return err
	}
	r.out.OK("Total services actifs: %d", len(services))

	withArchive := backend.WithArchivePage(services)
	r.out.Line("Services avec page archivage: %d", len(withArchive))
	r.printArchiveServices(withArchive, "")
	return nil
}

// Communication is the service created by the create-service scenario.
var Communication = backend.NewService{
	Code:           "COMMUNICATION",
	Nom:            "Communication",
	Description:    "Service de communication et relations publiques",
	Actif:          1,
	Ordre:          20,
	HasArchivePage: 1,
	ArchiveIcon:    "cilSpeech",
	ArchiveColor:   "danger",
}

func (r *Runner) createService(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}

	before, err := r.client.ListServices(ctx, ptr(true))
	if err != nil {
		return err
	}
	r.out.Line("Services actuels avec archivage:")
	r.printArchiveServices(backend.WithArchivePage(before), "")

	id, err := r.client.CreateService(ctx, Communication)
	switch {
	case isConflict(err):
		r.out.Warn("Service %s déjà existant", Communication.Code)
	case err != nil:
		return err
	default:
		r.out.OK("Service créé avec succès (ID %d)", id)
	}

	after, err := r.client.ListServices(ctx, ptr(true))
	if err != nil {
		return err
	}
	r.out.Line("Vérification, services avec archivage:")
	r.printArchiveServices(backend.WithArchivePage(after), Communication.Code)
	if _, ok := backend.FindService(after, Communication.Code); !ok {
		return checkFailed("service %s absent after creation", Communication.Code)
	}
	return nil
}

// LifecycleService is created then deleted by the service-lifecycle scenario.
var LifecycleService = backend.NewService{
	Code:           "SERVICE_TEST_AUTO",
	Nom:            "Service Test Auto-Refresh",
	Description:    "Service pour tester le rafraîchissement automatique",
	Actif:          1,
	Ordre:          99,
	HasArchivePage: 1,
	ArchiveIcon:    "cilBug",
	ArchiveColor:   "warning",
}

func findByID(services []backend.Service, id int64) (backend.Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return backend.Service{}, false
}

func (r *Runner) serviceLifecycle(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}

	id, err := r.client.CreateService(ctx, LifecycleService)
	if err != nil {
		r.out.Warn("Création refusée: %v", err)
		all, listErr := r.client.ListServices(ctx, ptr(false))
		if listErr != nil {
			return listErr
		}
		existing, ok := backend.FindService(all, LifecycleService.Code)
		if !ok {
			return err
		}
		id = existing.ID
		r.out.Warn("Service existant trouvé avec ID: %d", id)
	} else {
		r.out.OK("Service créé avec ID: %d", id)
	}

	services, err := r.client.ListServices(ctx, ptr(true))
	if err != nil {
		return err
	}
	found, ok := findByID(services, id)
	if !ok {
		return checkFailed("service %d not listed", id)
	}
	r.out.OK("Service trouvé: %s (%s)", found.Code, found.Nom)
	r.out.KV("has_archive_page", int(found.HasArchivePage))
	r.out.KV("archive_icon", orNA(found.ArchiveIcon))

	msg, err := r.client.DeleteService(ctx, id)
	if err != nil {
		return err
	}
	r.out.OK("Service supprimé avec succès")
	if msg != "" {
		r.out.KV("Message", msg)
	}

	after, err := r.client.ListServices(ctx, ptr(true))
	if err != nil {
		return err
	}
	if _, still := findByID(after, id); still {
		return checkFailed("service %d still listed after delete", id)
	}
	r.out.OK("Le service a bien été supprimé de la base")
	return nil
}

func (r *Runner) dynamicMenu(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}
	services, err := r.client.ListServices(ctx, ptr(true))
	if err != nil {
		return err
	}
	withArchive := byNom(backend.WithArchivePage(services))
	r.out.Line("Total services actifs: %d, avec page archivage: %d", len(services), len(withArchive))
	if len(withArchive) == 0 {
		r.out.Warn("Aucun service avec archivage activé")
		return nil
	}

	rows := make([][]string, 0, len(withArchive))
	for _, s := range withArchive {
		rows = append(rows, []string{s.Code, s.Nom, orNA(s.ArchiveIcon), orNA(s.ArchiveColor),
			fmt.Sprintf("/finances-administration/archive-%s", s.Slug())})
	}
	r.out.Table([]string{"Code", "Nom", "Icône", "Couleur", "Route"}, rows)

	failures := 0
	probe := withArchive
	if len(probe) > 3 {
		probe = probe[:3]
	}
	for _, s := range probe {
		route := fmt.Sprintf("/api/archives?service=%s&limit=10", s.Code)
		if _, err := r.client.Archives(ctx, s.Code, 10); err != nil {
			failures++
			r.out.Fail("%s: %v", route, err)
			continue
		}
		r.out.OK("%s", route)
	}
	if failures > 0 {
		return checkFailed("%d archive endpoint(s) failed", failures)
	}
	return nil
}

func (r *Runner) serviceDashboard(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}
	services, err := r.client.ListServices(ctx, nil)
	if err != nil {
		return err
	}
	withArchive := backend.WithArchivePage(services)
	if len(withArchive) == 0 {
		return checkFailed("no service with an archive page")
	}
	r.out.OK("%d service(s) avec archivage", len(withArchive))

	svc := withArchive[0]
	slug := svc.Slug()
	r.out.Line("Service: %s (%s)", svc.Nom, svc.Code)
	r.out.KV("Dashboard", fmt.Sprintf("/services/%s/dashboard", slug))
	r.out.KV("Validation", fmt.Sprintf("/services/%s/validation", slug))

	mails, err := r.client.IncomingMails(ctx, backend.MailFilter{AssignedService: svc.Code})
	if err != nil {
		return err
	}
	inTreatment := backend.InStatutGlobal(mails, "En Traitement")
	indexed := backend.InStatutGlobal(mails, "Indexé")

	archives, err := r.client.Archives(ctx, svc.Code, 0)
	if err != nil {
		return err
	}
	now := r.opts.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	r.out.KV("Total courriers", len(mails))
	r.out.KV("En Traitement", len(inTreatment))
	r.out.KV("Indexés", len(indexed))
	r.out.KV("Total archives", len(archives))
	r.out.KV("Archives ce mois", backend.ArchivedSince(archives, firstOfMonth))
	r.out.OK("Données disponibles pour le dashboard %s", svc.Code)
	return nil
}

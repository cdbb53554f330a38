package smoke

import (
	"context"
	"fmt"

	"courrierkit/internal/backend"
)

const (
	shareSource = "COMPTABLE"
	shareTarget = "TRESORERIE"
)

func (r *Runner) share(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}
	mails, err := r.client.IncomingMails(ctx, backend.MailFilter{AssignedService: shareSource})
	if err != nil {
		return err
	}
	r.out.Info("Mails %s: %d", shareSource, len(mails))
	if len(mails) == 0 {
		return checkFailed("no mail assigned to %s", shareSource)
	}

	mail := mails[0]
	r.out.Info("Partage du mail %d avec %s...", mail.ID, shareTarget)
	err = r.client.ShareMail(ctx, mail.ID, backend.ShareRequest{
		ServiceCodes: []string{shareTarget},
		Message:      "Test partage depuis courrierkit",
		ShareType:    "info",
	})
	if err != nil {
		return err
	}
	r.out.OK("Partage réussi!")

	shared, err := r.client.SharedMails(ctx, shareTarget)
	if err != nil {
		return err
	}
	r.out.Info("Courriers partagés vers %s: %d", shareTarget, len(shared))
	if len(shared) == 0 {
		return checkFailed("share of mail %d not visible to %s", mail.ID, shareTarget)
	}
	first := shared[0]
	r.out.KV("Premier courrier partagé", fmt.Sprintf("%s (%s)", orNA(first.RefCode), orNA(first.Subject)))
	return nil
}

func (r *Runner) shared(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}
	shared, err := r.client.SharedMails(ctx, shareTarget)
	if err != nil {
		return err
	}
	r.out.OK("%d courrier(s) partagé(s) vers %s", len(shared), shareTarget)
	for _, s := range shared {
		r.out.Info("%s partagé par %s depuis %s", orNA(s.RefCode), orNA(s.SharedByName), orNA(s.SharedFromService))
	}
	return nil
}

// archiveProvenance indexes a new mail to the first active service, puts it
// in treatment, archives it and checks the archive carries that service.
func (r *Runner) archiveProvenance(ctx context.Context) error {
	if _, err := r.signIn(ctx); err != nil {
		return err
	}

	services, err := r.client.ListServices(ctx, nil)
	if err != nil {
		return err
	}
	var svc backend.Service
	found := false
	for _, s := range services {
		if s.Actif.Bool() {
			svc, found = s, true
			break
		}
	}
	if !found {
		return checkFailed("no active service")
	}
	r.out.OK("Service de test: %s (ID=%d, CODE=%s)", svc.Nom, svc.ID, svc.Code)

	mails, err := r.client.IncomingMails(ctx, backend.MailFilter{Status: "Nouveau"})
	if err != nil {
		return err
	}
	if len(mails) == 0 {
		return checkFailed("no mail with status Nouveau")
	}
	mail := mails[0]
	r.out.OK("Courrier trouvé: ID=%d, Sujet=%q", mail.ID, orNA(mail.Subject))

	ref := mail.RefCode
	if ref == "" {
		ref = fmt.Sprintf("TEST-%d", mail.ID)
	}
	err = r.client.UpdateIncomingMail(ctx, mail.ID, backend.Indexation{
		IndexedFunctionID: svc.ID,
		RefCode:           ref,
		Summary:           fmt.Sprintf("Test indexation service %s", svc.Nom),
		Status:            "Indexé",
	})
	if err != nil {
		return err
	}
	r.out.OK("Indexation OK")

	indexed, err := r.client.IncomingMail(ctx, mail.ID)
	if err != nil {
		return err
	}
	r.out.KV("indexed_function_id", int64(indexed.IndexedFunctionID))
	r.out.KV("assigned_service", orNA(indexed.AssignedService))
	if indexed.AssignedService != svc.Code {
		return checkFailed("assigned_service %q != service code %q", indexed.AssignedService, svc.Code)
	}
	r.out.OK("assigned_service correspond au service indexé")

	err = r.client.Dispose(ctx, mail.ID, backend.Disposition{
		AssignedService: svc.Code,
		Comment:         "Test de flux indexation -> archive",
	})
	if err != nil {
		return err
	}
	r.out.OK("Mise en traitement OK")

	archiveID, err := r.client.CreateArchive(ctx, backend.NewArchive{
		IncomingMailID: mail.ID,
		Category:       "Courrier Entrant",
		Description:    fmt.Sprintf("Test archive provenance %s", svc.Nom),
		Classeur:       fmt.Sprintf("TEST-%s", svc.Code),
		Type:           "Courrier",
	})
	if err != nil {
		return err
	}
	r.out.OK("Archive créée: ID=%d", archiveID)

	archives, err := r.client.Archives(ctx, svc.Code, 0)
	if err != nil {
		return err
	}
	for _, a := range archives {
		if int64(a.IncomingMailID) != mail.ID {
			continue
		}
		r.out.KV("service_code dans archive", orNA(a.ServiceCode))
		if a.ServiceCode != svc.Code {
			return checkFailed("archive provenance %q != indexed service %q", a.ServiceCode, svc.Code)
		}
		r.out.OK("Provenance archive correspond au service indexé: %s", svc.Code)
		return nil
	}
	return checkFailed("no archive for mail %d", mail.ID)
}

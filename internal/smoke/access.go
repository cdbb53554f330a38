package smoke

import (
	"context"
	"fmt"

	"courrierkit/internal/models"
)

// roleAccess picks the first local user of the configured role, logs in
// with the role password and reads the role's service archives.
func (r *Runner) roleAccess(ctx context.Context) error {
	if r.directory == nil {
		return checkFailed("role-access needs the local database")
	}
	role, users, err := r.directory.UsersByRoleName(ctx, r.opts.Role)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return checkFailed("no user with role %s", role.Name)
	}
	r.out.OK("Utilisateurs %s trouvés:", role.Name)
	for _, u := range users {
		r.out.Info("ID: %d, Email: %s", u.ID, models.Deref(u.Email, "N/A"))
	}

	email := models.Deref(users[0].Email, "")
	if email == "" {
		return checkFailed("user %d has no email", users[0].ID)
	}
	client := r.client.WithToken("")
	if _, err := client.Login(ctx, email, r.opts.RolePassword); err != nil {
		return fmt.Errorf("login %s: %w", email, err)
	}
	r.out.OK("Connexion %s OK", email)

	archives, err := client.Archives(ctx, r.opts.RoleService, 5)
	if err != nil {
		return err
	}
	r.out.OK("Accès /api/archives?service=%s: %d archive(s)", r.opts.RoleService, len(archives))
	return nil
}

func (r *Runner) diagnose401(ctx context.Context) error {
	sess, err := r.client.Login(ctx, r.opts.Email, r.opts.Password)
	if err != nil {
		r.out.Fail("Login échoué")
		return err
	}
	r.out.OK("Login réussi! Token: %s", excerpt(sess.Token, 20))
	r.out.KV("Rôle", orNA(sess.Role))
	if sess.Expired(r.opts.Now()) {
		r.out.Warn("Token déjà expiré")
	}

	if _, err := r.client.RBACMe(ctx); err != nil {
		return fmt.Errorf("token invalide ou API inaccessible: %w", err)
	}
	r.out.OK("Token valide! API protégée accessible")
	return nil
}

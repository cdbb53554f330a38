package repository

import (
	"context"
	"testing"

	"courrierkit/internal/models"
	"courrierkit/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddColumns(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	mustExec(t, repo, `CREATE TABLE courriers_sortants (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER, logo TEXT)`)

	outcomes, err := repo.AddColumns(ctx, "courriers_sortants", OutgoingColumns)
	require.NoError(t, err)
	require.Len(t, outcomes, len(OutgoingColumns))

	byName := map[string]ColumnOutcome{}
	for _, o := range outcomes {
		byName[o.Column] = o
	}
	assert.True(t, byName["logo"].Existed)
	assert.False(t, byName["logo"].Added)
	for _, name := range []string{"entete", "pied", "created_at", "updated_at", "validated_by", "validated_at"} {
		assert.True(t, byName[name].Added, name)
		assert.NoError(t, byName[name].Err, name)
	}

	names, err := repo.ColumnNames(ctx, "courriers_sortants")
	require.NoError(t, err)
	assert.Contains(t, names, "validated_at")

	// Second run is a no-op.
	outcomes, err = repo.AddColumns(ctx, "courriers_sortants", OutgoingColumns)
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.True(t, o.Existed, o.Column)
	}
}

func TestAddColumns_Errors(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddColumns(ctx, "courriers_sortants", OutgoingColumns)
	assert.ErrorIs(t, err, shared.ErrTableNotFound)

	mustExec(t, repo, `CREATE TABLE t (id INTEGER)`)
	outcomes, err := repo.AddColumns(ctx, "t", []models.ColumnDef{
		{Name: "bad name", Type: "TEXT"},
		{Name: "good", Type: "TEXT"},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, outcomes[0].Err, shared.ErrInvalidName)
	assert.True(t, outcomes[1].Added, "a failing column must not stop the others")
}

func TestDropTable(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.DropTable(ctx, "courriers_sortants"))
	exists, err := repo.TableExists(ctx, "courriers_sortants")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, repo.DropTable(ctx, "courriers_sortants"), "dropping twice is fine")
	assert.ErrorIs(t, repo.DropTable(ctx, "x; --"), shared.ErrInvalidName)
}

func TestRecreateAuditLogs(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	mustExec(t, repo, `CREATE TABLE audit_logs (id INTEGER PRIMARY KEY, action TEXT)`)

	cols, err := repo.RecreateAuditLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, cols, 13)

	objects, err := repo.Objects(ctx, "index")
	require.NoError(t, err)
	count := 0
	for _, o := range objects {
		if len(o.Name) > len("idx_audit_logs") && o.Name[:len("idx_audit_logs")] == "idx_audit_logs" {
			count++
		}
	}
	assert.Equal(t, 4, count)
}

func TestEnsureRefreshTokens(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsureRefreshTokens(ctx))
	require.NoError(t, repo.EnsureRefreshTokens(ctx))

	names, err := repo.ColumnNames(ctx, "refresh_tokens")
	require.NoError(t, err)
	assert.Contains(t, names, "token_hash")
	assert.Contains(t, names, "revoked_at")
}

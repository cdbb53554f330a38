package repository

import (
	"context"
	"testing"

	"courrierkit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountBy(t *testing.T) {
	repo := setupTestDB(t)
	seedFixtures(t, repo)

	groups, err := repo.CountBy(context.Background(), "incoming_mails", "assigned_service")
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "COMPTABLE", models.Deref(groups[0].Key, ""))
	assert.Equal(t, 2, groups[0].Count)

	var sawNull bool
	for _, g := range groups {
		if g.Key == nil {
			sawNull = true
			assert.Equal(t, 1, g.Count)
		}
	}
	assert.True(t, sawNull)

	_, err = repo.CountBy(context.Background(), "incoming_mails", "bad col")
	assert.Error(t, err)
}

func TestCountStatusIn(t *testing.T) {
	repo := setupTestDB(t)
	seedFixtures(t, repo)

	// NON_TRAITE plus the NULL status row.
	n, err := repo.CountStatusIn(context.Background(), "incoming_mails", "status", []string{"non_traite", "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountOverdue(t *testing.T) {
	repo := setupTestDB(t)
	seedFixtures(t, repo)
	ctx := context.Background()

	// Due before 2025-03-10: mails 1, 2 and 4. Mail 2 is done.
	n, err := repo.CountOverdue(ctx, "incoming_mails", "due_date", "status", []string{"TRAITE", "DONE"}, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CountOverdue(ctx, "incoming_mails", "due_date", "", nil, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.CountOverdue(ctx, "incoming_mails", "due_date", "status", []string{"TRAITE"}, "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

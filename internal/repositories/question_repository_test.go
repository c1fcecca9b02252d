package repositories_test

import (
	"testing"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAcceptedAnswer_VersionGuard(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewQuestionRepository()
	asker := testutil.CreateUser(t, db, "asker")
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	q := testutil.CreateQuestion(t, db, asker.ID)
	a1 := testutil.CreateAnswer(t, db, q.ID, alice.ID)
	a2 := testutil.CreateAnswer(t, db, q.ID, bob.ID)

	read, err := repo.FindByID(db, q.ID)
	require.NoError(t, err)
	require.Equal(t, 0, read.Version)

	require.NoError(t, repo.SetAcceptedAnswer(db, q.ID, &a1.ID, read.Version))

	// второй писатель прочитал ту же версию
	err = repo.SetAcceptedAnswer(db, q.ID, &a2.ID, read.Version)
	assert.ErrorIs(t, err, repositories.ErrStaleVersion)

	stored, err := repo.FindByID(db, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.True(t, stored.IsAccepted(a1.ID), "stale writer must not overwrite the accepted answer")

	require.NoError(t, repo.SetAcceptedAnswer(db, q.ID, nil, stored.Version))
	stored, err = repo.FindByID(db, q.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSolved())
	assert.Equal(t, 2, stored.Version)
}

func TestSetAcceptedAnswer_MissingQuestion(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewQuestionRepository()

	id := "answer"
	err := repo.SetAcceptedAnswer(db, "missing", &id, 0)
	assert.ErrorIs(t, err, repositories.ErrStaleVersion)

	var count int64
	require.NoError(t, db.Model(&models.Question{}).Count(&count).Error)
	assert.Zero(t, count)
}

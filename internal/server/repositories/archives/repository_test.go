package archives

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() *DocumentRepository {
	return NewDocumentRepository(docstore.NewMemoryStore().Collection(models.CollectionArchives))
}

func TestCreate_RejectsUnknownEntityType(t *testing.T) {
	_, err := newRepo().Create(context.Background(), &models.ArchiveRecord{EntityType: "spaceship"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = newRepo().Create(context.Background(), &models.ArchiveRecord{EntityType: models.KindParoleRecord})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCreateGet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()

	rec, err := repo.Create(ctx, &models.ArchiveRecord{
		EntityType: models.KindInmate,
		OriginalID: "i1",
		Data:       map[string]any{"firstName": "Abebe"},
		DeletedBy:  "u1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.IsRestored)
	assert.Nil(t, rec.RestoredAt)
	assert.Nil(t, rec.RestoredBy)
	assert.Equal(t, "", rec.DeletionReason)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Abebe", got.Data["firstName"])
}

func TestMarkRestored_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	rec, err := repo.Create(ctx, &models.ArchiveRecord{EntityType: models.KindNotice, OriginalID: "n1"})
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	done, err := repo.MarkRestored(ctx, rec.ID, "u2", at)
	require.NoError(t, err)
	assert.True(t, done.IsRestored)
	require.NotNil(t, done.RestoredBy)
	assert.Equal(t, "u2", *done.RestoredBy)
	require.NotNil(t, done.RestoredAt)
	assert.True(t, at.Equal(*done.RestoredAt))

	_, err = repo.MarkRestored(ctx, rec.ID, "u3", at)
	assert.ErrorIs(t, err, common.ErrAlreadyRestored)

	_, err = repo.MarkRestored(ctx, "missing", "u3", at)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMarkRestored_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	rec, err := repo.Create(ctx, &models.ArchiveRecord{EntityType: models.KindReport, OriginalID: "r1"})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.MarkRestored(ctx, rec.ID, "u", time.Now()); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

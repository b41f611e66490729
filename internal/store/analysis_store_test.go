package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/plantasking/internal/domain"
)

func TestAnalysisStoreCreate(t *testing.T) {
	d := openTestDB(t)
	plant, err := NewPlantStore(d).Create(context.Background(), "plant/a.jpg", "image/jpeg")
	require.NoError(t, err)

	store := NewAnalysisStore(d)
	a, err := store.Create(context.Background(), plant.ID, domain.MoodSad, "Regue mais", "")
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.Equal(t, plant.ID, a.PlantID)
	assert.Equal(t, domain.MoodSad, a.Mood)
	assert.Equal(t, "Regue mais", a.Recommendation)
	assert.Empty(t, a.FailureKind)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestAnalysisStoreCreate_UnknownPlant(t *testing.T) {
	store := NewAnalysisStore(openTestDB(t))

	_, err := store.Create(context.Background(), 404, domain.MoodHappy, "", "")
	assert.Error(t, err)
}

func TestAnalysisStoreLatestAndList(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	plant, err := NewPlantStore(d).Create(ctx, "plant/a.jpg", "image/jpeg")
	require.NoError(t, err)

	store := NewAnalysisStore(d)

	latest, err := store.LatestByPlantID(ctx, plant.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = store.Create(ctx, plant.ID, domain.MoodUnknown, "Sem resposta", "network")
	require.NoError(t, err)
	second, err := store.Create(ctx, plant.ID, domain.MoodHappy, "Continue assim", "")
	require.NoError(t, err)

	latest, err = store.LatestByPlantID(ctx, plant.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	all, err := store.ListByPlantID(ctx, plant.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.MoodHappy, all[0].Mood)
	assert.Equal(t, "network", all[1].FailureKind)
}

func TestAnalysisStoreDeleteByPlantID(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	plants := NewPlantStore(d)
	a, err := plants.Create(ctx, "plant/a.jpg", "image/jpeg")
	require.NoError(t, err)
	b, err := plants.Create(ctx, "plant/b.jpg", "image/jpeg")
	require.NoError(t, err)

	store := NewAnalysisStore(d)
	_, err = store.Create(ctx, a.ID, domain.MoodSick, "Troque o vaso", "")
	require.NoError(t, err)
	_, err = store.Create(ctx, b.ID, domain.MoodHappy, "", "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteByPlantID(ctx, a.ID))

	left, err := store.ListByPlantID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	kept, err := store.ListByPlantID(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestAnalysisStoreCascadeOnPlantDelete(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	plants := NewPlantStore(d)
	plant, err := plants.Create(ctx, "plant/a.jpg", "image/jpeg")
	require.NoError(t, err)

	store := NewAnalysisStore(d)
	_, err = store.Create(ctx, plant.ID, domain.MoodSick, "", "")
	require.NoError(t, err)

	require.NoError(t, plants.Delete(ctx, plant.ID))

	left, err := store.ListByPlantID(ctx, plant.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

package repository

import (
	"context"
	"testing"

	"posekit/internal/model"
	"posekit/internal/pose"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPose(id, slug string) *model.Pose {
	return &model.Pose{
		ID:         id,
		Slug:       slug,
		Title:      "Pose " + id,
		Difficulty: model.DifficultyEasy,
		Keypoints:  pose.PoseData{Keypoints: []pose.Keypoint{}, Skeleton: []pose.Bone{}, Width: 100, Height: 100},
	}
}

func TestMemoryPoses_CreateConflictsOnSlug(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Poses()

	require.NoError(t, repo.Create(ctx, newPose("a", "same")))
	err := repo.Create(ctx, newPose("b", "same"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryPoses_GetMissing(t *testing.T) {
	_, err := NewMemoryStore().Poses().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPoses_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := store.Poses()

	tags, err := store.Catalog().EnsureTags(ctx, []string{"yoga", "portrait"})
	require.NoError(t, err)

	for i, id := range []string{"p1", "p2", "p3"} {
		p := newPose(id, id)
		if i < 2 {
			p.Tags = []model.Tag{tags[1]} // yoga
		}
		if i == 2 {
			p.Difficulty = model.DifficultyHard
		}
		require.NoError(t, repo.Create(ctx, p))
	}

	poses, total, err := repo.List(ctx, PoseFilter{Tag: "yoga"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, poses, 2)
	// новые сначала
	assert.Equal(t, "p2", poses[0].ID)

	poses, total, err = repo.List(ctx, PoseFilter{Difficulty: model.DifficultyHard})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "p3", poses[0].ID)

	poses, total, err = repo.List(ctx, PoseFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, poses, 1)
	assert.Equal(t, "p1", poses[0].ID)
}

func TestMemoryPoses_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Poses()
	require.NoError(t, repo.Create(ctx, newPose("a", "a")))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	got.Title = "changed"

	again, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Pose a", again.Title)
}

func TestMemoryPoses_AssetsAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Poses()
	require.NoError(t, repo.Create(ctx, newPose("a", "a")))

	require.NoError(t, repo.AddAsset(ctx, &model.Asset{ID: "img", PoseID: "a", Kind: model.AssetKindImage}))
	assert.ErrorIs(t, repo.AddAsset(ctx, &model.Asset{ID: "x", PoseID: "missing"}), ErrNotFound)

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got.Assets, 1)

	// обновление не теряет файлы
	got.Title = "renamed"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got.Assets, 1)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), ErrNotFound)
}

func TestMemoryCatalog_ThemeDeleteDetachesPoses(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	catalog := store.Catalog()

	require.NoError(t, catalog.CreateTheme(ctx, &model.Theme{ID: "t1", Name: "Wedding", Slug: "wedding"}))
	assert.ErrorIs(t, catalog.CreateTheme(ctx, &model.Theme{ID: "t2", Name: "Wedding", Slug: "wedding-2"}), ErrConflict)

	p := newPose("a", "a")
	themeID := "t1"
	p.ThemeID = &themeID
	require.NoError(t, store.Poses().Create(ctx, p))

	got, err := store.Poses().GetByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got.Theme)
	assert.Equal(t, "Wedding", got.Theme.Name)

	require.NoError(t, catalog.DeleteTheme(ctx, "t1"))
	got, err = store.Poses().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got.ThemeID)
	assert.Nil(t, got.Theme)
}

func TestMemoryCatalog_EnsureTagsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	catalog := NewMemoryStore().Catalog()

	first, err := catalog.EnsureTags(ctx, []string{"b", "a", "b"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Name)

	second, err := catalog.EnsureTags(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	assert.ErrorIs(t, catalog.CreateTag(ctx, &model.Tag{Name: "a"}), ErrConflict)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	require.NoError(t, users.Create(ctx, &model.User{ID: "u1", Email: "a@example.com", Role: model.RoleViewer}))
	assert.ErrorIs(t, users.Create(ctx, &model.User{ID: "u2", Email: "a@example.com"}), ErrConflict)

	got, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	require.NoError(t, users.UpdateRole(ctx, "u1", model.RoleEditor))
	got, err = users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, got.Role)

	assert.ErrorIs(t, users.UpdateRole(ctx, "nope", model.RoleAdmin), ErrNotFound)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stuti/database/dbtest"
	"stuti/models"
	"stuti/repository"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*repository.Store, *models.Member) {
	t.Helper()
	store := repository.NewStore(dbtest.New(t))

	member := &models.Member{
		Email:    "writer@example.com",
		Password: "hash",
		Nickname: "writer",
		Role:     models.RoleMember,
	}
	require.NoError(t, store.Members.Create(context.Background(), member))
	return store, member
}

func feedIDs(feeds []models.Feed) []int64 {
	return lo.Map(feeds, func(f models.Feed, _ int) int64 { return f.ID })
}

func TestFeedFindPage(t *testing.T) {
	ctx := context.Background()
	store, member := newStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Feeds.Create(ctx, &models.Feed{Content: fmt.Sprintf("post %d", i), MemberID: member.ID}))
	}

	tests := []struct {
		name     string
		cursor   repository.Cursor
		expected []int64
	}{
		{
			name:     "no cursor",
			cursor:   repository.Cursor{Limit: 2},
			expected: []int64{5, 4},
		},
		{
			name:     "below cursor",
			cursor:   repository.Cursor{Before: lo.ToPtr(int64(4)), Limit: 2},
			expected: []int64{3, 2},
		},
		{
			name:     "short last page",
			cursor:   repository.Cursor{Before: lo.ToPtr(int64(2)), Limit: 3},
			expected: []int64{1},
		},
		{
			name:     "past the end",
			cursor:   repository.Cursor{Before: lo.ToPtr(int64(1)), Limit: 3},
			expected: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feeds, err := store.Feeds.FindPage(ctx, tt.cursor)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, feedIDs(feeds))
		})
	}
}

func TestFeedFindPageByMember(t *testing.T) {
	ctx := context.Background()
	store, member := newStore(t)

	other := &models.Member{Email: "other@example.com", Password: "hash", Nickname: "other", Role: models.RoleMember}
	require.NoError(t, store.Members.Create(ctx, other))

	for i := 0; i < 4; i++ {
		owner := member.ID
		if i%2 == 1 {
			owner = other.ID
		}
		require.NoError(t, store.Feeds.Create(ctx, &models.Feed{Content: "post", MemberID: owner}))
	}

	feeds, err := store.Feeds.FindPageByMember(ctx, other.ID, repository.Cursor{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 2}, feedIDs(feeds))
}

func TestFindByIDNotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Feeds.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.Members.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	store, member := newStore(t)

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *repository.Store) error {
		feed := &models.Feed{Content: "doomed", MemberID: member.ID}
		require.NoError(t, tx.Feeds.Create(ctx, feed))
		require.NoError(t, tx.FeedImages.Create(ctx, &models.FeedImage{FeedID: feed.ID, ImageURL: "http://img/a.png"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	feeds, err := store.Feeds.FindPage(ctx, repository.Cursor{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, feeds)

	images, err := store.FeedImages.FindByFeedIDs(ctx, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestNicknameExistsExcludesSelf(t *testing.T) {
	ctx := context.Background()
	store, member := newStore(t)

	taken, err := store.Members.ExistsByNickname(ctx, "writer", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = store.Members.ExistsByNickname(ctx, "writer", member.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestStudyGroupMemberCount(t *testing.T) {
	ctx := context.Background()
	store, member := newStore(t)

	group := &models.StudyGroup{Title: "go", Description: "go study", Topic: models.TopicBackend, Region: models.RegionSeoul, NumberOfRecruits: 3, LeaderID: member.ID}
	require.NoError(t, store.StudyGroups.Create(ctx, group))
	require.NoError(t, store.StudyGroupMembers.Create(ctx, &models.StudyGroupMember{StudyGroupID: group.ID, MemberID: member.ID, Role: models.StudyLeader}))

	joined, err := store.StudyGroupMembers.Exists(ctx, group.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, joined)

	count, err := store.StudyGroupMembers.CountByRoles(ctx, group.ID, models.StudyApplicant, models.StudyMember)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = store.StudyGroupMembers.CountByRoles(ctx, group.ID, models.StudyLeader)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

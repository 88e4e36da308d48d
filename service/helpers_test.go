package service_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"stuti/auth"
	"stuti/database/dbtest"
	"stuti/likes"
	"stuti/models"
	"stuti/repository"
	"stuti/service"
	"stuti/storage"
	"stuti/storage/storagetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const maxUpload = 1 << 20

type fixture struct {
	store     *repository.Store
	images    *storagetest.Memory
	removed   *storagetest.Recorder
	likes     *likes.Store
	redis     *redis.Client
	feeds     *service.FeedService
	comments  *service.CommentService
	members   *service.MemberService
	groups    *service.StudyGroupService
	questions *service.QuestionService
	member    *models.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewStore(dbtest.New(t))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	images := storagetest.NewMemory()
	removed := &storagetest.Recorder{}
	likeStore := likes.NewStore(rdb)

	f := &fixture{
		store:     store,
		images:    images,
		removed:   removed,
		likes:     likeStore,
		redis:     rdb,
		feeds:     service.NewFeedService(store, images, removed, likeStore, maxUpload),
		comments:  service.NewCommentService(store),
		members:   service.NewMemberService(store, auth.NewTokenManager("test-secret", time.Hour), auth.NewBlacklist(rdb)),
		groups:    service.NewStudyGroupService(store, images, removed, maxUpload),
		questions: service.NewQuestionService(store),
	}
	f.member = f.createMember(t, "testmember@gmail.com", "testMember")
	return f
}

func (f *fixture) createMember(t *testing.T, email, nickname string) *models.Member {
	t.Helper()
	member := &models.Member{
		Email:           email,
		Password:        "hash",
		Nickname:        nickname,
		Career:          models.CareerJunior,
		ProfileImageURL: "www.test.com",
		GithubURL:       "www.test.com",
		BlogURL:         "www.blog.com",
		Role:            models.RoleMember,
		Field:           models.FieldBackend,
		Mbti:            "ENFJ",
	}
	require.NoError(t, f.store.Members.Create(context.Background(), member))
	return member
}

// seedPosts inserts n posts, each with one image, bypassing the service.
func (f *fixture) seedPosts(t *testing.T, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		feed := &models.Feed{Content: fmt.Sprintf("post %d", i), MemberID: f.member.ID}
		require.NoError(t, f.store.Feeds.Create(ctx, feed))
		require.NoError(t, f.store.FeedImages.Create(ctx, &models.FeedImage{FeedID: feed.ID, ImageURL: fmt.Sprintf("%dtest.jpg", i)}))
	}
}

func (f *fixture) feedImages(t *testing.T, postID int64) []models.FeedImage {
	t.Helper()
	images, err := f.store.FeedImages.FindByFeedID(context.Background(), postID)
	require.NoError(t, err)
	return images
}

func image(name string) *storage.Image {
	body := []byte("\x89PNG fake image bytes for " + name)
	return &storage.Image{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}

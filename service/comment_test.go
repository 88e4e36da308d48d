package service_test

import (
	"context"
	"testing"

	"stuti/apperr"
	"stuti/service"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) post(t *testing.T) int64 {
	t.Helper()
	id, err := f.feeds.RegisterPost(context.Background(), service.PostCreate{MemberID: f.member.ID, Content: "post"})
	require.NoError(t, err)
	return id
}

func (f *fixture) comment(t *testing.T, postID int64, parentID *int64, content string) int64 {
	t.Helper()
	id, err := f.comments.CreateComment(context.Background(), service.CommentCreate{
		MemberID: f.member.ID,
		PostID:   postID,
		ParentID: parentID,
		Content:  content,
	})
	require.NoError(t, err)
	return id
}

func TestCreateComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	postID := f.post(t)

	parent := f.comment(t, postID, nil, "parent")
	reply := f.comment(t, postID, &parent, "reply")
	nested := f.comment(t, postID, &reply, "reply to reply")

	got, err := f.store.FeedComments.FindByID(ctx, nested)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent, *got.ParentID)
}

func TestCreateCommentErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	postID := f.post(t)
	otherPost := f.post(t)
	foreign := f.comment(t, otherPost, nil, "elsewhere")

	_, err := f.comments.CreateComment(ctx, service.CommentCreate{MemberID: f.member.ID, PostID: 999, Content: "c"})
	assert.ErrorIs(t, err, apperr.New(apperr.PostNotFound))

	_, err = f.comments.CreateComment(ctx, service.CommentCreate{MemberID: f.member.ID, PostID: postID, ParentID: lo.ToPtr[int64](999), Content: "c"})
	assert.ErrorIs(t, err, apperr.New(apperr.ParentCommentNotFound))

	_, err = f.comments.CreateComment(ctx, service.CommentCreate{MemberID: f.member.ID, PostID: postID, ParentID: &foreign, Content: "c"})
	assert.ErrorIs(t, err, apperr.New(apperr.ParentCommentNotFound))
}

func TestUpdateComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.createMember(t, "other@gmail.com", "other")
	postID := f.post(t)
	commentID := f.comment(t, postID, nil, "before")

	_, err := f.comments.UpdateComment(ctx, service.CommentChange{MemberID: f.member.ID, PostID: postID, CommentID: commentID, Content: "after"})
	require.NoError(t, err)
	got, err := f.store.FeedComments.FindByID(ctx, commentID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)

	_, err = f.comments.UpdateComment(ctx, service.CommentChange{MemberID: other.ID, PostID: postID, CommentID: commentID, Content: "x"})
	assert.ErrorIs(t, err, apperr.New(apperr.NotMatchWriter))

	_, err = f.comments.UpdateComment(ctx, service.CommentChange{MemberID: f.member.ID, PostID: postID, CommentID: 999, Content: "x"})
	assert.ErrorIs(t, err, apperr.New(apperr.CommentNotFound))
}

func TestDeleteCommentRemovesReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	postID := f.post(t)
	parent := f.comment(t, postID, nil, "parent")
	f.comment(t, postID, &parent, "reply")
	kept := f.comment(t, postID, nil, "kept")

	require.NoError(t, f.comments.DeleteComment(ctx, f.member.ID, postID, parent))

	resp, err := f.comments.GetComments(ctx, postID, nil, 10)
	require.NoError(t, err)
	require.Len(t, resp.Comments, 1)
	assert.Equal(t, kept, resp.Comments[0].CommentID)
	assert.Empty(t, resp.Comments[0].Replies)
}

func TestGetComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	postID := f.post(t)

	first := f.comment(t, postID, nil, "first")
	r1 := f.comment(t, postID, &first, "r1")
	second := f.comment(t, postID, nil, "second")
	r2 := f.comment(t, postID, &first, "r2")
	third := f.comment(t, postID, nil, "third")

	resp, err := f.comments.GetComments(ctx, postID, nil, 2)
	require.NoError(t, err)
	assert.True(t, resp.HasNext)
	assert.Equal(t, []int64{third, second}, lo.Map(resp.Comments, func(c service.CommentResponse, _ int) int64 { return c.CommentID }))

	resp, err = f.comments.GetComments(ctx, postID, &second, 2)
	require.NoError(t, err)
	assert.False(t, resp.HasNext)
	require.Len(t, resp.Comments, 1)
	assert.Equal(t, first, resp.Comments[0].CommentID)
	assert.Equal(t, []int64{r1, r2}, lo.Map(resp.Comments[0].Replies, func(c service.CommentResponse, _ int) int64 { return c.CommentID }))
	assert.Equal(t, f.member.Nickname, resp.Comments[0].Replies[0].Writer.Nickname)

	_, err = f.comments.GetComments(ctx, 999, nil, 2)
	assert.ErrorIs(t, err, apperr.New(apperr.PostNotFound))
}

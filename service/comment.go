package service

import (
	"context"
	"fmt"
	"time"

	"stuti/apperr"
	"stuti/models"
	"stuti/repository"

	"github.com/samber/lo"
)

type CommentCreate struct {
	MemberID int64
	PostID   int64
	ParentID *int64
	Content  string
}

type CommentChange struct {
	MemberID  int64
	PostID    int64
	CommentID int64
	Content   string
}

type CommentResponse struct {
	CommentID int64             `json:"commentId"`
	ParentID  *int64            `json:"parentId,omitempty"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Writer    WriterResponse    `json:"writer"`
	Replies   []CommentResponse `json:"replies,omitempty"`
}

type CommentsResponse struct {
	Comments []CommentResponse `json:"comments"`
	HasNext  bool              `json:"hasNext"`
}

type CommentService struct {
	store *repository.Store
}

func NewCommentService(store *repository.Store) *CommentService {
	return &CommentService{store: store}
}

// CreateComment adds a comment to a post. Replies are one level deep: a reply
// to a reply is attached to the top-level comment it belongs to.
func (s *CommentService) CreateComment(ctx context.Context, in CommentCreate) (int64, error) {
	if err := validateContent(in.Content); err != nil {
		return 0, err
	}

	var commentID int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		found, err := tx.Feeds.ExistsByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if !found {
			return apperr.New(apperr.PostNotFound)
		}

		parentID := in.ParentID
		if parentID != nil {
			parent, err := tx.FeedComments.FindByID(ctx, *parentID)
			if err != nil {
				return notFound(err, apperr.ParentCommentNotFound)
			}
			if parent.FeedID != in.PostID {
				return apperr.New(apperr.ParentCommentNotFound)
			}
			if parent.ParentID != nil {
				parentID = parent.ParentID
			}
		}

		comment := &models.FeedComment{
			FeedID:   in.PostID,
			MemberID: in.MemberID,
			ParentID: parentID,
			Content:  in.Content,
		}
		if err := tx.FeedComments.Create(ctx, comment); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		commentID = comment.ID
		return nil
	})
	return commentID, err
}

func (s *CommentService) UpdateComment(ctx context.Context, in CommentChange) (int64, error) {
	if err := validateContent(in.Content); err != nil {
		return 0, err
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownComment(ctx, tx, in.MemberID, in.PostID, in.CommentID); err != nil {
			return err
		}
		return tx.FeedComments.UpdateContent(ctx, in.CommentID, in.Content)
	})
	return in.CommentID, err
}

// DeleteComment removes the comment and every reply to it.
func (s *CommentService) DeleteComment(ctx context.Context, memberID, postID, commentID int64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownComment(ctx, tx, memberID, postID, commentID); err != nil {
			return err
		}
		if err := tx.FeedComments.DeleteByParentID(ctx, commentID); err != nil {
			return fmt.Errorf("delete replies: %w", err)
		}
		return tx.FeedComments.Delete(ctx, commentID)
	})
}

func ownComment(ctx context.Context, tx *repository.Store, memberID, postID, commentID int64) (*models.FeedComment, error) {
	comment, err := tx.FeedComments.FindByID(ctx, commentID)
	if err != nil {
		return nil, notFound(err, apperr.CommentNotFound)
	}
	if comment.FeedID != postID {
		return nil, apperr.New(apperr.CommentNotFound)
	}
	if comment.MemberID != memberID {
		return nil, apperr.New(apperr.NotMatchWriter)
	}
	return comment, nil
}

// GetComments pages through top-level comments newest first, each with its
// replies oldest first.
func (s *CommentService) GetComments(ctx context.Context, postID int64, lastCommentID *int64, size int) (*CommentsResponse, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	found, err := s.store.Feeds.ExistsByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.New(apperr.PostNotFound)
	}

	top, err := s.store.FeedComments.FindTopLevelPage(ctx, postID, repository.Cursor{Before: lastCommentID, Limit: size + 1})
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	top, hasNext := page(top, size)

	replies, err := s.store.FeedComments.FindByParentIDs(ctx, lo.Map(top, func(c models.FeedComment, _ int) int64 { return c.ID }))
	if err != nil {
		return nil, fmt.Errorf("find replies: %w", err)
	}
	repliesByParent := lo.GroupBy(replies, func(c models.FeedComment) int64 { return *c.ParentID })

	memberIDs := lo.Map(append(append([]models.FeedComment{}, top...), replies...), func(c models.FeedComment, _ int) int64 { return c.MemberID })
	writerByID, err := writers(ctx, s.store.Members, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("find writers: %w", err)
	}

	toResponse := func(c models.FeedComment, _ int) CommentResponse {
		return CommentResponse{
			CommentID: c.ID,
			ParentID:  c.ParentID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Writer:    writerByID[c.MemberID],
		}
	}
	comments := lo.Map(top, func(c models.FeedComment, i int) CommentResponse {
		resp := toResponse(c, i)
		resp.Replies = lo.Map(repliesByParent[c.ID], toResponse)
		return resp
	})
	return &CommentsResponse{Comments: comments, HasNext: hasNext}, nil
}

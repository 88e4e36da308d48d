package service

import (
	"context"
	"fmt"

	"stuti/apperr"
	"stuti/likes"
	"stuti/models"
	"stuti/repository"
	"stuti/storage"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const feedImageDir = "feeds"

type FeedService struct {
	store          *repository.Store
	images         storage.ImageStore
	remover        ImageRemover
	likes          *likes.Store
	maxUploadBytes int64
}

func NewFeedService(store *repository.Store, images storage.ImageStore, remover ImageRemover, likeStore *likes.Store, maxUploadBytes int64) *FeedService {
	return &FeedService{
		store:          store,
		images:         images,
		remover:        remover,
		likes:          likeStore,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterPost creates a post owned by in.MemberID with at most one image.
func (s *FeedService) RegisterPost(ctx context.Context, in PostCreate) (int64, error) {
	if err := validateContent(in.Content); err != nil {
		return 0, err
	}
	if in.Image != nil {
		if err := storage.Validate(in.Image, s.maxUploadBytes); err != nil {
			return 0, err
		}
	}

	var postID int64
	var uploaded []string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Members.FindByID(ctx, in.MemberID); err != nil {
			return notFound(err, apperr.MemberNotFound)
		}

		feed := &models.Feed{
			Content:   in.Content,
			MemberID:  in.MemberID,
			CreatedBy: in.MemberID,
			UpdatedBy: in.MemberID,
		}
		if err := tx.Feeds.Create(ctx, feed); err != nil {
			return fmt.Errorf("create feed: %w", err)
		}

		if in.Image != nil {
			url, err := s.attachImage(ctx, tx, feed.ID, in.Image)
			if url != "" {
				uploaded = append(uploaded, url)
			}
			if err != nil {
				return err
			}
		}
		postID = feed.ID
		return nil
	})
	if err != nil {
		s.remover.Enqueue(uploaded...)
		return 0, err
	}

	log.WithFields(log.Fields{
		"postId":   postID,
		"memberId": in.MemberID,
		"images":   len(uploaded),
	}).Info("Registered post")
	return postID, nil
}

// ChangePost replaces the post's content and all of its images. Without a new
// image the post is left with none.
func (s *FeedService) ChangePost(ctx context.Context, in PostChange) (int64, error) {
	if err := validateContent(in.Content); err != nil {
		return 0, err
	}
	if in.Image != nil {
		if err := storage.Validate(in.Image, s.maxUploadBytes); err != nil {
			return 0, err
		}
	}

	var stale, uploaded []string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		feed, err := tx.Feeds.FindByID(ctx, in.PostID)
		if err != nil {
			return notFound(err, apperr.PostNotFound)
		}
		if feed.MemberID != in.ActorID {
			return apperr.New(apperr.NotMatchWriter)
		}

		old, err := tx.FeedImages.FindByFeedID(ctx, feed.ID)
		if err != nil {
			return fmt.Errorf("find feed images: %w", err)
		}
		if err := tx.FeedImages.DeleteByFeedID(ctx, feed.ID); err != nil {
			return fmt.Errorf("delete feed images: %w", err)
		}
		stale = lo.Map(old, func(img models.FeedImage, _ int) string { return img.ImageURL })

		if in.Image != nil {
			url, err := s.attachImage(ctx, tx, feed.ID, in.Image)
			if url != "" {
				uploaded = append(uploaded, url)
			}
			if err != nil {
				return err
			}
		}

		if err := tx.Feeds.UpdateContent(ctx, feed.ID, in.Content, in.ActorID); err != nil {
			return fmt.Errorf("update feed: %w", err)
		}
		return nil
	})
	if err != nil {
		s.remover.Enqueue(uploaded...)
		return 0, err
	}
	s.remover.Enqueue(stale...)

	log.WithFields(log.Fields{
		"postId":  in.PostID,
		"actorId": in.ActorID,
		"removed": len(stale),
		"added":   len(uploaded),
	}).Info("Changed post")
	return in.PostID, nil
}

// attachImage uploads img and links it to the feed. The URL is returned even
// when the row insert fails so the caller can clean the object up.
func (s *FeedService) attachImage(ctx context.Context, tx *repository.Store, feedID int64, img *storage.Image) (string, error) {
	url, err := s.images.Upload(ctx, feedImageDir, img)
	if err != nil {
		return "", err
	}
	if err := tx.FeedImages.Create(ctx, &models.FeedImage{FeedID: feedID, ImageURL: url}); err != nil {
		return url, fmt.Errorf("create feed image: %w", err)
	}
	return url, nil
}

// GetAllPosts pages through every post newest first. lastPostID is the id of
// the last post the caller has seen; nil starts from the newest post.
func (s *FeedService) GetAllPosts(ctx context.Context, lastPostID *int64, size int) (*PostsResponse, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	feeds, err := s.store.Feeds.FindPage(ctx, repository.Cursor{Before: lastPostID, Limit: size + 1})
	if err != nil {
		return nil, fmt.Errorf("find feeds: %w", err)
	}
	return s.postsPage(ctx, feeds, size)
}

// GetMemberPosts is GetAllPosts restricted to one writer.
func (s *FeedService) GetMemberPosts(ctx context.Context, memberID int64, lastPostID *int64, size int) (*PostsResponse, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	found, err := s.store.Members.ExistsByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.New(apperr.MemberNotFound)
	}

	feeds, err := s.store.Feeds.FindPageByMember(ctx, memberID, repository.Cursor{Before: lastPostID, Limit: size + 1})
	if err != nil {
		return nil, fmt.Errorf("find member feeds: %w", err)
	}
	return s.postsPage(ctx, feeds, size)
}

func (s *FeedService) GetPost(ctx context.Context, postID int64) (*PostResponse, error) {
	feed, err := s.store.Feeds.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, apperr.PostNotFound)
	}
	posts, err := s.summaries(ctx, []models.Feed{*feed})
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// DeletePost removes the post with its comments, images and likes.
func (s *FeedService) DeletePost(ctx context.Context, actorID, postID int64) error {
	var stale []string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		feed, err := tx.Feeds.FindByID(ctx, postID)
		if err != nil {
			return notFound(err, apperr.PostNotFound)
		}
		if feed.MemberID != actorID {
			return apperr.New(apperr.NotMatchWriter)
		}

		if err := tx.FeedComments.DeleteByFeedID(ctx, postID); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		images, err := tx.FeedImages.FindByFeedID(ctx, postID)
		if err != nil {
			return fmt.Errorf("find feed images: %w", err)
		}
		if err := tx.FeedImages.DeleteByFeedID(ctx, postID); err != nil {
			return fmt.Errorf("delete feed images: %w", err)
		}
		if err := tx.Feeds.Delete(ctx, postID); err != nil {
			return fmt.Errorf("delete feed: %w", err)
		}
		stale = lo.Map(images, func(img models.FeedImage, _ int) string { return img.ImageURL })
		return nil
	})
	if err != nil {
		return err
	}

	s.remover.Enqueue(stale...)
	if err := s.likes.Clear(ctx, postID); err != nil {
		log.WithFields(log.Fields{"postId": postID, "error": err}).Warn("Failed to clear likes of deleted post")
	}
	log.WithFields(log.Fields{"postId": postID, "actorId": actorID}).Info("Deleted post")
	return nil
}

func (s *FeedService) LikePost(ctx context.Context, postID, memberID int64) (*LikeResponse, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	added, err := s.likes.Add(ctx, postID, memberID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, apperr.New(apperr.PostLikeDuplicated)
	}
	return s.likeResponse(ctx, postID, true)
}

func (s *FeedService) UnlikePost(ctx context.Context, postID, memberID int64) (*LikeResponse, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	removed, err := s.likes.Remove(ctx, postID, memberID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, apperr.New(apperr.PostLikeNotFound)
	}
	return s.likeResponse(ctx, postID, false)
}

// GetLike reports the live like count and whether memberID is among the likers.
func (s *FeedService) GetLike(ctx context.Context, postID, memberID int64) (*LikeResponse, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	liked, err := s.likes.Liked(ctx, postID, memberID)
	if err != nil {
		return nil, err
	}
	return s.likeResponse(ctx, postID, liked)
}

func (s *FeedService) likeResponse(ctx context.Context, postID int64, liked bool) (*LikeResponse, error) {
	count, err := s.likes.Count(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &LikeResponse{PostID: postID, LikeCount: count, Liked: liked}, nil
}

func (s *FeedService) requirePost(ctx context.Context, postID int64) error {
	found, err := s.store.Feeds.ExistsByID(ctx, postID)
	if err != nil {
		return err
	}
	if !found {
		return apperr.New(apperr.PostNotFound)
	}
	return nil
}

func (s *FeedService) postsPage(ctx context.Context, feeds []models.Feed, size int) (*PostsResponse, error) {
	feeds, hasNext := page(feeds, size)
	posts, err := s.summaries(ctx, feeds)
	if err != nil {
		return nil, err
	}
	return &PostsResponse{Posts: posts, HasNext: hasNext}, nil
}

// summaries loads images, writers and live like counts for feeds with one
// query each and keeps the input order.
func (s *FeedService) summaries(ctx context.Context, feeds []models.Feed) ([]PostResponse, error) {
	ids := lo.Map(feeds, func(f models.Feed, _ int) int64 { return f.ID })
	images, err := s.store.FeedImages.FindByFeedIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find feed images: %w", err)
	}
	imagesByFeed := lo.GroupBy(images, func(img models.FeedImage) int64 { return img.FeedID })

	writerByID, err := writers(ctx, s.store.Members, lo.Map(feeds, func(f models.Feed, _ int) int64 { return f.MemberID }))
	if err != nil {
		return nil, fmt.Errorf("find writers: %w", err)
	}

	counts, err := s.likes.Counts(ctx, ids)
	if err != nil {
		return nil, err
	}

	return lo.Map(feeds, func(f models.Feed, _ int) PostResponse {
		return PostResponse{
			PostID:    f.ID,
			Content:   f.Content,
			ImageURLs: lo.Map(imagesByFeed[f.ID], func(img models.FeedImage, _ int) string { return img.ImageURL }),
			LikeCount: counts[f.ID],
			CreatedAt: f.CreatedAt,
			UpdatedAt: f.UpdatedAt,
			Writer:    writerByID[f.MemberID],
		}
	}), nil
}

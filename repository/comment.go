package repository

import (
	"context"

	"stuti/models"

	"gorm.io/gorm"
)

type FeedCommentRepository struct {
	db *gorm.DB
}

func (r *FeedCommentRepository) Create(ctx context.Context, c *models.FeedComment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *FeedCommentRepository) FindByID(ctx context.Context, id int64) (*models.FeedComment, error) {
	return first[models.FeedComment](r.db.WithContext(ctx).Where("id = ?", id))
}

// FindTopLevelPage pages through comments of a feed that are not replies.
func (r *FeedCommentRepository) FindTopLevelPage(ctx context.Context, feedID int64, c Cursor) ([]models.FeedComment, error) {
	comments := []models.FeedComment{}
	q := r.db.WithContext(ctx).Where("feed_id = ? AND parent_id IS NULL", feedID)
	err := c.apply(q).Find(&comments).Error
	return comments, err
}

func (r *FeedCommentRepository) FindByParentIDs(ctx context.Context, parentIDs []int64) ([]models.FeedComment, error) {
	replies := []models.FeedComment{}
	if len(parentIDs) == 0 {
		return replies, nil
	}
	err := r.db.WithContext(ctx).Where("parent_id IN ?", parentIDs).Order("id").Find(&replies).Error
	return replies, err
}

func (r *FeedCommentRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	return r.db.WithContext(ctx).Model(&models.FeedComment{}).Where("id = ?", id).Update("content", content).Error
}

func (r *FeedCommentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FeedComment{}).Error
}

func (r *FeedCommentRepository) DeleteByParentID(ctx context.Context, parentID int64) error {
	return r.db.WithContext(ctx).Where("parent_id = ?", parentID).Delete(&models.FeedComment{}).Error
}

func (r *FeedCommentRepository) DeleteByFeedID(ctx context.Context, feedID int64) error {
	return r.db.WithContext(ctx).Where("feed_id = ?", feedID).Delete(&models.FeedComment{}).Error
}

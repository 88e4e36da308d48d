package repository

import (
	"context"

	"stuti/models"

	"gorm.io/gorm"
)

type FeedRepository struct {
	db *gorm.DB
}

func (r *FeedRepository) Create(ctx context.Context, f *models.Feed) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FeedRepository) FindByID(ctx context.Context, id int64) (*models.Feed, error) {
	return first[models.Feed](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *FeedRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return exists[models.Feed](r.db.WithContext(ctx).Where("id = ?", id))
}

// FindPage returns feeds newest first, starting below the cursor.
func (r *FeedRepository) FindPage(ctx context.Context, c Cursor) ([]models.Feed, error) {
	feeds := []models.Feed{}
	err := c.apply(r.db.WithContext(ctx)).Find(&feeds).Error
	return feeds, err
}

func (r *FeedRepository) FindPageByMember(ctx context.Context, memberID int64, c Cursor) ([]models.Feed, error) {
	feeds := []models.Feed{}
	err := c.apply(r.db.WithContext(ctx).Where("member_id = ?", memberID)).Find(&feeds).Error
	return feeds, err
}

func (r *FeedRepository) UpdateContent(ctx context.Context, id int64, content string, updatedBy int64) error {
	return r.db.WithContext(ctx).Model(&models.Feed{}).Where("id = ?", id).Updates(map[string]any{
		"content":    content,
		"updated_by": updatedBy,
	}).Error
}

// UpdateLikeCount leaves updated_at alone; like counts are not edits.
func (r *FeedRepository) UpdateLikeCount(ctx context.Context, id int64, count int64) error {
	return r.db.WithContext(ctx).Model(&models.Feed{}).Where("id = ?", id).UpdateColumn("like_count", count).Error
}

func (r *FeedRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Feed{}).Error
}

type FeedImageRepository struct {
	db *gorm.DB
}

func (r *FeedImageRepository) Create(ctx context.Context, img *models.FeedImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *FeedImageRepository) FindByFeedID(ctx context.Context, feedID int64) ([]models.FeedImage, error) {
	images := []models.FeedImage{}
	err := r.db.WithContext(ctx).Where("feed_id = ?", feedID).Order("id").Find(&images).Error
	return images, err
}

func (r *FeedImageRepository) FindByFeedIDs(ctx context.Context, feedIDs []int64) ([]models.FeedImage, error) {
	images := []models.FeedImage{}
	if len(feedIDs) == 0 {
		return images, nil
	}
	err := r.db.WithContext(ctx).Where("feed_id IN ?", feedIDs).Order("id").Find(&images).Error
	return images, err
}

func (r *FeedImageRepository) DeleteByFeedID(ctx context.Context, feedID int64) error {
	return r.db.WithContext(ctx).Where("feed_id = ?", feedID).Delete(&models.FeedImage{}).Error
}

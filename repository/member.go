package repository

import (
	"context"

	"stuti/models"

	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func (r *MemberRepository) Create(ctx context.Context, m *models.Member) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MemberRepository) Save(ctx context.Context, m *models.Member) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MemberRepository) FindByID(ctx context.Context, id int64) (*models.Member, error) {
	return first[models.Member](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *MemberRepository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	return first[models.Member](r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *MemberRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Member, error) {
	members := []models.Member{}
	if len(ids) == 0 {
		return members, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&members).Error
	return members, err
}

func (r *MemberRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return exists[models.Member](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *MemberRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists[models.Member](r.db.WithContext(ctx).Where("email = ?", email))
}

// ExistsByNickname ignores the member with id exclude, so a member keeping
// their own nickname does not collide with themselves.
func (r *MemberRepository) ExistsByNickname(ctx context.Context, nickname string, exclude int64) (bool, error) {
	return exists[models.Member](r.db.WithContext(ctx).Where("nickname = ? AND id <> ?", nickname, exclude))
}

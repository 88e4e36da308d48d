package repository

import (
	"context"

	"stuti/models"

	"gorm.io/gorm"
)

type StudyGroupRepository struct {
	db *gorm.DB
}

func (r *StudyGroupRepository) Create(ctx context.Context, g *models.StudyGroup) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *StudyGroupRepository) Save(ctx context.Context, g *models.StudyGroup) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *StudyGroupRepository) FindByID(ctx context.Context, id int64) (*models.StudyGroup, error) {
	return first[models.StudyGroup](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *StudyGroupRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return exists[models.StudyGroup](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *StudyGroupRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StudyGroup{}).Error
}

type StudyGroupMemberRepository struct {
	db *gorm.DB
}

func (r *StudyGroupMemberRepository) Create(ctx context.Context, m *models.StudyGroupMember) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *StudyGroupMemberRepository) Exists(ctx context.Context, studyGroupID, memberID int64) (bool, error) {
	return exists[models.StudyGroupMember](r.db.WithContext(ctx).
		Where("study_group_id = ? AND member_id = ?", studyGroupID, memberID))
}

func (r *StudyGroupMemberRepository) Find(ctx context.Context, studyGroupID, memberID int64) (*models.StudyGroupMember, error) {
	return first[models.StudyGroupMember](r.db.WithContext(ctx).
		Where("study_group_id = ? AND member_id = ?", studyGroupID, memberID))
}

func (r *StudyGroupMemberRepository) UpdateRole(ctx context.Context, id int64, role models.StudyGroupMemberRole) error {
	return r.db.WithContext(ctx).Model(&models.StudyGroupMember{}).Where("id = ?", id).Update("role", role).Error
}

// CountByRoles counts the group's members holding any of roles.
func (r *StudyGroupMemberRepository) CountByRoles(ctx context.Context, studyGroupID int64, roles ...models.StudyGroupMemberRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StudyGroupMember{}).
		Where("study_group_id = ? AND role IN ?", studyGroupID, roles).
		Count(&count).Error
	return count, err
}

func (r *StudyGroupMemberRepository) DeleteByStudyGroupID(ctx context.Context, studyGroupID int64) error {
	return r.db.WithContext(ctx).Where("study_group_id = ?", studyGroupID).Delete(&models.StudyGroupMember{}).Error
}

type QuestionRepository struct {
	db *gorm.DB
}

func (r *QuestionRepository) Create(ctx context.Context, q *models.StudyGroupQuestion) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *QuestionRepository) FindByID(ctx context.Context, id int64) (*models.StudyGroupQuestion, error) {
	return first[models.StudyGroupQuestion](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *QuestionRepository) FindByStudyGroupID(ctx context.Context, studyGroupID int64) ([]models.StudyGroupQuestion, error) {
	questions := []models.StudyGroupQuestion{}
	err := r.db.WithContext(ctx).Where("study_group_id = ?", studyGroupID).Order("id").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	return r.db.WithContext(ctx).Model(&models.StudyGroupQuestion{}).Where("id = ?", id).Update("content", content).Error
}

func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StudyGroupQuestion{}).Error
}

func (r *QuestionRepository) DeleteByParentID(ctx context.Context, parentID int64) error {
	return r.db.WithContext(ctx).Where("parent_id = ?", parentID).Delete(&models.StudyGroupQuestion{}).Error
}

func (r *QuestionRepository) DeleteByStudyGroupID(ctx context.Context, studyGroupID int64) error {
	return r.db.WithContext(ctx).Where("study_group_id = ?", studyGroupID).Delete(&models.StudyGroupQuestion{}).Error
}

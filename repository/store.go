// Package repository wraps gorm with one repository per table. Relations are
// resolved by explicit queries, never by association preloading.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Cursor selects rows with id strictly below Before (all rows when nil),
// newest first, at most Limit of them.
type Cursor struct {
	Before *int64
	Limit  int
}

func (c Cursor) apply(q *gorm.DB) *gorm.DB {
	if c.Before != nil {
		q = q.Where("id < ?", *c.Before)
	}
	return q.Order("id DESC").Limit(c.Limit)
}

type Store struct {
	db *gorm.DB

	Members           *MemberRepository
	Feeds             *FeedRepository
	FeedImages        *FeedImageRepository
	FeedComments      *FeedCommentRepository
	StudyGroups       *StudyGroupRepository
	StudyGroupMembers *StudyGroupMemberRepository
	Questions         *QuestionRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:                db,
		Members:           &MemberRepository{db: db},
		Feeds:             &FeedRepository{db: db},
		FeedImages:        &FeedImageRepository{db: db},
		FeedComments:      &FeedCommentRepository{db: db},
		StudyGroups:       &StudyGroupRepository{db: db},
		StudyGroupMembers: &StudyGroupMemberRepository{db: db},
		Questions:         &QuestionRepository{db: db},
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with a Store bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func first[T any](q *gorm.DB) (*T, error) {
	var v T
	if err := q.First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func exists[T any](q *gorm.DB) (bool, error) {
	var count int64
	if err := q.Model(new(T)).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

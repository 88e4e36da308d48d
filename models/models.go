package models

import (
	"time"
)

type Member struct {
	ID              int64      `gorm:"primaryKey"`
	Email           string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password        string     `gorm:"type:varchar(255);not null"`
	Nickname        string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	Career          Career     `gorm:"type:varchar(20)"`
	ProfileImageURL string     `gorm:"type:varchar(1023)"`
	GithubURL       string     `gorm:"type:varchar(1023)"`
	BlogURL         string     `gorm:"type:varchar(1023)"`
	Role            MemberRole `gorm:"type:varchar(20);not null"`
	Field           Field      `gorm:"type:varchar(20)"`
	Mbti            Mbti       `gorm:"type:varchar(4)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Feed is a member-authored post. Images, comments and likes hang off it by FeedID.
type Feed struct {
	ID        int64  `gorm:"primaryKey"`
	Content   string `gorm:"type:text;not null"`
	MemberID  int64  `gorm:"not null;index"`
	LikeCount int64  `gorm:"not null;default:0"`
	CreatedBy int64
	UpdatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type FeedImage struct {
	ID       int64  `gorm:"primaryKey"`
	ImageURL string `gorm:"type:varchar(1023);not null"` // public object URL
	FeedID   int64  `gorm:"not null;index"`
}

type FeedComment struct {
	ID        int64  `gorm:"primaryKey"`
	FeedID    int64  `gorm:"not null;index"`
	MemberID  int64  `gorm:"not null;index"`
	ParentID  *int64 `gorm:"index"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type StudyPeriod struct {
	StartDateTime time.Time `gorm:"not null"`
	EndDateTime   time.Time `gorm:"not null"`
}

type StudyGroup struct {
	ID               int64       `gorm:"primaryKey"`
	Title            string      `gorm:"type:varchar(100);not null"`
	Description      string      `gorm:"type:text;not null"`
	Topic            Topic       `gorm:"type:varchar(30);not null"`
	Region           Region      `gorm:"type:varchar(30);not null"`
	IsOnline         bool        `gorm:"not null"`
	NumberOfRecruits int         `gorm:"not null"`
	StudyPeriod      StudyPeriod `gorm:"embedded"`
	ImageURL         string      `gorm:"type:varchar(1023)"`
	ThumbnailURL     string      `gorm:"type:varchar(1023)"`
	LeaderID         int64       `gorm:"not null;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type StudyGroupMember struct {
	ID           int64                `gorm:"primaryKey"`
	StudyGroupID int64                `gorm:"not null;uniqueIndex:idx_group_member"`
	MemberID     int64                `gorm:"not null;uniqueIndex:idx_group_member"`
	Role         StudyGroupMemberRole `gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time
}

type StudyGroupQuestion struct {
	ID           int64  `gorm:"primaryKey"`
	Content      string `gorm:"type:text;not null"`
	ParentID     *int64 `gorm:"index"` // replies point at the question they answer
	MemberID     int64  `gorm:"not null;index"`
	StudyGroupID int64  `gorm:"not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// All lists every table, in migration order.
func All() []any {
	return []any{
		&Member{},
		&Feed{},
		&FeedImage{},
		&FeedComment{},
		&StudyGroup{},
		&StudyGroupMember{},
		&StudyGroupQuestion{},
	}
}

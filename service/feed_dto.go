package service

import (
	"time"

	"stuti/storage"
)

type PostCreate struct {
	MemberID int64
	Content  string
	Image    *storage.Image
}

// PostChange replaces a post's content and images. A nil Image removes the
// post's images instead of keeping them.
type PostChange struct {
	ActorID int64
	PostID  int64
	Content string
	Image   *storage.Image
}

type PostResponse struct {
	PostID    int64          `json:"postId"`
	Content   string         `json:"content"`
	ImageURLs []string       `json:"imageUrls"`
	LikeCount int64          `json:"likeCount"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Writer    WriterResponse `json:"writer"`
}

type PostsResponse struct {
	Posts   []PostResponse `json:"posts"`
	HasNext bool           `json:"hasNext"`
}

type LikeResponse struct {
	PostID    int64 `json:"postId"`
	LikeCount int64 `json:"likeCount"`
	Liked     bool  `json:"liked"`
}

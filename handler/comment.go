package handler

import (
	"net/http"

	"stuti/middleware"
	"stuti/service"

	"github.com/gin-gonic/gin"
)

type commentURI struct {
	PostID    int64 `uri:"postId" binding:"required,min=1"`
	CommentID int64 `uri:"commentId" binding:"required,min=1"`
}

type commentRequest struct {
	ParentID *int64 `json:"parentId" binding:"omitempty,min=1"`
	Content  string `json:"content" binding:"required"`
}

type commentPageQuery struct {
	LastCommentID *int64 `form:"lastCommentId" binding:"omitempty,min=1"`
	Size          int    `form:"size,default=10" binding:"min=1,max=100"`
}

func (h *Handler) CreateComment(c *gin.Context) {
	var uri postURI
	var req commentRequest
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBindJSON(&req) }) {
		return
	}
	commentID, err := h.comments.CreateComment(c.Request.Context(), service.CommentCreate{
		MemberID: middleware.MemberID(c),
		PostID:   uri.PostID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentID)
}

func (h *Handler) UpdateComment(c *gin.Context) {
	var uri commentURI
	var req commentRequest
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBindJSON(&req) }) {
		return
	}
	commentID, err := h.comments.UpdateComment(c.Request.Context(), service.CommentChange{
		MemberID:  middleware.MemberID(c),
		PostID:    uri.PostID,
		CommentID: uri.CommentID,
		Content:   req.Content,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, commentID)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	var uri commentURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), middleware.MemberID(c), uri.PostID, uri.CommentID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetComments(c *gin.Context) {
	var uri postURI
	var q commentPageQuery
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBindQuery(&q) }) {
		return
	}
	resp, err := h.comments.GetComments(c.Request.Context(), uri.PostID, q.LastCommentID, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

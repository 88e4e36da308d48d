package handler

import (
	"fmt"
	"net/http"

	"stuti/middleware"
	"stuti/service"

	"github.com/gin-gonic/gin"
)

type postURI struct {
	PostID int64 `uri:"postId" binding:"required,min=1"`
}

type memberURI struct {
	MemberID int64 `uri:"memberId" binding:"required,min=1"`
}

type postForm struct {
	Content string `form:"content" binding:"required"`
}

type postPageQuery struct {
	LastPostID *int64 `form:"lastPostId" binding:"omitempty,min=1"`
	Size       int    `form:"size,default=10" binding:"min=1,max=100"`
}

func (h *Handler) RegisterPost(c *gin.Context) {
	var form postForm
	if !bind(c, func() error { return c.ShouldBind(&form) }) {
		return
	}
	img, closeImg, err := formImage(c, "imageFile")
	if err != nil {
		fail(c, err)
		return
	}
	defer closeImg()

	postID, err := h.feeds.RegisterPost(c.Request.Context(), service.PostCreate{
		MemberID: middleware.MemberID(c),
		Content:  form.Content,
		Image:    img,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, fmt.Sprintf("/api/v1/post/%d", postID), postID)
}

func (h *Handler) ChangePost(c *gin.Context) {
	var uri postURI
	var form postForm
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBind(&form) }) {
		return
	}
	img, closeImg, err := formImage(c, "imageFile")
	if err != nil {
		fail(c, err)
		return
	}
	defer closeImg()

	postID, err := h.feeds.ChangePost(c.Request.Context(), service.PostChange{
		ActorID: middleware.MemberID(c),
		PostID:  uri.PostID,
		Content: form.Content,
		Image:   img,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, postID)
}

func (h *Handler) GetAllPosts(c *gin.Context) {
	var q postPageQuery
	if !bind(c, func() error { return c.ShouldBindQuery(&q) }) {
		return
	}
	resp, err := h.feeds.GetAllPosts(c.Request.Context(), q.LastPostID, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetMemberPosts(c *gin.Context) {
	var uri memberURI
	var q postPageQuery
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBindQuery(&q) }) {
		return
	}
	resp, err := h.feeds.GetMemberPosts(c.Request.Context(), uri.MemberID, q.LastPostID, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetPost(c *gin.Context) {
	var uri postURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	resp, err := h.feeds.GetPost(c.Request.Context(), uri.PostID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeletePost(c *gin.Context) {
	var uri postURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	if err := h.feeds.DeletePost(c.Request.Context(), middleware.MemberID(c), uri.PostID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) LikePost(c *gin.Context) {
	var uri postURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	resp, err := h.feeds.LikePost(c.Request.Context(), uri.PostID, middleware.MemberID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UnlikePost(c *gin.Context) {
	var uri postURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	resp, err := h.feeds.UnlikePost(c.Request.Context(), uri.PostID, middleware.MemberID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetLike(c *gin.Context) {
	var uri postURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	resp, err := h.feeds.GetLike(c.Request.Context(), uri.PostID, middleware.MemberID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

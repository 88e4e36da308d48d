package handler

import (
	"net/http"

	"stuti/middleware"
	"stuti/service"

	"github.com/gin-gonic/gin"
)

type questionURI struct {
	StudyGroupID int64 `uri:"studyGroupId" binding:"required,min=1"`
	QuestionID   int64 `uri:"questionId" binding:"required,min=1"`
}

type questionRequest struct {
	ParentID *int64 `json:"parentId" binding:"omitempty,min=1"`
	Content  string `json:"content" binding:"required"`
}

func (h *Handler) CreateQuestion(c *gin.Context) {
	var uri studyGroupURI
	var req questionRequest
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBindJSON(&req) }) {
		return
	}
	questionID, err := h.questions.CreateQuestion(c.Request.Context(), service.QuestionCreate{
		MemberID:     middleware.MemberID(c),
		StudyGroupID: uri.StudyGroupID,
		ParentID:     req.ParentID,
		Content:      req.Content,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, questionID)
}

func (h *Handler) UpdateQuestion(c *gin.Context) {
	var uri questionURI
	var req questionRequest
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBindJSON(&req) }) {
		return
	}
	questionID, err := h.questions.UpdateQuestion(c.Request.Context(), service.QuestionChange{
		MemberID:     middleware.MemberID(c),
		StudyGroupID: uri.StudyGroupID,
		QuestionID:   uri.QuestionID,
		Content:      req.Content,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, questionID)
}

func (h *Handler) DeleteQuestion(c *gin.Context) {
	var uri questionURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	if err := h.questions.DeleteQuestion(c.Request.Context(), middleware.MemberID(c), uri.StudyGroupID, uri.QuestionID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetQuestions(c *gin.Context) {
	var uri studyGroupURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	resp, err := h.questions.GetQuestions(c.Request.Context(), uri.StudyGroupID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

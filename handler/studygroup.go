package handler

import (
	"net/http"
	"time"

	"stuti/middleware"
	"stuti/models"
	"stuti/service"

	"github.com/gin-gonic/gin"
)

type studyGroupURI struct {
	StudyGroupID int64 `uri:"studyGroupId" binding:"required,min=1"`
}

type applicantURI struct {
	StudyGroupID int64 `uri:"studyGroupId" binding:"required,min=1"`
	MemberID     int64 `uri:"memberId" binding:"required,min=1"`
}

// Times are RFC 3339.
type studyGroupForm struct {
	Title            string        `form:"title" binding:"required,max=100"`
	Description      string        `form:"description" binding:"required"`
	Topic            models.Topic  `form:"topic" binding:"required"`
	Region           models.Region `form:"region"`
	IsOnline         bool          `form:"isOnline"`
	NumberOfRecruits int           `form:"numberOfRecruits" binding:"required,min=1"`
	StartDateTime    time.Time     `form:"startDateTime" binding:"required"`
	EndDateTime      time.Time     `form:"endDateTime" binding:"required"`
}

type studyGroupChangeForm struct {
	Title       string `form:"title" binding:"required,max=100"`
	Description string `form:"description" binding:"required"`
}

func (h *Handler) CreateStudyGroup(c *gin.Context) {
	var form studyGroupForm
	if !bind(c, func() error { return c.ShouldBind(&form) }) {
		return
	}
	img, closeImg, err := formImage(c, "imageFile")
	if err != nil {
		fail(c, err)
		return
	}
	defer closeImg()

	groupID, err := h.groups.CreateStudyGroup(c.Request.Context(), service.StudyGroupCreate{
		LeaderID:         middleware.MemberID(c),
		Title:            form.Title,
		Description:      form.Description,
		Topic:            form.Topic,
		Region:           form.Region,
		IsOnline:         form.IsOnline,
		NumberOfRecruits: form.NumberOfRecruits,
		StartDateTime:    form.StartDateTime,
		EndDateTime:      form.EndDateTime,
		Image:            img,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, groupID)
}

func (h *Handler) GetStudyGroup(c *gin.Context) {
	var uri studyGroupURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	resp, err := h.groups.GetStudyGroup(c.Request.Context(), uri.StudyGroupID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateStudyGroup(c *gin.Context) {
	var uri studyGroupURI
	var form studyGroupChangeForm
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBind(&form) }) {
		return
	}
	img, closeImg, err := formImage(c, "imageFile")
	if err != nil {
		fail(c, err)
		return
	}
	defer closeImg()

	groupID, err := h.groups.UpdateStudyGroup(c.Request.Context(), service.StudyGroupChange{
		ActorID:      middleware.MemberID(c),
		StudyGroupID: uri.StudyGroupID,
		Title:        form.Title,
		Description:  form.Description,
		Image:        img,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, groupID)
}

func (h *Handler) DeleteStudyGroup(c *gin.Context) {
	var uri studyGroupURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	if err := h.groups.DeleteStudyGroup(c.Request.Context(), middleware.MemberID(c), uri.StudyGroupID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ApplyStudyGroup(c *gin.Context) {
	var uri studyGroupURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	applicationID, err := h.groups.ApplyStudyGroup(c.Request.Context(), middleware.MemberID(c), uri.StudyGroupID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, applicationID)
}

func (h *Handler) AcceptApplicant(c *gin.Context) {
	var uri applicantURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	if err := h.groups.AcceptApplicant(c.Request.Context(), middleware.MemberID(c), uri.StudyGroupID, uri.MemberID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"time"

	"stuti/middleware"
	"stuti/models"
	"stuti/service"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Email           string        `json:"email" binding:"required"`
	Password        string        `json:"password" binding:"required,min=8,max=72"`
	Nickname        string        `json:"nickname" binding:"required,max=50"`
	Career          models.Career `json:"career"`
	Field           models.Field  `json:"field"`
	Mbti            models.Mbti   `json:"mbti"`
	ProfileImageURL string        `json:"profileImageUrl" binding:"omitempty,url"`
	GithubURL       string        `json:"githubUrl" binding:"omitempty,url"`
	BlogURL         string        `json:"blogUrl" binding:"omitempty,url"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Nickname        string        `json:"nickname" binding:"omitempty,max=50"`
	Career          models.Career `json:"career"`
	Field           models.Field  `json:"field"`
	Mbti            models.Mbti   `json:"mbti"`
	ProfileImageURL *string       `json:"profileImageUrl" binding:"omitempty,url"`
	GithubURL       *string       `json:"githubUrl" binding:"omitempty,url"`
	BlogURL         *string       `json:"blogUrl" binding:"omitempty,url"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if !bind(c, func() error { return c.ShouldBindJSON(&req) }) {
		return
	}
	memberID, err := h.members.Signup(c.Request.Context(), service.Signup{
		Email:           req.Email,
		Password:        req.Password,
		Nickname:        req.Nickname,
		Career:          req.Career,
		Field:           req.Field,
		Mbti:            req.Mbti,
		ProfileImageURL: req.ProfileImageURL,
		GithubURL:       req.GithubURL,
		BlogURL:         req.BlogURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, memberID)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, func() error { return c.ShouldBindJSON(&req) }) {
		return
	}
	resp, err := h.members.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	expires := time.Now()
	if claims := middleware.Claims(c); claims != nil && claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := h.members.Logout(c.Request.Context(), middleware.Token(c), expires); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProfile(c *gin.Context) {
	var uri memberURI
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }) {
		return
	}
	resp, err := h.members.GetProfile(c.Request.Context(), uri.MemberID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var uri memberURI
	var req profileRequest
	if !bind(c, func() error { return c.ShouldBindUri(&uri) }, func() error { return c.ShouldBindJSON(&req) }) {
		return
	}
	resp, err := h.members.UpdateProfile(c.Request.Context(), service.ProfileChange{
		ActorID:         middleware.MemberID(c),
		MemberID:        uri.MemberID,
		Nickname:        req.Nickname,
		Career:          req.Career,
		Field:           req.Field,
		Mbti:            req.Mbti,
		ProfileImageURL: req.ProfileImageURL,
		GithubURL:       req.GithubURL,
		BlogURL:         req.BlogURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Package handler binds HTTP requests to the services. Handlers validate
// input with gin binding tags and report failures through c.Error, which
// middleware.Errors renders.
package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"stuti/apperr"
	"stuti/service"
	"stuti/storage"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	feeds     *service.FeedService
	comments  *service.CommentService
	members   *service.MemberService
	groups    *service.StudyGroupService
	questions *service.QuestionService
}

func New(feeds *service.FeedService, comments *service.CommentService, members *service.MemberService,
	groups *service.StudyGroupService, questions *service.QuestionService) *Handler {
	return &Handler{
		feeds:     feeds,
		comments:  comments,
		members:   members,
		groups:    groups,
		questions: questions,
	}
}

// Register mounts every route. Routes on protected require a member.
func (h *Handler) Register(public, protected *gin.RouterGroup) {
	public.POST("/signup", h.Signup)
	public.POST("/login", h.Login)
	protected.POST("/logout", h.Logout)
	public.GET("/members/:memberId", h.GetProfile)
	protected.PATCH("/members/:memberId", h.UpdateProfile)
	public.GET("/members/:memberId/posts", h.GetMemberPosts)

	protected.POST("/posts", h.RegisterPost)
	public.GET("/posts", h.GetAllPosts)
	public.GET("/post/:postId", h.GetPost)
	protected.POST("/post/:postId", h.ChangePost)
	protected.DELETE("/post/:postId", h.DeletePost)
	protected.GET("/post/:postId/likes", h.GetLike)
	protected.POST("/post/:postId/likes", h.LikePost)
	protected.DELETE("/post/:postId/likes", h.UnlikePost)

	public.GET("/post/:postId/comments", h.GetComments)
	protected.POST("/post/:postId/comments", h.CreateComment)
	protected.PATCH("/post/:postId/comments/:commentId", h.UpdateComment)
	protected.DELETE("/post/:postId/comments/:commentId", h.DeleteComment)

	protected.POST("/study-groups", h.CreateStudyGroup)
	public.GET("/study-groups/:studyGroupId", h.GetStudyGroup)
	protected.PATCH("/study-groups/:studyGroupId", h.UpdateStudyGroup)
	protected.DELETE("/study-groups/:studyGroupId", h.DeleteStudyGroup)
	protected.POST("/study-groups/:studyGroupId/apply", h.ApplyStudyGroup)
	protected.POST("/study-groups/:studyGroupId/members/:memberId/accept", h.AcceptApplicant)

	public.GET("/study-groups/:studyGroupId/questions", h.GetQuestions)
	protected.POST("/study-groups/:studyGroupId/questions", h.CreateQuestion)
	protected.PATCH("/study-groups/:studyGroupId/questions/:questionId", h.UpdateQuestion)
	protected.DELETE("/study-groups/:studyGroupId/questions/:questionId", h.DeleteQuestion)
}

// fail hands err to middleware.Errors.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// invalid wraps a binding failure as a client error.
func invalid(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Wrap(apperr.OverMaxSize, err)
	}
	return apperr.Newf(apperr.InvalidMethodArgument, "%s", err.Error())
}

// bind runs the binders in order and stops at the first failure.
func bind(c *gin.Context, binders ...func() error) bool {
	for _, b := range binders {
		if err := b(); err != nil {
			fail(c, invalid(err))
			return false
		}
	}
	return true
}

// formImage reads an optional image part. The returned closer must be called
// once the service is done with the image.
func formImage(c *gin.Context, field string) (*storage.Image, func(), error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, invalid(err)
	}
	return openImage(header)
}

func openImage(header *multipart.FileHeader) (*storage.Image, func(), error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.EmptyFile, err)
	}
	img := &storage.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return img, func() { file.Close() }, nil
}

func created(c *gin.Context, location string, id int64) {
	c.Header("Location", location)
	c.JSON(http.StatusCreated, id)
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stuti/apperr"
	"stuti/auth"
	"stuti/database/dbtest"
	"stuti/handler"
	"stuti/likes"
	"stuti/middleware"
	"stuti/repository"
	"stuti/server"
	"stuti/service"
	"stuti/storage/storagetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	t      *testing.T
	router http.Handler
	images *storagetest.Memory
}

func newApp(t *testing.T) *app {
	t.Helper()
	store := repository.NewStore(dbtest.New(t))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	images := storagetest.NewMemory()
	removed := &storagetest.Recorder{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	blacklist := auth.NewBlacklist(rdb)

	h := handler.New(
		service.NewFeedService(store, images, removed, likes.NewStore(rdb), 1<<20),
		service.NewCommentService(store),
		service.NewMemberService(store, tokens, blacklist),
		service.NewStudyGroupService(store, images, removed, 1<<20),
		service.NewQuestionService(store),
	)
	router := server.NewRouter(server.RouterConfig{
		Handler:      h,
		Tokens:       tokens,
		Blacklist:    blacklist,
		CORSOrigins:  []string{"http://localhost:3000"},
		MaxBodyBytes: 1 << 20,
	})
	return &app{t: t, router: router, images: images}
}

func (a *app) do(method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *app) json(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	return a.do(method, path, token, "application/json", r)
}

// multipart sends a form with the given fields and, when filename is
// set, an imageFile part.
func (a *app) multipart(method, path, token string, fields map[string]string, filename string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("imageFile", filename)
		require.NoError(a.t, err)
		_, err = part.Write([]byte("\x89PNG not really an image"))
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())
	return a.do(method, path, token, mw.FormDataContentType(), &buf)
}

// member signs up and logs in, returning the member id and access token.
func (a *app) member(nickname string) (int64, string) {
	a.t.Helper()
	email := nickname + "@example.com"
	w := a.json(http.MethodPost, "/api/v1/signup", "", map[string]string{
		"email":    email,
		"password": "password123",
		"nickname": nickname,
		"career":   "JUNIOR",
		"field":    "BACKEND",
		"mbti":     "ENFJ",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w = a.json(http.MethodPost, "/api/v1/login", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var token service.TokenResponse
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &token))
	return token.MemberID, token.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, code apperr.Code) {
	t.Helper()
	assert.Equal(t, code.Status, w.Code, w.Body.String())
	assert.Equal(t, code.ID, decode[middleware.ErrorResponse](t, w).Code)
}

func TestRegisterPostReturnsLocation(t *testing.T) {
	a := newApp(t)
	_, token := a.member("writer")

	w := a.multipart(http.MethodPost, "/api/v1/posts", token, map[string]string{"content": "hello"}, "cat.png")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	postID := decode[int64](t, w)
	assert.Equal(t, fmt.Sprintf("/api/v1/post/%d", postID), w.Header().Get("Location"))

	w = a.do(http.MethodGet, w.Header().Get("Location"), "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	post := decode[service.PostResponse](t, w)
	assert.Equal(t, "hello", post.Content)
	require.Len(t, post.ImageURLs, 1)
	assert.True(t, a.images.Has(post.ImageURLs[0]))
}

func TestRegisterPostValidation(t *testing.T) {
	a := newApp(t)
	_, token := a.member("writer")

	w := a.multipart(http.MethodPost, "/api/v1/posts", token, map[string]string{}, "")
	assertError(t, w, apperr.InvalidMethodArgument)

	w = a.multipart(http.MethodPost, "/api/v1/posts", token, map[string]string{"content": "c"}, "notes.pdf")
	assertError(t, w, apperr.UnsupportedExtension)

	w = a.multipart(http.MethodPost, "/api/v1/posts", "", map[string]string{"content": "c"}, "")
	assertError(t, w, apperr.Unauthenticated)
}

func TestGetAllPostsPaging(t *testing.T) {
	a := newApp(t)
	_, token := a.member("writer")
	for i := 0; i < 3; i++ {
		w := a.multipart(http.MethodPost, "/api/v1/posts", token, map[string]string{"content": fmt.Sprint(i)}, "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := a.do(http.MethodGet, "/api/v1/posts?size=2", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[service.PostsResponse](t, w)
	require.Len(t, page.Posts, 2)
	assert.True(t, page.HasNext)
	assert.Equal(t, int64(3), page.Posts[0].PostID)

	w = a.do(http.MethodGet, "/api/v1/posts?lastPostId=2", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[service.PostsResponse](t, w)
	require.Len(t, page.Posts, 1)
	assert.False(t, page.HasNext)

	w = a.do(http.MethodGet, "/api/v1/posts?size=0", "", "", nil)
	assertError(t, w, apperr.InvalidMethodArgument)
}

func TestChangeAndDeletePost(t *testing.T) {
	a := newApp(t)
	_, token := a.member("writer")
	_, otherToken := a.member("other")

	w := a.multipart(http.MethodPost, "/api/v1/posts", token, map[string]string{"content": "v1"}, "a.png")
	require.Equal(t, http.StatusCreated, w.Code)
	path := w.Header().Get("Location")

	w = a.multipart(http.MethodPost, path, otherToken, map[string]string{"content": "hijack"}, "")
	assertError(t, w, apperr.NotMatchWriter)

	w = a.multipart(http.MethodPost, path, token, map[string]string{"content": "v2"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	post := decode[service.PostResponse](t, a.do(http.MethodGet, path, "", "", nil))
	assert.Equal(t, "v2", post.Content)
	assert.Empty(t, post.ImageURLs)

	w = a.do(http.MethodDelete, path, token, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assertError(t, a.do(http.MethodGet, path, "", "", nil), apperr.PostNotFound)
}

func TestLikes(t *testing.T) {
	a := newApp(t)
	_, token := a.member("writer")
	w := a.multipart(http.MethodPost, "/api/v1/posts", token, map[string]string{"content": "like"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	likesPath := w.Header().Get("Location") + "/likes"

	w = a.do(http.MethodPost, likesPath, token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[service.LikeResponse](t, w).LikeCount)

	assertError(t, a.do(http.MethodPost, likesPath, token, "", nil), apperr.PostLikeDuplicated)

	w = a.do(http.MethodGet, likesPath, token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[service.LikeResponse](t, w).Liked)

	w = a.do(http.MethodDelete, likesPath, token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[service.LikeResponse](t, w).LikeCount)
}

func TestComments(t *testing.T) {
	a := newApp(t)
	_, token := a.member("writer")
	w := a.multipart(http.MethodPost, "/api/v1/posts", token, map[string]string{"content": "post"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	commentsPath := w.Header().Get("Location") + "/comments"

	w = a.json(http.MethodPost, commentsPath, token, map[string]any{"content": "first"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parentID := decode[int64](t, w)

	w = a.json(http.MethodPost, commentsPath, token, map[string]any{"content": "reply", "parentId": parentID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.json(http.MethodPatch, fmt.Sprintf("%s/%d", commentsPath, parentID), token, map[string]any{"content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, commentsPath, "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[service.CommentsResponse](t, w)
	require.Len(t, comments.Comments, 1)
	assert.Equal(t, "edited", comments.Comments[0].Content)
	assert.Len(t, comments.Comments[0].Replies, 1)

	assertError(t, a.json(http.MethodPost, commentsPath, token, map[string]any{"content": ""}), apperr.InvalidMethodArgument)
}

func TestProfileAndLogout(t *testing.T) {
	a := newApp(t)
	memberID, token := a.member("writer")
	otherID, _ := a.member("other")
	profilePath := fmt.Sprintf("/api/v1/members/%d", memberID)

	w := a.do(http.MethodGet, profilePath, "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "writer", decode[service.ProfileResponse](t, w).Nickname)

	w = a.json(http.MethodPatch, profilePath, token, map[string]any{"nickname": "renamed", "githubUrl": "https://github.com/renamed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "renamed", decode[service.ProfileResponse](t, w).Nickname)

	w = a.json(http.MethodPatch, profilePath, token, map[string]any{"mbti": "INTJ"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[service.ProfileResponse](t, w)
	assert.Equal(t, "renamed", profile.Nickname)
	assert.Equal(t, "https://github.com/renamed", profile.GithubURL)

	w = a.json(http.MethodPatch, fmt.Sprintf("/api/v1/members/%d", otherID), token, map[string]any{"nickname": "x"})
	assertError(t, w, apperr.NotMatchMyPage)

	w = a.do(http.MethodPost, "/api/v1/logout", token, "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = a.json(http.MethodPatch, profilePath, token, map[string]any{"nickname": "again"})
	assertError(t, w, apperr.BlacklistDetection)
}

func TestSignupRejectsDuplicates(t *testing.T) {
	a := newApp(t)
	a.member("writer")

	w := a.json(http.MethodPost, "/api/v1/signup", "", map[string]string{
		"email": "writer@example.com", "password": "password123", "nickname": "fresh",
	})
	assertError(t, w, apperr.RegisteredMember)

	w = a.json(http.MethodPost, "/api/v1/signup", "", map[string]string{
		"email": "bad email", "password": "password123", "nickname": "fresh",
	})
	assertError(t, w, apperr.InvalidEmail)
}

func TestStudyGroupFlow(t *testing.T) {
	a := newApp(t)
	_, leaderToken := a.member("leader")
	applicantID, applicantToken := a.member("applicant")

	start := time.Now().Add(48 * time.Hour).UTC()
	fields := map[string]string{
		"title":            "Go study",
		"description":      "weekly",
		"topic":            "BACKEND",
		"region":           "SEOUL",
		"numberOfRecruits": "3",
		"startDateTime":    start.Format(time.RFC3339),
		"endDateTime":      start.Add(30 * 24 * time.Hour).Format(time.RFC3339),
	}
	w := a.multipart(http.MethodPost, "/api/v1/study-groups", leaderToken, fields, "cover.jpg")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	groupPath := fmt.Sprintf("/api/v1/study-groups/%d", decode[int64](t, w))

	w = a.do(http.MethodPost, groupPath+"/apply", applicantToken, "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assertError(t, a.do(http.MethodPost, groupPath+"/apply", applicantToken, "", nil), apperr.ExistingStudyGroupMember)

	acceptPath := fmt.Sprintf("%s/members/%d/accept", groupPath, applicantID)
	assertError(t, a.do(http.MethodPost, acceptPath, applicantToken, "", nil), apperr.NotStudyLeader)
	w = a.do(http.MethodPost, acceptPath, leaderToken, "", nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = a.do(http.MethodGet, groupPath, "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	group := decode[service.StudyGroupResponse](t, w)
	assert.Equal(t, int64(2), group.NumberOfMembers)
	assert.Equal(t, "leader", group.Leader.Nickname)

	w = a.json(http.MethodPost, groupPath+"/questions", applicantToken, map[string]any{"content": "where?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = a.do(http.MethodGet, groupPath+"/questions", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]service.QuestionResponse](t, w), 1)

	w = a.multipart(http.MethodPatch, groupPath, leaderToken, map[string]string{"title": "Go study 2", "description": "weekly"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodDelete, groupPath, leaderToken, "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assertError(t, a.do(http.MethodGet, groupPath, "", "", nil), apperr.StudyGroupNotFound)
}

func TestCreateStudyGroupRejectsBadPeriod(t *testing.T) {
	a := newApp(t)
	_, token := a.member("leader")

	past := time.Now().Add(-time.Hour).UTC()
	w := a.multipart(http.MethodPost, "/api/v1/study-groups", token, map[string]string{
		"title":            "late",
		"description":      "d",
		"topic":            "AI",
		"isOnline":         "true",
		"numberOfRecruits": "2",
		"startDateTime":    past.Format(time.RFC3339),
		"endDateTime":      past.Add(time.Hour).Format(time.RFC3339),
	}, "cover.png")
	assertError(t, w, apperr.InvalidStudyPeriod)
}

func TestBadPathParameter(t *testing.T) {
	a := newApp(t)

	w := a.do(http.MethodGet, "/api/v1/post/abc", "", "", nil)
	assertError(t, w, apperr.InvalidMethodArgument)
	assert.True(t, strings.Contains(w.Body.String(), "detail"))
}

func TestOversizedBodyWithoutLength(t *testing.T) {
	a := newApp(t)
	_, token := a.member("writer")

	// MultiReader hides the length, so the request is sent chunked.
	body := io.MultiReader(strings.NewReader(`{"content":"`), strings.NewReader(strings.Repeat("a", 3<<20)), strings.NewReader(`"}`))
	w := a.do(http.MethodPost, "/api/v1/signup", "", "application/json", body)
	assertError(t, w, apperr.OverMaxSize)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("content", "big"))
	part, err := mw.CreateFormFile("imageFile", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, 3<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	w = a.do(http.MethodPost, "/api/v1/posts", token, mw.FormDataContentType(), io.MultiReader(&buf))
	assertError(t, w, apperr.OverMaxSize)
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/agora/internal/store"
)

const (
	defaultFeedLimit   = 20
	notificationsLimit = 50
	trendingLimit      = 10
	trendingWindow     = 24 * time.Hour
)

type createUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
}

type createPostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type createCommentRequest struct {
	Content string `json:"content"`
}

// httpError maps store sentinels onto HTTP statuses; anything else is a 500.
func httpError(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFoundMsg)
	case errors.Is(err, store.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "username already exists")
	default:
		return err
	}
}

func (s *Server) createUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.DisplayName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and display_name are required")
	}

	user := &store.User{
		ID:          uuid.NewString(),
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   fmt.Sprintf("https://api.dicebear.com/7.x/personas/svg?seed=%s", req.Username),
	}
	if err := s.store.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "username already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (s *Server) getUser(c echo.Context) error {
	user, err := s.store.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) getFeed(c echo.Context) error {
	skip := intQuery(c, "skip", 0)
	limit := intQuery(c, "limit", defaultFeedLimit)

	posts, err := s.store.ListFeed(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) createPost(c echo.Context) error {
	authorID := c.QueryParam("author_id")
	if authorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "author_id is required")
	}

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	author, err := s.store.GetUser(ctx, authorID)
	if err != nil {
		return httpError(err, "user not found")
	}

	post := &store.Post{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		AuthorID: author.ID,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return httpError(err, "user not found")
	}

	s.gateway.BroadcastNewPost(post.ID, author.DisplayName, post.Title)

	return c.JSON(http.StatusCreated, post)
}

func (s *Server) toggleLike(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	liked, err := s.store.ToggleLike(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return httpError(err, "post not found")
	}

	action := "unliked"
	if liked {
		action = "liked"
	}
	return c.JSON(http.StatusOK, map[string]string{"action": action})
}

func (s *Server) addConviction(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	result, err := s.engine.ApplyConviction(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return httpError(err, "post not found")
	}

	s.gateway.BroadcastConvictionUpdate(c.Param("id"), result.NewMeter)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":              "conviction added",
		"new_conviction_count": result.NewMeter,
	})
}

func (s *Server) createComment(c echo.Context) error {
	authorID := c.QueryParam("author_id")
	if authorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "author_id is required")
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	comment := &store.Comment{
		ID:       uuid.NewString(),
		PostID:   c.Param("id"),
		AuthorID: authorID,
		Content:  req.Content,
	}
	if err := s.store.CreateComment(c.Request().Context(), comment); err != nil {
		return httpError(err, "post or author not found")
	}
	return c.JSON(http.StatusCreated, comment)
}

func (s *Server) listComments(c echo.Context) error {
	comments, err := s.store.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}

func (s *Server) listNotifications(c echo.Context) error {
	notifications, err := s.store.ListNotifications(c.Request().Context(), c.Param("id"), notificationsLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notifications)
}

func (s *Server) getTrending(c echo.Context) error {
	since := time.Now().Add(-trendingWindow)
	result, err := s.store.Trending(c.Request().Context(), since, trendingLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func intQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

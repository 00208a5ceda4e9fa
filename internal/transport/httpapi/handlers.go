package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/internal/service/auth"
	"github.com/haeyeon/festabot/internal/service/chat"
	"github.com/haeyeon/festabot/internal/storage/sqlite"
)

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply           string  `json:"reply"`
	RelatedEventIDs []int64 `json:"related_event_ids"`
	Warning         string  `json:"warning,omitempty"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and message are required")
	}

	result, err := s.chat.Reply(c.Request().Context(), req.UserID, req.Message)
	if err != nil {
		// The reply was computed, only the history write failed. Hand
		// the reply out anyway and tell the client it was not recorded.
		if errors.Is(err, chat.ErrTurnNotSaved) {
			return c.JSON(http.StatusOK, chatResponse{
				Reply:           result.Reply,
				RelatedEventIDs: result.RelatedEventIDs,
				Warning:         "conversation history was not saved",
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "chat failed")
	}

	return c.JSON(http.StatusOK, chatResponse{
		Reply:           result.Reply,
		RelatedEventIDs: result.RelatedEventIDs,
	})
}

type eventResponse struct {
	ID        int64   `json:"id"`
	Codename  string  `json:"codename"`
	GuName    string  `json:"gu_name"`
	Title     string  `json:"title"`
	Place     string  `json:"place"`
	OrgName   string  `json:"org_name"`
	UseTarget string  `json:"use_target"`
	UseFee    string  `json:"use_fee"`
	Program   string  `json:"program"`
	OrgLink   string  `json:"org_link"`
	MainImg   string  `json:"main_img"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Lot       float64 `json:"lot"`
	Lat       float64 `json:"lat"`
	IsFree    string  `json:"is_free"`
	HmpgAddr  string  `json:"hmpg_addr"`
}

func toEventResponse(ev core.Event) eventResponse {
	return eventResponse{
		ID:        ev.ID,
		Codename:  ev.Codename,
		GuName:    ev.GuName,
		Title:     ev.Title,
		Place:     ev.Place,
		OrgName:   ev.OrgName,
		UseTarget: ev.UseTarget,
		UseFee:    ev.UseFee,
		Program:   ev.Program,
		OrgLink:   ev.OrgLink,
		MainImg:   ev.MainImg,
		StartDate: ev.StartDate,
		EndDate:   ev.EndDate,
		Lot:       ev.Lot,
		Lat:       ev.Lat,
		IsFree:    ev.IsFree,
		HmpgAddr:  ev.HmpgAddr,
	}
}

func (s *Server) handleListEvents(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	filter := sqlite.ListFilter{
		Codename:  c.QueryParam("codename"),
		GuName:    c.QueryParam("gu_name"),
		Search:    c.QueryParam("search"),
		Date:      c.QueryParam("date"),
		StartDate: c.QueryParam("start_date"),
		EndDate:   c.QueryParam("end_date"),
		IsFree:    c.QueryParam("is_free"),
		Offset:    offset,
		Limit:     limit,
	}

	events, err := s.events.List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing failed")
	}

	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventResponse(ev))
	}
	return c.JSON(http.StatusOK, map[string]any{"events": out})
}

func (s *Server) handleGetEvent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	ev, err := s.events.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	if ev == nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}
	return c.JSON(http.StatusOK, toEventResponse(*ev))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.auth.Signup(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		case errors.Is(err, auth.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "signup failed")
	}

	return c.JSON(http.StatusCreated, map[string]any{"id": user.ID, "username": user.Username})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, err := s.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	return c.JSON(http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleLike(c echo.Context) error {
	user := currentUser(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	ev, err := s.events.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	if ev == nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}

	if err := s.likes.Like(c.Request().Context(), user.ID, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "like failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUnlike(c echo.Context) error {
	user := currentUser(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	if err := s.likes.Unlike(c.Request().Context(), user.ID, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unlike failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMyLikes(c echo.Context) error {
	user := currentUser(c)
	ids, err := s.likes.LikedEventIDs(c.Request().Context(), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing likes failed")
	}
	if ids == nil {
		ids = []int64{}
	}
	return c.JSON(http.StatusOK, map[string]any{"event_ids": ids})
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/announce"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type announceApi struct {
	svc       announce.Service
	schoolSvc school.Service
	userSvc   user.Service
}

func registerAnnounceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc announce.Service, schoolSvc school.Service, userSvc user.Service) {
	api := announceApi{svc: svc, schoolSvc: schoolSvc, userSvc: userSvc}

	ag := g.Group("/classes/:id/announcements", jwt)
	ag.POST("", api.create, mentorMiddleware())
	ag.GET("", api.query)

	dg := g.Group("/announcements/:id", jwt, mentorMiddleware())
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *announceApi) create(ctx echo.Context) error {
	cls, err := api.schoolSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() && cls.MentorID != ctxUsr.ID {
		return errHttpForbidden
	}

	var data announce.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ann, err := api.svc.Create(ctx.Request().Context(), cls.ID, ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announceApi) query(ctx echo.Context) error {
	cls, err := api.schoolSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if isStudentOnly(ctxUsr) {
		enrolled, err := api.schoolSvc.IsEnrolled(ctx.Request().Context(), cls.ID, ctxUsr.ID)
		if err != nil {
			return errors.Wrap(err, "checking enrollment")
		}
		if !enrolled {
			return errHttpNotFound
		}
	}

	anns, err := api.svc.Query(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announce.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announceApi) destroy(ctx echo.Context) error {
	ann, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() && ann.AuthorID != ctxUsr.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), ann.ID); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

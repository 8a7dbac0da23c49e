package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type schoolApi struct {
	svc     school.Service
	userSvc user.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc school.Service, userSvc user.Service) {
	api := schoolApi{svc: svc, userSvc: userSvc}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create, mentorMiddleware())
	cg.GET("", api.query)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, mentorMiddleware())
	dg.DELETE("", api.destroy, mentorMiddleware())
	dg.GET("/students", api.students, mentorMiddleware())
	dg.POST("/students", api.enroll, mentorMiddleware())
	dg.DELETE("/students/:studentID", api.unenroll, mentorMiddleware())
}

// ownClassOrAdmin fetches the class and checks the caller may manage it:
// the owning mentor or an admin.
func (api *schoolApi) ownClassOrAdmin(ctx echo.Context) (school.Class, error) {
	cls, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return school.Class{}, err
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() && cls.MentorID != ctxUsr.ID {
		return school.Class{}, errHttpForbidden
	}
	return cls, nil
}

// Handlers

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if data.MentorID == "" || !ctxUsr.IsAdmin() {
		// mentors always create their own classes
		data.MentorID = ctxUsr.ID
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *schoolApi) query(ctx echo.Context) error {
	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Class{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// students only see classes they are enrolled in
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctxUsr.IsStudent() && !ctxUsr.IsMentor() && !ctxUsr.IsAdmin() {
		filter.StudentID = ctxUsr.ID
	}

	classes, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	cls, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) update(ctx echo.Context) error {
	cls, err := api.ownClassOrAdmin(ctx)
	if err != nil {
		return err
	}

	var data school.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(cls); err != nil {
		return err
	}

	cls, err = api.svc.Update(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	cls, err := api.ownClassOrAdmin(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) students(ctx echo.Context) error {
	cls, err := api.ownClassOrAdmin(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.Students(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) enroll(ctx echo.Context) error {
	cls, err := api.ownClassOrAdmin(ctx)
	if err != nil {
		return err
	}

	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	std, err := api.userSvc.GetByID(ctx.Request().Context(), data.StudentID)
	if err != nil {
		return err
	}
	if !std.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "user is not a student"})
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), cls.ID, std.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *schoolApi) unenroll(ctx echo.Context) error {
	cls, err := api.ownClassOrAdmin(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Unenroll(ctx.Request().Context(), cls.ID, ctx.Param("studentID")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

func (er *EnrollRequest) Validate() error { return core.Validate.Struct(er) }

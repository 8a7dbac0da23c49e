package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type assignmentApi struct {
	svc       assignment.Service
	schoolSvc school.Service
	userSvc   user.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc assignment.Service, schoolSvc school.Service, userSvc user.Service) {
	api := assignmentApi{svc: svc, schoolSvc: schoolSvc, userSvc: userSvc}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create, mentorMiddleware())
	ag.GET("", api.query)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, mentorMiddleware())
	dg.DELETE("", api.destroy, mentorMiddleware())
	dg.POST("/submissions", api.submit, studentMiddleware())
	dg.GET("/submissions", api.submissions, mentorMiddleware())
	dg.GET("/submissions/mine", api.mySubmission, studentMiddleware())

	sg := g.Group("/submissions", jwt, mentorMiddleware())
	sg.POST("/:id/grade", api.grade)
}

func (api *assignmentApi) ownAssignmentOrAdmin(ctx echo.Context, id string) (assignment.Assignment, error) {
	asg, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return assignment.Assignment{}, err
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "getting context user")
	}
	if ctxUsr.IsAdmin() {
		return asg, nil
	}
	cls, err := api.schoolSvc.Get(ctx.Request().Context(), asg.ClassID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment class")
	}
	if cls.MentorID != ctxUsr.ID {
		return assignment.Assignment{}, errHttpForbidden
	}
	return asg, nil
}

func (api *assignmentApi) requireEnrolled(ctx echo.Context, classID, studentID string) error {
	enrolled, err := api.schoolSvc.IsEnrolled(ctx.Request().Context(), classID, studentID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return errHttpNotFound
	}
	return nil
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data CreateAssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateAssignmentRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.schoolSvc.Get(ctx.Request().Context(), data.ClassID)
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

	asg, err := api.svc.Create(ctx.Request().Context(), cls.ID, data.NewAssignment)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	filter := new(assignment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assignment.Assignment{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if isStudentOnly(ctxUsr) {
		if filter.ClassID == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "this field is required"})
		}
		if err := api.requireEnrolled(ctx, filter.ClassID, ctxUsr.ID); err != nil {
			return err
		}
	}

	asgs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if isStudentOnly(ctxUsr) {
		if err := api.requireEnrolled(ctx, asg.ClassID, ctxUsr.ID); err != nil {
			return err
		}
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	asg, err := api.ownAssignmentOrAdmin(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(asg); err != nil {
		return err
	}

	asg, err = api.svc.Update(ctx.Request().Context(), asg.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	asg, err := api.ownAssignmentOrAdmin(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.requireEnrolled(ctx, asg.ClassID, ctxUsr.ID); err != nil {
		return err
	}

	var data assignment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), asg.ID, ctxUsr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) submissions(ctx echo.Context) error {
	asg, err := api.ownAssignmentOrAdmin(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	subs, err := api.svc.Submissions(ctx.Request().Context(), asg.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []assignment.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) mySubmission(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.StudentSubmission(ctx.Request().Context(), ctx.Param("id"), ctxUsr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	sub, err := api.svc.Submission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	asg, err := api.ownAssignmentOrAdmin(ctx, sub.AssignmentID)
	if err != nil {
		return err
	}

	var data assignment.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(asg); err != nil {
		return err
	}

	sub, err = api.svc.Grade(ctx.Request().Context(), sub.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

type CreateAssignmentRequest struct {
	assignment.NewAssignment
	ClassID string `json:"class_id" validate:"required"`
}

func (ca *CreateAssignmentRequest) Validate() error {
	if err := core.Validate.Struct(ca); err != nil {
		return err
	}
	return ca.NewAssignment.Validate()
}

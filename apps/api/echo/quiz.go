package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type quizApi struct {
	svc       quiz.Service
	schoolSvc school.Service
	userSvc   user.Service
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc quiz.Service, schoolSvc school.Service, userSvc user.Service) {
	api := quizApi{svc: svc, schoolSvc: schoolSvc, userSvc: userSvc}

	qg := g.Group("/quizzes", jwt)
	qg.POST("", api.create, mentorMiddleware())
	qg.GET("", api.query)

	dg := qg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, mentorMiddleware())
	dg.DELETE("", api.destroy, mentorMiddleware())
	dg.GET("/questions", api.questions)
	dg.POST("/questions", api.addQuestion, mentorMiddleware())
	dg.DELETE("/questions/:questionID", api.destroyQuestion, mentorMiddleware())
	dg.POST("/attempts", api.startAttempt, studentMiddleware())
	dg.GET("/attempts", api.attemptHistory)

	ag := g.Group("/attempts", jwt, studentMiddleware())
	ag.POST("/:id/answers", api.submitAnswer)
	ag.POST("/:id/finish", api.finishAttempt)
	ag.GET("/:id/answers", api.attemptAnswers)
}

// ownQuizOrAdmin fetches the quiz and checks the caller may manage it:
// the mentor owning its class or an admin.
func (api *quizApi) ownQuizOrAdmin(ctx echo.Context) (quiz.Quiz, error) {
	qz, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return quiz.Quiz{}, err
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "getting context user")
	}
	if ctxUsr.IsAdmin() {
		return qz, nil
	}
	cls, err := api.schoolSvc.Get(ctx.Request().Context(), qz.ClassID)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "getting quiz class")
	}
	if cls.MentorID != ctxUsr.ID {
		return quiz.Quiz{}, errHttpForbidden
	}
	return qz, nil
}

// requireEnrolled hides quizzes of classes the student is not enrolled in.
func (api *quizApi) requireEnrolled(ctx echo.Context, classID, studentID string) error {
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

func (api *quizApi) create(ctx echo.Context) error {
	var data CreateQuizRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateQuizRequest")
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

	qz, err := api.svc.Create(ctx.Request().Context(), cls.ID, data.NewQuiz)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) query(ctx echo.Context) error {
	filter := new(quiz.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []quiz.Quiz{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if isStudentOnly(ctxUsr) {
		// students browse one enrolled class at a time
		if filter.ClassID == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "this field is required"})
		}
		if err := api.requireEnrolled(ctx, filter.ClassID, ctxUsr.ID); err != nil {
			return err
		}
	}

	quizzes, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	qz, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if isStudentOnly(ctxUsr) {
		if err := api.requireEnrolled(ctx, qz.ClassID, ctxUsr.ID); err != nil {
			return err
		}
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) update(ctx echo.Context) error {
	qz, err := api.ownQuizOrAdmin(ctx)
	if err != nil {
		return err
	}

	var data quiz.UpdateQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}
	if err := data.Validate(qz); err != nil {
		return err
	}

	qz, err = api.svc.Update(ctx.Request().Context(), qz.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	qz, err := api.ownQuizOrAdmin(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), qz.ID); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) questions(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if isStudentOnly(ctxUsr) {
		qz, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return err
		}
		if err := api.requireEnrolled(ctx, qz.ClassID, ctxUsr.ID); err != nil {
			return err
		}
		questions, err := api.svc.Questions(ctx.Request().Context(), qz.ID)
		if err != nil {
			return errors.Wrap(err, "querying questions")
		}
		return ctx.JSON(http.StatusOK, stripAnswerKeys(questions))
	}

	if _, err := api.ownQuizOrAdmin(ctx); err != nil {
		return err
	}
	questions, err := api.svc.Questions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []quiz.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *quizApi) addQuestion(ctx echo.Context) error {
	qz, err := api.ownQuizOrAdmin(ctx)
	if err != nil {
		return err
	}

	var data quiz.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	qst, err := api.svc.AddQuestion(ctx.Request().Context(), qz.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, qst)
}

func (api *quizApi) destroyQuestion(ctx echo.Context) error {
	if _, err := api.ownQuizOrAdmin(ctx); err != nil {
		return err
	}
	if err := api.svc.DeleteQuestion(ctx.Request().Context(), ctx.Param("questionID")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) startAttempt(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	qz, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.requireEnrolled(ctx, qz.ClassID, ctxUsr.ID); err != nil {
		return err
	}

	att, err := api.svc.StartAttempt(ctx.Request().Context(), qz.ID, ctxUsr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, AttemptDescriptor{Attempt: att, Deadline: att.Deadline(qz)})
}

func (api *quizApi) attemptHistory(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	studentID := ctxUsr.ID
	if !isStudentOnly(ctxUsr) {
		// mentors and admins see all students' attempts
		if _, err := api.ownQuizOrAdmin(ctx); err != nil {
			return err
		}
		studentID = ctx.QueryParam("student_id")
	} else {
		qz, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return err
		}
		if err := api.requireEnrolled(ctx, qz.ClassID, ctxUsr.ID); err != nil {
			return err
		}
	}

	attempts, err := api.svc.AttemptHistory(ctx.Request().Context(), ctx.Param("id"), studentID)
	if err != nil {
		return err
	}
	if attempts == nil {
		attempts = []quiz.Attempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}

func (api *quizApi) submitAnswer(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data quiz.NewAnswer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnswer")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ans, err := api.svc.SubmitAnswer(ctx.Request().Context(), ctx.Param("id"), ctxUsr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ans)
}

func (api *quizApi) finishAttempt(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	att, err := api.svc.FinishAttempt(ctx.Request().Context(), ctx.Param("id"), ctxUsr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *quizApi) attemptAnswers(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	answers, err := api.svc.AttemptAnswers(ctx.Request().Context(), ctx.Param("id"), ctxUsr.ID)
	if err != nil {
		return err
	}
	if answers == nil {
		answers = []quiz.Answer{}
	}
	return ctx.JSON(http.StatusOK, answers)
}

func isStudentOnly(usr user.User) bool {
	return usr.IsStudent() && !usr.IsMentor() && !usr.IsAdmin()
}

type (
	CreateQuizRequest struct {
		quiz.NewQuiz
		ClassID string `json:"class_id" validate:"required"`
	}

	// AttemptDescriptor is a started attempt with its submission deadline,
	// so clients can show a countdown without fetching the quiz again.
	AttemptDescriptor struct {
		quiz.Attempt
		Deadline time.Time `json:"deadline"`
	}

	// StudentQuestion is a question as served to students: no answer key.
	StudentQuestion struct {
		ID       string   `json:"id"`
		QuizID   string   `json:"quiz_id"`
		Text     string   `json:"text"`
		Type     string   `json:"type"`
		Position int      `json:"position"`
		Options  []string `json:"options,omitempty"`
	}
)

func (cq *CreateQuizRequest) Validate() error {
	if err := core.Validate.Struct(cq); err != nil {
		return err
	}
	return cq.NewQuiz.Validate()
}

func stripAnswerKeys(questions []quiz.Question) []StudentQuestion {
	stripped := make([]StudentQuestion, 0, len(questions))
	for _, qst := range questions {
		sq := StudentQuestion{
			ID:       qst.ID,
			QuizID:   qst.QuizID,
			Text:     qst.Text,
			Type:     qst.Type,
			Position: qst.Position,
		}
		for _, opt := range qst.Options {
			sq.Options = append(sq.Options, opt.Text)
		}
		stripped = append(stripped, sq)
	}
	return stripped
}

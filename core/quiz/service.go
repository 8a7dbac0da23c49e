package quiz

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAttemptNotFound  = errors.New("attempt not found")

	// admission denials
	ErrOutsideWindow        = errors.New("quiz is not accepting attempts at this time")
	ErrQuizClosed           = errors.New("quiz is closed")
	ErrAttemptLimitExceeded = errors.New("no attempts left for this quiz")

	// attempt state errors
	ErrAttemptNotActive  = errors.New("attempt is no longer active")
	ErrDeadlineElapsed   = errors.New("attempt deadline has elapsed")
	ErrDuplicateAnswer   = errors.New("this question has already been answered")
	ErrQuestionNotInQuiz = errors.New("question does not belong to this quiz")
)

type (
	Repository interface {
		CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		QueryQuizzes(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Quiz, error)
		UpdateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		DeleteQuizzesByID(ctx context.Context, ids ...string) (int, error)

		CreateQuestion(ctx context.Context, qst Question) (Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		// QueryQuestions returns a quiz's questions in position order.
		QueryQuestions(ctx context.Context, quizID string) ([]Question, error)
		DeleteQuestionsByID(ctx context.Context, ids ...string) (int, error)

		CreateAttempt(ctx context.Context, att Attempt) (Attempt, error)
		GetAttempt(ctx context.Context, id string) (Attempt, error)
		// GetActiveAttempt returns the single in-progress attempt for (quiz, student), or ErrAttemptNotFound.
		GetActiveAttempt(ctx context.Context, quizID, studentID string) (Attempt, error)
		// CountAttempts counts a student's attempts for a quiz regardless of status.
		CountAttempts(ctx context.Context, quizID, studentID string) (int, error)
		// QueryAttempts returns attempts for a quiz in started_at order; studentID "" matches all students.
		QueryAttempts(ctx context.Context, quizID, studentID string) ([]Attempt, error)
		UpdateAttempt(ctx context.Context, att Attempt) (Attempt, error)

		// CreateAnswer returns ErrDuplicateAnswer when (attempt, question) was already answered.
		CreateAnswer(ctx context.Context, ans Answer) (Answer, error)
		QueryAnswers(ctx context.Context, attemptID string) ([]Answer, error)
	}

	Service interface {
		// catalog
		Create(ctx context.Context, classID string, nq NewQuiz) (Quiz, error)
		Get(ctx context.Context, id string) (Quiz, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Quiz, error)
		Update(ctx context.Context, id string, uq UpdateQuiz) (Quiz, error)
		Delete(ctx context.Context, ids ...string) error
		AddQuestion(ctx context.Context, quizID string, nq NewQuestion) (Question, error)
		Questions(ctx context.Context, quizID string) ([]Question, error)
		DeleteQuestion(ctx context.Context, id string) error

		// attempt engine
		StartAttempt(ctx context.Context, quizID, studentID string) (Attempt, error)
		SubmitAnswer(ctx context.Context, attemptID, studentID string, na NewAnswer) (Answer, error)
		FinishAttempt(ctx context.Context, attemptID, studentID string) (Attempt, error)
		AttemptAnswers(ctx context.Context, attemptID, studentID string) ([]Answer, error)
		AttemptHistory(ctx context.Context, quizID, studentID string) ([]Attempt, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, classID string, nq NewQuiz) (Quiz, error) {
	now := time.Now().UTC()
	qz := Quiz{
		ClassID:          classID,
		Title:            nq.Title,
		Description:      nq.Description,
		OpenAt:           nq.OpenAt.UTC(),
		CloseAt:          nq.CloseAt.UTC(),
		TimeLimitMinutes: nq.TimeLimitMinutes,
		AttemptsAllowed:  nq.AttemptsAllowed,
		Status:           nq.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateQuiz(ctx, qz)
}

func (svc *service) Get(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuiz(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, uq UpdateQuiz) (Quiz, error) {
	qz := Quiz{
		ID:               id,
		Title:            uq.Title,
		Description:      uq.Description,
		OpenAt:           uq.OpenAt.UTC(),
		CloseAt:          uq.CloseAt.UTC(),
		TimeLimitMinutes: uq.TimeLimitMinutes,
		AttemptsAllowed:  uq.AttemptsAllowed,
		Status:           uq.Status,
		UpdatedAt:        time.Now().UTC(),
	}
	return svc.repo.UpdateQuiz(ctx, qz)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteQuizzesByID(ctx, ids...)
	return err
}

func (svc *service) AddQuestion(ctx context.Context, quizID string, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetQuiz(ctx, quizID); err != nil {
		return Question{}, err
	}
	qst := Question{
		QuizID:   quizID,
		Text:     nq.Text,
		Type:     nq.Type,
		Position: nq.Position,
	}
	if nq.Type == QuestionMultipleChoice {
		qst.Options = make([]Option, 0, len(nq.Options))
		for _, opt := range nq.Options {
			qst.Options = append(qst.Options, Option{Text: opt.Text, IsCorrect: opt.IsCorrect})
		}
	}
	return svc.repo.CreateQuestion(ctx, qst)
}

func (svc *service) Questions(ctx context.Context, quizID string) ([]Question, error) {
	if _, err := svc.repo.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return svc.repo.QueryQuestions(ctx, quizID)
}

func (svc *service) DeleteQuestion(ctx context.Context, id string) error {
	_, err := svc.repo.DeleteQuestionsByID(ctx, id)
	return err
}

// StartAttempt decides whether studentID may start (or resume) an attempt at
// quizID and creates the attempt when admitted.
//
// At most one in-progress attempt ever exists per (student, quiz): a live one
// is resumed, an expired one is finished with whatever answers exist before a
// new attempt is considered against the attempt limit.
func (svc *service) StartAttempt(ctx context.Context, quizID, studentID string) (Attempt, error) {
	now := NowFunc().UTC()

	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}
	if !qz.WindowContains(now) {
		return Attempt{}, ErrOutsideWindow
	}
	if !qz.IsOpen() {
		return Attempt{}, ErrQuizClosed
	}

	if att, err := svc.repo.GetActiveAttempt(ctx, quizID, studentID); err == nil {
		if !att.DeadlineElapsed(qz, now) {
			return att, nil // idempotent resume
		}
		if _, err := svc.expireAttempt(ctx, qz, att); err != nil {
			return Attempt{}, errors.Wrap(err, "expiring stale attempt")
		}
	} else if errors.Cause(err) != ErrAttemptNotFound {
		return Attempt{}, err
	}

	count, err := svc.repo.CountAttempts(ctx, quizID, studentID)
	if err != nil {
		return Attempt{}, err
	}
	if count >= qz.AttemptsAllowed {
		return Attempt{}, ErrAttemptLimitExceeded
	}

	return svc.repo.CreateAttempt(ctx, Attempt{
		QuizID:    quizID,
		StudentID: studentID,
		Status:    AttemptInProgress,
		StartedAt: now,
	})
}

func (svc *service) SubmitAnswer(ctx context.Context, attemptID, studentID string, na NewAnswer) (Answer, error) {
	att, err := svc.getOwnAttempt(ctx, attemptID, studentID)
	if err != nil {
		return Answer{}, err
	}
	if att.Finished() {
		return Answer{}, ErrAttemptNotActive
	}

	qz, err := svc.repo.GetQuiz(ctx, att.QuizID)
	if err != nil {
		return Answer{}, err
	}
	if att.DeadlineElapsed(qz, NowFunc().UTC()) {
		if _, err := svc.expireAttempt(ctx, qz, att); err != nil {
			return Answer{}, errors.Wrap(err, "expiring stale attempt")
		}
		return Answer{}, ErrDeadlineElapsed
	}

	qst, err := svc.repo.GetQuestion(ctx, na.QuestionID)
	if err != nil {
		if errors.Cause(err) == ErrQuestionNotFound {
			return Answer{}, ErrQuestionNotInQuiz
		}
		return Answer{}, err
	}
	if qst.QuizID != att.QuizID {
		return Answer{}, ErrQuestionNotInQuiz
	}

	return svc.repo.CreateAnswer(ctx, Answer{
		AttemptID:  attemptID,
		QuestionID: na.QuestionID,
		Text:       na.Text,
		CreatedAt:  NowFunc().UTC(),
	})
}

// FinishAttempt finishes an attempt and scores it. Finishing an already
// finished attempt returns the stored score unchanged.
func (svc *service) FinishAttempt(ctx context.Context, attemptID, studentID string) (Attempt, error) {
	att, err := svc.getOwnAttempt(ctx, attemptID, studentID)
	if err != nil {
		return Attempt{}, err
	}
	if att.Finished() {
		return att, nil
	}

	qz, err := svc.repo.GetQuiz(ctx, att.QuizID)
	if err != nil {
		return Attempt{}, err
	}

	now := NowFunc().UTC()
	if att.DeadlineElapsed(qz, now) {
		return svc.expireAttempt(ctx, qz, att)
	}
	return svc.finishAttempt(ctx, att, now)
}

func (svc *service) AttemptAnswers(ctx context.Context, attemptID, studentID string) ([]Answer, error) {
	if _, err := svc.getOwnAttempt(ctx, attemptID, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAnswers(ctx, attemptID)
}

// AttemptHistory returns a student's attempts at a quiz in started_at order;
// studentID "" returns all students' attempts (mentor view). Expired
// in-progress attempts are finished on the way out.
func (svc *service) AttemptHistory(ctx context.Context, quizID, studentID string) ([]Attempt, error) {
	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := svc.repo.QueryAttempts(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	now := NowFunc().UTC()
	for i, att := range attempts {
		if !att.Finished() && att.DeadlineElapsed(qz, now) {
			finished, err := svc.expireAttempt(ctx, qz, att)
			if err != nil {
				return nil, errors.Wrap(err, "expiring stale attempt")
			}
			attempts[i] = finished
		}
	}
	return attempts, nil
}

// getOwnAttempt fetches an attempt and hides other students' attempts behind ErrAttemptNotFound.
func (svc *service) getOwnAttempt(ctx context.Context, attemptID, studentID string) (Attempt, error) {
	att, err := svc.repo.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if studentID != "" && att.StudentID != studentID {
		return Attempt{}, ErrAttemptNotFound
	}
	return att, nil
}

// expireAttempt auto-submits an attempt whose deadline has elapsed: it is
// finished at its deadline and scored with whatever answers exist.
func (svc *service) expireAttempt(ctx context.Context, qz Quiz, att Attempt) (Attempt, error) {
	return svc.finishAttempt(ctx, att, att.Deadline(qz))
}

func (svc *service) finishAttempt(ctx context.Context, att Attempt, finishedAt time.Time) (Attempt, error) {
	questions, err := svc.repo.QueryQuestions(ctx, att.QuizID)
	if err != nil {
		return Attempt{}, err
	}
	answers, err := svc.repo.QueryAnswers(ctx, att.ID)
	if err != nil {
		return Attempt{}, err
	}

	att.Status = AttemptFinished
	att.Score = null.Float32From(Score(questions, answers))
	att.FinishedAt = null.TimeFrom(finishedAt.UTC())
	return svc.repo.UpdateAttempt(ctx, att)
}

package quiz_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/quiz"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var (
	ctx = context.Background()

	// a fixed instant well inside every test quiz's window
	now = time.Date(2021, 5, 10, 10, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) quiz.Service {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	quiz.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { quiz.NowFunc = time.Now })
	return quiz.NewService(dummydb.NewQuizRepository(db))
}

func createQuiz(t *testing.T, svc quiz.Service, nq quiz.NewQuiz) quiz.Quiz {
	t.Helper()

	if nq.Title == "" {
		nq.Title = "Kinshasa History 101"
	}
	if nq.OpenAt.IsZero() {
		nq.OpenAt = now.Add(-time.Hour)
	}
	if nq.CloseAt.IsZero() {
		nq.CloseAt = now.Add(time.Hour)
	}
	if nq.TimeLimitMinutes == 0 {
		nq.TimeLimitMinutes = 30
	}
	if nq.AttemptsAllowed == 0 {
		nq.AttemptsAllowed = 2
	}
	if nq.Status == "" {
		nq.Status = quiz.StatusOpen
	}
	qz, err := svc.Create(ctx, "class1", nq)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return qz
}

func addMCQuestion(t *testing.T, svc quiz.Service, quizID, text, correct string, position int) quiz.Question {
	t.Helper()

	qst, err := svc.AddQuestion(ctx, quizID, quiz.NewQuestion{
		Text:     text,
		Type:     quiz.QuestionMultipleChoice,
		Position: position,
		Options: []quiz.NewOption{
			{Text: correct, IsCorrect: true},
			{Text: "wrong"},
		},
	})
	if err != nil {
		t.Fatalf("AddQuestion() failed: %v", err)
	}
	return qst
}

func Test_service_StartAttempt_admission(t *testing.T) {
	svc := setup(t)

	openQz := createQuiz(t, svc, quiz.NewQuiz{})
	earlyQz := createQuiz(t, svc, quiz.NewQuiz{OpenAt: now.Add(time.Hour), CloseAt: now.Add(2 * time.Hour)})
	lateQz := createQuiz(t, svc, quiz.NewQuiz{OpenAt: now.Add(-2 * time.Hour), CloseAt: now.Add(-time.Hour)})
	closedQz := createQuiz(t, svc, quiz.NewQuiz{Status: quiz.StatusClosed})
	oneShotQz := createQuiz(t, svc, quiz.NewQuiz{AttemptsAllowed: 1})

	// exhaust the single-attempt quiz
	att, err := svc.StartAttempt(ctx, oneShotQz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if _, err = svc.FinishAttempt(ctx, att.ID, "std1"); err != nil {
		t.Fatalf("FinishAttempt() failed: %v", err)
	}

	tests := []struct {
		name    string
		quizID  string
		wantErr error
	}{
		{name: "quiz not found", quizID: "nope", wantErr: quiz.ErrNotFound},
		{name: "before window", quizID: earlyQz.ID, wantErr: quiz.ErrOutsideWindow},
		{name: "after window", quizID: lateQz.ID, wantErr: quiz.ErrOutsideWindow},
		{name: "closed quiz", quizID: closedQz.ID, wantErr: quiz.ErrQuizClosed},
		{name: "attempt limit exceeded", quizID: oneShotQz.ID, wantErr: quiz.ErrAttemptLimitExceeded},
		{name: "admitted", quizID: openQz.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att, err := svc.StartAttempt(ctx, tt.quizID, "std1")
			if err != tt.wantErr {
				t.Fatalf("StartAttempt() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if att.Status != quiz.AttemptInProgress {
					t.Errorf("StartAttempt() status = %s, want %s", att.Status, quiz.AttemptInProgress)
				}
				if !att.StartedAt.Equal(now) {
					t.Errorf("StartAttempt() started_at = %v, want %v", att.StartedAt, now)
				}
			}
		})
	}
}

func Test_service_StartAttempt_resume(t *testing.T) {
	svc := setup(t)
	qz := createQuiz(t, svc, quiz.NewQuiz{AttemptsAllowed: 1})

	att, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}

	// a second start within the time limit resumes the live attempt
	// instead of burning the last allowed attempt
	resumed, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if resumed.ID != att.ID {
		t.Errorf("StartAttempt() resumed attempt %s, want %s", resumed.ID, att.ID)
	}

	// another student is admitted independently
	other, err := svc.StartAttempt(ctx, qz.ID, "std2")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if other.ID == att.ID {
		t.Error("StartAttempt() shared an attempt between students")
	}
}

func Test_service_StartAttempt_expiresStaleAttempt(t *testing.T) {
	svc := setup(t)
	qz := createQuiz(t, svc, quiz.NewQuiz{TimeLimitMinutes: 30, AttemptsAllowed: 2})
	qst := addMCQuestion(t, svc, qz.ID, "Capital of DRC?", "Kinshasa", 0)

	att, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if _, err = svc.SubmitAnswer(ctx, att.ID, "std1", quiz.NewAnswer{QuestionID: qst.ID, Text: "Kinshasa"}); err != nil {
		t.Fatalf("SubmitAnswer() failed: %v", err)
	}

	// come back past the deadline; the stale attempt is auto-submitted and a fresh one starts
	started := now
	now = now.Add(45 * time.Minute)
	defer func() { now = started }()

	fresh, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if fresh.ID == att.ID {
		t.Fatal("StartAttempt() resumed an expired attempt")
	}

	expired, err := svc.FinishAttempt(ctx, att.ID, "std1")
	if err != nil {
		t.Fatalf("FinishAttempt() failed: %v", err)
	}
	if !expired.Finished() {
		t.Error("expired attempt was not finished")
	}
	if deadline := att.Deadline(qz); !expired.FinishedAt.Time.Equal(deadline) {
		t.Errorf("expired attempt finished_at = %v, want deadline %v", expired.FinishedAt.Time, deadline)
	}
	if expired.Score.Float32 != 100 {
		t.Errorf("expired attempt score = %v, want 100", expired.Score.Float32)
	}

	// the expired attempt still counts: the fresh one was the last allowed
	if _, err = svc.FinishAttempt(ctx, fresh.ID, "std1"); err != nil {
		t.Fatalf("FinishAttempt() failed: %v", err)
	}
	if _, err = svc.StartAttempt(ctx, qz.ID, "std1"); err != quiz.ErrAttemptLimitExceeded {
		t.Errorf("StartAttempt() error = %v, wantErr %v", err, quiz.ErrAttemptLimitExceeded)
	}
}

func Test_service_SubmitAnswer(t *testing.T) {
	svc := setup(t)
	qz := createQuiz(t, svc, quiz.NewQuiz{})
	qst := addMCQuestion(t, svc, qz.ID, "Capital of DRC?", "Kinshasa", 0)

	otherQz := createQuiz(t, svc, quiz.NewQuiz{Title: "Geography"})
	foreignQst := addMCQuestion(t, svc, otherQz.ID, "Longest river?", "Congo", 0)

	att, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}

	finishedAtt, err := svc.StartAttempt(ctx, otherQz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if _, err = svc.FinishAttempt(ctx, finishedAtt.ID, "std1"); err != nil {
		t.Fatalf("FinishAttempt() failed: %v", err)
	}

	tests := []struct {
		name      string
		attemptID string
		studentID string
		answer    quiz.NewAnswer
		wantErr   error
	}{
		{name: "attempt not found", attemptID: "nope", studentID: "std1", wantErr: quiz.ErrAttemptNotFound},
		{name: "another student's attempt is hidden", attemptID: att.ID, studentID: "std2", wantErr: quiz.ErrAttemptNotFound},
		{name: "finished attempt", attemptID: finishedAtt.ID, studentID: "std1", wantErr: quiz.ErrAttemptNotActive},
		{name: "unknown question", attemptID: att.ID, studentID: "std1",
			answer: quiz.NewAnswer{QuestionID: "nope", Text: "Kinshasa"}, wantErr: quiz.ErrQuestionNotInQuiz},
		{name: "question from another quiz", attemptID: att.ID, studentID: "std1",
			answer: quiz.NewAnswer{QuestionID: foreignQst.ID, Text: "Congo"}, wantErr: quiz.ErrQuestionNotInQuiz},
		{name: "accepted", attemptID: att.ID, studentID: "std1",
			answer: quiz.NewAnswer{QuestionID: qst.ID, Text: "Kinshasa"}},
		{name: "duplicate answer", attemptID: att.ID, studentID: "std1",
			answer: quiz.NewAnswer{QuestionID: qst.ID, Text: "Lubumbashi"}, wantErr: quiz.ErrDuplicateAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans, err := svc.SubmitAnswer(ctx, tt.attemptID, tt.studentID, tt.answer)
			if err != tt.wantErr {
				t.Fatalf("SubmitAnswer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && ans.Text != tt.answer.Text {
				t.Errorf("SubmitAnswer() text = %s, want %s", ans.Text, tt.answer.Text)
			}
		})
	}
}

func Test_service_SubmitAnswer_deadlineElapsed(t *testing.T) {
	svc := setup(t)
	qz := createQuiz(t, svc, quiz.NewQuiz{TimeLimitMinutes: 30})
	qst := addMCQuestion(t, svc, qz.ID, "Capital of DRC?", "Kinshasa", 0)

	att, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}

	started := now
	now = now.Add(31 * time.Minute)
	defer func() { now = started }()

	if _, err = svc.SubmitAnswer(ctx, att.ID, "std1", quiz.NewAnswer{QuestionID: qst.ID, Text: "Kinshasa"}); err != quiz.ErrDeadlineElapsed {
		t.Fatalf("SubmitAnswer() error = %v, wantErr %v", err, quiz.ErrDeadlineElapsed)
	}

	// the late submission auto-submitted the attempt
	att, err = svc.FinishAttempt(ctx, att.ID, "std1")
	if err != nil {
		t.Fatalf("FinishAttempt() failed: %v", err)
	}
	if !att.Finished() {
		t.Error("attempt was not auto-submitted")
	}
	if att.Score.Float32 != 0 {
		t.Errorf("attempt score = %v, want 0", att.Score.Float32)
	}
}

func Test_service_FinishAttempt(t *testing.T) {
	svc := setup(t)
	qz := createQuiz(t, svc, quiz.NewQuiz{})
	qst1 := addMCQuestion(t, svc, qz.ID, "Capital of DRC?", "Kinshasa", 0)
	qst2 := addMCQuestion(t, svc, qz.ID, "Longest river?", "Congo", 1)
	if _, err := svc.AddQuestion(ctx, qz.ID, quiz.NewQuestion{
		Text: "Describe the rainy season.", Type: quiz.QuestionEssay, Position: 2,
	}); err != nil {
		t.Fatalf("AddQuestion() failed: %v", err)
	}

	att, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if _, err = svc.SubmitAnswer(ctx, att.ID, "std1", quiz.NewAnswer{QuestionID: qst1.ID, Text: "Kinshasa"}); err != nil {
		t.Fatalf("SubmitAnswer() failed: %v", err)
	}
	if _, err = svc.SubmitAnswer(ctx, att.ID, "std1", quiz.NewAnswer{QuestionID: qst2.ID, Text: "Nile"}); err != nil {
		t.Fatalf("SubmitAnswer() failed: %v", err)
	}

	// scored over the 2 multiple choice questions only
	att, err = svc.FinishAttempt(ctx, att.ID, "std1")
	if err != nil {
		t.Fatalf("FinishAttempt() failed: %v", err)
	}
	if !att.Finished() {
		t.Errorf("FinishAttempt() status = %s, want %s", att.Status, quiz.AttemptFinished)
	}
	if att.Score.Float32 != 50 {
		t.Errorf("FinishAttempt() score = %v, want 50", att.Score.Float32)
	}
	if !att.FinishedAt.Time.Equal(now) {
		t.Errorf("FinishAttempt() finished_at = %v, want %v", att.FinishedAt.Time, now)
	}

	// finishing again returns the stored attempt unchanged
	again, err := svc.FinishAttempt(ctx, att.ID, "std1")
	if err != nil {
		t.Fatalf("FinishAttempt() failed: %v", err)
	}
	if again.Score != att.Score || !again.FinishedAt.Time.Equal(att.FinishedAt.Time) {
		t.Errorf("FinishAttempt() is not idempotent: got %+v, want %+v", again, att)
	}

	// ownership is hidden behind not found
	if _, err = svc.FinishAttempt(ctx, att.ID, "std2"); err != quiz.ErrAttemptNotFound {
		t.Errorf("FinishAttempt() error = %v, wantErr %v", err, quiz.ErrAttemptNotFound)
	}
}

func Test_service_AttemptAnswers(t *testing.T) {
	svc := setup(t)
	qz := createQuiz(t, svc, quiz.NewQuiz{})
	qst := addMCQuestion(t, svc, qz.ID, "Capital of DRC?", "Kinshasa", 0)

	att, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if _, err = svc.SubmitAnswer(ctx, att.ID, "std1", quiz.NewAnswer{QuestionID: qst.ID, Text: "Kinshasa"}); err != nil {
		t.Fatalf("SubmitAnswer() failed: %v", err)
	}

	answers, err := svc.AttemptAnswers(ctx, att.ID, "std1")
	if err != nil {
		t.Fatalf("AttemptAnswers() failed: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("AttemptAnswers() len = %d, want 1", len(answers))
	}

	// other students see nothing; mentors ("" studentID) see everything
	if _, err = svc.AttemptAnswers(ctx, att.ID, "std2"); err != quiz.ErrAttemptNotFound {
		t.Errorf("AttemptAnswers() error = %v, wantErr %v", err, quiz.ErrAttemptNotFound)
	}
	if _, err = svc.AttemptAnswers(ctx, att.ID, ""); err != nil {
		t.Errorf("AttemptAnswers() mentor view failed: %v", err)
	}
}

func Test_service_AttemptHistory(t *testing.T) {
	svc := setup(t)
	qz := createQuiz(t, svc, quiz.NewQuiz{TimeLimitMinutes: 30, AttemptsAllowed: 3})
	addMCQuestion(t, svc, qz.ID, "Capital of DRC?", "Kinshasa", 0)

	att, err := svc.StartAttempt(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}
	if _, err = svc.StartAttempt(ctx, qz.ID, "std2"); err != nil {
		t.Fatalf("StartAttempt() failed: %v", err)
	}

	started := now
	now = now.Add(time.Hour)
	defer func() { now = started }()

	// listing finishes expired attempts on the way out
	attempts, err := svc.AttemptHistory(ctx, qz.ID, "std1")
	if err != nil {
		t.Fatalf("AttemptHistory() failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("AttemptHistory() len = %d, want 1", len(attempts))
	}
	if !attempts[0].Finished() {
		t.Error("AttemptHistory() did not expire the stale attempt")
	}
	if deadline := att.Deadline(qz); !attempts[0].FinishedAt.Time.Equal(deadline) {
		t.Errorf("AttemptHistory() finished_at = %v, want deadline %v", attempts[0].FinishedAt.Time, deadline)
	}

	// mentor view returns all students' attempts
	attempts, err = svc.AttemptHistory(ctx, qz.ID, "")
	if err != nil {
		t.Fatalf("AttemptHistory() failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("AttemptHistory() len = %d, want 2", len(attempts))
	}
}

package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

type quizFixture struct {
	mentor   user.User
	student  user.User
	outsider user.User
	class    school.Class
}

func setupQuizFixture(t *testing.T, suffix string) quizFixture {
	t.Helper()
	ctx := context.Background()

	fix := quizFixture{
		mentor:   testutil.CreateUser(t, usrRepo, "Mentor", "mentor"+suffix, "mentor"+suffix+"@test.cd", "", user.MentorRoles, true),
		student:  testutil.CreateUser(t, usrRepo, "Student", "student"+suffix, "student"+suffix+"@test.cd", "", user.StudentRoles, true),
		outsider: testutil.CreateUser(t, usrRepo, "Outsider", "outsider"+suffix, "outsider"+suffix+"@test.cd", "", user.StudentRoles, true),
	}

	cls, err := schoolSvc.Create(ctx, school.NewClass{Name: "Histoire " + suffix, MentorID: fix.mentor.ID})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err = schoolSvc.Enroll(ctx, cls.ID, fix.student.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	fix.class = cls
	return fix
}

func createQuizReq(classID string) echoapi.CreateQuizRequest {
	now := time.Now().UTC()
	return echoapi.CreateQuizRequest{
		NewQuiz: quiz.NewQuiz{
			Title:            "Indépendance du Congo",
			OpenAt:           now.Add(-time.Hour),
			CloseAt:          now.Add(time.Hour),
			TimeLimitMinutes: 30,
			AttemptsAllowed:  2,
		},
		ClassID: classID,
	}
}

func createQuizHTTP(t *testing.T, token, classID string) quiz.Quiz {
	t.Helper()

	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes", token, marchallObj(t, createQuizReq(classID)))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("quiz create failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var qz quiz.Quiz
	if err := json.Unmarshal(rec.Body.Bytes(), &qz); err != nil {
		t.Fatalf("unmarshalling quiz: %v", err)
	}
	return qz
}

func addQuestionHTTP(t *testing.T, token, quizID string, nq quiz.NewQuestion) quiz.Question {
	t.Helper()

	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes/"+quizID+"/questions", token, marchallObj(t, nq))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("question create failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var qst quiz.Question
	if err := json.Unmarshal(rec.Body.Bytes(), &qst); err != nil {
		t.Fatalf("unmarshalling question: %v", err)
	}
	return qst
}

func mcQuestion(text, correct string, position int) quiz.NewQuestion {
	return quiz.NewQuestion{
		Text:     text,
		Type:     quiz.QuestionMultipleChoice,
		Position: position,
		Options: []quiz.NewOption{
			{Text: correct, IsCorrect: true},
			{Text: "wrong"},
		},
	}
}

func Test_quizApi_create(t *testing.T) {
	fix := setupQuizFixture(t, "qc")
	otherMentor := testutil.CreateUser(t, usrRepo, "Other Mentor", "mentorqc2", "mentorqc2@test.cd", "", user.MentorRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "adminqc", "adminqc@test.cd", "", user.AdminRoles, true)

	body := marchallObj(t, createQuizReq(fix.class.ID))
	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student forbidden", token: getToken(t, fix.student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "not the class mentor", token: getToken(t, otherMentor), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "class mentor", token: getToken(t, fix.mentor), wantCode: http.StatusCreated},
		{name: "admin", token: getToken(t, admin), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes", tt.token, body)
			app.ServeHTTP(rec, req)
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func Test_quizApi_questions_studentView(t *testing.T) {
	fix := setupQuizFixture(t, "qv")
	mentorToken := getToken(t, fix.mentor)

	qz := createQuizHTTP(t, mentorToken, fix.class.ID)
	addQuestionHTTP(t, mentorToken, qz.ID, mcQuestion("Date de l'indépendance ?", "30 juin 1960", 0))

	// mentors see the answer keys
	req, rec := newAuthRequest(http.MethodGet, "/v1/quizzes/"+qz.ID+"/questions", mentorToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var full []quiz.Question
	if err := json.Unmarshal(rec.Body.Bytes(), &full); err != nil {
		t.Fatalf("unmarshalling questions: %v", err)
	}
	if len(full) != 1 || len(full[0].Options) != 2 || !full[0].Options[0].IsCorrect {
		t.Errorf("mentor view lost the answer key: %+v", full)
	}

	// students get options without the answer key
	req, rec = newAuthRequest(http.MethodGet, "/v1/quizzes/"+qz.ID+"/questions", getToken(t, fix.student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var stripped []echoapi.StudentQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &stripped); err != nil {
		t.Fatalf("unmarshalling questions: %v", err)
	}
	if len(stripped) != 1 || len(stripped[0].Options) != 2 {
		t.Fatalf("student view = %+v", stripped)
	}
	if b := rec.Body.String(); containsAnswerKey(b) {
		t.Errorf("student view leaks the answer key: %s", b)
	}

	// non-enrolled students cannot see the quiz at all
	req, rec = newAuthRequest(http.MethodGet, "/v1/quizzes/"+qz.ID+"/questions", getToken(t, fix.outsider))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("failed! code = %v, want %v", rec.Code, http.StatusNotFound)
	}
}

func containsAnswerKey(body string) bool {
	for i := 0; i+len("is_correct") <= len(body); i++ {
		if body[i:i+len("is_correct")] == "is_correct" {
			return true
		}
	}
	return false
}

func Test_quizApi_attemptFlow(t *testing.T) {
	fix := setupQuizFixture(t, "af")
	mentorToken := getToken(t, fix.mentor)
	studentToken := getToken(t, fix.student)

	qz := createQuizHTTP(t, mentorToken, fix.class.ID)
	qst := addQuestionHTTP(t, mentorToken, qz.ID, mcQuestion("Capitale de la RDC ?", "Kinshasa", 0))
	addQuestionHTTP(t, mentorToken, qz.ID, quiz.NewQuestion{
		Text: "Décrivez la saison des pluies.", Type: quiz.QuestionEssay, Position: 1,
	})

	// non-enrolled student cannot start
	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/attempts", getToken(t, fix.outsider))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("failed! code = %v, want %v", rec.Code, http.StatusNotFound)
	}

	// mentors cannot take quizzes
	req, rec = newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/attempts", mentorToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("failed! code = %v, want %v", rec.Code, http.StatusForbidden)
	}

	// start
	req, rec = newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/attempts", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var att echoapi.AttemptDescriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &att); err != nil {
		t.Fatalf("unmarshalling attempt: %v", err)
	}
	if att.Status != quiz.AttemptInProgress {
		t.Errorf("attempt status = %s, want %s", att.Status, quiz.AttemptInProgress)
	}
	if !att.Deadline.Equal(att.StartedAt.Add(30 * time.Minute)) {
		t.Errorf("attempt deadline = %v, want started_at + time limit (%v)", att.Deadline, att.StartedAt.Add(30*time.Minute))
	}

	// starting again resumes the same attempt, same deadline
	req, rec = newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/attempts", studentToken)
	app.ServeHTTP(rec, req)
	var resumed echoapi.AttemptDescriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &resumed); err != nil {
		t.Fatalf("unmarshalling attempt: %v", err)
	}
	if resumed.ID != att.ID {
		t.Errorf("resumed attempt = %s, want %s", resumed.ID, att.ID)
	}
	if !resumed.Deadline.Equal(att.Deadline) {
		t.Errorf("resumed deadline = %v, want %v", resumed.Deadline, att.Deadline)
	}

	// answer the multiple choice question
	ansBody := marchallObj(t, quiz.NewAnswer{QuestionID: qst.ID, Text: "Kinshasa"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/attempts/"+att.ID+"/answers", studentToken, ansBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// answering the same question again conflicts; the first answer stands
	req, rec = newAuthRequest(http.MethodPost, "/v1/attempts/"+att.ID+"/answers", studentToken,
		marchallObj(t, quiz.NewAnswer{QuestionID: qst.ID, Text: "Lubumbashi"}))
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "this question has already been answered"})}
	checkCodeAndData(t, tt, rec)

	// a question from nowhere is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/attempts/"+att.ID+"/answers", studentToken,
		marchallObj(t, quiz.NewAnswer{QuestionID: "nope", Text: "lol"}))
	app.ServeHTTP(rec, req)
	tt = httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "question does not belong to this quiz"})}
	checkCodeAndData(t, tt, rec)

	// another student cannot touch this attempt
	req, rec = newAuthRequest(http.MethodPost, "/v1/attempts/"+att.ID+"/answers", getToken(t, fix.outsider), ansBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("failed! code = %v, want %v", rec.Code, http.StatusNotFound)
	}

	// finish: 1/1 multiple choice correct, essay excluded
	req, rec = newAuthRequest(http.MethodPost, "/v1/attempts/"+att.ID+"/finish", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var finished quiz.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &finished); err != nil {
		t.Fatalf("unmarshalling attempt: %v", err)
	}
	if !finished.Finished() {
		t.Errorf("attempt status = %s, want %s", finished.Status, quiz.AttemptFinished)
	}
	if finished.Score.Float32 != 100 {
		t.Errorf("attempt score = %v, want 100", finished.Score.Float32)
	}

	// finishing again changes nothing
	req, rec = newAuthRequest(http.MethodPost, "/v1/attempts/"+att.ID+"/finish", studentToken)
	app.ServeHTTP(rec, req)
	var again quiz.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &again); err != nil {
		t.Fatalf("unmarshalling attempt: %v", err)
	}
	if again.Score != finished.Score || !again.FinishedAt.Time.Equal(finished.FinishedAt.Time) {
		t.Errorf("finish is not idempotent: %+v vs %+v", again, finished)
	}

	// second and last allowed attempt
	req, rec = newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/attempts", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var second quiz.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("unmarshalling attempt: %v", err)
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/attempts/"+second.ID+"/finish", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// no attempts left
	req, rec = newAuthRequest(http.MethodPost, "/v1/quizzes/"+qz.ID+"/attempts", studentToken)
	app.ServeHTTP(rec, req)
	tt = httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "no attempts left for this quiz"})}
	checkCodeAndData(t, tt, rec)

	// mentor sees the full history
	req, rec = newAuthRequest(http.MethodGet, "/v1/quizzes/"+qz.ID+"/attempts", mentorToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var history []quiz.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("unmarshalling attempts: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history len = %d, want 2", len(history))
	}
}

func Test_quizApi_admissionDenials(t *testing.T) {
	fix := setupQuizFixture(t, "ad")
	mentorToken := getToken(t, fix.mentor)
	studentToken := getToken(t, fix.student)

	now := time.Now().UTC()

	closedReq := createQuizReq(fix.class.ID)
	closedReq.Status = quiz.StatusClosed
	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes", mentorToken, marchallObj(t, closedReq))
	app.ServeHTTP(rec, req)
	var closedQz quiz.Quiz
	if err := json.Unmarshal(rec.Body.Bytes(), &closedQz); err != nil {
		t.Fatalf("unmarshalling quiz: %v", err)
	}

	earlyReq := createQuizReq(fix.class.ID)
	earlyReq.OpenAt = now.Add(time.Hour)
	earlyReq.CloseAt = now.Add(2 * time.Hour)
	req, rec = newAuthRequest(http.MethodPost, "/v1/quizzes", mentorToken, marchallObj(t, earlyReq))
	app.ServeHTTP(rec, req)
	var earlyQz quiz.Quiz
	if err := json.Unmarshal(rec.Body.Bytes(), &earlyQz); err != nil {
		t.Fatalf("unmarshalling quiz: %v", err)
	}

	tests := []httpTest{
		{
			name: "closed quiz", path: "/v1/quizzes/" + closedQz.ID + "/attempts",
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "quiz is closed"}),
		},
		{
			name: "outside window", path: "/v1/quizzes/" + earlyQz.ID + "/attempts",
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "quiz is not accepting attempts at this time"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, studentToken)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

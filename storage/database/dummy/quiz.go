package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

type quizRepository struct {
	quizzes   *quizTable
	questions *questionTable
	attempts  *attemptTable
	answers   *answerTable
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{
		quizzes:   db.quiz,
		questions: db.question,
		attempts:  db.attempt,
		answers:   db.answer,
	}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.quizzes.Lock()
	defer repo.quizzes.Unlock()

	qz.ID = uuid.New().String()
	repo.quizzes.table[qz.ID] = &qz
	return qz, nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()

	if qz, ok := repo.quizzes.table[id]; ok {
		return *qz, nil
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, filter *quiz.QueryFilter, ordering []core.DBOrdering) ([]quiz.Quiz, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()

	quizzes := make([]quiz.Quiz, 0, len(repo.quizzes.table))
	for _, qz := range repo.quizzes.table {
		if filter != nil {
			if filter.ClassID != "" && qz.ClassID != filter.ClassID {
				continue
			}
			if filter.Status != "" && qz.Status != filter.Status {
				continue
			}
		}
		quizzes = append(quizzes, *qz)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].CreatedAt.Before(quizzes[j].CreatedAt) })
	return quizzes, nil
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.quizzes.Lock()
	defer repo.quizzes.Unlock()

	orig, ok := repo.quizzes.table[qz.ID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	qz.ClassID = orig.ClassID
	qz.CreatedAt = orig.CreatedAt
	repo.quizzes.table[qz.ID] = &qz
	return qz, nil
}

func (repo *quizRepository) DeleteQuizzesByID(ctx context.Context, ids ...string) (int, error) {
	repo.quizzes.Lock()
	defer repo.quizzes.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.quizzes.table[id]; ok {
			delete(repo.quizzes.table, id)
			n++
		}
	}
	return n, nil
}

func (repo *quizRepository) CreateQuestion(ctx context.Context, qst quiz.Question) (quiz.Question, error) {
	repo.questions.Lock()
	defer repo.questions.Unlock()

	qst.ID = uuid.New().String()
	repo.questions.table[qst.ID] = &qst
	return qst, nil
}

func (repo *quizRepository) GetQuestion(ctx context.Context, id string) (quiz.Question, error) {
	repo.questions.RLock()
	defer repo.questions.RUnlock()

	if qst, ok := repo.questions.table[id]; ok {
		return *qst, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

func (repo *quizRepository) QueryQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	repo.questions.RLock()
	defer repo.questions.RUnlock()

	questions := make([]quiz.Question, 0)
	for _, qst := range repo.questions.table {
		if qst.QuizID == quizID {
			questions = append(questions, *qst)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Position != questions[j].Position {
			return questions[i].Position < questions[j].Position
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, nil
}

func (repo *quizRepository) DeleteQuestionsByID(ctx context.Context, ids ...string) (int, error) {
	repo.questions.Lock()
	defer repo.questions.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.questions.table[id]; ok {
			delete(repo.questions.table, id)
			n++
		}
	}
	return n, nil
}

func (repo *quizRepository) CreateAttempt(ctx context.Context, att quiz.Attempt) (quiz.Attempt, error) {
	repo.attempts.Lock()
	defer repo.attempts.Unlock()

	att.ID = uuid.New().String()
	repo.attempts.table[att.ID] = &att
	return att, nil
}

func (repo *quizRepository) GetAttempt(ctx context.Context, id string) (quiz.Attempt, error) {
	repo.attempts.RLock()
	defer repo.attempts.RUnlock()

	if att, ok := repo.attempts.table[id]; ok {
		return *att, nil
	}
	return quiz.Attempt{}, quiz.ErrAttemptNotFound
}

func (repo *quizRepository) GetActiveAttempt(ctx context.Context, quizID, studentID string) (quiz.Attempt, error) {
	repo.attempts.RLock()
	defer repo.attempts.RUnlock()

	for _, att := range repo.attempts.table {
		if att.QuizID == quizID && att.StudentID == studentID && att.Status == quiz.AttemptInProgress {
			return *att, nil
		}
	}
	return quiz.Attempt{}, quiz.ErrAttemptNotFound
}

func (repo *quizRepository) CountAttempts(ctx context.Context, quizID, studentID string) (int, error) {
	repo.attempts.RLock()
	defer repo.attempts.RUnlock()

	var count int
	for _, att := range repo.attempts.table {
		if att.QuizID == quizID && att.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (repo *quizRepository) QueryAttempts(ctx context.Context, quizID, studentID string) ([]quiz.Attempt, error) {
	repo.attempts.RLock()
	defer repo.attempts.RUnlock()

	attempts := make([]quiz.Attempt, 0)
	for _, att := range repo.attempts.table {
		if att.QuizID != quizID {
			continue
		}
		if studentID != "" && att.StudentID != studentID {
			continue
		}
		attempts = append(attempts, *att)
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].StartedAt.Before(attempts[j].StartedAt) })
	return attempts, nil
}

func (repo *quizRepository) UpdateAttempt(ctx context.Context, att quiz.Attempt) (quiz.Attempt, error) {
	repo.attempts.Lock()
	defer repo.attempts.Unlock()

	if _, ok := repo.attempts.table[att.ID]; !ok {
		return quiz.Attempt{}, quiz.ErrAttemptNotFound
	}
	repo.attempts.table[att.ID] = &att
	return att, nil
}

func (repo *quizRepository) CreateAnswer(ctx context.Context, ans quiz.Answer) (quiz.Answer, error) {
	repo.answers.Lock()
	defer repo.answers.Unlock()

	for _, a := range repo.answers.table {
		if a.AttemptID == ans.AttemptID && a.QuestionID == ans.QuestionID {
			return quiz.Answer{}, quiz.ErrDuplicateAnswer
		}
	}

	ans.ID = uuid.New().String()
	repo.answers.table[ans.ID] = &ans
	return ans, nil
}

func (repo *quizRepository) QueryAnswers(ctx context.Context, attemptID string) ([]quiz.Answer, error) {
	repo.answers.RLock()
	defer repo.answers.RUnlock()

	answers := make([]quiz.Answer, 0)
	for _, ans := range repo.answers.table {
		if ans.AttemptID == attemptID {
			answers = append(answers, *ans)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].CreatedAt.Before(answers[j].CreatedAt) })
	return answers, nil
}

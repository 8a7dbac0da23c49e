package sqlxrepos

import (
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/quiz"
)

func Test_isUniqueErr(t *testing.T) {
	activeKeyErr := &pq.Error{Code: pqUniqueViolation, Constraint: "quiz_attempt_active_key"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "matching constraint", err: activeKeyErr, constraint: "quiz_attempt_active_key", want: true},
		{name: "wrapped matching constraint", err: errors.Wrap(activeKeyErr, "creating attempt"), constraint: "quiz_attempt_active_key", want: true},
		{name: "other constraint", err: activeKeyErr, constraint: "answer_attempt_id_question_id_key"},
		{name: "other pq error code", err: &pq.Error{Code: "23503", Constraint: "quiz_attempt_active_key"}, constraint: "quiz_attempt_active_key"},
		{name: "plain error", err: errors.New("kaboom"), constraint: "quiz_attempt_active_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueErr(tt.err, tt.constraint); got != tt.want {
				t.Errorf("isUniqueErr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_trapUniqueErr(t *testing.T) {
	dupErr := errors.Wrap(&pq.Error{Code: pqUniqueViolation, Constraint: "answer_attempt_id_question_id_key"}, "creating answer")
	if err := trapUniqueErr(dupErr, "answer_attempt_id_question_id_key", quiz.ErrDuplicateAnswer); err != quiz.ErrDuplicateAnswer {
		t.Errorf("trapUniqueErr() = %v, want %v", err, quiz.ErrDuplicateAnswer)
	}

	otherErr := errors.New("kaboom")
	if err := trapUniqueErr(otherErr, "answer_attempt_id_question_id_key", quiz.ErrDuplicateAnswer); err != otherErr {
		t.Errorf("trapUniqueErr() = %v, want the original error", err)
	}
}

package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/announce"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user         *userTable
		class        *classTable
		enrollment   *enrollmentTable
		quiz         *quizTable
		question     *questionTable
		attempt      *attemptTable
		answer       *answerTable
		assignment   *assignmentTable
		submission   *submissionTable
		announcement *announcementTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
	classTable struct {
		sync.RWMutex
		table map[string]*school.Class
	}
	enrollmentTable struct {
		sync.RWMutex
		table map[string]*school.Enrollment
	}
	quizTable struct {
		sync.RWMutex
		table map[string]*quiz.Quiz
	}
	questionTable struct {
		sync.RWMutex
		table map[string]*quiz.Question
	}
	attemptTable struct {
		sync.RWMutex
		table map[string]*quiz.Attempt
	}
	answerTable struct {
		sync.RWMutex
		table map[string]*quiz.Answer
	}
	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.Assignment
	}
	submissionTable struct {
		sync.RWMutex
		table map[string]*assignment.Submission
	}
	announcementTable struct {
		sync.RWMutex
		table map[string]*announce.Announcement
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		class:        &classTable{table: make(map[string]*school.Class)},
		enrollment:   &enrollmentTable{table: make(map[string]*school.Enrollment)},
		quiz:         &quizTable{table: make(map[string]*quiz.Quiz)},
		question:     &questionTable{table: make(map[string]*quiz.Question)},
		attempt:      &attemptTable{table: make(map[string]*quiz.Attempt)},
		answer:       &answerTable{table: make(map[string]*quiz.Answer)},
		assignment:   &assignmentTable{table: make(map[string]*assignment.Assignment)},
		submission:   &submissionTable{table: make(map[string]*assignment.Submission)},
		announcement: &announcementTable{table: make(map[string]*announce.Announcement)},
	}
	return db, nil
}

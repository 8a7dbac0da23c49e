package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

type schoolRepository struct {
	classes     *classTable
	enrollments *enrollmentTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{
		classes:     db.class,
		enrollments: db.enrollment,
	}
}

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	cls.ID = uuid.New().String()
	repo.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	if cls, ok := repo.classes.table[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]school.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	var enrolled map[string]bool
	if filter != nil && filter.StudentID != "" {
		enrolled = make(map[string]bool)
		repo.enrollments.RLock()
		for _, enr := range repo.enrollments.table {
			if enr.StudentID == filter.StudentID {
				enrolled[enr.ClassID] = true
			}
		}
		repo.enrollments.RUnlock()
	}

	classes := make([]school.Class, 0, len(repo.classes.table))
	for _, cls := range repo.classes.table {
		if filter != nil {
			if filter.MentorID != "" && cls.MentorID != filter.MentorID {
				continue
			}
			if enrolled != nil && !enrolled[cls.ID] {
				continue
			}
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.Before(classes[j].CreatedAt) })
	return classes, nil
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	orig, ok := repo.classes.table[cls.ID]
	if !ok {
		return school.Class{}, school.ErrNotFound
	}
	cls.CreatedAt = orig.CreatedAt
	repo.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) DeleteClassesByID(ctx context.Context, ids ...string) (int, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.classes.table[id]; !ok {
			continue
		}
		delete(repo.classes.table, id)
		n++

		// cascade enrollments
		repo.enrollments.Lock()
		for eid, enr := range repo.enrollments.table {
			if enr.ClassID == id {
				delete(repo.enrollments.table, eid)
			}
		}
		repo.enrollments.Unlock()
	}
	return n, nil
}

func (repo *schoolRepository) CreateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	for _, e := range repo.enrollments.table {
		if e.ClassID == enr.ClassID && e.StudentID == enr.StudentID {
			return school.Enrollment{}, school.ErrAlreadyEnrolled
		}
	}

	enr.ID = uuid.New().String()
	repo.enrollments.table[enr.ID] = &enr
	return enr, nil
}

func (repo *schoolRepository) GetEnrollment(ctx context.Context, classID, studentID string) (school.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	for _, enr := range repo.enrollments.table {
		if enr.ClassID == classID && enr.StudentID == studentID {
			return *enr, nil
		}
	}
	return school.Enrollment{}, school.ErrNotEnrolled
}

func (repo *schoolRepository) DeleteEnrollment(ctx context.Context, classID, studentID string) error {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	for id, enr := range repo.enrollments.table {
		if enr.ClassID == classID && enr.StudentID == studentID {
			delete(repo.enrollments.table, id)
			return nil
		}
	}
	return school.ErrNotEnrolled
}

func (repo *schoolRepository) QueryEnrollments(ctx context.Context, classID string) ([]school.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	enrs := make([]school.Enrollment, 0)
	for _, enr := range repo.enrollments.table {
		if enr.ClassID == classID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].CreatedAt.Before(enrs[j].CreatedAt) })
	return enrs, nil
}

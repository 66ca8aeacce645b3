// Package postgres implements a result source backed by a PostgreSQL store.
// Both the primary and secondary stores use this adapter; the secondary is
// constructed with WithEmbeddedCGPA because its schema carries cgpa_records
// it can return inline.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"resultgate/internal/results/models"
	"resultgate/internal/results/source"
)

// Store adapts one PostgreSQL result database to the source contract.
type Store struct {
	id       string
	db       *sql.DB
	timeout  time.Duration
	withCGPA bool
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout overrides the per-query timeout (default 5s).
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithEmbeddedCGPA makes Query return the stored CGPA inline. Set this on
// the store whose descriptor advertises the supports-cgpa capability.
func WithEmbeddedCGPA() Option {
	return func(s *Store) {
		s.withCGPA = true
	}
}

// New constructs a PostgreSQL-backed result source.
func New(id string, db *sql.DB, opts ...Option) (*Store, error) {
	if id == "" {
		return nil, fmt.Errorf("source id is required")
	}
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	s := &Store{
		id:      id,
		db:      db,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) ID() string {
	return s.id
}

const studentQuery = `
	SELECT s.roll_number, s.name, s.regulation_year, s.program_name,
	       i.institute_code, i.name, i.district
	FROM students s
	JOIN institutes i ON i.institute_code = s.institute_code
	WHERE s.roll_number = $1
	  AND ($2 = 0 OR s.regulation_year = $2)
	  AND ($3 = '' OR s.program_name = $3)
`

const gpaQuery = `
	SELECT semester, gpa, ref_subjects, is_reference, created_at
	FROM gpa_records
	WHERE roll_number = $1
	ORDER BY semester
`

const cgpaQuery = `
	SELECT cgpa
	FROM cgpa_records
	WHERE roll_number = $1
	ORDER BY created_at DESC
	LIMIT 1
`

// Query looks up a student result by normalized roll number. Misses are a
// first-class outcome; every failure is classified into the source error
// taxonomy so the engine can continue the fallback chain.
func (s *Store) Query(ctx context.Context, q models.RollQuery) source.Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record := models.ResultRecord{SourceID: s.id}
	err := s.db.QueryRowContext(ctx, studentQuery, q.RollNumber, q.ExamYear, q.ExamType).Scan(
		&record.RollNumber,
		&record.Name,
		&record.ExamYear,
		&record.ExamType,
		&record.Institute.Code,
		&record.Institute.Name,
		&record.Institute.District,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return source.NotFound()
		}
		return s.classify("query student", err)
	}

	semesters, err := s.loadSemesters(ctx, q.RollNumber)
	if err != nil {
		return s.classify("query gpa records", err)
	}
	record.Semesters = semesters

	if s.withCGPA {
		cgpa, err := s.loadCGPA(ctx, q.RollNumber)
		if err != nil {
			return s.classify("query cgpa record", err)
		}
		record.CGPA = cgpa
	}

	return source.Found(&record)
}

// Ping verifies database connectivity without touching result tables.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) loadSemesters(ctx context.Context, roll string) ([]models.SemesterResult, error) {
	rows, err := s.db.QueryContext(ctx, gpaQuery, roll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var semesters []models.SemesterResult
	for rows.Next() {
		var (
			semester    int
			gpa         sql.NullString
			refSubjects []string
			isReference bool
			createdAt   time.Time
		)
		if err := rows.Scan(&semester, &gpa, pq.Array(&refSubjects), &isReference, &createdAt); err != nil {
			return nil, &scanError{err}
		}

		result := models.SemesterResult{
			Semester:    strconv.Itoa(semester),
			GPA:         "ref",
			RefSubjects: refSubjects,
			Passed:      !isReference,
			PublishedAt: createdAt,
		}
		if gpa.Valid {
			result.GPA = gpa.String
		}
		semesters = append(semesters, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return semesters, nil
}

func (s *Store) loadCGPA(ctx context.Context, roll string) (*float64, error) {
	var cgpa float64
	err := s.db.QueryRowContext(ctx, cgpaQuery, roll).Scan(&cgpa)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cgpa, nil
}

// scanError marks row decoding failures so classification can tell malformed
// data apart from connectivity problems.
type scanError struct {
	err error
}

func (e *scanError) Error() string { return e.err.Error() }
func (e *scanError) Unwrap() error { return e.err }

func (s *Store) classify(detail string, err error) source.Outcome {
	var se *scanError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return source.Errored(source.ErrorTimeout, s.id, detail, err)
	case errors.As(err, &se):
		return source.Errored(source.ErrorMalformed, s.id, detail, err)
	default:
		return source.Errored(source.ErrorUnreachable, s.id, detail, err)
	}
}

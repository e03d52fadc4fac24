package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLStore implements Store over database/sql. Placeholders use $1,
// which both the pgx stdlib driver and modernc sqlite accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateQuiz(ctx context.Context, q Quiz, questions []NewQuestion) (quizID int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO quizzes (name, question_count, select_count, page_size, is_random, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		q.Name, len(questions), q.SelectCount, q.PageSize, q.IsRandom, time.Now().Unix(),
	).Scan(&quizID)
	if err != nil {
		return 0, fmt.Errorf("insert quiz: %w", err)
	}

	for i, nq := range questions {
		var questionID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO questions (quiz_id, text, sequence) VALUES ($1,$2,$3) RETURNING id`,
			quizID, nq.Text, i+1,
		).Scan(&questionID)
		if err != nil {
			return 0, fmt.Errorf("insert question %d: %w", i+1, err)
		}
		for j, ns := range nq.Selections {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO selections (question_id, text, sequence, is_correct) VALUES ($1,$2,$3,$4)`,
				questionID, ns.Text, j+1, ns.IsCorrect,
			); err != nil {
				return 0, fmt.Errorf("insert selection %d/%d: %w", i+1, j+1, err)
			}
		}
	}
	return quizID, nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, id int64) (Quiz, error) {
	var q Quiz
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, question_count, select_count, page_size, is_random, created_at
		 FROM quizzes WHERE id=$1`, id,
	).Scan(&q.ID, &q.Name, &q.QuestionCount, &q.SelectCount, &q.PageSize, &q.IsRandom, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, ErrQuizNotFound
	}
	if err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) (int, []QuizSummary, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM quizzes`).Scan(&total); err != nil {
		return 0, nil, err
	}

	limit := opts.Limit
	if limit < 1 {
		limit = 1
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.name, q.question_count, q.select_count, q.page_size, q.is_random, q.created_at,
		        EXISTS (SELECT 1 FROM question_logs l
		                JOIN questions qs ON l.question_id = qs.id
		                WHERE l.user_id = $1 AND qs.quiz_id = q.id) AS has_final,
		        EXISTS (SELECT 1 FROM pre_saves p
		                WHERE p.user_id = $1 AND p.quiz_id = q.id) AS has_draft
		 FROM quizzes q
		 ORDER BY q.id DESC
		 LIMIT $2 OFFSET $3`,
		opts.UserID, limit, (page-1)*limit)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	out := []QuizSummary{}
	for rows.Next() {
		var qs QuizSummary
		var hasFinal, hasDraft bool
		if err := rows.Scan(&qs.ID, &qs.Name, &qs.QuestionCount, &qs.SelectCount, &qs.PageSize,
			&qs.IsRandom, &qs.CreatedAt, &hasFinal, &hasDraft); err != nil {
			return 0, nil, err
		}
		if !opts.IsAdmin {
			st := StateUnanswered
			switch {
			case hasFinal:
				st = StateFinal
			case hasDraft:
				st = StateDraft
			}
			qs.State = &st
		}
		out = append(out, qs)
	}
	return total, out, rows.Err()
}

func (s *SQLStore) QuestionsByQuiz(ctx context.Context, quizID int64) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, text, sequence FROM questions WHERE quiz_id=$1 ORDER BY sequence`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Sequence); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// QuestionsByIDs returns questions in the order the ids are given,
// preserving the version's presentation ordering.
func (s *SQLStore) QuestionsByIDs(ctx context.Context, ids []int64) ([]Question, error) {
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		var q Question
		err := s.db.QueryRowContext(ctx,
			`SELECT id, quiz_id, text, sequence FROM questions WHERE id=$1`, id,
		).Scan(&q.ID, &q.QuizID, &q.Text, &q.Sequence)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", id, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *SQLStore) SelectionsByQuestion(ctx context.Context, questionID int64) ([]Selection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, text, sequence, is_correct
		 FROM selections WHERE question_id=$1 ORDER BY sequence`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSelections(rows)
}

func (s *SQLStore) SelectionsByIDs(ctx context.Context, ids []int64) ([]Selection, error) {
	out := make([]Selection, 0, len(ids))
	for _, id := range ids {
		var sel Selection
		err := s.db.QueryRowContext(ctx,
			`SELECT id, question_id, text, sequence, is_correct FROM selections WHERE id=$1`, id,
		).Scan(&sel.ID, &sel.QuestionID, &sel.Text, &sel.Sequence, &sel.IsCorrect)
		if err != nil {
			return nil, fmt.Errorf("selection %d: %w", id, err)
		}
		out = append(out, sel)
	}
	return out, nil
}

func (s *SQLStore) SelectionIDsByQuestion(ctx context.Context, questionID int64) ([]int64, error) {
	return s.selectionIDs(ctx,
		`SELECT id FROM selections WHERE question_id=$1 ORDER BY sequence`, questionID)
}

func (s *SQLStore) CorrectSelectionIDs(ctx context.Context, questionID int64) ([]int64, error) {
	return s.selectionIDs(ctx,
		`SELECT id FROM selections WHERE question_id=$1 AND is_correct=$2 ORDER BY id`, questionID, true)
}

func (s *SQLStore) selectionIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutVersions(ctx context.Context, versions []Version) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	for _, v := range versions {
		qj, err := json.Marshal(v.QuestionIDs)
		if err != nil {
			return err
		}
		sj, err := json.Marshal(v.SelectionIDs)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO quiz_versions (quiz_id, version, question_ids, selection_ids)
			 VALUES ($1,$2,$3,$4)`,
			v.QuizID, v.Number, string(qj), string(sj),
		); err != nil {
			return fmt.Errorf("insert version %d: %w", v.Number, err)
		}
	}
	return nil
}

func (s *SQLStore) VersionNumbers(ctx context.Context, quizID int64) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version FROM quiz_versions WHERE quiz_id=$1 ORDER BY version`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLStore) VersionByNumber(ctx context.Context, quizID int64, number int) (Version, error) {
	return s.scanVersion(s.db.QueryRowContext(ctx,
		`SELECT id, quiz_id, version, question_ids, selection_ids
		 FROM quiz_versions WHERE quiz_id=$1 AND version=$2`, quizID, number))
}

func (s *SQLStore) VersionByID(ctx context.Context, id int64) (Version, error) {
	return s.scanVersion(s.db.QueryRowContext(ctx,
		`SELECT id, quiz_id, version, question_ids, selection_ids
		 FROM quiz_versions WHERE id=$1`, id))
}

func (s *SQLStore) scanVersion(row *sql.Row) (Version, error) {
	var v Version
	var qj, sj string
	if err := row.Scan(&v.ID, &v.QuizID, &v.Number, &qj, &sj); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Version{}, ErrVersionsNotReady
		}
		return Version{}, err
	}
	if err := json.Unmarshal([]byte(qj), &v.QuestionIDs); err != nil {
		return Version{}, fmt.Errorf("decode question ids: %w", err)
	}
	if err := json.Unmarshal([]byte(sj), &v.SelectionIDs); err != nil {
		return Version{}, fmt.Errorf("decode selection ids: %w", err)
	}
	return v, nil
}

func (s *SQLStore) CreatePinIfAbsent(ctx context.Context, userID, quizID, versionID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pre_saves (user_id, quiz_id, quiz_version_id)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (user_id, quiz_id) DO NOTHING`,
		userID, quizID, versionID)
	return err
}

func (s *SQLStore) GetPin(ctx context.Context, userID, quizID int64) (Pin, bool, error) {
	var p Pin
	var answers sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, quiz_id, quiz_version_id, answers
		 FROM pre_saves WHERE user_id=$1 AND quiz_id=$2`, userID, quizID,
	).Scan(&p.ID, &p.UserID, &p.QuizID, &p.VersionID, &answers)
	if errors.Is(err, sql.ErrNoRows) {
		return Pin{}, false, nil
	}
	if err != nil {
		return Pin{}, false, err
	}
	if answers.Valid && answers.String != "" {
		if err := json.Unmarshal([]byte(answers.String), &p.Answers); err != nil {
			return Pin{}, false, fmt.Errorf("decode draft answers: %w", err)
		}
	}
	return p, true, nil
}

// SaveDraft replaces the whole draft blob: overwrite, not merge.
func (s *SQLStore) SaveDraft(ctx context.Context, userID, quizID int64, answers map[int64][]int64) error {
	buf, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE pre_saves SET answers=$1 WHERE user_id=$2 AND quiz_id=$3`,
		string(buf), userID, quizID)
	return err
}

func (s *SQLStore) PutFinalRows(ctx context.Context, rows []FinalRow) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	for _, r := range rows {
		buf, err := json.Marshal(r.SelectionIDs)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO question_logs (user_id, question_id, answer, is_correct)
			 VALUES ($1,$2,$3,$4)`,
			r.UserID, r.QuestionID, string(buf), r.IsCorrect,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyFinal
			}
			return fmt.Errorf("insert final row: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) HasFinal(ctx context.Context, userID, quizID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM question_logs l
		   JOIN questions q ON l.question_id = q.id
		   WHERE l.user_id=$1 AND q.quiz_id=$2)`,
		userID, quizID).Scan(&exists)
	return exists, err
}

func (s *SQLStore) FinalRows(ctx context.Context, userID, quizID int64) ([]FinalRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.user_id, l.question_id, l.answer, l.is_correct
		 FROM question_logs l
		 JOIN questions q ON l.question_id = q.id
		 WHERE l.user_id=$1 AND q.quiz_id=$2
		 ORDER BY l.question_id`,
		userID, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FinalRow
	for rows.Next() {
		var r FinalRow
		var answer string
		if err := rows.Scan(&r.UserID, &r.QuestionID, &answer, &r.IsCorrect); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answer), &r.SelectionIDs); err != nil {
			return nil, fmt.Errorf("decode final answer: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) CorrectCount(ctx context.Context, userID, quizID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(l.id) FROM question_logs l
		 JOIN questions q ON l.question_id = q.id
		 WHERE l.user_id=$1 AND q.quiz_id=$2 AND l.is_correct=$3`,
		userID, quizID, true).Scan(&n)
	return n, err
}

func scanSelections(rows *sql.Rows) ([]Selection, error) {
	var out []Selection
	for rows.Next() {
		var s Selection
		if err := rows.Scan(&s.ID, &s.QuestionID, &s.Text, &s.Sequence, &s.IsCorrect); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") // sqlite
}

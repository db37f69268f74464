package infra

import (
	"errors"
	"log/slog"

	"travel-booking/internal/pkg/errs"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type RepositoryErrorKind string

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

// WrapRepoErr classifies err by its PostgreSQL code unless kind is given explicitly.
func WrapRepoErr(msg string, err error, kind ...RepositoryErrorKind) error {
	k := classify(err)
	if len(kind) > 0 {
		k = kind[0]
	}

	if k == KindDBFailure {
		logArgs := []any{slog.String("kind", string(k))}
		if err != nil {
			logArgs = append(logArgs, slog.String("error", err.Error()))
		}
		slog.Error("Repository error: "+msg, logArgs...)
	}

	if err != nil {
		err = errs.Wrap(err, msg)
	}

	return RepositoryError{Kind: k, msg: msg, err: err}
}

func NotFound(msg string) error {
	return RepositoryError{Kind: KindNotFound, msg: msg}
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func classify(err error) RepositoryErrorKind {
	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return KindDBFailure
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return KindDuplicateKey
	case pgerrcode.ForeignKeyViolation:
		return KindForeignKeyViolated
	case pgerrcode.ExclusionViolation, pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return KindConflict
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return KindConstraintViolated
	default:
		return KindDBFailure
	}
}

// Infrastructure-specific error kinds
const (
	KindNotFound           RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure          RepositoryErrorKind = "DB_FAILURE"
	KindDuplicateKey       RepositoryErrorKind = "DUPLICATE_KEY"
	KindForeignKeyViolated RepositoryErrorKind = "FOREIGN_KEY_VIOLATED"
	KindConstraintViolated RepositoryErrorKind = "CONSTRAINT_VIOLATED"
	KindConflict           RepositoryErrorKind = "CONFLICT"
)

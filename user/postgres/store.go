package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/deniswachira/sessionauth/internal"
	"github.com/deniswachira/sessionauth/user"
)

// Pool is the subset of *pgxpool.Pool used by [Store].
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectColumns = `SELECT id, email, hashed_password, session_id, reset_token FROM users`

// Store implements user.Store using PostgreSQL.
type Store struct {
	pool Pool
}

// New creates a Store over pool.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

var _ user.Store = (*Store)(nil)

// Add inserts a user with a fresh ULID.
func (s *Store) Add(ctx context.Context, email, hashedPassword string) (*user.User, error) {
	u := &user.User{
		ID:             internal.NewUserID(),
		Email:          email,
		HashedPassword: hashedPassword,
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, hashed_password)
		VALUES ($1, $2, $3)
	`, u.ID, u.Email, u.HashedPassword)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("USER_DUPLICATE_EMAIL").With("email", email).Wrap(user.ErrDuplicateEmail)
		}
		return nil, oops.Code("USER_ADD_FAILED").
			With("operation", "insert user").
			With("email", email).
			Wrap(err)
	}
	return u, nil
}

// FindOne returns the oldest user matching every pair of filter.
func (s *Store) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	where, args := compileFilter(filter, nil)
	row := s.pool.QueryRow(ctx, selectColumns+" WHERE "+where+" ORDER BY created_at, id LIMIT 1", args...)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("filter", filter.Redacted()).Wrap(user.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_FAILED").
			With("operation", "find user").
			With("filter", filter.Redacted()).
			Wrap(err)
	}
	return u, nil
}

// Update applies fields to the user with id in one statement.
func (s *Store) Update(ctx context.Context, id string, fields user.Update) error {
	if err := fields.Validate(); err != nil {
		return err
	}

	set, args := compileUpdate(fields)
	args = append(args, id)
	return s.exec(ctx, id, "UPDATE users SET "+set+" WHERE id = $"+strconv.Itoa(len(args)), args)
}

// UpdateIf applies fields to the user with id only while its row still
// matches cond. The check and the write are one statement.
func (s *Store) UpdateIf(ctx context.Context, id string, cond user.Filter, fields user.Update) error {
	if err := cond.Validate(); err != nil {
		return err
	}
	if err := fields.Validate(); err != nil {
		return err
	}

	set, args := compileUpdate(fields)
	args = append(args, id)
	idParam := "$" + strconv.Itoa(len(args))
	where, args := compileFilter(cond, args)
	return s.exec(ctx, id, "UPDATE users SET "+set+" WHERE id = "+idParam+" AND "+where, args)
}

func (s *Store) exec(ctx context.Context, id, sql string, args []any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_DUPLICATE_EMAIL").With("id", id).Wrap(user.ErrDuplicateEmail)
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", id).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(user.ErrNotFound)
	}
	return nil
}

// compileFilter renders filter as "col = $n AND col = $n+1" in column order,
// numbering placeholders after the ones already in args.
func compileFilter(filter user.Filter, args []any) (string, []any) {
	clauses := make([]string, 0, len(filter))
	for _, field := range user.Fields {
		v, ok := filter[field]
		if !ok {
			continue
		}
		args = append(args, v)
		clauses = append(clauses, string(field)+" = $"+strconv.Itoa(len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// compileUpdate renders fields as "col = $1, ..., updated_at = now()".
func compileUpdate(fields user.Update) (string, []any) {
	clauses := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for _, field := range user.Fields {
		v, ok := fields[field]
		if !ok {
			continue
		}
		if v == nil {
			args = append(args, nil)
		} else {
			args = append(args, *v)
		}
		clauses = append(clauses, string(field)+" = $"+strconv.Itoa(len(args)))
	}
	clauses = append(clauses, "updated_at = now()")
	return strings.Join(clauses, ", "), args
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.SessionID, &u.ResetToken); err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

package sqlxdb

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core/user"
)

const userColumns = `id, name, email, password_hash, role, department, subject, age,
	is_approved, registered_date, created_at, updated_at`

type userRow struct {
	ID             string      `db:"id"`
	Name           string      `db:"name"`
	Email          string      `db:"email"`
	PasswordHash   []byte      `db:"password_hash"`
	Role           string      `db:"role"`
	Department     null.String `db:"department"`
	Subject        null.String `db:"subject"`
	Age            null.Int    `db:"age"`
	IsApproved     bool        `db:"is_approved"`
	RegisteredDate time.Time   `db:"registered_date"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) toRow(usr user.Identity) userRow {
	return userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		Email:          usr.Email,
		PasswordHash:   usr.PasswordHash,
		Role:           usr.Role,
		Department:     null.NewString(usr.Department, usr.Department != ""),
		Subject:        null.NewString(usr.Subject, usr.Subject != ""),
		Age:            null.NewInt(usr.Age, usr.Age != 0),
		IsApproved:     usr.IsApproved,
		RegisteredDate: usr.RegisteredDate.UTC(),
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
	}
}

func (repo *userRepository) fromRow(row userRow) user.Identity {
	return user.Identity{
		ID:             row.ID,
		Name:           row.Name,
		Email:          row.Email,
		PasswordHash:   row.PasswordHash,
		Role:           row.Role,
		Department:     row.Department.String,
		Subject:        row.Subject.String,
		Age:            row.Age.Int,
		IsApproved:     row.IsApproved,
		RegisteredDate: row.RegisteredDate.UTC(),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

func (repo *userRepository) getOne(ctx context.Context, query string, args ...interface{}) (user.Identity, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.Identity{}, user.ErrNotFound
		}
		return user.Identity{}, errors.Wrap(err, "selecting user")
	}
	return repo.fromRow(row), nil
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	query := `SELECT COUNT(*) FROM users WHERE lower(email) = lower(?)`
	args := []interface{}{email}
	if len(excludedIDs) > 0 {
		query += ` AND id NOT IN (?)`
		args = append(args, excludedIDs)
	}
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var n int
	if err = repo.db.GetContext(ctx, &n, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "counting users")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.Identity) (user.Identity, error) {
	row := repo.toRow(usr)
	row.ID = uuid.NewString()
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :email, :password_hash, :role, :department, :subject, :age,
			:is_approved, :registered_date, :created_at, :updated_at)`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return user.Identity{}, user.ErrEmailExists
		}
		return user.Identity{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.Identity, error) {
	return repo.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.Identity, error) {
	return repo.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.Identity, error) {
	conds := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	where := func(column string, value interface{}) {
		args = append(args, value)
		conds = append(conds, column+" = $"+strconv.Itoa(len(args)))
	}
	if filter.Role != "" {
		where("role", filter.Role)
	}
	if filter.Department != "" {
		where("department", filter.Department)
	}
	if filter.Subject != "" {
		where("subject", filter.Subject)
	}
	if filter.IsApproved != nil {
		where("is_approved", *filter.IsApproved)
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.Identity, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.Identity) (user.Identity, error) {
	query, args, err := repo.db.BindNamed(`UPDATE users SET
			name = :name, email = :email, password_hash = :password_hash, role = :role,
			department = :department, subject = :subject, age = :age,
			is_approved = :is_approved, updated_at = :updated_at
		WHERE id = :id
		RETURNING `+userColumns, repo.toRow(usr))
	if err != nil {
		return user.Identity{}, errors.Wrap(err, "binding user update")
	}

	var row userRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		switch {
		case err == sql.ErrNoRows:
			return user.Identity{}, user.ErrNotFound
		case isUniqueViolation(err):
			return user.Identity{}, user.ErrEmailExists
		}
		return user.Identity{}, errors.Wrap(err, "updating user")
	}
	return repo.fromRow(row), nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/pkg/logger"
)

const uniqueViolation = "23505"

type UserRepository struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewUserRepository(db *pgxpool.Pool, log logger.ILogger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

func (r *UserRepository) CreateAccount(ctx context.Context, user *entities.User, profile *entities.Profile) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO profiles (user_id, role, phone, city, full_name, vehicle_type, id_type,
			id_number, id_document, driver_license, is_driver_approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, profile.Role.String(), profile.Phone, profile.City, profile.FullName,
		string(profile.VehicleType), string(profile.IDType), profile.IDNumber,
		profile.IDDocument, profile.DriverLicense, profile.IsDriverApproved, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, created_at`

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

const profileColumns = `p.user_id, p.role, p.phone, p.city, p.full_name, p.vehicle_type, p.id_type,
	p.id_number, p.id_document, p.driver_license, p.is_driver_approved, p.created_at`

func scanProfile(row pgx.Row, extra ...any) (*entities.Profile, error) {
	var (
		p           entities.Profile
		role        string
		vehicleType string
		idType      string
	)
	dest := append([]any{
		&p.UserID, &role, &p.Phone, &p.City, &p.FullName, &vehicleType, &idType,
		&p.IDNumber, &p.IDDocument, &p.DriverLicense, &p.IsDriverApproved, &p.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	parsed, err := entities.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.UserID, err)
	}
	p.Role = parsed
	p.VehicleType = entities.TransportType(vehicleType)
	p.IDType = entities.IDType(idType)
	return &p, nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*entities.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles p WHERE p.user_id = $1`, userID))
}

func (r *UserRepository) ListProfiles(ctx context.Context, filter repository.ProfileFilter) ([]*repository.Account, error) {
	var (
		where []string
		args  []any
	)
	if filter.Role != nil {
		args = append(args, filter.Role.String())
		where = append(where, fmt.Sprintf("p.role = $%d", len(args)))
	}
	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		where = append(where, fmt.Sprintf("p.is_driver_approved = $%d", len(args)))
	}

	query := `SELECT ` + profileColumns + `, u.username, u.email, u.created_at
		FROM profiles p JOIN users u ON u.id = p.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY u.username"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list profiles", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var accounts []*repository.Account
	for rows.Next() {
		var u entities.User
		p, err := scanProfile(rows, &u.Username, &u.Email, &u.CreatedAt)
		if err != nil {
			return nil, err
		}
		u.ID = p.UserID
		accounts = append(accounts, &repository.Account{User: &u, Profile: p})
	}
	return accounts, rows.Err()
}

func (r *UserRepository) ApproveDrivers(ctx context.Context, userIDs []string) (int, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE profiles SET is_driver_approved = TRUE WHERE user_id = ANY($1) AND role = 'driver'`,
		userIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("approve drivers: %w", err)
	}
	return int(res.RowsAffected()), nil
}

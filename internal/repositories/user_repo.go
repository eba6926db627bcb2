package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parley-chat/identity/internal/database"
	"github.com/parley-chat/identity/internal/models"
	pkgauth "github.com/parley-chat/identity/pkg/auth"
)

// UserRepository is the credential store. It owns the hashing-on-write
// policy: methods that accept plaintext secrets (passwords, OTPs) hash them
// before the row is written, and nothing here ever re-hashes a stored hash.
// Reset-token digests are computed by the caller's codec and stored as-is.
type UserRepository struct {
	pool  *pgxpool.Pool
	codec *pkgauth.Codec
}

func NewUserRepository(db *database.DB, codec *pkgauth.Codec) *UserRepository {
	return &UserRepository{pool: db.Pool, codec: codec}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, email, first_name, last_name, about, avatar, verified, created_at, updated_at`

// Secret columns are only selected by the ...WithSecrets and lookup queries.
const userSecretColumns = userColumns + `, password_hash, otp_hash, otp_expires_at, password_reset_digest, password_reset_expires_at, password_changed_at`

// scanUserRow populates a User from the default (secret-free) column set.
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.About, &user.Avatar, &user.Verified,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

// scanUserRowWithSecrets handles nullable secret fields in addition to the
// default column set.
func scanUserRowWithSecrets(scanner rowScanner) (*models.User, error) {
	var user models.User
	var passwordHash, otpHash, resetDigest *string
	var otpExpiresAt, resetExpires, passwordChangedAt *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.About, &user.Avatar, &user.Verified,
		&user.CreatedAt, &user.UpdatedAt,
		&passwordHash, &otpHash, &otpExpiresAt,
		&resetDigest, &resetExpires, &passwordChangedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if otpHash != nil {
		user.OTPHash = *otpHash
	}
	if resetDigest != nil {
		user.PasswordResetDigest = *resetDigest
	}
	user.OTPExpiresAt = otpExpiresAt
	user.PasswordResetExpires = resetExpires
	user.PasswordChangedAt = passwordChangedAt

	return &user, nil
}

// GetByIDWithSecrets is the explicit opt-in read used by the route guard,
// which needs password_changed_at for staleness checks.
func (r *UserRepository) GetByIDWithSecrets(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userSecretColumns + ` FROM users WHERE id = $1`

	return scanUserRowWithSecrets(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// GetByEmailWithSecrets fetches a user including credential hashes, for
// login and OTP verification.
func (r *UserRepository) GetByEmailWithSecrets(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userSecretColumns + ` FROM users WHERE email = $1`

	return scanUserRowWithSecrets(r.pool.QueryRow(ctx, query, email))
}

// GetByEmailWithValidOTP fetches a user only if an unexpired OTP is
// outstanding for the email. Expiry is evaluated here, at read time;
// expired OTPs are never swept, just never returned.
func (r *UserRepository) GetByEmailWithValidOTP(ctx context.Context, email string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userSecretColumns + ` FROM users WHERE email = $1 AND otp_hash IS NOT NULL AND otp_expires_at > $2`

	return scanUserRowWithSecrets(r.pool.QueryRow(ctx, query, email, now))
}

// GetByResetDigest fetches the user holding an unexpired reset token with
// the given lookup digest.
func (r *UserRepository) GetByResetDigest(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userSecretColumns + ` FROM users WHERE password_reset_digest = $1 AND password_reset_expires_at > $2`

	return scanUserRowWithSecrets(r.pool.QueryRow(ctx, query, digest, now))
}

// CreatePending inserts a new unverified user. plainPassword is hashed
// here before the insert; the unique index on email arbitrates concurrent
// registrations (loser surfaces as models.ErrConflict).
func (r *UserRepository) CreatePending(ctx context.Context, user *models.User, plainPassword string) (*models.User, error) {
	passwordHash, err := r.codec.HashSecret(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, first_name, last_name, about, avatar, verified, password_hash, password_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $9, $10)
		RETURNING ` + userColumns + `
	`

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName,
		user.About, user.Avatar, passwordHash, now,
		user.CreatedAt, user.UpdatedAt,
	))
}

// UpdatePending overwrites profile and password on an existing unverified
// user, for re-registration of the same email.
func (r *UserRepository) UpdatePending(ctx context.Context, id string, user *models.User, plainPassword string) (*models.User, error) {
	passwordHash, err := r.codec.HashSecret(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()

	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, password_hash = $3, password_changed_at = $4, updated_at = $5
		WHERE id = $6 AND verified = FALSE
		RETURNING ` + userColumns + `
	`

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.FirstName, user.LastName, passwordHash, now, now, id,
	))
}

// UpdateProfile updates the mutable profile fields only. Credential
// columns are untouched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, about = $3, avatar = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + userColumns + `
	`

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.About, user.Avatar, time.Now(), id,
	))
}

// SetOTP stores a freshly issued OTP, hashed, with its expiry.
func (r *UserRepository) SetOTP(ctx context.Context, id, plainOTP string, expiresAt time.Time) error {
	otpHash, err := r.codec.HashSecret(plainOTP)
	if err != nil {
		return fmt.Errorf("failed to hash otp: %w", err)
	}

	query := `UPDATE users SET otp_hash = $1, otp_expires_at = $2, updated_at = $3 WHERE id = $4`

	result, err := r.pool.Exec(ctx, query, otpHash, expiresAt, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ClearOTP unsets the OTP fields, used both after successful verification
// and as the rollback when delivery fails.
func (r *UserRepository) ClearOTP(ctx context.Context, id string) error {
	query := `UPDATE users SET otp_hash = NULL, otp_expires_at = NULL, updated_at = $1 WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// MarkVerified activates the account and clears the consumed OTP in one
// statement.
func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET verified = TRUE, otp_hash = NULL, otp_expires_at = NULL, updated_at = $1 WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// SetResetDigest stores the lookup digest and expiry of an issued reset
// token. The digest arrives pre-computed; it is not a bcrypt-class secret.
func (r *UserRepository) SetResetDigest(ctx context.Context, id, digest string, expiresAt time.Time) error {
	query := `UPDATE users SET password_reset_digest = $1, password_reset_expires_at = $2, updated_at = $3 WHERE id = $4`

	result, err := r.pool.Exec(ctx, query, digest, expiresAt, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ClearResetDigest unsets the reset-token fields, used as the rollback
// when delivery fails.
func (r *UserRepository) ClearResetDigest(ctx context.Context, id string) error {
	query := `UPDATE users SET password_reset_digest = NULL, password_reset_expires_at = NULL, updated_at = $1 WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ReplacePassword hashes and stores a new password, clears any outstanding
// reset token, and stamps password_changed_at so previously issued session
// tokens go stale.
func (r *UserRepository) ReplacePassword(ctx context.Context, id, plainPassword string) error {
	passwordHash, err := r.codec.HashSecret(plainPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()

	query := `
		UPDATE users
		SET password_hash = $1, password_changed_at = $2,
		    password_reset_digest = NULL, password_reset_expires_at = NULL,
		    updated_at = $3
		WHERE id = $4
	`

	result, err := r.pool.Exec(ctx, query, passwordHash, now, now, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

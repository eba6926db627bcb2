package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/parley-chat/identity/internal/database"
	"github.com/parley-chat/identity/internal/models"
	pkgauth "github.com/parley-chat/identity/pkg/auth"
)

// testCodec hashes credentials for seed data. MinCost keeps container
// tests fast.
var testCodec = pkgauth.NewCodec(4)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	// Create PostgreSQL container
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("identity"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	// Get connection string
	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	// Run embedded migrations, same path production uses
	if err := database.Migrate(ctx, connStr); err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, "TRUNCATE TABLE users CASCADE"); err != nil {
		return fmt.Errorf("failed to truncate users: %w", err)
	}
	return nil
}

// SeedUser inserts a test user with hashed password
func SeedUser(ctx context.Context, pool *pgxpool.Pool, email, password string, verified bool) (*models.User, error) {
	hashedPassword, err := testCodec.HashSecret(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, verified, password_hash, password_changed_at, created_at, updated_at)
		VALUES ($1, $2, 'Test', 'User', $3, $4, NOW(), NOW(), NOW())
		RETURNING id, email, first_name, last_name, verified, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, uuid.New().String(), email, verified, hashedPassword).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// SeedOTP attaches a hashed verification code to a user and returns the
// plaintext code
func SeedOTP(ctx context.Context, pool *pgxpool.Pool, userID string, ttl time.Duration) (string, error) {
	otp, err := testCodec.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	otpHash, err := testCodec.HashSecret(otp)
	if err != nil {
		return "", fmt.Errorf("failed to hash otp: %w", err)
	}

	query := `
		UPDATE users
		SET otp_hash = $2, otp_expires_at = NOW() + $3::interval, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := pool.Exec(ctx, query, userID, otpHash, fmt.Sprintf("%d seconds", int(ttl.Seconds()))); err != nil {
		return "", fmt.Errorf("failed to set otp: %w", err)
	}

	return otp, nil
}

// SeedResetToken attaches a reset-token digest to a user and returns the
// plaintext token
func SeedResetToken(ctx context.Context, pool *pgxpool.Pool, userID string, ttl time.Duration) (string, error) {
	token, err := testCodec.GenerateResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	digest := testCodec.HashResetTokenForLookup(token)

	query := `
		UPDATE users
		SET password_reset_digest = $2, password_reset_expires_at = NOW() + $3::interval, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := pool.Exec(ctx, query, userID, digest, fmt.Sprintf("%d seconds", int(ttl.Seconds()))); err != nil {
		return "", fmt.Errorf("failed to set reset digest: %w", err)
	}

	return token, nil
}

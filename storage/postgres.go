package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/UnknownRpg/Sketch-Master-AI/domain"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func (pgr *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}

	row := pgr.pool.QueryRow(ctx, "SELECT id, password_hash FROM users WHERE username = $1", username)

	err := row.Scan(&user.Id, &user.PasswordHash)

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.User{}, err
		default:
			return domain.User{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}

	return user, nil
}

func (pgr *PostgresRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	user := domain.User{Id: id}

	row := pgr.pool.QueryRow(ctx, "SELECT username, password_hash FROM users WHERE id = $1", id)

	err := row.Scan(&user.Username, &user.PasswordHash)

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.User{}, err
		default:
			return domain.User{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}

	return user, nil
}

func (pgr *PostgresRepo) CreateUser(ctx context.Context, username string, passwordHash string) (string, error) {
	row := pgr.pool.QueryRow(ctx, "INSERT INTO users(username, password_hash) VALUES($1, $2) RETURNING id", username, passwordHash)

	var id string
	err := row.Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// "23505" is the PostgreSQL error code for unique_violation
			if pgErr.Code == "23505" {
				return "", domain.ErrDuplicateUsername
			}
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}

		return "", fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return id, nil
}

// Generate implements the game.PromptGenerator interface. It fetches
// 'count' random drawing prompts from the prompts table. Returns an empty
// slice if the query fails; a room with no prompt choices falls back to
// its built-in list.
func (pgr *PostgresRepo) Generate(count int) []string {
	ctx := context.Background()

	query := `SELECT prompt FROM prompts ORDER BY RANDOM() LIMIT $1`

	rows, err := pgr.pool.Query(ctx, query, count)
	if err != nil {
		return []string{}
	}
	defer rows.Close()

	prompts := make([]string, 0, count)
	for rows.Next() {
		var prompt string
		if err := rows.Scan(&prompt); err != nil {
			continue
		}
		prompts = append(prompts, prompt)
	}

	return prompts
}

// SaveRoundResult persists one drawer's turn outcome with its final
// behavioral readings.
func (pgr *PostgresRepo) SaveRoundResult(ctx context.Context, r domain.RoundResult) error {
	_, err := pgr.pool.Exec(ctx,
		`INSERT INTO results(room_id, username, prompt, points, stroke_count, avg_speed, undo_count, confidence, efficiency, clarity)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.RoomId, r.Username, r.Prompt, r.Points, r.StrokeCount, r.AvgSpeed, r.UndoCount, r.Confidence, r.Efficiency, r.Clarity,
	)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return nil
}

// TopResults returns the highest-scoring turns, most points first.
func (pgr *PostgresRepo) TopResults(ctx context.Context, limit int) ([]domain.RoundResult, error) {
	rows, err := pgr.pool.Query(ctx,
		`SELECT room_id, username, prompt, points, stroke_count, avg_speed, undo_count, confidence, efficiency, clarity
		 FROM results ORDER BY points DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	results := make([]domain.RoundResult, 0, limit)
	for rows.Next() {
		var r domain.RoundResult
		err := rows.Scan(&r.RoomId, &r.Username, &r.Prompt, &r.Points, &r.StrokeCount, &r.AvgSpeed, &r.UndoCount, &r.Confidence, &r.Efficiency, &r.Clarity)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

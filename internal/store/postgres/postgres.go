// Package postgres provides the Postgres-backed store implementation.
//
// Expected schema:
//
//	CREATE TABLE imports (
//		id UUID PRIMARY KEY,
//		source_url TEXT NOT NULL,
//		status TEXT NOT NULL,
//		error_text TEXT NOT NULL DEFAULT '',
//		target_recipe_id UUID NOT NULL,
//		raw_payload_uri TEXT NOT NULL DEFAULT '',
//		submitted_at TIMESTAMPTZ NOT NULL,
//		started_at TIMESTAMPTZ,
//		finished_at TIMESTAMPTZ
//	);
//	CREATE TABLE recipes (
//		id UUID PRIMARY KEY,
//		title TEXT NOT NULL DEFAULT '',
//		image_url TEXT NOT NULL DEFAULT '',
//		description TEXT NOT NULL DEFAULT '',
//		prep_minutes INT,
//		cook_minutes INT,
//		total_minutes INT,
//		servings INT,
//		yields TEXT NOT NULL DEFAULT '',
//		directions_text TEXT NOT NULL DEFAULT '',
//		draft BOOLEAN NOT NULL DEFAULT TRUE
//	);
//	CREATE TABLE recipe_ingredients (
//		recipe_id UUID NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
//		position INT NOT NULL,
//		raw TEXT NOT NULL,
//		name TEXT NOT NULL,
//		quantity DOUBLE PRECISION,
//		unit TEXT,
//		notes TEXT,
//		PRIMARY KEY (recipe_id, position)
//	);
//	CREATE TABLE weeks (
//		id UUID PRIMARY KEY,
//		version BIGINT NOT NULL DEFAULT 0
//	);
//	CREATE TABLE week_recipes (
//		week_id UUID NOT NULL REFERENCES weeks(id),
//		recipe_id UUID NOT NULL REFERENCES recipes(id),
//		position SERIAL,
//		PRIMARY KEY (week_id, recipe_id)
//	);
//	CREATE TABLE smart_list_jobs (
//		id UUID PRIMARY KEY,
//		workspace_id UUID NOT NULL,
//		week_id UUID NOT NULL,
//		shopping_list_id UUID NOT NULL,
//		status TEXT NOT NULL,
//		started_at TIMESTAMPTZ,
//		finished_at TIMESTAMPTZ,
//		smart_list_id TEXT NOT NULL DEFAULT '',
//		error_text TEXT NOT NULL DEFAULT '',
//		updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE smart_lists (
//		id UUID PRIMARY KEY,
//		week_id UUID NOT NULL,
//		shopping_list_id UUID NOT NULL,
//		week_version BIGINT NOT NULL,
//		items JSONB NOT NULL,
//		created_at TIMESTAMPTZ NOT NULL,
//		UNIQUE (week_id, shopping_list_id)
//	);
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/store"
)

// Config controls the connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pool pool
}

var _ store.Store = (*Store)(nil)

// New connects a pool using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) CreateImport(ctx context.Context, req recipe.ImportRequest) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO imports (id, source_url, status, error_text, target_recipe_id, raw_payload_uri, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.SourceURL, string(req.Status), req.ErrorText,
		req.TargetRecipeID, req.RawPayloadURI, req.Submitted,
	)
	if err != nil {
		return fmt.Errorf("insert import: %w", err)
	}
	return nil
}

func (s *Store) GetImport(ctx context.Context, id string) (recipe.ImportRequest, error) {
	var (
		req    recipe.ImportRequest
		status string
	)
	err := s.pool.QueryRow(ctx, `
SELECT id, source_url, status, error_text, target_recipe_id, raw_payload_uri, submitted_at, started_at, finished_at
FROM imports WHERE id = $1`, id,
	).Scan(&req.ID, &req.SourceURL, &status, &req.ErrorText,
		&req.TargetRecipeID, &req.RawPayloadURI, &req.Submitted, &req.Started, &req.Finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return recipe.ImportRequest{}, store.ErrNotFound
	}
	if err != nil {
		return recipe.ImportRequest{}, fmt.Errorf("select import: %w", err)
	}
	req.Status = recipe.ImportStatus(status)
	return req, nil
}

func (s *Store) SetImportRunning(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE imports SET status = $2, error_text = '', started_at = $3
WHERE id = $1 AND status = $4`,
		id, string(recipe.ImportStatusRunning), at, string(recipe.ImportStatusQueued),
	)
	if err != nil {
		return fmt.Errorf("start import: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetImport(ctx, id); err != nil {
			return err
		}
		return store.ErrConflict
	}
	return nil
}

func (s *Store) CompleteImport(ctx context.Context, id string, done store.ImportCompletion) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin complete import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var targetID string
	err = tx.QueryRow(ctx, `
UPDATE imports
SET status = $2, error_text = $3,
    raw_payload_uri = CASE WHEN $4 = '' THEN raw_payload_uri ELSE $4 END,
    finished_at = $5
WHERE id = $1
RETURNING target_recipe_id`,
		id, string(done.Status), done.ErrorText, done.RawPayloadURI, done.FinishedAt,
	).Scan(&targetID)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("finish import: %w", err)
	}

	if done.Patch != nil {
		if err := applyPatchTx(ctx, tx, targetID, done.Patch, done.Lines); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
UPDATE weeks SET version = version + 1
WHERE id IN (SELECT week_id FROM week_recipes WHERE recipe_id = $1)`, targetID); err != nil {
			return fmt.Errorf("bump week versions: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit complete import: %w", err)
	}
	return nil
}

func applyPatchTx(ctx context.Context, tx pgx.Tx, recipeID string, p *recipe.RecipePatch, lines []recipe.IngredientLine) error {
	if _, err := tx.Exec(ctx, `
INSERT INTO recipes (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, recipeID); err != nil {
		return fmt.Errorf("ensure recipe: %w", err)
	}
	if _, err := tx.Exec(ctx, `
UPDATE recipes SET
	title = COALESCE($2, title),
	image_url = COALESCE($3, image_url),
	description = COALESCE($4, description),
	prep_minutes = COALESCE($5, prep_minutes),
	cook_minutes = COALESCE($6, cook_minutes),
	total_minutes = COALESCE($7, total_minutes),
	servings = COALESCE($8, servings),
	yields = COALESCE($9, yields),
	directions_text = COALESCE($10, directions_text),
	draft = COALESCE($11, draft)
WHERE id = $1`,
		recipeID, p.Title, p.ImageURL, p.Description,
		p.PrepMinutes, p.CookMinutes, p.TotalMinutes, p.Servings,
		p.Yields, p.DirectionsText, p.Draft,
	); err != nil {
		return fmt.Errorf("patch recipe: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("clear ingredient lines: %w", err)
	}
	for _, line := range lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO recipe_ingredients (recipe_id, position, raw, name, quantity, unit, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			recipeID, line.Position, line.Raw, line.Name, line.Quantity, line.Unit, line.Notes,
		); err != nil {
			return fmt.Errorf("insert ingredient line: %w", err)
		}
	}
	return nil
}

func (s *Store) GetRecipe(ctx context.Context, id string) (recipe.Recipe, error) {
	var r recipe.Recipe
	err := s.pool.QueryRow(ctx, `
SELECT id, title, image_url, description, prep_minutes, cook_minutes, total_minutes, servings, yields, directions_text, draft
FROM recipes WHERE id = $1`, id,
	).Scan(&r.ID, &r.Title, &r.ImageURL, &r.Description,
		&r.PrepMinutes, &r.CookMinutes, &r.TotalMinutes, &r.Servings,
		&r.Yields, &r.DirectionsText, &r.Draft)
	if errors.Is(err, pgx.ErrNoRows) {
		return recipe.Recipe{}, store.ErrNotFound
	}
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("select recipe: %w", err)
	}
	lines, err := s.ingredientLines(ctx, id)
	if err != nil {
		return recipe.Recipe{}, err
	}
	r.IngredientLines = lines
	return r, nil
}

func (s *Store) ingredientLines(ctx context.Context, recipeID string) ([]recipe.IngredientLine, error) {
	rows, err := s.pool.Query(ctx, `
SELECT recipe_id, position, raw, name, quantity, unit, notes
FROM recipe_ingredients WHERE recipe_id = $1 ORDER BY position`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("select ingredient lines: %w", err)
	}
	defer rows.Close()

	var lines []recipe.IngredientLine
	for rows.Next() {
		var line recipe.IngredientLine
		if err := rows.Scan(&line.RecipeID, &line.Position, &line.Raw, &line.Name,
			&line.Quantity, &line.Unit, &line.Notes); err != nil {
			return nil, fmt.Errorf("scan ingredient line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredient lines: %w", err)
	}
	return lines, nil
}

func (s *Store) SaveRecipe(ctx context.Context, r recipe.Recipe) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save recipe: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO recipes (id, title, image_url, description, prep_minutes, cook_minutes, total_minutes, servings, yields, directions_text, draft)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	image_url = EXCLUDED.image_url,
	description = EXCLUDED.description,
	prep_minutes = EXCLUDED.prep_minutes,
	cook_minutes = EXCLUDED.cook_minutes,
	total_minutes = EXCLUDED.total_minutes,
	servings = EXCLUDED.servings,
	yields = EXCLUDED.yields,
	directions_text = EXCLUDED.directions_text,
	draft = EXCLUDED.draft`,
		r.ID, r.Title, r.ImageURL, r.Description,
		r.PrepMinutes, r.CookMinutes, r.TotalMinutes, r.Servings,
		r.Yields, r.DirectionsText, r.Draft,
	); err != nil {
		return fmt.Errorf("upsert recipe: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, r.ID); err != nil {
		return fmt.Errorf("clear ingredient lines: %w", err)
	}
	for _, line := range r.IngredientLines {
		if _, err := tx.Exec(ctx, `
INSERT INTO recipe_ingredients (recipe_id, position, raw, name, quantity, unit, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ID, line.Position, line.Raw, line.Name, line.Quantity, line.Unit, line.Notes,
		); err != nil {
			return fmt.Errorf("insert ingredient line: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save recipe: %w", err)
	}
	return nil
}

func (s *Store) ListWeekRecipes(ctx context.Context, weekID string) ([]recipe.Recipe, error) {
	rows, err := s.pool.Query(ctx, `
SELECT r.id, r.title, r.image_url, r.description, r.prep_minutes, r.cook_minutes, r.total_minutes, r.servings, r.yields, r.directions_text, r.draft
FROM recipes r
JOIN week_recipes wr ON wr.recipe_id = r.id
WHERE wr.week_id = $1
ORDER BY wr.position`, weekID)
	if err != nil {
		return nil, fmt.Errorf("select week recipes: %w", err)
	}
	defer rows.Close()

	var recipes []recipe.Recipe
	for rows.Next() {
		var r recipe.Recipe
		if err := rows.Scan(&r.ID, &r.Title, &r.ImageURL, &r.Description,
			&r.PrepMinutes, &r.CookMinutes, &r.TotalMinutes, &r.Servings,
			&r.Yields, &r.DirectionsText, &r.Draft); err != nil {
			return nil, fmt.Errorf("scan week recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate week recipes: %w", err)
	}
	for i := range recipes {
		lines, err := s.ingredientLines(ctx, recipes[i].ID)
		if err != nil {
			return nil, err
		}
		recipes[i].IngredientLines = lines
	}
	return recipes, nil
}

func (s *Store) WeekVersion(ctx context.Context, weekID string) (int64, error) {
	var version int64
	err := s.pool.QueryRow(ctx, `SELECT version FROM weeks WHERE id = $1`, weekID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select week version: %w", err)
	}
	return version, nil
}

func (s *Store) AddRecipeToWeek(ctx context.Context, weekID, recipeID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin add recipe to week: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO weeks (id, version) VALUES ($1, 0) ON CONFLICT (id) DO NOTHING`, weekID); err != nil {
		return fmt.Errorf("ensure week: %w", err)
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO week_recipes (week_id, recipe_id) VALUES ($1, $2)
ON CONFLICT (week_id, recipe_id) DO NOTHING`, weekID, recipeID); err != nil {
		return fmt.Errorf("attach recipe: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE weeks SET version = version + 1 WHERE id = $1`, weekID); err != nil {
		return fmt.Errorf("bump week version: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit add recipe to week: %w", err)
	}
	return nil
}

func (s *Store) CreateJob(ctx context.Context, job recipe.SmartListJob) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO smart_list_jobs (id, workspace_id, week_id, shopping_list_id, status, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.WorkspaceID, job.WeekID, job.ShoppingListID, string(job.Status), job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert smart list job: %w", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (recipe.SmartListJob, error) {
	job, err := scanJob(s.pool.QueryRow(ctx, `
SELECT id, workspace_id, week_id, shopping_list_id, status, started_at, finished_at, smart_list_id, error_text, updated_at
FROM smart_list_jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return recipe.SmartListJob{}, store.ErrNotFound
	}
	if err != nil {
		return recipe.SmartListJob{}, fmt.Errorf("select smart list job: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (recipe.SmartListJob, error) {
	var (
		job    recipe.SmartListJob
		status string
	)
	err := row.Scan(&job.ID, &job.WorkspaceID, &job.WeekID, &job.ShoppingListID,
		&status, &job.StartedAt, &job.FinishedAt, &job.SmartListID, &job.ErrorText, &job.UpdatedAt)
	if err != nil {
		return recipe.SmartListJob{}, err
	}
	job.Status = recipe.SmartListJobStatus(status)
	return job, nil
}

func (s *Store) ClaimJob(ctx context.Context, id string, now, staleBefore time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
UPDATE smart_list_jobs
SET status = $2, started_at = $3, updated_at = $3, error_text = ''
WHERE id = $1 AND (status = $4 OR (status = $2 AND updated_at < $5))`,
		id, string(recipe.SmartListJobRunning), now, string(recipe.SmartListJobQueued), staleBefore,
	)
	if err != nil {
		return false, fmt.Errorf("claim smart list job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetJob(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) CompleteJob(ctx context.Context, id string, status recipe.SmartListJobStatus, smartListID, errorText string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE smart_list_jobs
SET status = $2, smart_list_id = $3, error_text = $4, finished_at = $5, updated_at = $5
WHERE id = $1`,
		id, string(status), smartListID, errorText, at,
	)
	if err != nil {
		return fmt.Errorf("complete smart list job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListJobs(ctx context.Context, workspaceID string, limit int) ([]recipe.SmartListJob, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, workspace_id, week_id, shopping_list_id, status, started_at, finished_at, smart_list_id, error_text, updated_at
FROM smart_list_jobs
WHERE workspace_id = $1
ORDER BY updated_at DESC
LIMIT $2`, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("select smart list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []recipe.SmartListJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan smart list job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate smart list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) SaveSmartList(ctx context.Context, list recipe.SmartList) error {
	items, err := json.Marshal(list.Items)
	if err != nil {
		return fmt.Errorf("marshal smart list items: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO smart_lists (id, week_id, shopping_list_id, week_version, items, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (week_id, shopping_list_id) DO UPDATE SET
	id = EXCLUDED.id,
	week_version = EXCLUDED.week_version,
	items = EXCLUDED.items,
	created_at = EXCLUDED.created_at`,
		list.ID, list.WeekID, list.ShoppingListID, list.WeekVersion, items, list.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert smart list: %w", err)
	}
	return nil
}

func (s *Store) GetSmartList(ctx context.Context, id string) (recipe.SmartList, error) {
	var (
		list  recipe.SmartList
		items []byte
	)
	err := s.pool.QueryRow(ctx, `
SELECT id, week_id, shopping_list_id, week_version, items, created_at
FROM smart_lists WHERE id = $1`, id,
	).Scan(&list.ID, &list.WeekID, &list.ShoppingListID, &list.WeekVersion, &items, &list.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return recipe.SmartList{}, store.ErrNotFound
	}
	if err != nil {
		return recipe.SmartList{}, fmt.Errorf("select smart list: %w", err)
	}
	if err := json.Unmarshal(items, &list.Items); err != nil {
		return recipe.SmartList{}, fmt.Errorf("unmarshal smart list items: %w", err)
	}
	return list, nil
}

// Package store defines the persistence interfaces for imports, recipes,
// planning weeks, and smart lists. Implementations live in subpackages;
// callers depend only on the narrow interface they need.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/simmerhq/simmer/internal/recipe"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned when a write loses a state precondition, e.g.
// starting an import that is not queued.
var ErrConflict = errors.New("store: conflict")

// ImportCompletion is the atomic unit written when an import run finishes.
// Patch and Lines are applied to the target recipe only when Patch is
// non-nil; the import row itself is always updated.
type ImportCompletion struct {
	Status        recipe.ImportStatus
	ErrorText     string
	RawPayloadURI string
	FinishedAt    time.Time

	Patch *recipe.RecipePatch
	// Lines replace the target recipe's ingredient lines wholesale.
	Lines []recipe.IngredientLine
}

// ImportStore persists import requests and their lifecycle.
type ImportStore interface {
	// CreateImport records a new import in the queued state.
	CreateImport(ctx context.Context, req recipe.ImportRequest) error

	// GetImport loads one import by ID.
	GetImport(ctx context.Context, id string) (recipe.ImportRequest, error)

	// SetImportRunning transitions a queued import to running, clearing any
	// prior error text. Returns ErrConflict when the import is not queued.
	SetImportRunning(ctx context.Context, id string, at time.Time) error

	// CompleteImport writes the terminal status and, when the completion
	// carries a patch, updates the target recipe and its ingredient lines
	// in the same unit of work. Weeks containing the target recipe get
	// their version counter bumped.
	CompleteImport(ctx context.Context, id string, done ImportCompletion) error
}

// RecipeStore reads and writes recipe records.
type RecipeStore interface {
	GetRecipe(ctx context.Context, id string) (recipe.Recipe, error)
	SaveRecipe(ctx context.Context, r recipe.Recipe) error
}

// WeekStore exposes planning weeks: their member recipes and the version
// counter that invalidates generated smart lists.
type WeekStore interface {
	// ListWeekRecipes returns the recipes attached to a week, with
	// ingredient lines loaded, in attachment order.
	ListWeekRecipes(ctx context.Context, weekID string) ([]recipe.Recipe, error)

	// WeekVersion returns the week's current version counter.
	WeekVersion(ctx context.Context, weekID string) (int64, error)

	// AddRecipeToWeek attaches a recipe and bumps the week version. Adding
	// an already-attached recipe is a no-op that still bumps the version.
	AddRecipeToWeek(ctx context.Context, weekID, recipeID string) error
}

// SmartListStore persists smart-list generation jobs and their results.
type SmartListStore interface {
	CreateJob(ctx context.Context, job recipe.SmartListJob) error
	GetJob(ctx context.Context, id string) (recipe.SmartListJob, error)

	// ClaimJob attempts to move a job into RUNNING. It succeeds when the
	// job is QUEUED, or RUNNING but last updated before staleBefore (an
	// abandoned run being reclaimed). Returns false without error when the
	// job cannot be claimed.
	ClaimJob(ctx context.Context, id string, now, staleBefore time.Time) (bool, error)

	// CompleteJob writes the terminal status. smartListID is set only on
	// success; errorText only on failure.
	CompleteJob(ctx context.Context, id string, status recipe.SmartListJobStatus, smartListID, errorText string, at time.Time) error

	// ListJobs returns the most recent jobs for a workspace, newest first,
	// capped at limit.
	ListJobs(ctx context.Context, workspaceID string, limit int) ([]recipe.SmartListJob, error)

	// SaveSmartList stores a generated list. One list exists per
	// (week, shopping list) pair; re-generation overwrites it.
	SaveSmartList(ctx context.Context, list recipe.SmartList) error

	GetSmartList(ctx context.Context, id string) (recipe.SmartList, error)
}

// Store is the full persistence surface, for wiring at the composition root.
type Store interface {
	ImportStore
	RecipeStore
	WeekStore
	SmartListStore
}

// Package recipe defines core types shared across subsystems.
package recipe

import "time"

// ImportStatus represents the lifecycle state of an import request.
type ImportStatus string

// Import status values persisted in the import store. Transitions move
// strictly forward: queued -> running -> {success, partial, failed}.
const (
	ImportStatusQueued  ImportStatus = "queued"
	ImportStatusRunning ImportStatus = "running"
	ImportStatusSuccess ImportStatus = "success"
	ImportStatusPartial ImportStatus = "partial"
	ImportStatusFailed  ImportStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s ImportStatus) Terminal() bool {
	switch s {
	case ImportStatusSuccess, ImportStatusPartial, ImportStatusFailed:
		return true
	default:
		return false
	}
}

// Confidence grades how much an extraction result should be trusted,
// set by which extraction strategy succeeded.
type Confidence string

// Confidence levels from strongest to weakest.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ImportRequest is the metadata persisted for each submitted import.
type ImportRequest struct {
	ID             string       `json:"id"`
	SourceURL      string       `json:"source_url"`
	Status         ImportStatus `json:"status"`
	ErrorText      string       `json:"error_text,omitempty"`
	TargetRecipeID string       `json:"target_recipe_id"`
	RawPayloadURI  string       `json:"raw_payload_uri,omitempty"`
	Submitted      time.Time    `json:"submitted_at"`
	Started        *time.Time   `json:"started_at,omitempty"`
	Finished       *time.Time   `json:"finished_at,omitempty"`
}

// ExtractedRecipe is the transient result of running a scrape strategy.
// Numeric fields are nil when the source did not provide them.
type ExtractedRecipe struct {
	Title           string     `json:"title"`
	ImageURL        string     `json:"image_url"`
	Description     string     `json:"description"`
	PrepMinutes     *int       `json:"prep_minutes"`
	CookMinutes     *int       `json:"cook_minutes"`
	TotalMinutes    *int       `json:"total_minutes"`
	Servings        *int       `json:"servings"`
	Yields          string     `json:"yields"`
	IngredientLines []string   `json:"ingredient_lines"`
	DirectionsText  string     `json:"directions_text"`
	Confidence      Confidence `json:"confidence"`
}

// HasIngredientsOrDirections reports whether any list content was recovered.
func (r ExtractedRecipe) HasIngredientsOrDirections() bool {
	return len(r.IngredientLines) > 0 || r.DirectionsText != ""
}

// ParsedIngredient is one decomposed ingredient line.
type ParsedIngredient struct {
	Raw      string   `json:"raw"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Notes    *string  `json:"notes"`
}

// IngredientLine is a parsed line persisted against a recipe, position-ordered.
type IngredientLine struct {
	RecipeID string   `json:"recipe_id"`
	Position int      `json:"position"`
	Raw      string   `json:"raw"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Notes    *string  `json:"notes"`
}

// Recipe is the persisted recipe record an import writes into.
type Recipe struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	ImageURL        string           `json:"image_url"`
	Description     string           `json:"description"`
	PrepMinutes     *int             `json:"prep_minutes"`
	CookMinutes     *int             `json:"cook_minutes"`
	TotalMinutes    *int             `json:"total_minutes"`
	Servings        *int             `json:"servings"`
	Yields          string           `json:"yields"`
	DirectionsText  string           `json:"directions_text"`
	Draft           bool             `json:"draft"`
	IngredientLines []IngredientLine `json:"ingredient_lines"`
}

// RecipePatch carries scraped values to apply to a recipe. Nil fields are
// skipped so a scrape never erases data a user already has.
type RecipePatch struct {
	Title          *string
	ImageURL       *string
	Description    *string
	PrepMinutes    *int
	CookMinutes    *int
	TotalMinutes   *int
	Servings       *int
	Yields         *string
	DirectionsText *string
	Draft          *bool
}

// Apply copies the patch's non-nil fields onto the recipe.
func (p RecipePatch) Apply(r *Recipe) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.ImageURL != nil {
		r.ImageURL = *p.ImageURL
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.PrepMinutes != nil {
		r.PrepMinutes = p.PrepMinutes
	}
	if p.CookMinutes != nil {
		r.CookMinutes = p.CookMinutes
	}
	if p.TotalMinutes != nil {
		r.TotalMinutes = p.TotalMinutes
	}
	if p.Servings != nil {
		r.Servings = p.Servings
	}
	if p.Yields != nil {
		r.Yields = *p.Yields
	}
	if p.DirectionsText != nil {
		r.DirectionsText = *p.DirectionsText
	}
	if p.Draft != nil {
		r.Draft = *p.Draft
	}
}

// SmartListJobStatus is the lifecycle state of a smart-list generation job.
type SmartListJobStatus string

// Smart-list job statuses. Transitions only QUEUED -> RUNNING -> {SUCCEEDED, FAILED}.
const (
	SmartListJobQueued    SmartListJobStatus = "QUEUED"
	SmartListJobRunning   SmartListJobStatus = "RUNNING"
	SmartListJobSucceeded SmartListJobStatus = "SUCCEEDED"
	SmartListJobFailed    SmartListJobStatus = "FAILED"
)

// Terminal reports whether the job status admits no further transitions.
func (s SmartListJobStatus) Terminal() bool {
	return s == SmartListJobSucceeded || s == SmartListJobFailed
}

// SmartListJob tracks one asynchronous smart-list generation run.
type SmartListJob struct {
	ID             string             `json:"id"`
	WorkspaceID    string             `json:"workspace_id"`
	WeekID         string             `json:"week_id"`
	ShoppingListID string             `json:"shopping_list_id"`
	Status         SmartListJobStatus `json:"status"`
	StartedAt      *time.Time         `json:"started_at,omitempty"`
	FinishedAt     *time.Time         `json:"finished_at,omitempty"`
	SmartListID    string             `json:"smart_list_id,omitempty"`
	ErrorText      string             `json:"error_text,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// SmartList is a generated, normalized grocery list for one planning week.
// WeekVersion records the week's version counter at generation time; a
// mismatch with the current counter marks the list stale.
type SmartList struct {
	ID             string          `json:"id"`
	WeekID         string          `json:"week_id"`
	ShoppingListID string          `json:"shopping_list_id"`
	WeekVersion    int64           `json:"week_version"`
	Items          []SmartListItem `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SmartListItem is one aggregated entry of a generated smart list, with
// provenance back to the contributing recipes and raw lines.
type SmartListItem struct {
	Category        string   `json:"category"`
	Name            string   `json:"name"`
	Quantity        *float64 `json:"quantity"`
	Unit            *string  `json:"unit"`
	Notes           *string  `json:"notes"`
	DisplayText     string   `json:"display_text"`
	SourceRecipeIDs []string `json:"source_recipe_ids"`
	SourceLines     []string `json:"source_lines,omitempty"`
}

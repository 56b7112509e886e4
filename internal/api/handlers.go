package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/queue"
	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/shopping"
	"github.com/simmerhq/simmer/internal/store"
)

type submitImportRequest struct {
	SourceURL string `json:"source_url"`
	RecipeID  string `json:"recipe_id"`
}

type submitImportResponse struct {
	ImportID string `json:"import_id"`
	RecipeID string `json:"recipe_id"`
	Status   string `json:"status"`
}

type importStatusResponse struct {
	ImportID  string     `json:"import_id"`
	SourceURL string     `json:"source_url"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	RecipeID  string     `json:"recipe_id"`
	Submitted time.Time  `json:"submitted_at"`
	Started   *time.Time `json:"started_at,omitempty"`
	Finished  *time.Time `json:"finished_at,omitempty"`
}

func (s *Server) submitImport(w http.ResponseWriter, r *http.Request) {
	var req submitImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := url.ParseRequestURI(req.SourceURL); err != nil {
		writeError(w, http.StatusBadRequest, "source_url must be a valid URL")
		return
	}

	importID, err := s.idGen.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generate import id")
		return
	}
	recipeID := req.RecipeID
	if recipeID == "" {
		if recipeID, err = s.idGen.NewID(); err != nil {
			writeError(w, http.StatusInternalServerError, "generate recipe id")
			return
		}
	}

	imp := recipe.ImportRequest{
		ID:             importID,
		SourceURL:      req.SourceURL,
		Status:         recipe.ImportStatusQueued,
		TargetRecipeID: recipeID,
		Submitted:      s.clock.Now(),
	}
	if err := s.store.CreateImport(r.Context(), imp); err != nil {
		writeError(w, http.StatusInternalServerError, "create import")
		return
	}
	s.enqueueTask(r.Context(), queue.Task{Kind: queue.KindImport, ID: importID})

	writeJSON(w, http.StatusAccepted, submitImportResponse{
		ImportID: importID,
		RecipeID: recipeID,
		Status:   string(imp.Status),
	})
}

func (s *Server) getImport(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "import_id")
	imp, err := s.store.GetImport(r.Context(), importID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "import not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load import")
		return
	}
	writeJSON(w, http.StatusOK, importStatusResponse{
		ImportID:  imp.ID,
		SourceURL: imp.SourceURL,
		Status:    string(imp.Status),
		Error:     imp.ErrorText,
		RecipeID:  imp.TargetRecipeID,
		Submitted: imp.Submitted,
		Started:   imp.Started,
		Finished:  imp.Finished,
	})
}

// runImport executes the import synchronously. An execution error that still
// reached a terminal status (a failed scrape) reports that status; only
// infrastructure errors surface as 5xx.
func (s *Server) runImport(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "import_id")
	status, err := s.imports.Run(r.Context(), importID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "import not found")
			return
		}
		if status == "" {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"import_id": importID,
			"status":    string(status),
			"error":     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"import_id": importID,
		"status":    string(status),
	})
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "recipe_id")
	rec, err := s.store.GetRecipe(r.Context(), recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load recipe")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type addRecipeRequest struct {
	RecipeID string `json:"recipe_id"`
}

func (s *Server) addRecipeToWeek(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "week_id")
	var req addRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecipeID == "" {
		writeError(w, http.StatusBadRequest, "recipe_id required")
		return
	}
	if err := s.store.AddRecipeToWeek(r.Context(), weekID, req.RecipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "attach recipe")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"week_id": weekID, "recipe_id": req.RecipeID})
}

type shoppingViewResponse struct {
	WeekID      string                     `json:"week_id"`
	View        string                     `json:"view"`
	Units       string                     `json:"units"`
	WeekVersion int64                      `json:"week_version"`
	Sections    []shopping.CategorySection `json:"sections,omitempty"`
	Recipes     []shopping.RecipeSection   `json:"recipes,omitempty"`
}

// getShoppingView builds the shopping view on demand from the week's current
// recipes. view=aggregated|by-recipe, units=metric|raw.
func (s *Server) getShoppingView(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "week_id")
	view := r.URL.Query().Get("view")
	if view == "" {
		view = "aggregated"
	}
	units := r.URL.Query().Get("units")
	if units == "" {
		units = "metric"
	}
	if view != "aggregated" && view != "by-recipe" {
		writeError(w, http.StatusBadRequest, "view must be aggregated or by-recipe")
		return
	}
	if units != "metric" && units != "raw" {
		writeError(w, http.StatusBadRequest, "units must be metric or raw")
		return
	}

	recipes, err := s.store.ListWeekRecipes(r.Context(), weekID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "week not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load week")
		return
	}
	version, err := s.store.WeekVersion(r.Context(), weekID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "load week version")
		return
	}

	opts := shopping.Options{Metric: units == "metric"}
	resp := shoppingViewResponse{
		WeekID:      weekID,
		View:        view,
		Units:       units,
		WeekVersion: version,
	}
	if view == "by-recipe" {
		resp.Recipes = shopping.ByRecipe(recipes, opts)
	} else {
		resp.Sections = shopping.Aggregated(recipes, opts)
	}
	writeJSON(w, http.StatusOK, resp)
}

type submitSmartListRequest struct {
	WorkspaceID    string `json:"workspace_id"`
	WeekID         string `json:"week_id"`
	ShoppingListID string `json:"shopping_list_id"`
}

func (s *Server) submitSmartListJob(w http.ResponseWriter, r *http.Request) {
	var req submitSmartListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.WorkspaceID == "" || req.WeekID == "" || req.ShoppingListID == "" {
		writeError(w, http.StatusBadRequest, "workspace_id, week_id and shopping_list_id required")
		return
	}
	job, err := s.smartLists.Enqueue(r.Context(), req.WorkspaceID, req.WeekID, req.ShoppingListID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "enqueue job")
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// runSmartListJob is the trigger endpoint. Re-invocations against a terminal
// or freshly running job resolve as skipped successes.
func (s *Server) runSmartListJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	result, err := s.smartLists.RunJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listSmartListJobs(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace_id")
	if workspaceID == "" {
		writeError(w, http.StatusBadRequest, "workspace_id required")
		return
	}
	limit := s.cfg.SmartList.ListPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	jobs, err := s.store.ListJobs(r.Context(), workspaceID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list jobs")
		return
	}
	summaries := make([]jobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, jobSummary{
			SmartListJob: job,
			Stale:        s.listStale(r.Context(), job),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": summaries})
}

type jobSummary struct {
	recipe.SmartListJob
	// Stale is set on succeeded jobs whose generated list no longer matches
	// the week's current version.
	Stale *bool `json:"stale,omitempty"`
}

func (s *Server) listStale(ctx context.Context, job recipe.SmartListJob) *bool {
	if job.Status != recipe.SmartListJobSucceeded || job.SmartListID == "" {
		return nil
	}
	list, err := s.store.GetSmartList(ctx, job.SmartListID)
	if err != nil {
		return nil
	}
	version, err := s.store.WeekVersion(ctx, list.WeekID)
	if err != nil {
		return nil
	}
	stale := version != list.WeekVersion
	return &stale
}

func (s *Server) getSmartList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "list_id")
	list, err := s.store.GetSmartList(r.Context(), listID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "smart list not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load smart list")
		return
	}
	version, err := s.store.WeekVersion(r.Context(), list.WeekID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "load week version")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"smart_list": list,
		"stale":      version != list.WeekVersion,
	})
}

// enqueueTask fires a best-effort background trigger. Failures are logged;
// the record stays queued for an explicit run call.
func (s *Server) enqueueTask(ctx context.Context, task queue.Task) {
	if s.tasks == nil {
		return
	}
	queueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.tasks.Enqueue(queueCtx, task); err != nil {
		s.logger.Warn("task enqueue failed, record stays queued",
			zap.String("kind", string(task.Kind)),
			zap.String("id", task.ID),
			zap.Error(err))
	}
}

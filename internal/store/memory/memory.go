// Package memory provides an in-memory store implementation used in tests
// and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/simmerhq/simmer/internal/recipe"
	"github.com/simmerhq/simmer/internal/store"
)

type week struct {
	version   int64
	recipeIDs []string
}

// Store is a mutex-guarded, map-backed store.Store.
type Store struct {
	mu sync.Mutex

	imports    map[string]recipe.ImportRequest
	recipes    map[string]recipe.Recipe
	weeks      map[string]*week
	jobs       map[string]recipe.SmartListJob
	jobOrder   []string
	smartLists map[string]recipe.SmartList
	// listKeys maps "weekID|shoppingListID" to the stored list's ID so
	// regeneration overwrites instead of accumulating.
	listKeys map[string]string
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		imports:    make(map[string]recipe.ImportRequest),
		recipes:    make(map[string]recipe.Recipe),
		weeks:      make(map[string]*week),
		jobs:       make(map[string]recipe.SmartListJob),
		smartLists: make(map[string]recipe.SmartList),
		listKeys:   make(map[string]string),
	}
}

func (s *Store) CreateImport(_ context.Context, req recipe.ImportRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.imports[req.ID]; ok {
		return store.ErrConflict
	}
	s.imports[req.ID] = req
	return nil
}

func (s *Store) GetImport(_ context.Context, id string) (recipe.ImportRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.imports[id]
	if !ok {
		return recipe.ImportRequest{}, store.ErrNotFound
	}
	return req, nil
}

func (s *Store) SetImportRunning(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.imports[id]
	if !ok {
		return store.ErrNotFound
	}
	if req.Status != recipe.ImportStatusQueued {
		return store.ErrConflict
	}
	req.Status = recipe.ImportStatusRunning
	req.ErrorText = ""
	req.Started = &at
	s.imports[id] = req
	return nil
}

func (s *Store) CompleteImport(_ context.Context, id string, done store.ImportCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.imports[id]
	if !ok {
		return store.ErrNotFound
	}
	req.Status = done.Status
	req.ErrorText = done.ErrorText
	if done.RawPayloadURI != "" {
		req.RawPayloadURI = done.RawPayloadURI
	}
	finished := done.FinishedAt
	req.Finished = &finished
	s.imports[id] = req

	if done.Patch == nil {
		return nil
	}
	target, ok := s.recipes[req.TargetRecipeID]
	if !ok {
		target = recipe.Recipe{ID: req.TargetRecipeID}
	}
	done.Patch.Apply(&target)
	target.IngredientLines = done.Lines
	s.recipes[target.ID] = target
	s.bumpWeeksContaining(target.ID)
	return nil
}

func (s *Store) GetRecipe(_ context.Context, id string) (recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok {
		return recipe.Recipe{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) SaveRecipe(_ context.Context, r recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes[r.ID] = r
	return nil
}

func (s *Store) ListWeekRecipes(_ context.Context, weekID string) ([]recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weeks[weekID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]recipe.Recipe, 0, len(w.recipeIDs))
	for _, id := range w.recipeIDs {
		if r, ok := s.recipes[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) WeekVersion(_ context.Context, weekID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weeks[weekID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return w.version, nil
}

func (s *Store) AddRecipeToWeek(_ context.Context, weekID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weeks[weekID]
	if !ok {
		w = &week{}
		s.weeks[weekID] = w
	}
	attached := false
	for _, id := range w.recipeIDs {
		if id == recipeID {
			attached = true
			break
		}
	}
	if !attached {
		w.recipeIDs = append(w.recipeIDs, recipeID)
	}
	w.version++
	return nil
}

func (s *Store) bumpWeeksContaining(recipeID string) {
	for _, w := range s.weeks {
		for _, id := range w.recipeIDs {
			if id == recipeID {
				w.version++
				break
			}
		}
	}
}

func (s *Store) CreateJob(_ context.Context, job recipe.SmartListJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return store.ErrConflict
	}
	s.jobs[job.ID] = job
	s.jobOrder = append(s.jobOrder, job.ID)
	return nil
}

func (s *Store) GetJob(_ context.Context, id string) (recipe.SmartListJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return recipe.SmartListJob{}, store.ErrNotFound
	}
	return job, nil
}

func (s *Store) ClaimJob(_ context.Context, id string, now, staleBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false, store.ErrNotFound
	}
	claimable := job.Status == recipe.SmartListJobQueued ||
		(job.Status == recipe.SmartListJobRunning && job.UpdatedAt.Before(staleBefore))
	if !claimable {
		return false, nil
	}
	job.Status = recipe.SmartListJobRunning
	job.StartedAt = &now
	job.UpdatedAt = now
	job.ErrorText = ""
	s.jobs[id] = job
	return true, nil
}

func (s *Store) CompleteJob(_ context.Context, id string, status recipe.SmartListJobStatus, smartListID, errorText string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	job.Status = status
	job.SmartListID = smartListID
	job.ErrorText = errorText
	job.FinishedAt = &at
	job.UpdatedAt = at
	s.jobs[id] = job
	return nil
}

func (s *Store) ListJobs(_ context.Context, workspaceID string, limit int) ([]recipe.SmartListJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recipe.SmartListJob, 0, limit)
	for _, id := range s.jobOrder {
		job := s.jobs[id]
		if job.WorkspaceID == workspaceID {
			out = append(out, job)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SaveSmartList(_ context.Context, list recipe.SmartList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := list.WeekID + "|" + list.ShoppingListID
	if prior, ok := s.listKeys[key]; ok && prior != list.ID {
		delete(s.smartLists, prior)
	}
	s.listKeys[key] = list.ID
	s.smartLists[list.ID] = list
	return nil
}

func (s *Store) GetSmartList(_ context.Context, id string) (recipe.SmartList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.smartLists[id]
	if !ok {
		return recipe.SmartList{}, store.ErrNotFound
	}
	return list, nil
}

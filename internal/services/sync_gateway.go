package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"taskline/internal/api"
	"taskline/internal/database"
	"taskline/internal/logging"
	"taskline/internal/models"
)

// Outcome tags how a gateway operation was applied, so callers can surface a
// "working offline" indicator instead of guessing from logs.
type Outcome int

const (
	// OutcomeRemote means the backend accepted the operation.
	OutcomeRemote Outcome = iota
	// OutcomeLocal means the backend was unreachable or rejected the call
	// and the operation was applied against the local cache instead.
	OutcomeLocal
	// OutcomeRejected means the operation failed validation before any
	// network call was attempted.
	OutcomeRejected
	// OutcomeNoop means there was nothing to do (idempotent no-op cases).
	OutcomeNoop
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRemote:
		return "remote"
	case OutcomeLocal:
		return "local"
	case OutcomeRejected:
		return "rejected"
	case OutcomeNoop:
		return "noop"
	default:
		return "unknown"
	}
}

// ErrMissingCredentials rejects a login/register attempt with empty fields
// before any network call.
var ErrMissingCredentials = fmt.Errorf("email and password are required")

// SyncGateway is the single integration point between the stores and the two
// backing stores: the remote backend and the local durable cache. Policy for
// every mutation is remote-first, local-fallback, never local-exclusive; a
// single failed attempt immediately falls back, with no retries.
type SyncGateway struct {
	api   *api.Client
	local *database.DB
	reads *cache.Cache // assignment id -> models.Assignment
}

// NewSyncGateway creates a gateway over the backend client and local cache.
func NewSyncGateway(client *api.Client, local *database.DB) *SyncGateway {
	return &SyncGateway{
		api:   client,
		local: local,
		reads: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Login authenticates against the backend. Auth failures are surfaced: there
// is no sensible local fallback for identity. On success the user is mirrored
// under the currentUser key for startup rehydration.
func (g *SyncGateway) Login(ctx context.Context, email, password string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}
	user, err := g.api.Login(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	if err := g.local.Put(database.KeyCurrentUser, user); err != nil {
		slog.Warn("failed to mirror current user to cache", "error", err)
	}
	return user, nil
}

// Register creates an account; like Login, failures are surfaced.
func (g *SyncGateway) Register(ctx context.Context, name, email, password string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}
	user, err := g.api.Register(ctx, name, email, password)
	if err != nil {
		return models.User{}, err
	}
	if err := g.local.Put(database.KeyCurrentUser, user); err != nil {
		slog.Warn("failed to mirror current user to cache", "error", err)
	}
	return user, nil
}

// Logout ends the backend session and clears the cached identity. A failed
// remote call is logged, not surfaced; the local session is gone either way.
func (g *SyncGateway) Logout(ctx context.Context) {
	if err := g.api.Logout(ctx); err != nil {
		slog.Warn("remote logout failed", "error", err)
	}
	if err := g.local.Delete(database.KeyCurrentUser); err != nil {
		slog.Warn("failed to clear cached user", "error", err)
	}
}

// CurrentUser rehydrates the signed-in user from the local cache.
func (g *SyncGateway) CurrentUser() (models.User, bool) {
	var user models.User
	found, err := g.local.Get(database.KeyCurrentUser, &user)
	if err != nil {
		slog.Warn("failed to read cached user", "error", err)
		return models.User{}, false
	}
	return user, found
}

// FetchActive loads the active collection: remote first, local cache on
// failure, empty when neither is available. The remote error (if any) is
// returned alongside the fallback data so the caller can surface it.
func (g *SyncGateway) FetchActive(ctx context.Context) ([]models.Assignment, Outcome, error) {
	return g.fetch(ctx, database.KeyAssignments, g.api.ListAssignments)
}

// FetchArchived loads the archived collection with the same policy.
func (g *SyncGateway) FetchArchived(ctx context.Context) ([]models.Assignment, Outcome, error) {
	return g.fetch(ctx, database.KeyArchived, g.api.ListArchived)
}

func (g *SyncGateway) fetch(ctx context.Context, key string, remote func(context.Context) ([]models.Assignment, error)) ([]models.Assignment, Outcome, error) {
	list, err := remote(ctx)
	if err == nil {
		for _, a := range list {
			g.reads.Set(a.ID, a.Clone(), cache.DefaultExpiration)
		}
		return list, OutcomeRemote, nil
	}
	slog.Warn("remote fetch failed, reading local cache", "key", key, "error", err)

	var cached []models.Assignment
	found, cacheErr := g.local.Get(key, &cached)
	if cacheErr != nil {
		slog.Warn("local cache read failed", "key", key, "error", cacheErr)
	}
	if !found {
		cached = []models.Assignment{}
	}
	return cached, OutcomeLocal, err
}

// GetAssignment fetches a single assignment: recently-fetched copy, then
// remote, then the local collection mirrors.
func (g *SyncGateway) GetAssignment(ctx context.Context, id string) (models.Assignment, Outcome, error) {
	if v, ok := g.reads.Get(id); ok {
		if a, ok := v.(models.Assignment); ok {
			return a.Clone(), OutcomeLocal, nil
		}
	}

	a, err := g.api.GetAssignment(ctx, id)
	if err == nil {
		g.reads.Set(a.ID, a.Clone(), cache.DefaultExpiration)
		return a, OutcomeRemote, nil
	}
	slog.Warn("remote get failed, scanning local cache", "assignment_id", id, "error", err)

	for _, key := range []string{database.KeyAssignments, database.KeyArchived} {
		var cached []models.Assignment
		if found, _ := g.local.Get(key, &cached); found {
			for _, c := range cached {
				if c.ID == id {
					return c, OutcomeLocal, nil
				}
			}
		}
	}
	return models.Assignment{}, OutcomeLocal, err
}

// Create submits a draft to the backend. On success the server-assigned
// assignment wins; on failure the draft itself is returned unchanged and the
// caller persists its optimistic collection via MirrorActive. The mutation
// never fails from the caller's point of view.
func (g *SyncGateway) Create(ctx context.Context, draft models.Assignment) (models.Assignment, Outcome) {
	created, err := g.api.CreateAssignment(ctx, draft)
	if err != nil {
		logging.WithSync(slog.Default(), "create", OutcomeLocal.String()).Warn(
			"remote create failed, keeping local draft",
			"assignment_id", draft.ID, "error", err)
		g.reads.Set(draft.ID, draft.Clone(), cache.DefaultExpiration)
		return draft, OutcomeLocal
	}
	g.reads.Set(created.ID, created.Clone(), cache.DefaultExpiration)
	return created, OutcomeRemote
}

// Update replaces the full assignment on the backend. On failure the
// submitted value stands as the new truth locally.
func (g *SyncGateway) Update(ctx context.Context, a models.Assignment) (models.Assignment, Outcome) {
	updated, err := g.api.UpdateAssignment(ctx, a)
	if err != nil {
		logging.WithSync(slog.Default(), "update", OutcomeLocal.String()).Warn(
			"remote update failed, keeping local copy",
			"assignment_id", a.ID, "error", err)
		g.reads.Set(a.ID, a.Clone(), cache.DefaultExpiration)
		return a, OutcomeLocal
	}
	g.reads.Set(updated.ID, updated.Clone(), cache.DefaultExpiration)
	return updated, OutcomeRemote
}

// SetArchived flips the archived flag on the backend. On failure the zero
// assignment is returned and the caller performs the move itself.
func (g *SyncGateway) SetArchived(ctx context.Context, id string, archived bool) (models.Assignment, Outcome) {
	a, err := g.api.SetArchived(ctx, id, archived)
	if err != nil {
		logging.WithSync(slog.Default(), "archive", OutcomeLocal.String()).Warn(
			"remote archive toggle failed, applying move locally",
			"assignment_id", id, "archived", archived, "error", err)
		return models.Assignment{}, OutcomeLocal
	}
	g.reads.Set(a.ID, a.Clone(), cache.DefaultExpiration)
	return a, OutcomeRemote
}

// Delete removes the assignment on the backend, best effort. The read cache
// entry is dropped either way.
func (g *SyncGateway) Delete(ctx context.Context, id string) Outcome {
	g.reads.Delete(id)
	if err := g.api.DeleteAssignment(ctx, id); err != nil {
		logging.WithSync(slog.Default(), "delete", OutcomeLocal.String()).Warn(
			"remote delete failed, applying locally",
			"assignment_id", id, "error", err)
		return OutcomeLocal
	}
	return OutcomeRemote
}

// MirrorActive persists the active collection under the assignments key for
// future fallback reads.
func (g *SyncGateway) MirrorActive(list []models.Assignment) {
	if err := g.local.Put(database.KeyAssignments, list); err != nil {
		slog.Warn("failed to mirror active collection", "error", err)
	}
}

// MirrorArchived persists the archived collection under its key.
func (g *SyncGateway) MirrorArchived(list []models.Assignment) {
	if err := g.local.Put(database.KeyArchived, list); err != nil {
		slog.Warn("failed to mirror archived collection", "error", err)
	}
}

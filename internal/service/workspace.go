package service

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	"github.com/noah-isme/vacation-admin-console/internal/repository"
	"github.com/noah-isme/vacation-admin-console/pkg/config"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

// screenAccess lists the roles allowed on each screen. Screens not listed are
// open to every signed-in user.
var screenAccess = map[string][]models.UserRole{
	ScreenTeamRequests: {models.RoleManager, models.RoleHR, models.RoleAdmin},
	ScreenBalances:     {models.RoleManager, models.RoleHR, models.RoleAdmin},
	ScreenUsers:        {models.RoleAdmin},
	ScreenRoles:        {models.RoleAdmin},
}

// ScreenAllowedRoles returns the roles allowed on a screen, or nil when every
// role is.
func ScreenAllowedRoles(screen string) []models.UserRole {
	return screenAccess[screen]
}

// KnownScreen reports whether key names a list screen.
func KnownScreen(key string) bool {
	for _, k := range ScreenKeys {
		if k == key {
			return true
		}
	}
	return false
}

// WorkspaceDeps are the collaborators shared by every session workspace.
type WorkspaceDeps struct {
	Requests  teamRequestRepository
	Balances  balanceRepository
	Users     userRepository
	Roles     roleRepository
	Lists     config.ListConfig
	Form      config.FormConfig
	Validator *validator.Validate
	Logger    *zap.Logger
	Metrics   *MetricsService
}

// Workspace holds the mounted screens and the vacation form of one session.
type Workspace struct {
	sessionID string
	deps      WorkspaceDeps
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	screens map[string]Screen
	form    *VacationFormFlow
	closed  bool
}

// NewWorkspace creates an empty workspace. Background fetches run under a
// context carrying the session id so they authenticate as the session.
func NewWorkspace(sessionID string, deps WorkspaceDeps) *Workspace {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	ctx, cancel := context.WithCancel(repository.WithSessionID(context.Background(), sessionID))
	return &Workspace{
		sessionID: sessionID,
		deps:      deps,
		logger:    deps.Logger.With(zap.String("session_id", sessionID)),
		ctx:       ctx,
		cancel:    cancel,
		screens:   make(map[string]Screen),
	}
}

// SessionID returns the owning session.
func (w *Workspace) SessionID() string {
	return w.sessionID
}

// Screen returns the mounted screen for key, mounting it on first use.
func (w *Workspace) Screen(key string) (Screen, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, appErrors.ErrUnauthorized
	}
	if s, ok := w.screens[key]; ok {
		return s, nil
	}
	s, err := w.mountLocked(key)
	if err != nil {
		return nil, err
	}
	w.screens[key] = s
	w.logger.Debug("screen mounted", zap.String("screen", key))
	return s, nil
}

// Mounted returns the screen for key if it is mounted.
func (w *Workspace) Mounted(key string) (Screen, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.screens[key]
	return s, ok
}

// Unmount closes a screen. Responses still in flight for it are discarded.
func (w *Workspace) Unmount(key string) {
	w.mu.Lock()
	s, ok := w.screens[key]
	delete(w.screens, key)
	w.mu.Unlock()
	if ok {
		s.Close()
	}
}

func (w *Workspace) controllerOptions() ListControllerOptions {
	opts := ListControllerOptions{
		PageSize:     w.deps.Lists.DefaultPageSize,
		MaxPageSize:  w.deps.Lists.MaxPageSize,
		FetchTimeout: w.deps.Lists.FetchTimeout,
		Logger:       w.logger,
	}
	if w.deps.Metrics != nil {
		opts.Observer = w.deps.Metrics
	}
	return opts
}

func (w *Workspace) mountLocked(key string) (Screen, error) {
	opts := w.controllerOptions()
	switch key {
	case ScreenTeamRequests:
		return NewListController(w.ctx, teamRequestsScreen(w.deps.Requests), opts), nil
	case ScreenMyRequests:
		return NewListController(w.ctx, myRequestsScreen(w.deps.Requests), opts), nil
	case ScreenBalances:
		return NewListController(w.ctx, balancesScreen(w.deps.Balances), opts), nil
	case ScreenUsers:
		return NewListController(w.ctx, usersScreen(w.deps.Users), opts), nil
	case ScreenRoles:
		return NewListController(w.ctx, rolesScreen(w.deps.Roles), opts), nil
	default:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Pantalla no encontrada")
	}
}

func (w *Workspace) requestScreen(key string) (*ListController[models.VacationRequest], error) {
	s, err := w.Screen(key)
	if err != nil {
		return nil, err
	}
	ctrl, ok := s.(*ListController[models.VacationRequest])
	if !ok {
		return nil, appErrors.ErrInternal
	}
	return ctrl, nil
}

func (w *Workspace) validateDecision(decision models.DecisionRequest) error {
	if err := w.deps.Validator.Struct(decision); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Datos de la decisión no válidos")
	}
	return nil
}

// Approve approves a team request and refreshes the team list.
func (w *Workspace) Approve(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error) {
	if err := w.validateDecision(decision); err != nil {
		return nil, err
	}
	ctrl, err := w.requestScreen(ScreenTeamRequests)
	if err != nil {
		return nil, err
	}
	return ctrl.RunAction(ctx, func(ctx context.Context) (*models.ActionResult, error) {
		return w.deps.Requests.Approve(ctx, id, decision)
	})
}

// Reject rejects a team request. A reason is required.
func (w *Workspace) Reject(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error) {
	if strings.TrimSpace(decision.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Debe indicar el motivo del rechazo")
	}
	if err := w.validateDecision(decision); err != nil {
		return nil, err
	}
	ctrl, err := w.requestScreen(ScreenTeamRequests)
	if err != nil {
		return nil, err
	}
	return ctrl.RunAction(ctx, func(ctx context.Context) (*models.ActionResult, error) {
		return w.deps.Requests.Reject(ctx, id, decision)
	})
}

// Cancel withdraws one of the user's own requests.
func (w *Workspace) Cancel(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error) {
	if err := w.validateDecision(decision); err != nil {
		return nil, err
	}
	ctrl, err := w.requestScreen(ScreenMyRequests)
	if err != nil {
		return nil, err
	}
	return ctrl.RunAction(ctx, func(ctx context.Context) (*models.ActionResult, error) {
		return w.deps.Requests.Cancel(ctx, id, decision)
	})
}

// Form returns the vacation form, loading entitlements the first time.
func (w *Workspace) Form(ctx context.Context) (*VacationFormFlow, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, appErrors.ErrUnauthorized
	}
	if w.form != nil {
		form := w.form
		w.mu.Unlock()
		return form, nil
	}
	opts := VacationFormOptions{
		NoticeTTL: w.deps.Form.NoticeTTL,
		Validator: w.deps.Validator,
		Logger:    w.logger,
	}
	if w.deps.Metrics != nil {
		opts.Observer = w.deps.Metrics
	}
	form := NewVacationFormFlow(w.deps.Balances, w.deps.Requests, opts)
	w.form = form
	w.mu.Unlock()

	// A failed load is kept in the form's error slot; the form is still usable
	// after a reload.
	_ = form.Load(ctx)
	return form, nil
}

// Close unmounts every screen and drops the form.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	screens := w.screens
	w.screens = map[string]Screen{}
	w.form = nil
	w.mu.Unlock()

	for _, s := range screens {
		s.Close()
	}
	w.cancel()
}

// WorkspaceRegistry maps session ids to workspaces.
type WorkspaceRegistry struct {
	deps WorkspaceDeps

	mu    sync.Mutex
	items map[string]*Workspace
}

// NewWorkspaceRegistry constructs an empty registry.
func NewWorkspaceRegistry(deps WorkspaceDeps) *WorkspaceRegistry {
	return &WorkspaceRegistry{deps: deps, items: make(map[string]*Workspace)}
}

// Get returns the workspace of a session, creating it on first use.
func (r *WorkspaceRegistry) Get(sessionID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.items[sessionID]; ok {
		return ws
	}
	ws := NewWorkspace(sessionID, r.deps)
	r.items[sessionID] = ws
	r.deps.Metrics.SetActiveWorkspaces(len(r.items))
	return ws
}

// Drop closes and forgets a session's workspace.
func (r *WorkspaceRegistry) Drop(sessionID string) {
	r.mu.Lock()
	ws, ok := r.items[sessionID]
	delete(r.items, sessionID)
	r.deps.Metrics.SetActiveWorkspaces(len(r.items))
	r.mu.Unlock()
	if ok {
		ws.Close()
	}
}

// Len returns the number of live workspaces.
func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// CloseAll closes every workspace. Used on shutdown.
func (r *WorkspaceRegistry) CloseAll() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Workspace)
	r.deps.Metrics.SetActiveWorkspaces(0)
	r.mu.Unlock()
	for _, ws := range items {
		ws.Close()
	}
}

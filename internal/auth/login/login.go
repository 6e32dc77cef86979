// Package login sequences one SSO login: resolve the local account,
// provision it when missing, sync its profile and open a session.
package login

import (
	"context"
	"errors"
	"fmt"

	"sso-service/internal/account"
	"sso-service/internal/auth"
	"sso-service/internal/auth/provisioner"
	"sso-service/internal/auth/resolver"
	"sso-service/internal/logger"
	"sso-service/internal/metrics"
	"sso-service/internal/session"
)

// State is a step of the login state machine.
type State string

const (
	StateStart        State = "start"
	StateResolving    State = "resolving"
	StateFound        State = "found"
	StateProvisioning State = "provisioning"
	StateSyncing      State = "syncing"
	StateEstablished  State = "established"
	StateDenied       State = "denied"
)

// Code distinguishes why a login was denied.
type Code string

const (
	CodeInvalidIdentity     Code = "invalid_identity"
	CodeAccessDenied        Code = "access_denied"
	CodeDuplicateExternalID Code = "duplicate_external_id"
	CodePersistence         Code = "persistence_error"
	CodeSessionFailed       Code = "session_failed"
	CodeInternal            Code = "internal_error"
)

// DeniedError is returned for every login that ends in StateDenied. State is
// the step that failed.
type DeniedError struct {
	Code  Code
	State State
	Err   error
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("login denied (%s) while %s: %v", e.Code, e.State, e.Err)
}

func (e *DeniedError) Unwrap() error {
	return e.Err
}

// CodeOf returns the denial code carried by err, or "" if there is none.
func CodeOf(err error) Code {
	var de *DeniedError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Resolver finds the local account for an identity.
type Resolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (resolver.Match, error)
}

// Provisioner creates a local account for an identity.
type Provisioner interface {
	Provision(ctx context.Context, identity *auth.Identity) (string, error)
}

// Synchronizer writes soft fields and links the external id.
type Synchronizer interface {
	Sync(ctx context.Context, accountID string, identity *auth.Identity, link bool) error
}

// SessionEstablisher opens a session once the account is synced.
type SessionEstablisher interface {
	Establish(ctx context.Context, accountID string) (session.Session, error)
}

// Result describes an established login. SyncErr holds a non-fatal profile
// sync failure, if any.
type Result struct {
	State     State
	AccountID string
	Created   bool
	Privilege auth.Privilege
	Session   session.Session
	SyncErr   error
}

// Orchestrator runs logins. It holds no per-login state and is safe for
// concurrent use; concurrent first logins for the same identity are
// serialized by the store's unique external id.
type Orchestrator struct {
	resolver    Resolver
	provisioner Provisioner
	sync        Synchronizer
	sessions    SessionEstablisher
	metrics     *metrics.Metrics
}

func New(
	resolver Resolver,
	provisioner Provisioner,
	sync Synchronizer,
	sessions SessionEstablisher,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		resolver:    resolver,
		provisioner: provisioner,
		sync:        sync,
		sessions:    sessions,
		metrics:     m,
	}
}

// Login runs the state machine for one verified identity. It returns a
// *DeniedError unless a session was established.
func (o *Orchestrator) Login(ctx context.Context, identity *auth.Identity) (*Result, error) {
	res, err := o.login(ctx, identity)
	if err != nil {
		o.metrics.Login(string(CodeOf(err)))
		logger.Warn("sso login denied", map[string]any{
			"external_id": externalID(identity),
			"code":        CodeOf(err),
			"error":       err.Error(),
		})
		return nil, err
	}

	o.metrics.Login(string(StateEstablished))
	logger.Info("sso login established", map[string]any{
		"account_id":  res.AccountID,
		"external_id": identity.ExternalID,
		"created":     res.Created,
		"privilege":   res.Privilege,
	})
	return res, nil
}

func (o *Orchestrator) login(ctx context.Context, identity *auth.Identity) (*Result, error) {
	if identity == nil {
		return nil, deny(CodeInvalidIdentity, StateStart, errors.New("identity is nil"))
	}
	if err := identity.Validate(); err != nil {
		return nil, deny(CodeInvalidIdentity, StateStart, err)
	}

	res := &Result{
		State:     StateStart,
		Privilege: auth.Classify(identity),
	}

	res.enter(StateResolving)
	match, err := o.resolver.Resolve(ctx, identity)
	switch {
	case err == nil:
	case errors.Is(err, resolver.ErrNoAccount):
		res.enter(StateProvisioning)
		match, res.Created, err = o.provision(ctx, identity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, denyStore(StateResolving, err)
	}

	res.AccountID = match.AccountID
	res.enter(StateFound)

	res.enter(StateSyncing)
	if err := o.sync.Sync(ctx, match.AccountID, identity, match.ByEmail); err != nil {
		o.metrics.SyncFailure()
		logger.Warn("profile sync incomplete", map[string]any{
			"account_id": match.AccountID,
			"error":      err.Error(),
		})
		res.SyncErr = err
	}

	sess, err := o.sessions.Establish(ctx, match.AccountID)
	if err != nil {
		// Account creation and sync are idempotent and stay applied.
		return nil, deny(CodeSessionFailed, StateSyncing, err)
	}

	res.Session = sess
	res.enter(StateEstablished)
	return res, nil
}

func (r *Result) enter(s State) {
	logger.Debug("login state", map[string]any{
		"from":       r.State,
		"to":         s,
		"account_id": r.AccountID,
	})
	r.State = s
}

// provision creates the account and reports whether this login created it.
// Losing the insert race to a concurrent login for the same identity re-runs
// Resolve once, which then finds the winner's row.
func (o *Orchestrator) provision(ctx context.Context, identity *auth.Identity) (resolver.Match, bool, error) {
	id, err := o.provisioner.Provision(ctx, identity)
	if err == nil {
		o.metrics.Provisioned(string(auth.Classify(identity)))
		return resolver.Match{AccountID: id}, true, nil
	}

	if errors.Is(err, provisioner.ErrAccessDenied) {
		return resolver.Match{}, false, deny(CodeAccessDenied, StateProvisioning, err)
	}

	if !errors.Is(err, account.ErrDuplicateExternalID) {
		return resolver.Match{}, false, denyStore(StateProvisioning, err)
	}

	o.metrics.DuplicateRetry()
	logger.Info("external id provisioned concurrently, re-resolving", map[string]any{
		"external_id": identity.ExternalID,
	})

	match, rerr := o.resolver.Resolve(ctx, identity)
	if rerr != nil {
		return resolver.Match{}, false, deny(CodeDuplicateExternalID, StateProvisioning, errors.Join(err, rerr))
	}
	return match, false, nil
}

func deny(code Code, state State, err error) *DeniedError {
	return &DeniedError{Code: code, State: state, Err: err}
}

func denyStore(state State, err error) *DeniedError {
	if account.IsPersistence(err) {
		return deny(CodePersistence, state, err)
	}
	return deny(CodeInternal, state, err)
}

func externalID(identity *auth.Identity) string {
	if identity == nil {
		return ""
	}
	return identity.ExternalID
}

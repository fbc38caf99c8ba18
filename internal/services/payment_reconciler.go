package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/repositories"
	"storefront/internal/utils"
)

const (
	DefaultFreshnessWindow = 10 * time.Minute
	DefaultRequestTimeout  = 15 * time.Second
	DefaultRedirectDelay   = 2 * time.Second
	DefaultBookingViewPath = "/booking/"
)

// ReconcileState is the position of a payment attempt in its confirmation flow.
type ReconcileState int

const (
	StateIdle ReconcileState = iota
	StateRestoring
	StateChecking
	StateAwaitingManualRetry
	StateVerifying
	StateConfirmed
	StateFailed
	StateDiscarded
)

var stateNames = map[ReconcileState]string{
	StateIdle:                "idle",
	StateRestoring:           "restoring",
	StateChecking:            "checking",
	StateAwaitingManualRetry: "awaiting_manual_retry",
	StateVerifying:           "verifying",
	StateConfirmed:           "confirmed",
	StateFailed:              "failed",
	StateDiscarded:           "discarded",
}

func (s ReconcileState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s ReconcileState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further backend call will be made.
func (s ReconcileState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateDiscarded
}

// BookingReader fetches booking snapshots.
type BookingReader interface {
	GetBooking(ctx context.Context, bookingID string) (models.BookingSnapshot, error)
}

// BookingBackend is the part of the booking backend the reconciler needs.
type BookingBackend interface {
	BookingReader
	VerifyPayment(ctx context.Context, req models.VerifyRequest) error
}

// ReconcilerOptions tunes a PaymentReconciler. Zero values take defaults.
type ReconcilerOptions struct {
	Freshness       time.Duration
	RequestTimeout  time.Duration
	RedirectDelay   time.Duration
	BookingViewPath string
	Now             func() time.Time
}

func (o ReconcilerOptions) withDefaults() ReconcilerOptions {
	if o.Freshness <= 0 {
		o.Freshness = DefaultFreshnessWindow
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.RedirectDelay < 0 {
		o.RedirectDelay = 0
	} else if o.RedirectDelay == 0 {
		o.RedirectDelay = DefaultRedirectDelay
	}
	if strings.TrimSpace(o.BookingViewPath) == "" {
		o.BookingViewPath = DefaultBookingViewPath
	}
	if o.Now == nil {
		o.Now = utils.NowUTC
	}
	return o
}

// CheckResult is what the confirmation view renders after a status check.
type CheckResult struct {
	State         ReconcileState          `json:"state"`
	LastStatus    string                  `json:"lastStatus,omitempty"`
	Booking       *models.BookingSnapshot `json:"booking,omitempty"`
	RedirectTo    string                  `json:"redirectTo,omitempty"`
	RedirectAfter time.Duration           `json:"-"`
}

// VerificationResult is what the confirmation view renders after a manual
// verification retry.
type VerificationResult struct {
	State       ReconcileState `json:"state"`
	RedirectTo  string         `json:"redirectTo,omitempty"`
	SupportCode string         `json:"supportCode,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// PaymentReconciler confirms with the backend that a captured payment was
// recorded against its booking. It owns the persisted attempt under Key:
// nothing else writes or clears it.
//
// CheckStatus and RetryVerification never overlap; a call made while
// another is in flight returns domain.ErrBusy without touching the backend.
// When Locker is set the same holds across processes sharing Store.
type PaymentReconciler struct {
	Backend   BookingBackend
	Store     repositories.AttemptStore
	Locker    repositories.AttemptLocker
	Key       string
	RequestID string

	opts ReconcilerOptions
	busy atomic.Bool
	// callMu is held for as long as busy is set so Abandon can wait the
	// in-flight call out.
	callMu sync.Mutex

	mu         sync.Mutex
	state      ReconcileState
	attempt    *models.PaymentAttempt
	lastStatus string
	cancelCall context.CancelFunc

	pollMu sync.Mutex
	poller *StatusPoller
}

func NewPaymentReconciler(backend BookingBackend, store repositories.AttemptStore, key string, opts ReconcilerOptions) *PaymentReconciler {
	if strings.TrimSpace(key) == "" {
		key = repositories.PendingPaymentKey
	}
	return &PaymentReconciler{
		Backend: backend,
		Store:   store,
		Key:     key,
		opts:    opts.withDefaults(),
	}
}

func (r *PaymentReconciler) State() ReconcileState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Attempt returns a copy of the attempt being reconciled, if any.
func (r *PaymentReconciler) Attempt() *models.PaymentAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempt == nil {
		return nil
	}
	a := *r.attempt
	return &a
}

// LastStatus is the last non-completed payment status the backend reported.
func (r *PaymentReconciler) LastStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStatus
}

// Busy reports whether a backend call is in flight.
func (r *PaymentReconciler) Busy() bool {
	return r.busy.Load()
}

func (r *PaymentReconciler) acquire() bool {
	if !r.busy.CompareAndSwap(false, true) {
		return false
	}
	r.callMu.Lock()
	return true
}

func (r *PaymentReconciler) release() {
	r.busy.Store(false)
	r.callMu.Unlock()
}

// callContext bounds one backend call and moves to next. Abandon cancels
// the returned context; ok is false when the attempt was already abandoned.
func (r *PaymentReconciler) callContext(ctx context.Context, next ReconcileState) (context.Context, context.CancelFunc, bool) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateDiscarded {
		cancel()
		return callCtx, cancel, false
	}
	r.state = next
	r.cancelCall = cancel
	return callCtx, func() {
		r.mu.Lock()
		r.cancelCall = nil
		r.mu.Unlock()
		cancel()
	}, true
}

// lock takes the cross-process call lock when a Locker is configured.
func (r *PaymentReconciler) lock(ctx context.Context) (func(), error) {
	if r.Locker == nil {
		return func() {}, nil
	}
	unlock, err := r.Locker.Lock(ctx, r.Key, r.opts.RequestTimeout+5*time.Second)
	switch {
	case errors.Is(err, repositories.ErrLocked):
		return nil, domain.ErrBusy
	case err != nil:
		return nil, domain.InternalError{Msg: "failed to lock payment attempt", Err: err}
	}
	return unlock, nil
}

// Begin records a successful capture as the pending attempt.
func (r *PaymentReconciler) Begin(ctx context.Context, capture models.CaptureResult) (models.PaymentAttempt, error) {
	a := models.PaymentAttempt{
		OrderRef:        strings.TrimSpace(capture.OrderRef),
		PaymentRef:      strings.TrimSpace(capture.PaymentRef),
		Signature:       strings.TrimSpace(capture.Signature),
		BookingID:       strings.TrimSpace(capture.BookingID),
		CustomBookingID: strings.TrimSpace(capture.CustomBookingID),
	}
	switch {
	case a.OrderRef == "":
		return models.PaymentAttempt{}, domain.ValidationError{Field: "orderRef", Msg: "order reference is required"}
	case a.PaymentRef == "":
		return models.PaymentAttempt{}, domain.ValidationError{Field: "paymentRef", Msg: "payment reference is required"}
	case a.Signature == "":
		return models.PaymentAttempt{}, domain.ValidationError{Field: "signature", Msg: "signature is required"}
	case a.BookingID == "":
		return models.PaymentAttempt{}, domain.ValidationError{Field: "bookingId", Msg: "booking id is required"}
	}

	if !r.acquire() {
		return models.PaymentAttempt{}, domain.ErrBusy
	}
	defer r.release()

	a.Timestamp = r.opts.Now().UnixMilli()
	if err := r.Store.Save(ctx, r.Key, a); err != nil {
		return models.PaymentAttempt{}, domain.InternalError{Msg: "failed to persist payment attempt", Err: err}
	}

	r.mu.Lock()
	r.attempt = &a
	r.state = StateChecking
	r.lastStatus = ""
	r.mu.Unlock()

	utils.LogEvent(r.RequestID, "payment", "begin", "booking_id="+a.BookingID)
	return a, nil
}

// Restore reloads the persisted attempt. It returns nil when there is
// nothing to reconcile: the state is then StateIdle when no attempt was
// stored and StateDiscarded when a stale or unreadable one was dropped.
func (r *PaymentReconciler) Restore(ctx context.Context) (*models.PaymentAttempt, error) {
	if !r.acquire() {
		return nil, domain.ErrBusy
	}
	defer r.release()

	r.setState(StateRestoring)

	a, err := r.Store.Load(ctx, r.Key)
	switch {
	case errors.Is(err, repositories.ErrNoAttempt):
		r.reset(StateIdle)
		return nil, nil
	case domain.IsMalformed(err):
		utils.LogWarn(r.RequestID, "payment", "restore", "dropping unreadable attempt: "+err.Error())
		r.discard(ctx, nil)
		return nil, nil
	case err != nil:
		r.reset(StateIdle)
		return nil, domain.InternalError{Msg: "failed to load payment attempt", Err: err}
	}

	if age := a.Age(r.opts.Now()); age > r.opts.Freshness {
		utils.LogEvent(r.RequestID, "payment", "restore", fmt.Sprintf("dropping stale attempt booking_id=%s age=%s", a.BookingID, age.Round(time.Second)))
		r.discard(ctx, &a)
		return nil, nil
	}

	r.mu.Lock()
	r.attempt = &a
	r.state = StateChecking
	r.mu.Unlock()

	out := a
	return &out, nil
}

// CheckStatus asks the backend whether the attempt's booking is paid.
//
// A transport failure leaves the attempt in place and returns a
// domain.TransportError. Completed clears the attempt and confirms; any
// other status moves to StateAwaitingManualRetry.
func (r *PaymentReconciler) CheckStatus(ctx context.Context) (CheckResult, error) {
	if !r.acquire() {
		return CheckResult{State: r.State(), LastStatus: r.LastStatus()}, domain.ErrBusy
	}
	defer r.release()

	r.mu.Lock()
	state, attempt := r.state, r.attempt
	r.mu.Unlock()

	if attempt == nil {
		return CheckResult{State: state}, domain.NotFoundError{Resource: "payment attempt"}
	}
	if state.Terminal() {
		return r.checkResult(nil), nil
	}
	if err := r.ensureFresh(ctx, *attempt); err != nil {
		return CheckResult{State: StateDiscarded}, err
	}

	// A failed check falls back to where we were.
	fallback := StateChecking
	if state == StateAwaitingManualRetry {
		fallback = StateAwaitingManualRetry
	}

	unlock, err := r.lock(ctx)
	if err != nil {
		return r.checkResult(nil), err
	}
	defer unlock()

	callCtx, cancel, ok := r.callContext(ctx, fallback)
	defer cancel()
	if !ok {
		return r.checkResult(nil), nil
	}

	snap, err := r.Backend.GetBooking(callCtx, attempt.BookingID)
	if err != nil {
		r.setStateUnlessDiscarded(fallback)
		utils.LogWarn(r.RequestID, "payment", "check_status", "booking_id="+attempt.BookingID+" "+err.Error())
		return r.checkResult(nil), asTransport("check status", err)
	}

	if snap.IsCompleted() {
		r.clearOwned(ctx, *attempt)
		r.mu.Lock()
		if r.state != StateDiscarded {
			r.state = StateConfirmed
		}
		r.lastStatus = snap.PaymentStatus
		r.mu.Unlock()
		utils.LogEvent(r.RequestID, "payment", "check_status", "confirmed booking_id="+attempt.BookingID)
		return r.checkResult(&snap), nil
	}

	r.mu.Lock()
	if r.state != StateDiscarded {
		r.state = StateAwaitingManualRetry
	}
	r.lastStatus = snap.PaymentStatus
	r.mu.Unlock()
	utils.LogEvent(r.RequestID, "payment", "check_status", "pending booking_id="+attempt.BookingID+" status="+snap.PaymentStatus)
	return r.checkResult(&snap), nil
}

// RetryVerification submits the attempt's proof to the verification
// endpoint. Explicit rejection is terminal and returns a
// domain.RejectionError alongside a result carrying the support code. A
// transport failure keeps the attempt so the call can be repeated.
func (r *PaymentReconciler) RetryVerification(ctx context.Context) (VerificationResult, error) {
	if !r.acquire() {
		return VerificationResult{State: r.State()}, domain.ErrBusy
	}
	defer r.release()

	r.mu.Lock()
	state, attempt := r.state, r.attempt
	r.mu.Unlock()

	if attempt == nil {
		return VerificationResult{State: state}, domain.NotFoundError{Resource: "payment attempt"}
	}
	switch state {
	case StateConfirmed:
		return VerificationResult{State: state, RedirectTo: r.bookingView(*attempt)}, nil
	case StateFailed:
		return VerificationResult{State: state, SupportCode: supportCode(*attempt)}, nil
	case StateDiscarded:
		return VerificationResult{State: state}, nil
	}
	if err := r.ensureFresh(ctx, *attempt); err != nil {
		return VerificationResult{State: StateDiscarded}, err
	}

	unlock, err := r.lock(ctx)
	if err != nil {
		return VerificationResult{State: r.State()}, err
	}
	defer unlock()
	if r.Locker != nil {
		// another instance may have resolved or replaced the attempt
		if err := r.stillOwned(ctx, *attempt); err != nil {
			return VerificationResult{State: r.State()}, err
		}
	}

	callCtx, cancel, ok := r.callContext(ctx, StateVerifying)
	defer cancel()
	if !ok {
		return VerificationResult{State: StateDiscarded}, nil
	}

	err = r.Backend.VerifyPayment(callCtx, models.VerifyRequest{
		OrderRef:   attempt.OrderRef,
		PaymentRef: attempt.PaymentRef,
		Signature:  attempt.Signature,
		BookingID:  attempt.BookingID,
	})

	var rejection domain.RejectionError
	switch {
	case err == nil:
		r.clearOwned(ctx, *attempt)
		r.setStateUnlessDiscarded(StateConfirmed)
		utils.LogEvent(r.RequestID, "payment", "verify", "verified booking_id="+attempt.BookingID)
		return VerificationResult{State: r.State(), RedirectTo: r.bookingView(*attempt)}, nil

	case errors.As(err, &rejection):
		r.clearOwned(ctx, *attempt)
		r.setStateUnlessDiscarded(StateFailed)
		utils.LogWarn(r.RequestID, "payment", "verify", "rejected booking_id="+attempt.BookingID+" "+rejection.Msg)
		return VerificationResult{
			State:       r.State(),
			SupportCode: supportCode(*attempt),
			Message:     rejection.Msg,
		}, rejection

	default:
		r.setStateUnlessDiscarded(StateAwaitingManualRetry)
		utils.LogWarn(r.RequestID, "payment", "verify", "booking_id="+attempt.BookingID+" "+err.Error())
		return VerificationResult{State: r.State()}, asTransport("verify payment", err)
	}
}

// Abandon stops polling and drops the attempt; the user left the flow.
// An in-flight backend call is cancelled and waited for, so nothing this
// reconciler does outlives Abandon. Only the record holding this
// reconciler's own attempt is removed.
func (r *PaymentReconciler) Abandon(ctx context.Context) error {
	r.StopPolling()

	r.mu.Lock()
	if !r.state.Terminal() {
		r.state = StateDiscarded
	}
	cancel := r.cancelCall
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	r.callMu.Lock()
	defer r.callMu.Unlock()

	r.mu.Lock()
	if !r.state.Terminal() {
		r.state = StateDiscarded
	}
	a := r.attempt
	r.attempt = nil
	r.mu.Unlock()

	if a == nil {
		if err := r.Store.Clear(ctx, r.Key); err != nil {
			return domain.InternalError{Msg: "failed to clear payment attempt", Err: err}
		}
		return nil
	}
	if _, err := r.Store.ClearIf(ctx, r.Key, a.PaymentRef); err != nil {
		return domain.InternalError{Msg: "failed to clear payment attempt", Err: err}
	}
	return nil
}

// StartPolling re-checks the booking status in the background until the
// attempt resolves, retries run out, StopPolling is called or ctx ends.
// It returns false when a poller is already running.
func (r *PaymentReconciler) StartPolling(ctx context.Context, retry *RetryManager) bool {
	r.pollMu.Lock()
	defer r.pollMu.Unlock()
	if r.poller != nil && r.poller.Running() {
		return false
	}
	r.poller = &StatusPoller{Reconciler: r, Retry: retry}
	return r.poller.Start(ctx)
}

// StopPolling stops the background poller and waits for it to exit.
func (r *PaymentReconciler) StopPolling() {
	r.pollMu.Lock()
	p := r.poller
	r.poller = nil
	r.pollMu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// Polling reports whether a background poller is running.
func (r *PaymentReconciler) Polling() bool {
	r.pollMu.Lock()
	defer r.pollMu.Unlock()
	return r.poller != nil && r.poller.Running()
}

func (r *PaymentReconciler) ensureFresh(ctx context.Context, a models.PaymentAttempt) error {
	age := a.Age(r.opts.Now())
	if age <= r.opts.Freshness {
		return nil
	}
	r.discard(ctx, &a)
	return domain.StaleAttemptError{Age: age}
}

func (r *PaymentReconciler) checkResult(snap *models.BookingSnapshot) CheckResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := CheckResult{State: r.state, LastStatus: r.lastStatus, Booking: snap}
	if r.state == StateConfirmed && r.attempt != nil {
		res.RedirectTo = r.bookingView(*r.attempt)
		res.RedirectAfter = r.opts.RedirectDelay
	}
	return res
}

func (r *PaymentReconciler) bookingView(a models.PaymentAttempt) string {
	return r.opts.BookingViewPath + url.PathEscape(a.BookingID)
}

func (r *PaymentReconciler) setState(s ReconcileState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// setStateUnlessDiscarded keeps an Abandon that raced an in-flight call.
func (r *PaymentReconciler) setStateUnlessDiscarded(s ReconcileState) {
	r.mu.Lock()
	if r.state != StateDiscarded {
		r.state = s
	}
	r.mu.Unlock()
}

func (r *PaymentReconciler) reset(s ReconcileState) {
	r.mu.Lock()
	r.state = s
	r.attempt = nil
	r.lastStatus = ""
	r.mu.Unlock()
}

// discard drops a, or whatever is stored when a is nil (an unreadable
// record belongs to nobody).
func (r *PaymentReconciler) discard(ctx context.Context, a *models.PaymentAttempt) {
	if a == nil {
		if err := r.Store.Clear(ctx, r.Key); err != nil {
			utils.LogWarn(r.RequestID, "payment", "clear", err.Error())
		}
	} else {
		r.clearOwned(ctx, *a)
	}
	r.reset(StateDiscarded)
}

// clearOwned removes the persisted record while it still holds a. A
// failure is logged only: the record carries a TTL and the in-memory state
// already reflects the outcome.
func (r *PaymentReconciler) clearOwned(ctx context.Context, a models.PaymentAttempt) {
	cleared, err := r.Store.ClearIf(ctx, r.Key, a.PaymentRef)
	switch {
	case err != nil:
		utils.LogWarn(r.RequestID, "payment", "clear", err.Error())
	case !cleared:
		utils.LogEvent(r.RequestID, "payment", "clear", "record no longer holds payment_ref="+a.PaymentRef+", left in place")
	}
}

// stillOwned reloads the record and gives up on a when it is gone or holds
// a different payment.
func (r *PaymentReconciler) stillOwned(ctx context.Context, a models.PaymentAttempt) error {
	stored, err := r.Store.Load(ctx, r.Key)
	switch {
	case err == nil && stored.PaymentRef == a.PaymentRef:
		return nil
	case err == nil, errors.Is(err, repositories.ErrNoAttempt), domain.IsMalformed(err):
		r.reset(StateDiscarded)
		return domain.ConflictError{Resource: "payment attempt", Msg: "attempt was resolved or replaced elsewhere"}
	default:
		return domain.InternalError{Msg: "failed to load payment attempt", Err: err}
	}
}

func supportCode(a models.PaymentAttempt) string {
	if a.CustomBookingID != "" {
		return a.CustomBookingID
	}
	return a.BookingID
}

// asTransport keeps every non-rejection backend failure recoverable.
func asTransport(op string, err error) error {
	if domain.IsTransport(err) {
		return err
	}
	return domain.TransportError{Op: op, Err: err}
}

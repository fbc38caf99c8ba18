package handlers

import (
	"net/http"

	"storefront/internal/domain/models"
	"storefront/internal/http/middleware"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

const homePath = "/"

// reconciler holds the session's reconciler for the request; callers
// defer done.
func reconciler(c *gin.Context) (*services.PaymentReconciler, func()) {
	return deps().Registry.Acquire(middleware.GetSessionID(c))
}

// ensureRestored reloads the persisted attempt after a process restart or
// registry sweep. It returns false after writing a response.
func ensureRestored(c *gin.Context, r *services.PaymentReconciler) bool {
	if r.State() != services.StateIdle {
		return true
	}
	a, err := r.Restore(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, stateView(r))
		return false
	}
	if a == nil {
		respondNoAttempt(c, r)
		return false
	}
	return true
}

func respondNoAttempt(c *gin.Context, r *services.PaymentReconciler) {
	reason := "none"
	if r.State() == services.StateDiscarded {
		reason = "expired"
	}
	c.JSON(http.StatusOK, gin.H{
		"attempt":    nil,
		"state":      r.State(),
		"reason":     reason,
		"redirectTo": homePath,
	})
}

func stateView(r *services.PaymentReconciler) gin.H {
	return gin.H{
		"state":      r.State(),
		"lastStatus": r.LastStatus(),
		"busy":       r.Busy(),
		"polling":    r.Polling(),
		"attempt":    r.Attempt(),
	}
}

// BeginPaymentAttempt records the checkout widget's successful capture.
func BeginPaymentAttempt(c *gin.Context) {
	var capture models.CaptureResult
	if !bindJSON(c, &capture) {
		return
	}

	r, done := reconciler(c)
	defer done()
	r.StopPolling()
	a, err := r.Begin(c.Request.Context(), capture)
	if err != nil {
		respondDomainError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attempt": a, "state": r.State()})
}

// RestorePaymentAttempt is called when the confirmation view loads.
func RestorePaymentAttempt(c *gin.Context) {
	r, done := reconciler(c)
	defer done()
	if r.Busy() {
		c.JSON(http.StatusOK, stateView(r))
		return
	}
	a, err := r.Restore(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, nil)
		return
	}
	if a == nil {
		respondNoAttempt(c, r)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": a, "state": r.State()})
}

func CheckPaymentStatus(c *gin.Context) {
	r, done := reconciler(c)
	defer done()
	if !ensureRestored(c, r) {
		return
	}

	res, err := r.CheckStatus(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, res)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":           res.State,
		"lastStatus":      res.LastStatus,
		"booking":         res.Booking,
		"redirectTo":      res.RedirectTo,
		"redirectAfterMs": res.RedirectAfter.Milliseconds(),
	})
}

func RetryPaymentVerification(c *gin.Context) {
	r, done := reconciler(c)
	defer done()
	if !ensureRestored(c, r) {
		return
	}

	res, err := r.RetryVerification(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StartPaymentPolling re-checks the status in the background; the client
// reads progress from GET /payments/attempt/state.
func StartPaymentPolling(c *gin.Context) {
	r, done := reconciler(c)
	defer done()
	if !ensureRestored(c, r) {
		return
	}
	if r.State().Terminal() {
		c.JSON(http.StatusOK, stateView(r))
		return
	}

	d := deps()
	started := r.StartPolling(d.baseCtx(), d.Retry)
	c.JSON(http.StatusAccepted, gin.H{"polling": true, "started": started, "state": r.State()})
}

func StopPaymentPolling(c *gin.Context) {
	r, ok := deps().Registry.Lookup(middleware.GetSessionID(c))
	if ok {
		r.StopPolling()
	}
	c.JSON(http.StatusOK, gin.H{"polling": false})
}

func GetPaymentState(c *gin.Context) {
	r, ok := deps().Registry.Lookup(middleware.GetSessionID(c))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"state": services.StateIdle, "polling": false, "busy": false})
		return
	}
	c.JSON(http.StatusOK, stateView(r))
}

// AbandonPaymentAttempt runs when the user navigates away from the flow.
func AbandonPaymentAttempt(c *gin.Context) {
	sid := middleware.GetSessionID(c)
	g := deps().Registry
	r, done := g.Acquire(sid)
	err := r.Abandon(c.Request.Context())
	state := r.State()
	done()
	if err != nil {
		respondDomainError(c, err, nil)
		return
	}
	g.Release(sid)
	c.JSON(http.StatusOK, gin.H{"state": state, "redirectTo": homePath})
}

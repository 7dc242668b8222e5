package orchestrator

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"socialpay/internal/checkout"
	"socialpay/internal/clock"
	"socialpay/internal/models"
	"socialpay/internal/otp"
	"socialpay/internal/payment"
)

// Config holds the timing and routing policy of a session.
type Config struct {
	PollInterval        time.Duration
	CountdownSeconds    int
	FullRedirectMediums []string
	InHouseMedium       string
}

// DefaultConfig polls every 3 seconds, counts down from 60 and sends the
// bank switch through a full-page redirect.
func DefaultConfig() Config {
	return Config{
		PollInterval:        3 * time.Second,
		CountdownSeconds:    60,
		FullRedirectMediums: []string{models.MediumEthswitch},
		InHouseMedium:       models.MediumSocialPay,
	}
}

// Navigator performs full-page navigation on behalf of the session.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

func (f NavigatorFunc) Navigate(url string) { f(url) }

// Recorder keeps a history of attempts.
type Recorder interface {
	Record(ctx context.Context, attempt *models.CheckoutAttempt) error
}

// Notifier tells the merchant about a successful payment.
type Notifier interface {
	NotifySuccess(ctx context.Context, attempt *models.CheckoutAttempt) error
}

// Deps bundles what a session talks to.
type Deps struct {
	Backend   payment.Backend
	Flow      checkout.FlowAdapter
	Clock     clock.Clock
	Logger    *zap.Logger
	Navigator Navigator
	Recorder  Recorder
	Notifier  Notifier
	Mediums   []models.PaymentMedium
}

// Session drives one submission attempt from Idle to Closed. Every exported
// method is safe for concurrent use; timer callbacks and caller actions are
// serialized on mu.
type Session struct {
	id        string
	cfg       Config
	backend   payment.Backend
	flow      checkout.FlowAdapter
	clock     clock.Clock
	logger    *zap.Logger
	navigator Navigator
	recorder  Recorder
	notifier  Notifier
	mediums   []models.PaymentMedium

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	state          State
	medium         string
	amount         string
	tipAmount      string
	transactionID  string
	external       ExternalCheckout
	popupVisible   bool
	transaction    *models.Transaction
	errorKind      ErrorKind
	errorMessage   string
	err            error
	validation     *checkout.ValidationError
	countdown      int
	countdownFrom  int
	redirectURL    string
	checks         int
	checking       bool
	lastCheckedAt  time.Time
	pollTimer      clock.Timer
	countdownTimer clock.Timer
	otp            *otp.Flow
	recorded       bool
	createdAt      time.Time
	updatedAt      time.Time
	lastSeen       time.Time
	subscribers    map[int]chan Snapshot
	nextSub        int
}

// NewSession creates an idle session.
func NewSession(id string, deps Deps, cfg Config) *Session {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := deps.Clock.Now()
	return &Session{
		id:          id,
		cfg:         cfg,
		backend:     deps.Backend,
		flow:        deps.Flow,
		clock:       deps.Clock,
		logger:      deps.Logger.With(zap.String("session_id", id), zap.String("variant", string(deps.Flow.Variant()))),
		navigator:   deps.Navigator,
		recorder:    deps.Recorder,
		notifier:    deps.Notifier,
		mediums:     deps.Mediums,
		ctx:         ctx,
		cancel:      cancel,
		state:       StateIdle,
		external:    ExternalCheckout{Mode: ExternalNone},
		createdAt:   now,
		updatedAt:   now,
		lastSeen:    now,
		subscribers: make(map[int]chan Snapshot),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// NewIntent returns an empty intent for this session's target.
func (s *Session) NewIntent() *checkout.Intent {
	return s.flow.NewIntent()
}

// Submit validates the intent and initiates the payment. Validation errors
// leave the session Idle and are returned; every other outcome, including
// backend failures, is reported through the session state.
func (s *Session) Submit(ctx context.Context, in *checkout.Intent) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle:
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	default:
		s.mu.Unlock()
		return ErrAlreadySubmitted
	}

	payload, err := s.flow.BuildRequest(in)
	if err == nil && !s.offersLocked(in.Medium()) {
		err = &checkout.ValidationError{Kind: checkout.MissingMedium, Field: "medium"}
	}
	if err != nil {
		if ve, ok := checkout.AsValidation(err); ok {
			s.validation = ve
		}
		s.touchLocked()
		s.publishLocked()
		s.mu.Unlock()
		return err
	}

	s.validation = nil
	s.medium = in.Medium()
	s.amount = payloadString(payload, "amount")
	s.tipAmount = payloadString(payload, "tip_amount")
	s.state = StateSubmitting
	s.touchLocked()
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Info("Submitting payment", zap.String("medium", in.Medium()))

	// The submission is not cancelled with the caller; only its effect is
	// dropped if the session has closed in the meantime.
	res, err := s.flow.Submit(context.WithoutCancel(ctx), payload)

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		s.logger.Info("Dropping submission result for closed session")
		return nil
	}

	switch {
	case err != nil:
		s.logger.Error("Payment submission failed", zap.Error(err))
		s.failLocked(ErrorTransport, transportMessage, err)
		return s.finishLocked()

	case !res.Success:
		msg := strings.TrimSpace(res.Message)
		if msg == "" {
			msg = declaredMessage
		}
		s.logger.Info("Payment declined", zap.String("message", msg))
		s.failLocked(ErrorDeclared, msg, &DeclaredFailure{Message: msg})
		return s.finishLocked()

	case res.PaymentURL != "" && s.fullRedirectLocked():
		s.transactionID = res.TransactionID
		target := cacheBust(res.PaymentURL, s.clock.Now())
		s.external = ExternalCheckout{Mode: ExternalFullRedirect, URL: target}
		s.redirectURL = target
		s.closeLocked()
		attempt := s.attemptLocked()
		s.publishLocked()
		s.closeSubscribersLocked()
		s.mu.Unlock()

		s.logger.Info("Handing off to external checkout", zap.String("url", target))
		s.navigate(target)
		s.report(attempt, false)
		return nil

	case res.TransactionID == "":
		s.logger.Error("Payment accepted without a transaction id")
		s.failLocked(ErrorTransport, transportMessage, &payment.TransportError{Op: "initiate payment", Err: errMissingTransaction})
		return s.finishLocked()
	}

	s.transactionID = res.TransactionID

	if s.medium == s.cfg.InHouseMedium {
		token := res.OTPToken
		if token == "" {
			token = res.TransactionID
		}
		s.otp = otp.New(
			func(ctx context.Context, code string) error { return s.verifyCode(ctx, token, code) },
			otp.OnVerified(s.onVerified),
			otp.OnChange(func(otp.Snapshot) { s.refresh() }),
		)
		s.state = StateAwaitingVerification
		s.touchLocked()
		s.publishLocked()
		s.mu.Unlock()
		return nil
	}

	if res.PaymentURL != "" {
		s.external = ExternalCheckout{Mode: ExternalEmbedded, URL: res.PaymentURL}
		s.popupVisible = true
		s.state = StateAwaitingExternalCheckout
	} else {
		s.state = StatePolling
	}
	s.startPollingLocked()
	s.mu.Unlock()

	s.checkStatus()
	return nil
}

// HideExternalCheckout tears down the embedded surface. Polling goes on.
func (s *Session) HideExternalCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAwaitingExternalCheckout {
		s.state = StatePolling
	}
	s.popupVisible = false
	s.touchLocked()
	s.publishLocked()
}

// Dismiss is the single close action, used by the payer and by the
// countdown. From a terminal state with redirects configured it navigates
// to the success or failure URL. It acts at most once.
func (s *Session) Dismiss() Snapshot {
	s.mu.Lock()
	if s.state == StateClosed {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	redirect := ""
	if r := s.flow.Redirects(); r.Configured() && s.state.Terminal() {
		redirect = r.FailureURL
		if s.state == StateSuccess {
			redirect = r.SuccessURL
		}
	}
	if redirect != "" {
		s.redirectURL = redirect
	}

	var attempt *models.CheckoutAttempt
	if !s.recorded && s.transactionID != "" {
		attempt = s.attemptLocked()
	}
	s.closeLocked()
	s.publishLocked()
	snap := s.snapshotLocked()
	s.closeSubscribersLocked()
	s.mu.Unlock()

	s.logger.Debug("Session dismissed", zap.String("redirect", redirect))
	if redirect != "" {
		s.navigate(redirect)
	}
	if attempt != nil {
		s.report(attempt, false)
	}
	return snap
}

// Close discards the session without any navigation, as when the payer
// navigates away.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.closeLocked()
	s.publishLocked()
	s.closeSubscribersLocked()
}

// EnterDigit forwards a digit to the verification sub-flow.
func (s *Session) EnterDigit(ctx context.Context, index int, value string) error {
	flow, err := s.otpFlow()
	if err != nil {
		return err
	}
	return flow.SetDigit(ctx, index, value)
}

// PasteCode forwards a pasted code to the verification sub-flow.
func (s *Session) PasteCode(ctx context.Context, code string) error {
	flow, err := s.otpFlow()
	if err != nil {
		return err
	}
	return flow.Paste(ctx, code)
}

// ResendCode clears the verification slots.
func (s *Session) ResendCode(ctx context.Context) error {
	flow, err := s.otpFlow()
	if err != nil {
		return err
	}
	return flow.Resend(ctx)
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Err returns the cause of a Failed outcome: a *payment.TransportError or a
// *DeclaredFailure. It is nil otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Subscribe returns a channel receiving a snapshot on every change. Slow
// readers miss intermediate snapshots. The channel is closed when the
// session closes or cancel is called.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 16)
	if s.state == StateClosed {
		ch <- s.snapshotLocked()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	ch <- s.snapshotLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

// Watchers counts live subscriptions.
func (s *Session) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Touch marks the session as seen by its payer.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.clock.Now()
}

// LastSeen returns when the payer last interacted with the session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) checkStatus() {
	s.mu.Lock()
	if !s.state.polling() || s.checking {
		s.mu.Unlock()
		return
	}
	s.checking = true
	id := s.transactionID
	s.mu.Unlock()

	tx, err := s.backend.GetTransactionStatus(s.ctx, id)

	s.mu.Lock()
	s.checking = false
	s.checks++
	if !s.state.polling() {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("Status check failed, will retry", zap.String("transaction_id", id), zap.Error(err))
		return
	}

	s.lastCheckedAt = s.clock.Now()
	s.transaction = tx
	if !tx.Status.Terminal() {
		s.publishLocked()
		s.mu.Unlock()
		return
	}

	// Cancelled in the same critical section that saw the terminal status,
	// so no later tick can overwrite it.
	s.stopPollingLocked()
	s.popupVisible = false
	success := tx.Status == models.TransactionSuccess
	if success {
		s.state = StateSuccess
	} else {
		s.failLocked(ErrorPayment, failedMessage, nil)
	}
	s.startCountdownLocked()
	s.touchLocked()
	attempt := s.attemptLocked()
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Info("Payment reached terminal status",
		zap.String("transaction_id", id),
		zap.String("status", string(tx.Status)),
	)
	s.report(attempt, success)
}

func (s *Session) countdownTick() {
	s.mu.Lock()
	if !s.state.Terminal() || s.countdown <= 0 {
		s.mu.Unlock()
		return
	}
	s.countdown--
	if s.countdown > 0 {
		s.publishLocked()
		s.mu.Unlock()
		return
	}
	s.stopCountdownLocked()
	s.mu.Unlock()

	s.Dismiss()
}

func (s *Session) verifyCode(ctx context.Context, token, code string) error {
	res, err := s.backend.VerifySecondaryCode(ctx, token, code)
	if err != nil {
		s.logger.Warn("Code verification failed", zap.Error(err))
		return err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "The code is not valid."
		}
		return &otp.VerificationError{Message: msg}
	}
	return nil
}

func (s *Session) onVerified(context.Context) {
	s.mu.Lock()
	if s.state != StateAwaitingVerification {
		s.mu.Unlock()
		return
	}
	s.state = StatePolling
	s.startPollingLocked()
	s.mu.Unlock()

	s.checkStatus()
}

func (s *Session) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.publishLocked()
}

func (s *Session) otpFlow() (*otp.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	if s.otp == nil || s.state != StateAwaitingVerification {
		return nil, ErrNoVerification
	}
	return s.otp, nil
}

func (s *Session) startPollingLocked() {
	s.touchLocked()
	s.publishLocked()
	s.pollTimer = s.clock.Every(s.cfg.PollInterval, s.checkStatus)
}

func (s *Session) stopPollingLocked() {
	if s.pollTimer != nil {
		s.pollTimer.Stop()
		s.pollTimer = nil
	}
}

func (s *Session) startCountdownLocked() {
	if !s.flow.Redirects().Configured() || s.cfg.CountdownSeconds <= 0 {
		return
	}
	s.countdown = s.cfg.CountdownSeconds
	s.countdownFrom = s.cfg.CountdownSeconds
	s.countdownTimer = s.clock.Every(time.Second, s.countdownTick)
}

func (s *Session) stopCountdownLocked() {
	if s.countdownTimer != nil {
		s.countdownTimer.Stop()
		s.countdownTimer = nil
	}
}

func (s *Session) failLocked(kind ErrorKind, msg string, err error) {
	s.state = StateFailed
	s.errorKind = kind
	s.errorMessage = msg
	s.err = err
}

// finishLocked publishes a Failed outcome reached during submission and
// releases mu.
func (s *Session) finishLocked() error {
	s.touchLocked()
	var attempt *models.CheckoutAttempt
	if s.transactionID != "" || s.errorKind == ErrorDeclared {
		attempt = s.attemptLocked()
	}
	s.startCountdownLocked()
	s.publishLocked()
	s.mu.Unlock()

	if attempt != nil {
		s.report(attempt, false)
	}
	return nil
}

func (s *Session) closeLocked() {
	s.stopPollingLocked()
	s.stopCountdownLocked()
	s.cancel()
	s.popupVisible = false
	s.state = StateClosed
	s.touchLocked()
}

func (s *Session) fullRedirectLocked() bool {
	for _, m := range s.cfg.FullRedirectMediums {
		if strings.EqualFold(m, s.medium) {
			return true
		}
	}
	return false
}

func (s *Session) offersLocked(medium string) bool {
	if len(s.mediums) == 0 {
		return true
	}
	for _, m := range s.mediums {
		if m.Key == medium {
			return true
		}
	}
	return false
}

func (s *Session) touchLocked() {
	s.updatedAt = s.clock.Now()
}

func (s *Session) attemptLocked() *models.CheckoutAttempt {
	s.recorded = true
	status := string(models.TransactionPending)
	reference := ""
	if s.transaction != nil {
		status = string(s.transaction.Status)
		reference = s.transaction.Reference
	}
	if s.errorKind == ErrorTransport || s.errorKind == ErrorDeclared {
		status = string(models.TransactionFailed)
	}
	return &models.CheckoutAttempt{
		SessionID:     s.id,
		Variant:       string(s.flow.Variant()),
		TargetID:      s.flow.NewIntent().Target().ID,
		TransactionID: s.transactionID,
		Medium:        s.medium,
		Amount:        s.amount,
		TipAmount:     s.tipAmount,
		Status:        status,
		Reference:     reference,
		ExitMode:      string(s.external.Mode),
		Message:       s.errorMessage,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
}

func (s *Session) report(attempt *models.CheckoutAttempt, success bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, attempt); err != nil {
			s.logger.Error("Failed to record checkout attempt", zap.Error(err))
		}
	}
	if success && s.notifier != nil {
		if err := s.notifier.NotifySuccess(ctx, attempt); err != nil {
			s.logger.Warn("Failed to notify merchant", zap.Error(err))
		}
	}
}

func (s *Session) navigate(target string) {
	if s.navigator != nil {
		s.navigator.Navigate(target)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:     s.id,
		Variant:       s.flow.Variant(),
		State:         s.state,
		Medium:        s.medium,
		TransactionID: s.transactionID,
		External:      s.external,
		PopupVisible:  s.popupVisible,
		ErrorKind:     s.errorKind,
		ErrorMessage:  s.errorMessage,
		Validation:    s.validation,
		Countdown:     s.countdown,
		CountdownFrom: s.countdownFrom,
		RedirectURL:   s.redirectURL,
		Redirects:     s.flow.Redirects(),
		Checks:        s.checks,
		LastCheckedAt: s.lastCheckedAt,
		Mediums:       s.mediums,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
	if s.transaction != nil {
		tx := *s.transaction
		snap.Transaction = &tx
	}
	if s.otp != nil {
		o := s.otp.Snapshot()
		snap.OTP = &o
	}
	return snap
}

func (s *Session) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Session) closeSubscribersLocked() {
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func payloadString(p payment.Payload, key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case interface{ String() string }:
		return t.String()
	}
	return ""
}

// cacheBust appends a timestamp parameter so the hosted page is never
// served from cache.
func cacheBust(raw string, now time.Time) string {
	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	u, err := url.Parse(raw)
	if err != nil {
		sep := "?"
		if strings.Contains(raw, "?") {
			sep = "&"
		}
		return raw + sep + "_t=" + stamp
	}
	q := u.Query()
	q.Set("_t", stamp)
	u.RawQuery = q.Encode()
	return u.String()
}

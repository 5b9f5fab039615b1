// Package checkout drives the purchase flow: quote a selection at the live
// exchange rate, submit the wallet transfer, wait for confirmation, and hand
// the receipt to settlement.
//
// The flow is a single sequential path:
//
//	idle → rate_loading → rate_ready → (quantity_input)* →
//	submitting → confirming → relaying → success | error
//
// error is terminal for the attempt; Confirm may be re-invoked from
// rate_ready.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecotoken/storefront/logger"
	"github.com/ecotoken/storefront/metrics"
	"github.com/ecotoken/storefront/pricing"
	"github.com/ecotoken/storefront/types"
	"github.com/ecotoken/storefront/wallet"
)

// RateSource supplies the exchange rate sample a session prices against.
type RateSource interface {
	Price(ctx context.Context) (decimal.Decimal, error)
}

// ReceiptSubmitter forwards a confirmed receipt to the settlement relay.
type ReceiptSubmitter interface {
	Submit(ctx context.Context, receipt *types.Receipt) (*types.RelayResponse, error)
}

// Result is the typed outcome of a Confirm attempt. Partial failure is
// representable: a relay failure after on-chain confirmation carries both the
// transaction hash and the error.
type Result struct {
	State   types.State
	TxHash  string
	Quote   *pricing.Quote
	Receipt *types.Receipt
	Relay   *types.RelayResponse

	// Confirmed reports whether the transfer reached the ledger, regardless
	// of what happened afterwards. When Confirmed is true and Err is not
	// nil, funds have moved but settlement was not notified; resolving that
	// gap is out-of-band.
	Confirmed bool
	Err       error
}

// Session is the transient checkout state for one selected project. It lives
// from view mount to navigation and is not persisted. Access is not
// synchronized and duplicate Confirm invocations are not guarded against;
// each browser session drives exactly one flow at a time.
type Session struct {
	project  *types.Project
	wallet   wallet.Wallet
	receipts ReceiptSubmitter

	log logger.Logger
	rec metrics.Recorder

	state    types.State
	quantity decimal.Decimal
	rate     decimal.Decimal
	rateOK   bool
	quote    *pricing.Quote
}

// NewSession starts a session in the idle state with quantity 1.
func NewSession(project *types.Project, w wallet.Wallet, receipts ReceiptSubmitter, opts ...Option) *Session {
	s := &Session{
		project:  project,
		wallet:   w,
		receipts: receipts,
		log:      logger.NoopLogger{},
		rec:      metrics.NoopRecorder{},
		state:    types.StateIdle,
		quantity: decimal.NewFromInt(1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Option configures a session.
type Option func(*Session)

func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Session) { s.rec = r }
}

// State returns the current flow state.
func (s *Session) State() types.State { return s.state }

// Project returns the selected project.
func (s *Session) Project() *types.Project { return s.project }

// LoadRate fetches the exchange rate once and derives the initial quote. On
// failure the rate stays absent, the quote stays nil, and purchase
// affordances remain disabled; there is no retry or staleness refresh.
func (s *Session) LoadRate(ctx context.Context, src RateSource) error {
	s.state = types.StateRateLoading

	rate, err := src.Price(ctx)
	if err != nil {
		s.rateOK = false
		s.quote = nil
		s.state = types.StateIdle
		s.log.Warn("exchange rate fetch failed", map[string]any{"error": err.Error()})
		return &types.StoreError{
			Code:    types.ErrRateUnavailable,
			Message: fmt.Sprintf("failed to fetch token price: %v", err),
		}
	}

	s.rate = rate
	s.rateOK = true
	s.state = types.StateRateReady
	s.rec.SetGauge("exchange_rate", rate.InexactFloat64(), map[string]string{"network": s.networkLabel()})
	s.recompute()
	return nil
}

// SetQuantity updates the requested credit quantity and recomputes the quote.
// Fractional and non-positive values are accepted here; Confirm gates them.
func (s *Session) SetQuantity(quantity decimal.Decimal) {
	s.quantity = quantity
	s.recompute()
}

// Quantity returns the requested credit quantity.
func (s *Session) Quantity() decimal.Decimal { return s.quantity }

// Quote returns the current derived quote, or nil while the rate is absent.
func (s *Session) Quote() *pricing.Quote { return s.quote }

// CanConfirm mirrors the UI gate on the confirm action: wallet connected,
// positive quantity, rate present.
func (s *Session) CanConfirm() bool {
	return s.wallet != nil && s.rateOK && s.quantity.IsPositive()
}

func (s *Session) recompute() {
	if !s.rateOK || s.project == nil {
		s.quote = nil
		return
	}

	quote, err := pricing.NewQuote(s.project.UnitPrice(), s.quantity, s.rate)
	if err != nil {
		s.quote = nil
		return
	}
	s.quote = quote
}

func (s *Session) networkLabel() string {
	if s.wallet == nil {
		return ""
	}
	return s.wallet.Network().String()
}

// Confirm runs the sequential submit → confirm → relay chain. It blocks
// until the ledger confirms the transfer; there is no client-side timeout
// beyond the context. The returned Result always carries the terminal state.
func (s *Session) Confirm(ctx context.Context) *Result {
	if precheck := s.precheck(); precheck != nil {
		return precheck
	}

	recipient := s.project.WalletFor(s.wallet.Network())
	quote := s.quote
	labels := map[string]string{"network": s.networkLabel()}

	// submit
	s.state = types.StateSubmitting
	s.rec.IncCounter("checkout_submit", labels)
	start := time.Now()

	hash, err := s.wallet.SubmitTransfer(ctx, recipient, quote.BaseUnits)
	if err != nil {
		return s.fail(&Result{Quote: quote}, &types.StoreError{
			Code:    types.ErrSubmitFailed,
			Message: err.Error(),
		})
	}

	s.log.Info("transfer submitted", map[string]any{"hash": hash, "project": s.project.ID})

	// confirm
	s.state = types.StateConfirming
	if err := s.wallet.WaitForConfirmation(ctx, hash); err != nil {
		return s.fail(&Result{Quote: quote, TxHash: hash}, &types.StoreError{
			Code:    types.ErrConfirmFailed,
			Message: err.Error(),
		})
	}

	s.rec.ObserveLatency("transfer_confirm", time.Since(start), labels)
	s.log.Info("transfer confirmed", map[string]any{"hash": hash})

	receipt := &types.Receipt{
		ProjectID:       s.project.ID,
		TokenAmount:     quote.TokenAmount.InexactFloat64(),
		FiatAmount:      quote.FiatTotal.InexactFloat64(),
		TransactionHash: hash,
		TokenPrice:      quote.Rate.InexactFloat64(),
		WalletAddress:   s.wallet.Address(),
		ToAddress:       recipient,
	}

	// relay
	s.state = types.StateRelaying
	relayResp, err := s.receipts.Submit(ctx, receipt)
	if err != nil {
		// Funds have already moved; the hash stays available and the gap is
		// reported, not compensated.
		s.rec.IncCounter("receipt_relay_failed", labels)
		res := &Result{Quote: quote, TxHash: hash, Receipt: receipt, Confirmed: true}
		return s.fail(res, &types.StoreError{
			Code:    types.ErrRelayFailed,
			Message: err.Error(),
		})
	}

	s.state = types.StateSuccess
	s.rec.IncCounter("checkout_success", labels)

	return &Result{
		State:     types.StateSuccess,
		TxHash:    hash,
		Quote:     quote,
		Receipt:   receipt,
		Relay:     relayResp,
		Confirmed: true,
	}
}

// precheck aborts the attempt before any network call when the selection
// cannot be purchased. Returns nil when the flow may proceed.
func (s *Session) precheck() *Result {
	if s.wallet == nil {
		return s.abort(types.ErrWalletNotConnected, "wallet is not connected")
	}
	if !s.rateOK || s.quote == nil {
		return s.abort(types.ErrRateUnavailable, "exchange rate unavailable")
	}
	if !s.quantity.IsPositive() {
		return s.abort(types.ErrInvalidQuantity, fmt.Sprintf("quantity must be positive, got %s", s.quantity))
	}

	recipient := s.project.WalletFor(s.wallet.Network())
	if recipient == "" {
		return s.abort(types.ErrMissingRecipient,
			fmt.Sprintf("project %s has no receiving address for network %s", s.project.ID, s.wallet.Network()))
	}
	if err := types.ValidateAddress(recipient, s.wallet.Network()); err != nil {
		return s.abort(types.ErrMissingRecipient, err.Error())
	}

	// Retrying from a previous error re-enters from rate_ready.
	s.state = types.StateRateReady
	return nil
}

func (s *Session) abort(code, msg string) *Result {
	err := &types.StoreError{Code: code, Message: msg}
	s.log.Warn("checkout aborted", map[string]any{"code": code, "reason": msg})
	return &Result{State: s.state, Quote: s.quote, Err: err}
}

func (s *Session) fail(res *Result, err *types.StoreError) *Result {
	s.state = types.StateError
	s.log.Error("checkout failed", map[string]any{"code": err.Code, "reason": err.Message})
	s.rec.IncCounter("checkout_error", map[string]string{"network": s.networkLabel()})

	res.State = types.StateError
	res.Err = err
	return res
}

package checkout

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotoken/storefront/types"
)

const (
	testRecipient = "0x742d35cc6634c0532925a3b844bc454e4438f44e2e1a2b3c4d5e6f708192a3b4"
	testTxHash    = "0x9c1e5f3b2a4d6e8f0a1b2c3d4e5f60718293a4b5c6d7e8f9a0b1c2d3e4f50617"
)

// stubWallet stands in for the browser wallet capability.
type stubWallet struct {
	network     types.Network
	submitErr   error
	confirmErr  error
	submitCalls int
	lastTo      string
	lastAmount  *big.Int
}

func (w *stubWallet) Network() types.Network { return w.network }
func (w *stubWallet) Address() string        { return "0xpayer00000000000000000000000000000000000000000000000000000000ab" }
func (w *stubWallet) Close()                 {}

func (w *stubWallet) SubmitTransfer(ctx context.Context, to string, baseUnits *big.Int) (string, error) {
	w.submitCalls++
	if w.submitErr != nil {
		return "", w.submitErr
	}
	w.lastTo = to
	w.lastAmount = new(big.Int).Set(baseUnits)
	return testTxHash, nil
}

func (w *stubWallet) WaitForConfirmation(ctx context.Context, hash string) error {
	return w.confirmErr
}

type stubRate struct {
	rate decimal.Decimal
	err  error
}

func (s stubRate) Price(ctx context.Context) (decimal.Decimal, error) {
	return s.rate, s.err
}

type stubReceipts struct {
	mu       sync.Mutex
	err      error
	received []*types.Receipt
}

func (s *stubReceipts) Submit(ctx context.Context, r *types.Receipt) (*types.RelayResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, r)
	if s.err != nil {
		return nil, s.err
	}
	return &types.RelayResponse{Success: true}, nil
}

func testProject() *types.Project {
	return &types.Project{
		ID:          "prj-1",
		Active:      true,
		Name:        "Mangrove Restoration",
		Price:       10,
		AptosWallet: testRecipient,
	}
}

func readySession(t *testing.T, w *stubWallet, receipts *stubReceipts) *Session {
	t.Helper()
	s := NewSession(testProject(), w, receipts)
	require.NoError(t, s.LoadRate(context.Background(), stubRate{rate: decimal.NewFromInt(8)}))
	return s
}

func TestConfirmHappyPath(t *testing.T) {
	w := &stubWallet{network: types.NetworkAptos}
	receipts := &stubReceipts{}
	s := readySession(t, w, receipts)
	s.SetQuantity(decimal.NewFromInt(2))

	res := s.Confirm(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, types.StateSuccess, res.State)
	assert.Equal(t, types.StateSuccess, s.State())
	assert.True(t, res.Confirmed)
	assert.Equal(t, testTxHash, res.TxHash)

	// 10 USD * 2 credits / 8 USD per token = 2.5 tokens = 250000000 base units
	assert.Equal(t, testRecipient, w.lastTo)
	assert.Zero(t, w.lastAmount.Cmp(big.NewInt(250000000)))

	require.Len(t, receipts.received, 1)
	r := receipts.received[0]
	assert.Equal(t, "prj-1", r.ProjectID)
	assert.Equal(t, 2.5, r.TokenAmount)
	assert.Equal(t, 20.0, r.FiatAmount)
	assert.Equal(t, 8.0, r.TokenPrice)
	assert.Equal(t, testTxHash, r.TransactionHash)
	assert.Equal(t, testRecipient, r.ToAddress)
}

func TestRateFailureDisablesPurchase(t *testing.T) {
	w := &stubWallet{network: types.NetworkAptos}
	s := NewSession(testProject(), w, &stubReceipts{})

	err := s.LoadRate(context.Background(), stubRate{err: errors.New("ticker down")})
	require.Error(t, err)

	assert.Nil(t, s.Quote())
	assert.False(t, s.CanConfirm())

	res := s.Confirm(context.Background())
	require.Error(t, res.Err)
	var storeErr *types.StoreError
	require.ErrorAs(t, res.Err, &storeErr)
	assert.Equal(t, types.ErrRateUnavailable, storeErr.Code)
	assert.Zero(t, w.submitCalls, "wallet must not be invoked without a rate")
}

func TestMissingRecipientAbortsBeforeWallet(t *testing.T) {
	// Solana wallet active, but the project only carries an Aptos address.
	w := &stubWallet{network: types.NetworkSolana}
	receipts := &stubReceipts{}
	s := readySession(t, w, receipts)

	res := s.Confirm(context.Background())
	var storeErr *types.StoreError
	require.ErrorAs(t, res.Err, &storeErr)
	assert.Equal(t, types.ErrMissingRecipient, storeErr.Code)
	assert.Zero(t, w.submitCalls, "submit must abort before invoking the wallet")
	assert.Empty(t, res.TxHash)
}

func TestNonPositiveQuantityGated(t *testing.T) {
	w := &stubWallet{network: types.NetworkAptos}
	s := readySession(t, w, &stubReceipts{})

	s.SetQuantity(decimal.Zero)
	assert.False(t, s.CanConfirm())

	res := s.Confirm(context.Background())
	var storeErr *types.StoreError
	require.ErrorAs(t, res.Err, &storeErr)
	assert.Equal(t, types.ErrInvalidQuantity, storeErr.Code)
	assert.Zero(t, w.submitCalls)
}

func TestWalletRejectionIsRetryable(t *testing.T) {
	w := &stubWallet{network: types.NetworkAptos, submitErr: errors.New("user rejected the request")}
	receipts := &stubReceipts{}
	s := readySession(t, w, receipts)

	res := s.Confirm(context.Background())
	require.Error(t, res.Err)
	assert.Equal(t, types.StateError, s.State())
	assert.Empty(t, res.TxHash)
	assert.False(t, res.Confirmed)
	assert.Empty(t, receipts.received, "no receipt without a transfer")

	// Retry after the user cancels succeeds.
	w.submitErr = nil
	res = s.Confirm(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, types.StateSuccess, res.State)
}

func TestRelayFailureKeepsConfirmedHash(t *testing.T) {
	w := &stubWallet{network: types.NetworkAptos}
	receipts := &stubReceipts{err: &types.StoreError{
		Code:    types.ErrRelayFailed,
		Message: "failed to submit transaction details. Status: 500: upstream exploded",
	}}
	s := readySession(t, w, receipts)

	res := s.Confirm(context.Background())
	require.Error(t, res.Err)
	assert.Equal(t, types.StateError, res.State)

	// The transfer happened: the hash stays available and the partial state
	// is explicit rather than collapsed into a generic failure.
	assert.True(t, res.Confirmed)
	assert.Equal(t, testTxHash, res.TxHash)
	assert.NotNil(t, res.Receipt)

	var storeErr *types.StoreError
	require.ErrorAs(t, res.Err, &storeErr)
	assert.Equal(t, types.ErrRelayFailed, storeErr.Code)
	assert.Contains(t, storeErr.Message, "upstream exploded")
}

func TestQuoteRecomputesOnQuantityChange(t *testing.T) {
	w := &stubWallet{network: types.NetworkAptos}
	s := readySession(t, w, &stubReceipts{})

	require.NotNil(t, s.Quote())
	assert.True(t, s.Quote().TokenAmount.Equal(decimal.RequireFromString("1.25")))

	s.SetQuantity(decimal.NewFromInt(4))
	assert.True(t, s.Quote().TokenAmount.Equal(decimal.NewFromInt(5)))

	// Fractional quantity is accepted and flows through the arithmetic.
	s.SetQuantity(decimal.RequireFromString("0.5"))
	assert.True(t, s.Quote().TokenAmount.Equal(decimal.RequireFromString("0.625")))
}

func TestDuplicateConfirmIsNotGuarded(t *testing.T) {
	// Documented gap: nothing stops a repeated Confirm from submitting a
	// second transfer. This pins the current behavior; it does not endorse it.
	w := &stubWallet{network: types.NetworkAptos}
	receipts := &stubReceipts{}
	s := readySession(t, w, receipts)

	first := s.Confirm(context.Background())
	require.NoError(t, first.Err)

	second := s.Confirm(context.Background())
	require.NoError(t, second.Err)

	assert.EqualValues(t, 2, w.submitCalls)
	assert.Len(t, receipts.received, 2, "duplicate receipts are produced with no deduplication")
}

// Package wallet holds the sign-and-submit capability the checkout flow
// invokes. The browser-extension protocol itself is outside this system;
// implementations here expose the same opaque contract: transfer the native
// settlement asset and block until the ledger confirms.
package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ecotoken/storefront/types"
)

// Wallet signs and broadcasts a single native-asset transfer and waits for
// ledger confirmation.
type Wallet interface {
	// Network identifies which of the catalog's receiving addresses applies.
	Network() types.Network

	// Address is the payer address recorded on the receipt.
	Address() string

	// SubmitTransfer signs and broadcasts a transfer of the given amount, in
	// the token's 8-decimal base units, to the recipient. Returns the
	// transaction hash.
	SubmitTransfer(ctx context.Context, to string, baseUnits *big.Int) (string, error)

	// WaitForConfirmation blocks until the ledger reports the transaction as
	// finalized. There is no client-side deadline beyond the context.
	WaitForConfirmation(ctx context.Context, hash string) error

	Close()
}

// Registry maps networks to connected wallets.
type Registry struct {
	wallets map[types.Network]Wallet
}

func NewRegistry() *Registry {
	return &Registry{wallets: make(map[types.Network]Wallet)}
}

// Add registers a wallet under its own network, replacing any previous one.
func (r *Registry) Add(w Wallet) {
	r.wallets[w.Network()] = w
}

// Get returns the wallet connected for a network.
func (r *Registry) Get(network types.Network) (Wallet, error) {
	w, ok := r.wallets[network]
	if !ok {
		return nil, &types.StoreError{
			Code:    types.ErrWalletNotConnected,
			Message: fmt.Sprintf("no wallet connected for network %s", network),
		}
	}
	return w, nil
}

// Networks lists the networks with a connected wallet.
func (r *Registry) Networks() []types.Network {
	networks := make([]types.Network, 0, len(r.wallets))
	for n := range r.wallets {
		networks = append(networks, n)
	}
	return networks
}

// Close closes every connected wallet.
func (r *Registry) Close() {
	for _, w := range r.wallets {
		w.Close()
	}
}

package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/ecotoken/storefront/pricing"
	"github.com/ecotoken/storefront/types"
)

// lamports per SOL is 10^9; catalog amounts arrive in 8-decimal base units.
const solanaNativeDecimals = 9

// SolanaWallet signs and submits native SOL transfers over RPC.
type SolanaWallet struct {
	rpcURL       string
	client       *rpc.Client
	key          solana.PrivateKey
	pollInterval time.Duration
}

var _ Wallet = (*SolanaWallet)(nil)

// NewSolanaWallet creates a wallet from a base58-encoded private key.
func NewSolanaWallet(rpcURL, privateKey string) (*SolanaWallet, error) {
	key, err := solana.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid solana private key: %w", err)
	}

	return &SolanaWallet{
		rpcURL:       rpcURL,
		client:       rpc.New(rpcURL),
		key:          key,
		pollInterval: 3 * time.Second,
	}, nil
}

func (w *SolanaWallet) Network() types.Network { return types.NetworkSolana }

func (w *SolanaWallet) Address() string { return w.key.PublicKey().String() }

// SubmitTransfer builds, signs and broadcasts a system-program transfer.
func (w *SolanaWallet) SubmitTransfer(ctx context.Context, to string, baseUnits *big.Int) (string, error) {
	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address: %w", err)
	}

	lamports := pricing.ConvertDecimals(baseUnits, types.BaseUnitDecimals, solanaNativeDecimals)
	if !lamports.IsUint64() {
		return "", fmt.Errorf("transfer amount out of range: %s", lamports)
	}

	recent, err := w.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("fetch recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(
				lamports.Uint64(),
				w.key.PublicKey(),
				recipient,
			).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(w.key.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := w.client.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("broadcast failed: %w", err)
	}

	return sig.String(), nil
}

// WaitForConfirmation polls signature status until the ledger reports the
// transaction finalized or the context ends.
func (w *SolanaWallet) WaitForConfirmation(ctx context.Context, hash string) error {
	sig, err := solana.SignatureFromBase58(hash)
	if err != nil {
		return fmt.Errorf("invalid transaction signature: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.pollInterval):
		}

		status, err := w.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil || len(status.Value) == 0 || status.Value[0] == nil {
			continue
		}
		if status.Value[0].Err != nil {
			return fmt.Errorf("transaction failed on chain: %v", status.Value[0].Err)
		}
		if status.Value[0].ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return nil
		}
	}
}

func (w *SolanaWallet) Close() {}

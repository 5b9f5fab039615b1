package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ecotoken/storefront/pricing"
	"github.com/ecotoken/storefront/types"
)

// CELO, like all EVM natives, carries 18 decimals.
const evmNativeDecimals = 18

const nativeTransferGasLimit = 21000

// EVMWallet signs and submits native transfers on an EVM chain (Celo for the
// catalog's celo_wallet addresses).
type EVMWallet struct {
	client       *ethclient.Client
	key          *ecdsa.PrivateKey
	chainID      *big.Int
	pollInterval time.Duration
}

var _ Wallet = (*EVMWallet)(nil)

// NewEVMWallet dials the RPC endpoint and loads a hex-encoded private key.
func NewEVMWallet(ctx context.Context, rpcURL, privateKeyHex string) (*EVMWallet, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	return &EVMWallet{
		client:       client,
		key:          key,
		chainID:      chainID,
		pollInterval: 3 * time.Second,
	}, nil
}

func (w *EVMWallet) Network() types.Network { return types.NetworkCelo }

func (w *EVMWallet) Address() string {
	return crypto.PubkeyToAddress(w.key.PublicKey).Hex()
}

// SubmitTransfer signs and broadcasts an EIP-155 native transfer.
func (w *EVMWallet) SubmitTransfer(ctx context.Context, to string, baseUnits *big.Int) (string, error) {
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid recipient address: %s", to)
	}

	from := crypto.PubkeyToAddress(w.key.PublicKey)

	nonce, err := w.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}

	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch gas price: %w", err)
	}

	value := pricing.ConvertDecimals(baseUnits, types.BaseUnitDecimals, evmNativeDecimals)

	tx := ethtypes.NewTransaction(nonce, common.HexToAddress(to), value, nativeTransferGasLimit, gasPrice, nil)

	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(w.chainID), w.key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("broadcast failed: %w", err)
	}

	return signed.Hash().Hex(), nil
}

// WaitForConfirmation polls for the transaction receipt until it lands or the
// context ends.
func (w *EVMWallet) WaitForConfirmation(ctx context.Context, hash string) error {
	txHash := common.HexToHash(hash)

	for {
		receipt, err := w.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != ethtypes.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction reverted: %s", hash)
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("fetch receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *EVMWallet) Close() {
	w.client.Close()
}

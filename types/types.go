package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Project is a purchasable credit listing as returned by the catalog service.
// Immutable once fetched; the client never mutates it. JSON field names match
// the listing service exactly.
type Project struct {
	ID           string  `json:"ID"`
	Active       bool    `json:"active"`
	Batch        string  `json:"batch"`
	Description  string  `json:"description"`
	Escrow       string  `json:"escrow"`
	Image        string  `json:"image"`
	ImageNFT     string  `json:"image_nft"`
	Location     string  `json:"location"`
	Name         string  `json:"name"`
	Order        int     `json:"order"`
	Price        float64 `json:"price"`
	Registry     string  `json:"registry"`
	Type         string  `json:"type"`
	URI          string  `json:"uri"`
	SolanaWallet string  `json:"solana_wallet"`
	CeloWallet   string  `json:"celo_wallet"`
	AptosWallet  string  `json:"aptos_wallet"`
}

// WalletFor returns the project's receiving address for the given network.
// An empty string means the project cannot receive on that network.
func (p *Project) WalletFor(network Network) string {
	switch network {
	case NetworkAptos:
		return p.AptosWallet
	case NetworkSolana:
		return p.SolanaWallet
	case NetworkCelo:
		return p.CeloWallet
	default:
		return ""
	}
}

// UnitPrice returns the fiat unit price as a decimal.
func (p *Project) UnitPrice() decimal.Decimal {
	return decimal.NewFromFloat(p.Price)
}

// ProjectList is the catalog relay response body.
type ProjectList struct {
	Projects []Project `json:"projects"`
}

// Receipt is the settlement payload forwarded after on-chain confirmation.
// Field names match the external settlement API.
type Receipt struct {
	ProjectID       string  `json:"projectId" validate:"required"`
	TokenAmount     float64 `json:"aptAmount" validate:"required,gt=0"`
	FiatAmount      float64 `json:"usdAmount" validate:"required,gt=0"`
	TransactionHash string  `json:"transactionHash" validate:"required"`
	TokenPrice      float64 `json:"aptPrice" validate:"required,gt=0"`
	WalletAddress   string  `json:"walletAddress" validate:"required"`
	ToAddress       string  `json:"toaddress" validate:"required"`
}

var validate = validator.New()

// Validate checks that the receipt carries every field the settlement API
// requires. Address and hash formats are checked separately since they are
// network dependent.
func (r *Receipt) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &StoreError{Code: ErrInvalidReceipt, Message: err.Error()}
	}
	return nil
}

// RelayResponse is what the ccep relay returns on a successful forward.
type RelayResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// State enumerates the checkout flow machine.
type State string

const (
	StateIdle        State = "idle"
	StateRateLoading State = "rate_loading"
	StateRateReady   State = "rate_ready"
	StateSubmitting  State = "submitting"
	StateConfirming  State = "confirming"
	StateRelaying    State = "relaying"
	StateSuccess     State = "success"
	StateError       State = "error"
)

func (s State) String() string { return string(s) }

// StoreError carries a machine-readable code alongside the message.
type StoreError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *StoreError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCatalogUnavailable = "CATALOG_UNAVAILABLE"
	ErrProjectNotFound    = "PROJECT_NOT_FOUND"
	ErrRateUnavailable    = "RATE_UNAVAILABLE"
	ErrInvalidQuantity    = "INVALID_QUANTITY"
	ErrWalletNotConnected = "WALLET_NOT_CONNECTED"
	ErrMissingRecipient   = "MISSING_RECIPIENT"
	ErrSubmitFailed       = "SUBMIT_FAILED"
	ErrConfirmFailed      = "CONFIRM_FAILED"
	ErrRelayFailed        = "RELAY_FAILED"
	ErrInvalidReceipt     = "INVALID_RECEIPT"
	ErrConfigError        = "CONFIG_ERROR"
)

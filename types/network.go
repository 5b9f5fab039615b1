package types

// Network represents the ledgers the catalog carries receiving addresses for.
type Network string

const (
	NetworkAptos  Network = "aptos"
	NetworkSolana Network = "solana"
	NetworkCelo   Network = "celo"
)

func (n Network) IsEVM() bool {
	return n == NetworkCelo
}

func (n Network) IsSolana() bool {
	return n == NetworkSolana
}

func (n Network) IsAptos() bool {
	return n == NetworkAptos
}

func (n Network) String() string {
	return string(n)
}

// BaseUnitDecimals is the fixed-point precision of the settlement token.
// One token is 10^8 of its smallest indivisible unit.
const BaseUnitDecimals = 8

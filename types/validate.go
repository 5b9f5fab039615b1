package types

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	hexRe    = regexp.MustCompile("^[0-9a-fA-F]+$")
	base58Re = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")
)

// ValidateAddress checks that an address is plausible for the given network.
func ValidateAddress(address string, network Network) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	switch network {
	case NetworkCelo:
		if !strings.HasPrefix(address, "0x") {
			return fmt.Errorf("celo address must start with 0x")
		}
		if len(address) != 42 {
			return fmt.Errorf("celo address must be 42 characters long")
		}
		if !hexRe.MatchString(address[2:]) {
			return fmt.Errorf("celo address must be valid hex")
		}

	case NetworkSolana:
		if len(address) < 32 || len(address) > 44 {
			return fmt.Errorf("solana address has invalid length")
		}
		if !base58Re.MatchString(address) {
			return fmt.Errorf("solana address must be valid base58")
		}

	case NetworkAptos:
		if !strings.HasPrefix(address, "0x") {
			return fmt.Errorf("aptos address must start with 0x")
		}
		body := address[2:]
		if len(body) == 0 || len(body) > 64 {
			return fmt.Errorf("aptos address has invalid length")
		}
		if !hexRe.MatchString(body) {
			return fmt.Errorf("aptos address must be valid hex")
		}

	default:
		return fmt.Errorf("unsupported network for address validation: %s", network)
	}

	return nil
}

// ValidateTxHash checks that a transaction hash is plausible for the given network.
func ValidateTxHash(hash string, network Network) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}

	switch network {
	case NetworkCelo, NetworkAptos:
		// 0x + 64 hex characters
		if !strings.HasPrefix(hash, "0x") {
			return fmt.Errorf("%s transaction hash must start with 0x", network)
		}
		if len(hash) != 66 {
			return fmt.Errorf("%s transaction hash must be 66 characters long", network)
		}
		if !hexRe.MatchString(hash[2:]) {
			return fmt.Errorf("%s transaction hash must be valid hex", network)
		}

	case NetworkSolana:
		// base58 signature, typically 87-88 characters
		if len(hash) < 80 || len(hash) > 90 {
			return fmt.Errorf("solana transaction signature has invalid length")
		}
		if !base58Re.MatchString(hash) {
			return fmt.Errorf("solana transaction signature must be valid base58")
		}

	default:
		return fmt.Errorf("unsupported network for transaction hash validation: %s", network)
	}

	return nil
}

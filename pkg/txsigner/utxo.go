package txsigner

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrMalformedUtxoPath ...
	ErrMalformedUtxoPath = errors.New(
		"unspent derived path must have exactly two elements \"branch/index\"",
	)
	// ErrInvalidUtxoAmount ...
	ErrInvalidUtxoAmount = errors.New(
		"unspent amount must be a non-negative integer number of base units",
	)
)

// Utxo is one unspent output supplied to a signing call. It is never
// persisted by the engine.
type Utxo struct {
	TxHash       string
	Vout         uint32
	Amount       int64
	Address      string
	ScriptPubKey string
	DerivedPath  string
	Sequence     int64
}

// utxoJSON is the wire shape of Utxo. The amount travels as a decimal
// string so text-based transports cannot lose precision on it.
type utxoJSON struct {
	TxHash       string `json:"txHash"`
	Vout         uint32 `json:"vout"`
	Amount       string `json:"amount"`
	Address      string `json:"address"`
	ScriptPubKey string `json:"scriptPubKey"`
	DerivedPath  string `json:"derivedPath"`
	Sequence     int64  `json:"sequence,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (u Utxo) MarshalJSON() ([]byte, error) {
	return json.Marshal(utxoJSON{
		TxHash:       u.TxHash,
		Vout:         u.Vout,
		Amount:       decimal.NewFromInt(u.Amount).String(),
		Address:      u.Address,
		ScriptPubKey: u.ScriptPubKey,
		DerivedPath:  u.DerivedPath,
		Sequence:     u.Sequence,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (u *Utxo) UnmarshalJSON(buf []byte) error {
	var wire utxoJSON
	if err := json.Unmarshal(buf, &wire); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(wire.Amount)
	if err != nil {
		return ErrInvalidUtxoAmount
	}
	if !amount.IsInteger() || amount.IsNegative() {
		return ErrInvalidUtxoAmount
	}

	u.TxHash = wire.TxHash
	u.Vout = wire.Vout
	u.Amount = amount.IntPart()
	u.Address = wire.Address
	u.ScriptPubKey = wire.ScriptPubKey
	u.DerivedPath = wire.DerivedPath
	u.Sequence = wire.Sequence
	return nil
}

// relativePath validates the two-element form of the unspent's derived path
// and returns it trimmed
func (u *Utxo) relativePath() (string, error) {
	derivedPath := strings.TrimSpace(u.DerivedPath)
	elems := strings.Split(derivedPath, "/")
	if len(elems) != 2 {
		return "", ErrMalformedUtxoPath
	}
	for _, elem := range elems {
		if strings.TrimSpace(elem) == "" {
			return "", ErrMalformedUtxoPath
		}
	}
	return derivedPath, nil
}

package chain

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// CashAddrType is the address kind carried in a cash-address version byte
type CashAddrType byte

const (
	// CashAddrP2PKH ...
	CashAddrP2PKH CashAddrType = 0
	// CashAddrP2SH ...
	CashAddrP2SH CashAddrType = 1
)

var (
	// ErrInvalidCashAddr ...
	ErrInvalidCashAddr = errors.New("invalid cash address")

	cashAddrCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
)

// cashPolymod is the BCH variant of the bech32 checksum over 5-bit groups.
// A valid string checksums to zero.
func cashPolymod(values []byte) uint64 {
	c := uint64(1)
	for _, d := range values {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		if c0&0x01 != 0 {
			c ^= 0x98f2bc8e61
		}
		if c0&0x02 != 0 {
			c ^= 0x79b76d99e2
		}
		if c0&0x04 != 0 {
			c ^= 0xf33e5fb3c4
		}
		if c0&0x08 != 0 {
			c ^= 0xae2eabe2a8
		}
		if c0&0x10 != 0 {
			c ^= 0x1e4f43e470
		}
	}
	return c ^ 1
}

// the checksum covers the lower 5 bits of each prefix character plus a zero
// separator
func cashPrefixExpand(prefix string) []byte {
	expanded := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		expanded = append(expanded, prefix[i]&0x1f)
	}
	return append(expanded, 0)
}

// EncodeCashAddress encodes the given hash as a checksummed cash-style
// address under the given human-readable prefix
func EncodeCashAddress(
	prefix string, addrType CashAddrType, hash []byte,
) (string, error) {
	if len(hash) != 20 {
		return "", ErrInvalidCashAddr
	}
	payload := make([]byte, 0, 1+len(hash))
	payload = append(payload, byte(addrType)<<3)
	payload = append(payload, hash...)

	payload5, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}

	checksumInput := append(cashPrefixExpand(prefix), payload5...)
	checksumInput = append(checksumInput, make([]byte, 8)...)
	mod := cashPolymod(checksumInput)

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte(':')
	for _, d := range payload5 {
		sb.WriteByte(cashAddrCharset[d])
	}
	for i := 0; i < 8; i++ {
		sb.WriteByte(cashAddrCharset[(mod>>uint(5*(7-i)))&0x1f])
	}
	return sb.String(), nil
}

// DecodeCashAddress parses and checksum-verifies a cash-style address. The
// prefix may be omitted from the input, in which case the expected one is
// assumed.
func DecodeCashAddress(
	addr, expectedPrefix string,
) (CashAddrType, []byte, error) {
	// all-lower and all-upper are both accepted, mixed case is not
	if addr != strings.ToLower(addr) && addr != strings.ToUpper(addr) {
		return 0, nil, ErrInvalidCashAddr
	}
	addr = strings.ToLower(addr)
	prefix := expectedPrefix
	encoded := addr
	if idx := strings.IndexByte(addr, ':'); idx >= 0 {
		prefix, encoded = addr[:idx], addr[idx+1:]
	}
	if prefix != expectedPrefix {
		return 0, nil, ErrInvalidCashAddr
	}
	if len(encoded) < 8 {
		return 0, nil, ErrInvalidCashAddr
	}

	data := make([]byte, 0, len(encoded))
	for i := 0; i < len(encoded); i++ {
		value := strings.IndexByte(cashAddrCharset, encoded[i])
		if value < 0 {
			return 0, nil, ErrInvalidCashAddr
		}
		data = append(data, byte(value))
	}

	if cashPolymod(append(cashPrefixExpand(prefix), data...)) != 0 {
		return 0, nil, ErrInvalidCashAddr
	}

	payload, err := bech32.ConvertBits(data[:len(data)-8], 5, 8, false)
	if err != nil || len(payload) == 0 {
		return 0, nil, ErrInvalidCashAddr
	}

	version := payload[0]
	hash := payload[1:]
	if version&0x80 != 0 || len(hash) != 20 {
		return 0, nil, ErrInvalidCashAddr
	}
	return CashAddrType(version >> 3), hash, nil
}

// isCashAddress reports whether the string parses as a cash address under
// the given prefix
func isCashAddress(addr, prefix string) bool {
	_, _, err := DecodeCashAddress(addr, prefix)
	return err == nil
}

package chain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/txscript"
)

// AddressFromPublicKey returns the pay-to-pubkey-hash address of the given
// public key in the chain's canonical text form: cash-style for chains using
// the cash address scheme, base58check otherwise.
func AddressFromPublicKey(pub *btcec.PublicKey, params *Params) (string, error) {
	pubKeyHash := btcutil.Hash160(pub.SerializeCompressed())
	if params.UseCashAddr {
		addr, err := EncodeCashAddress(params.CashAddrPrefix, CashAddrP2PKH, pubKeyHash)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAddressEncoding, err)
		}
		return addr, nil
	}

	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, params.Net)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	return addr.EncodeAddress(), nil
}

// LegacyAddressFromPublicKey returns the base58check pay-to-pubkey-hash
// address of the given public key regardless of the chain's canonical form
func LegacyAddressFromPublicKey(pub *btcec.PublicKey, params *Params) (string, error) {
	pubKeyHash := btcutil.Hash160(pub.SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, params.Net)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	return addr.EncodeAddress(), nil
}

// SegWitAddressFromPublicKey returns the P2SH-wrapped P2WPKH address of the
// given public key
func SegWitAddressFromPublicKey(pub *btcec.PublicKey, params *Params) (string, error) {
	redeemScript, err := witnessProgram(pub)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	addr, err := btcutil.NewAddressScriptHash(redeemScript, params.Net)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	return addr.EncodeAddress(), nil
}

// IsValidAddress reports whether the given address parses and checksums for
// the chain, in either of its accepted text forms
func IsValidAddress(addr string, params *Params) bool {
	if params.UseCashAddr && isCashAddress(addr, params.CashAddrPrefix) {
		return true
	}
	decoded, err := btcutil.DecodeAddress(addr, params.Net)
	if err != nil {
		return false
	}
	return decoded.IsForNet(params.Net)
}

// ScriptPubKey returns the locking script paying to the given address,
// accepting both the cash-style and the legacy base58 form on chains using
// the cash address scheme
func ScriptPubKey(addr string, params *Params) ([]byte, error) {
	legacy, err := ToLegacyAddress(addr, params)
	if err != nil {
		return nil, err
	}
	decoded, err := btcutil.DecodeAddress(legacy, params.Net)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	return script, nil
}

// ToLegacyAddress converts a cash-style address to its base58check
// equivalent. Addresses already in base58 form are returned unchanged.
func ToLegacyAddress(addr string, params *Params) (string, error) {
	if !params.UseCashAddr || !isCashAddress(addr, params.CashAddrPrefix) {
		return addr, nil
	}
	addrType, hash, err := DecodeCashAddress(addr, params.CashAddrPrefix)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	switch addrType {
	case CashAddrP2PKH:
		return base58.CheckEncode(hash, params.Net.PubKeyHashAddrID), nil
	case CashAddrP2SH:
		return base58.CheckEncode(hash, params.Net.ScriptHashAddrID), nil
	default:
		return "", ErrAddressEncoding
	}
}

// ToCashAddress converts a base58check address to its cash-style equivalent
func ToCashAddress(addr string, params *Params) (string, error) {
	if !params.UseCashAddr {
		return "", ErrAddressEncoding
	}
	if isCashAddress(addr, params.CashAddrPrefix) {
		return addr, nil
	}
	decoded, err := btcutil.DecodeAddress(addr, params.Net)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	switch a := decoded.(type) {
	case *btcutil.AddressPubKeyHash:
		return EncodeCashAddress(params.CashAddrPrefix, CashAddrP2PKH, a.Hash160()[:])
	case *btcutil.AddressScriptHash:
		return EncodeCashAddress(params.CashAddrPrefix, CashAddrP2SH, a.Hash160()[:])
	default:
		return "", ErrAddressEncoding
	}
}

// AddressLike derives an address for the given public key with the same
// script class as the template address. Used to keep change outputs in the
// same form as the inputs being spent.
func AddressLike(template string, pub *btcec.PublicKey, params *Params) (string, error) {
	legacy, err := ToLegacyAddress(template, params)
	if err != nil {
		return "", err
	}
	decoded, err := btcutil.DecodeAddress(legacy, params.Net)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAddressEncoding, err)
	}
	switch decoded.(type) {
	case *btcutil.AddressPubKeyHash:
		return LegacyAddressFromPublicKey(pub, params)
	case *btcutil.AddressScriptHash:
		return SegWitAddressFromPublicKey(pub, params)
	default:
		return "", fmt.Errorf("%w: unsupported template address class", ErrAddressEncoding)
	}
}

// EncodeAddress makes Params usable wherever an address encoder capability
// is expected (keystore account derivation, WIF import)
func (p *Params) EncodeAddress(pub *btcec.PublicKey) (string, error) {
	return AddressFromPublicKey(pub, p)
}

// SegWitEncoder encodes addresses in the P2SH-wrapped P2WPKH form of its
// chain
type SegWitEncoder struct {
	Params *Params
}

// EncodeAddress ...
func (e SegWitEncoder) EncodeAddress(pub *btcec.PublicKey) (string, error) {
	return SegWitAddressFromPublicKey(pub, e.Params)
}

// witnessProgram returns the version-0 witness program committing to the
// hash of the given public key
func witnessProgram(pub *btcec.PublicKey) ([]byte, error) {
	pubKeyHash := btcutil.Hash160(pub.SerializeCompressed())
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(pubKeyHash).
		Script()
}

package hdkey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vulpemventures/go-bip39"
)

var (
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrDerivation is returned for any BIP32 child derivation failure,
	// including hardened steps attempted on an extended public key
	ErrDerivation = errors.New("key derivation failed")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")
	// ErrShortAccountPath ...
	ErrShortAccountPath = errors.New(
		"derivation path must have at least purpose, coin and account elements",
	)
)

// NewMnemonicOpts is the struct given to NewMnemonic method
type NewMnemonicOpts struct {
	EntropySize int
}

func (o NewMnemonicOpts) validate() error {
	if o.EntropySize < 0 {
		return ErrInvalidEntropySize
	}
	if o.EntropySize > 0 {
		if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
			return ErrInvalidEntropySize
		}
	}
	return nil
}

// NewMnemonic returns a new mnemonic phrase with the requested entropy size,
// defaulting to 128 bits (12 words)
func NewMnemonic(opts NewMnemonicOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if opts.EntropySize == 0 {
		opts.EntropySize = 128
	}

	entropy, err := bip39.NewEntropy(opts.EntropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks wordlist membership and checksum of the given
// mnemonic phrase
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// SeedFromMnemonic returns the BIP39 seed of the given mnemonic phrase and
// optional passphrase
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}

// MasterKeyFromSeed returns the BIP32 master extended private key of the
// given seed, serialized with the version bytes of the given network
func MasterKeyFromSeed(seed []byte, net *chaincfg.Params) (*hdkeychain.ExtendedKey, error) {
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	masterKey, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
	}
	return masterKey, nil
}

// DeriveAtPath applies BIP32 child derivation to the given extended key for
// every element of the given path. Derivation through a hardened element
// fails on extended public keys.
func DeriveAtPath(
	key *hdkeychain.ExtendedKey, path DerivationPath,
) (*hdkeychain.ExtendedKey, error) {
	derivedKey := key
	var err error
	for _, childIndex := range path {
		derivedKey, err = derivedKey.Derive(childIndex)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDerivation, err)
		}
	}
	return derivedKey, nil
}

// AccountPath truncates a full BIP44 derivation path to its account-level
// prefix m/purpose'/coin'/account'
func AccountPath(strPath string) (string, error) {
	if _, err := ParseDerivationPath(strPath); err != nil {
		return "", err
	}
	elems := strings.Split(strPath, "/")
	if strings.TrimSpace(elems[0]) != "m" {
		return "", ErrShortAccountPath
	}
	if len(elems) < 4 {
		return "", ErrShortAccountPath
	}
	return strings.Join(elems[:4], "/"), nil
}

// KeyFromWIF decodes a private key in wallet import format, checking that it
// targets the given network
func KeyFromWIF(wif string, net *chaincfg.Params) (*btcutil.WIF, error) {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return nil, err
	}
	if !decoded.IsForNet(net) {
		return nil, fmt.Errorf("wif is not intended for the %s network", net.Name)
	}
	return decoded, nil
}

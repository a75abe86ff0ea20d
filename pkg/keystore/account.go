package keystore

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/walletkit/walletkit/pkg/hdkey"
)

var (
	// ErrDuplicateAccount ...
	ErrDuplicateAccount = errors.New("account already derived for the coin")
	// ErrNullCoinInfo ...
	ErrNullCoinInfo = errors.New("coin info must not be null")
)

// CoinInfo is the static capability descriptor of a supported coin
type CoinInfo struct {
	Symbol         string
	DerivationPath string
	Curve          string
}

// CurveSecp256k1 is the only curve the signing engine supports today
const CurveSecp256k1 = "secp256k1"

// Account is a per-coin derived entry of a keystore. The extended public
// key is computed once at derivation time, when the password is available,
// and is enough to derive receive/change public keys afterwards without
// re-touching the master secret.
type Account struct {
	Address        string `json:"address"`
	Coin           string `json:"coin"`
	DerivationPath string `json:"derivationPath"`
	Curve          string `json:"curve"`
	XPub           string `json:"xpub"`
}

// Account returns the derived account of the given coin symbol, or nil when
// none exists. Absence is a normal outcome; callers decide whether it is an
// error.
func (ks *HDKeystore) Account(coin string) *Account {
	coin = strings.ToUpper(coin)
	for _, account := range ks.ActiveAccounts {
		if account.Coin == coin {
			return account
		}
	}
	return nil
}

// DeriveAccountOpts is the struct given to DeriveAccount method
type DeriveAccountOpts struct {
	Password string
	Coin     CoinInfo
	Net      *chaincfg.Params
	Encoder  AddressEncoder
}

func (o DeriveAccountOpts) validate() error {
	if len(o.Coin.Symbol) <= 0 || len(o.Coin.DerivationPath) <= 0 {
		return ErrNullCoinInfo
	}
	if o.Net == nil || o.Encoder == nil {
		return ErrNullCoinInfo
	}
	if _, err := hdkey.ParseDerivationPath(o.Coin.DerivationPath); err != nil {
		return err
	}
	if _, err := hdkey.AccountPath(o.Coin.DerivationPath); err != nil {
		return err
	}
	return nil
}

// DeriveAccount decrypts the master secret once, derives the account-level
// extended public key at the coin's account path and records the new account
// on the keystore. The address at the coin's full path is cached on the
// document the first time.
func (ks *HDKeystore) DeriveAccount(opts DeriveAccountOpts) (*Account, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if !ks.IsHD() {
		return nil, ErrNotHDKeystore
	}
	coin := strings.ToUpper(opts.Coin.Symbol)
	if ks.Account(coin) != nil {
		return nil, ErrDuplicateAccount
	}

	seed, err := ks.Crypto.Decrypt(opts.Password)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)

	masterKey, err := hdkey.MasterKeyFromSeed(seed, opts.Net)
	if err != nil {
		return nil, err
	}

	accountPathStr, err := hdkey.AccountPath(opts.Coin.DerivationPath)
	if err != nil {
		return nil, err
	}
	accountPath, err := hdkey.ParseDerivationPath(accountPathStr)
	if err != nil {
		return nil, err
	}
	accountKey, err := hdkey.DeriveAtPath(masterKey, accountPath)
	if err != nil {
		return nil, err
	}
	accountPubKey, err := accountKey.Neuter()
	if err != nil {
		return nil, err
	}

	fullPath, err := hdkey.ParseDerivationPath(opts.Coin.DerivationPath)
	if err != nil {
		return nil, err
	}
	addressKey, err := hdkey.DeriveAtPath(masterKey, fullPath)
	if err != nil {
		return nil, err
	}
	pubKey, err := addressKey.ECPubKey()
	if err != nil {
		return nil, err
	}
	address, err := opts.Encoder.EncodeAddress(pubKey)
	if err != nil {
		return nil, err
	}

	curve := opts.Coin.Curve
	if len(curve) <= 0 {
		curve = CurveSecp256k1
	}
	account := &Account{
		Address:        address,
		Coin:           coin,
		DerivationPath: opts.Coin.DerivationPath,
		Curve:          curve,
		XPub:           accountPubKey.String(),
	}
	ks.ActiveAccounts = append(ks.ActiveAccounts, account)
	if len(ks.Address) <= 0 {
		ks.Address = address
	}
	return account, nil
}

// KeyAtPathsOpts is the struct given to KeyAtPaths method
type KeyAtPathsOpts struct {
	Paths    []string
	Password string
	Net      *chaincfg.Params
}

func (o KeyAtPathsOpts) validate() error {
	if len(o.Paths) <= 0 {
		return hdkey.ErrNullDerivationPath
	}
	for _, path := range o.Paths {
		if _, err := hdkey.ParseDerivationPath(path); err != nil {
			return err
		}
	}
	return nil
}

// KeyAtPaths decrypts the master secret exactly once and derives one private
// key per absolute path. The plaintext seed is zeroed before returning on
// every path; callers must zero the returned keys when done signing.
func (ks *HDKeystore) KeyAtPaths(opts KeyAtPathsOpts) ([]*btcec.PrivateKey, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if !ks.IsHD() {
		return nil, ErrNotHDKeystore
	}
	net := opts.Net
	if net == nil {
		net = &chaincfg.MainNetParams
	}

	seed, err := ks.Crypto.Decrypt(opts.Password)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)

	masterKey, err := hdkey.MasterKeyFromSeed(seed, net)
	if err != nil {
		return nil, err
	}

	privKeys := make([]*btcec.PrivateKey, 0, len(opts.Paths))
	for _, strPath := range opts.Paths {
		path, err := hdkey.ParseDerivationPath(strPath)
		if err != nil {
			return nil, err
		}
		derivedKey, err := hdkey.DeriveAtPath(masterKey, path)
		if err != nil {
			return nil, err
		}
		privKey, err := derivedKey.ECPrivKey()
		if err != nil {
			return nil, err
		}
		privKeys = append(privKeys, privKey)
	}
	return privKeys, nil
}

// DerivePublicKeyAtPath derives a receive or change public key from an
// account extended public key without touching the password-protected
// secret. The relative path must not contain hardened elements.
func DerivePublicKeyAtPath(xpub, relativePath string) (*btcec.PublicKey, error) {
	path, err := hdkey.ParseRelativeDerivationPath(relativePath)
	if err != nil {
		return nil, err
	}
	accountKey, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return nil, err
	}
	derivedKey, err := hdkey.DeriveAtPath(accountKey, path)
	if err != nil {
		return nil, err
	}
	return derivedKey.ECPubKey()
}

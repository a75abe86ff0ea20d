package keystore

import (
	"errors"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"

	"github.com/walletkit/walletkit/pkg/hdkey"
)

var (
	// ErrNotHDKeystore is returned when a path-derivation operation is
	// requested on a keystore imported from a single private key
	ErrNotHDKeystore = errors.New("keystore does not hold an HD master secret")
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("keystore holds no encrypted mnemonic")
)

// Version is the keystore document format version
const Version = 3

// Source describes the provenance of a keystore's master secret
type Source string

const (
	// SourceWIF ...
	SourceWIF Source = "WIF"
	// SourcePrivate ...
	SourcePrivate Source = "PRIVATE"
	// SourceKeystore ...
	SourceKeystore Source = "KEYSTORE"
	// SourceMnemonic ...
	SourceMnemonic Source = "MNEMONIC"
	// SourceNewIdentity ...
	SourceNewIdentity Source = "NEW_IDENTITY"
	// SourceRecoveredIdentity ...
	SourceRecoveredIdentity Source = "RECOVERED_IDENTITY"
)

// Wallet kinds stored in Metadata.WalletType
const (
	WalletTypeHD = "HD"
	WalletTypeV3 = "V3"
)

// Metadata is the non-secret descriptive part of a keystore document
type Metadata struct {
	Name         string `json:"name"`
	PasswordHint string `json:"passwordHint"`
	ChainType    string `json:"chainType"`
	Timestamp    int64  `json:"timestamp"`
	Network      string `json:"network"`
	Source       Source `json:"source"`
	Mode         string `json:"mode"`
	WalletType   string `json:"walletType"`
	SegWit       string `json:"segWit"`
}

// DefaultMetadata returns metadata preset for a mainnet HD wallet
func DefaultMetadata() Metadata {
	return Metadata{
		Name:       "Unknown",
		ChainType:  "",
		Timestamp:  time.Now().Unix(),
		Network:    "MAINNET",
		Source:     SourceMnemonic,
		Mode:       "NORMAL",
		WalletType: WalletTypeHD,
		SegWit:     "NONE",
	}
}

// AddressEncoder turns a derived public key into the chain's canonical
// address text form. Implemented by chain parameter values; injected so this
// package stays agnostic of any specific chain's encoding.
type AddressEncoder interface {
	EncodeAddress(pub *btcec.PublicKey) (string, error)
}

// HDKeystore is the persisted, password-protected wallet document. The
// master secret (BIP39 seed, or a raw private key for V3 imports) exists
// only inside the Crypto envelope; the mnemonic, when present, is sealed as
// an EncPair under the same password.
type HDKeystore struct {
	ID             string     `json:"id"`
	Version        int        `json:"version"`
	Address        string     `json:"address"`
	Crypto         *Crypto    `json:"crypto"`
	MnemonicPath   string     `json:"mnemonicPath,omitempty"`
	EncMnemonic    *EncPair   `json:"encMnemonic,omitempty"`
	ActiveAccounts []*Account `json:"activeAccounts"`
	Metadata       Metadata   `json:"metadata"`
}

// NewHDKeystoreOpts is the struct given to NewHDKeystore method
type NewHDKeystoreOpts struct {
	Mnemonic string
	Password string
	Path     string
	Metadata Metadata
	// KdfIterations overrides the envelope's pbkdf2 iteration count when
	// positive
	KdfIterations int
}

func (o NewHDKeystoreOpts) validate() error {
	if len(o.Password) <= 0 {
		return ErrNullPassword
	}
	if err := hdkey.ValidateMnemonic(o.Mnemonic); err != nil {
		return err
	}
	if len(o.Path) > 0 {
		if _, err := hdkey.ParseDerivationPath(o.Path); err != nil {
			return err
		}
	}
	return nil
}

// NewHDKeystore seals the BIP39 seed of the given mnemonic under the given
// password and stores the mnemonic itself as an encrypted pair alongside it
func NewHDKeystore(opts NewHDKeystoreOpts) (*HDKeystore, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed, err := hdkey.SeedFromMnemonic(opts.Mnemonic, "")
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)

	crypto, err := NewCrypto(NewCryptoOpts{
		Password:   opts.Password,
		PlainText:  seed,
		Iterations: opts.KdfIterations,
	})
	if err != nil {
		return nil, err
	}
	encMnemonic, err := crypto.DeriveEncPair(opts.Password, []byte(opts.Mnemonic))
	if err != nil {
		return nil, err
	}

	metadata := opts.Metadata
	metadata.WalletType = WalletTypeHD

	return &HDKeystore{
		ID:             uuid.NewString(),
		Version:        Version,
		Crypto:         crypto,
		MnemonicPath:   opts.Path,
		EncMnemonic:    encMnemonic,
		ActiveAccounts: make([]*Account, 0),
		Metadata:       metadata,
	}, nil
}

// NewV3KeystoreOpts is the struct given to NewV3Keystore method
type NewV3KeystoreOpts struct {
	WIF      string
	Password string
	Net      *chaincfg.Params
	Encoder  AddressEncoder
	Metadata Metadata
	// KdfIterations overrides the envelope's pbkdf2 iteration count when
	// positive
	KdfIterations int
}

func (o NewV3KeystoreOpts) validate() error {
	if len(o.Password) <= 0 {
		return ErrNullPassword
	}
	if o.Net == nil || o.Encoder == nil {
		return ErrCrypto
	}
	_, err := hdkey.KeyFromWIF(o.WIF, o.Net)
	return err
}

// NewV3Keystore imports a single private key in wallet import format,
// sealing the raw key bytes under the given password. The derived address
// is cached on the document since it is not secret.
func NewV3Keystore(opts NewV3KeystoreOpts) (*HDKeystore, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	wif, err := hdkey.KeyFromWIF(opts.WIF, opts.Net)
	if err != nil {
		return nil, err
	}
	keyBytes := wif.PrivKey.Serialize()
	defer zeroBytes(keyBytes)

	crypto, err := NewCrypto(NewCryptoOpts{
		Password:   opts.Password,
		PlainText:  keyBytes,
		Iterations: opts.KdfIterations,
	})
	if err != nil {
		return nil, err
	}

	address, err := opts.Encoder.EncodeAddress(wif.PrivKey.PubKey())
	if err != nil {
		return nil, err
	}

	metadata := opts.Metadata
	metadata.Source = SourceWIF
	metadata.WalletType = WalletTypeV3

	return &HDKeystore{
		ID:             uuid.NewString(),
		Version:        Version,
		Address:        address,
		Crypto:         crypto,
		ActiveAccounts: make([]*Account, 0),
		Metadata:       metadata,
	}, nil
}

// IsHD returns whether the keystore protects an HD master secret rather
// than a single imported key
func (ks *HDKeystore) IsHD() bool {
	return ks.Metadata.WalletType == WalletTypeHD
}

// ExportMnemonic reveals the recovery mnemonic, gated by the password
func (ks *HDKeystore) ExportMnemonic(password string) (string, error) {
	if ks.EncMnemonic == nil {
		return "", ErrNullMnemonic
	}
	mnemonic, err := ks.Crypto.DecryptEncPair(password, ks.EncMnemonic)
	if err != nil {
		return "", err
	}
	return string(mnemonic), nil
}

// ExportPrivateKey reveals the key material of a V3 keystore, gated by the
// password
func (ks *HDKeystore) ExportPrivateKey(password string) (*btcec.PrivateKey, error) {
	if ks.IsHD() {
		return nil, ErrNotHDKeystore
	}
	keyBytes, err := ks.Crypto.Decrypt(password)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(keyBytes)
	privKey, _ := btcec.PrivKeyFromBytes(keyBytes)
	return privKey, nil
}

// ChangePassword re-encrypts the master secret and the mnemonic pair under
// a new password. The document is mutated only on full success.
func (ks *HDKeystore) ChangePassword(oldPassword, newPassword string) error {
	if len(newPassword) <= 0 {
		return ErrNullPassword
	}
	secret, err := ks.Crypto.Decrypt(oldPassword)
	if err != nil {
		return err
	}
	defer zeroBytes(secret)

	var mnemonic []byte
	if ks.EncMnemonic != nil {
		mnemonic, err = ks.Crypto.DecryptEncPair(oldPassword, ks.EncMnemonic)
		if err != nil {
			return err
		}
		defer zeroBytes(mnemonic)
	}

	// a re-encrypted document keeps its kdf hardness
	crypto, err := NewCrypto(NewCryptoOpts{
		Password:   newPassword,
		PlainText:  secret,
		Iterations: ks.Crypto.KdfParams.C,
	})
	if err != nil {
		return err
	}
	var encMnemonic *EncPair
	if mnemonic != nil {
		encMnemonic, err = crypto.DeriveEncPair(newPassword, mnemonic)
		if err != nil {
			return err
		}
	}

	ks.Crypto = crypto
	if encMnemonic != nil {
		ks.EncMnemonic = encMnemonic
	}
	return nil
}

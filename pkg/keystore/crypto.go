package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/crypto/sha3"
)

var (
	// ErrInvalidPassword is the single error returned for every
	// authentication failure. Wrong password, corrupted cipher text and
	// tampered MAC are deliberately indistinguishable.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrCrypto ...
	ErrCrypto = errors.New("kdf or cipher failure")
	// ErrNullPassword ...
	ErrNullPassword = errors.New("password must not be null")
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
)

const (
	// CipherAES128CTR is the only supported symmetric cipher
	CipherAES128CTR = "aes-128-ctr"
	// KdfPbkdf2 ...
	KdfPbkdf2 = "pbkdf2"
	// KdfScrypt ...
	KdfScrypt = "scrypt"

	defaultIterations = 10240
	defaultKeyLength  = 32
	prfHmacSha256     = "hmac-sha256"
)

// KdfParams are the stored key-derivation parameters. Iteration count and
// prf are set for pbkdf2, n/r/p for scrypt.
type KdfParams struct {
	C     int    `json:"c,omitempty"`
	Prf   string `json:"prf,omitempty"`
	N     int    `json:"n,omitempty"`
	R     int    `json:"r,omitempty"`
	P     int    `json:"p,omitempty"`
	Dklen int    `json:"dklen"`
	Salt  string `json:"salt"`
}

// CipherParams holds the initialization vector of the cipher text
type CipherParams struct {
	IV string `json:"iv"`
}

// Crypto is the password-protected envelope of a keystore's master secret:
// cipher text, IV, KDF parameters and integrity MAC. It never holds the
// password or the plaintext.
type Crypto struct {
	Cipher       string       `json:"cipher"`
	CipherParams CipherParams `json:"cipherparams"`
	CipherText   string       `json:"ciphertext"`
	Kdf          string       `json:"kdf"`
	KdfParams    KdfParams    `json:"kdfparams"`
	Mac          string       `json:"mac"`
}

// EncPair is a secondary secret protected under the same password and KDF
// parameters as the primary cipher text, with its own nonce
type EncPair struct {
	EncStr string `json:"encStr"`
	Nonce  string `json:"nonce"`
}

// NewCryptoOpts is the struct given to NewCrypto method
type NewCryptoOpts struct {
	Password  string
	PlainText []byte
	// Iterations overrides the default pbkdf2 iteration count when positive
	Iterations int
}

func (o NewCryptoOpts) validate() error {
	if len(o.Password) <= 0 {
		return ErrNullPassword
	}
	if len(o.PlainText) <= 0 {
		return ErrNullPlainText
	}
	if o.Iterations < 0 {
		return ErrCrypto
	}
	return nil
}

// NewCrypto encrypts the given plaintext under a key derived from the
// password with pbkdf2, using a random salt and IV, and seals it with a
// keccak256 MAC
func NewCrypto(opts NewCryptoOpts) (*Crypto, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	iterations := opts.Iterations
	if iterations == 0 {
		iterations = defaultIterations
	}

	c := &Crypto{
		Cipher:       CipherAES128CTR,
		CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
		Kdf:          KdfPbkdf2,
		KdfParams: KdfParams{
			C:     iterations,
			Prf:   prfHmacSha256,
			Dklen: defaultKeyLength,
			Salt:  hex.EncodeToString(salt),
		},
	}

	derivedKey, err := c.deriveKey(opts.Password)
	if err != nil {
		return nil, err
	}
	cipherText, err := aesCTR(derivedKey[:16], iv, opts.PlainText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	c.CipherText = hex.EncodeToString(cipherText)
	c.Mac = hex.EncodeToString(computeMac(derivedKey, cipherText))
	return c, nil
}

// Decrypt re-derives the encryption key from the given password, verifies
// the MAC and returns the plaintext secret. Callers own the returned bytes
// and should zero them as soon as possible.
func (c *Crypto) Decrypt(password string) ([]byte, error) {
	if len(password) <= 0 {
		return nil, ErrInvalidPassword
	}
	derivedKey, err := c.deriveKey(password)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(c.CipherText)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	mac, err := hex.DecodeString(c.Mac)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	if !hmac.Equal(mac, computeMac(derivedKey, cipherText)) {
		return nil, ErrInvalidPassword
	}

	iv, err := hex.DecodeString(c.CipherParams.IV)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	plainText, err := aesCTR(derivedKey[:16], iv, cipherText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return plainText, nil
}

// VerifyPassword reports whether the given password opens the envelope
func (c *Crypto) VerifyPassword(password string) bool {
	plainText, err := c.Decrypt(password)
	if err != nil {
		return false
	}
	zeroBytes(plainText)
	return true
}

// DeriveEncPair protects an auxiliary secret under the same password and
// KDF parameters as the primary cipher text, with a fresh nonce
func (c *Crypto) DeriveEncPair(password string, plainText []byte) (*EncPair, error) {
	if len(plainText) <= 0 {
		return nil, ErrNullPlainText
	}
	// authenticate the password against the primary envelope first
	secret, err := c.Decrypt(password)
	if err != nil {
		return nil, err
	}
	zeroBytes(secret)

	derivedKey, err := c.deriveKey(password)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aes.BlockSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	encrypted, err := aesCTR(derivedKey[:16], nonce, plainText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return &EncPair{
		EncStr: hex.EncodeToString(encrypted),
		Nonce:  hex.EncodeToString(nonce),
	}, nil
}

// DecryptEncPair opens an auxiliary secret sealed with DeriveEncPair
func (c *Crypto) DecryptEncPair(password string, pair *EncPair) ([]byte, error) {
	if pair == nil {
		return nil, ErrInvalidPassword
	}
	// the primary MAC is the password oracle for the whole envelope
	secret, err := c.Decrypt(password)
	if err != nil {
		return nil, err
	}
	zeroBytes(secret)

	derivedKey, err := c.deriveKey(password)
	if err != nil {
		return nil, err
	}
	encrypted, err := hex.DecodeString(pair.EncStr)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	nonce, err := hex.DecodeString(pair.Nonce)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	plainText, err := aesCTR(derivedKey[:16], nonce, encrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return plainText, nil
}

func (c *Crypto) deriveKey(password string) ([]byte, error) {
	salt, err := hex.DecodeString(c.KdfParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed salt", ErrCrypto)
	}

	switch c.Kdf {
	case KdfPbkdf2:
		return pbkdf2.Key(
			[]byte(password), salt, c.KdfParams.C, c.KdfParams.Dklen, sha256.New,
		), nil
	case KdfScrypt:
		key, err := scrypt.Key(
			[]byte(password), salt,
			c.KdfParams.N, c.KdfParams.R, c.KdfParams.P, c.KdfParams.Dklen,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unsupported kdf %s", ErrCrypto, c.Kdf)
	}
}

// mac = keccak256(derivedKey[16:32] || ciphertext)
func computeMac(derivedKey, cipherText []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(derivedKey[16:32])
	hash.Write(cipherText)
	return hash.Sum(nil)
}

func aesCTR(key, iv, data []byte) ([]byte, error) {
	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCTR(blockCipher, iv).XORKeyStream(out, data)
	return out, nil
}

func zeroBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

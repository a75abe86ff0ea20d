package keystore

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	buf, err := hex.DecodeString(s)
	require.NoError(t, err)
	return buf
}

func hexString(buf []byte) string {
	return hex.EncodeToString(buf)
}

const testPassword = "Insecure Pa55w0rd"

func TestCryptoRoundTrip(t *testing.T) {
	secret := []byte("super secret master key material")

	crypto, err := NewCrypto(NewCryptoOpts{
		Password:  testPassword,
		PlainText: secret,
	})
	require.NoError(t, err)
	assert.Equal(t, CipherAES128CTR, crypto.Cipher)
	assert.Equal(t, KdfPbkdf2, crypto.Kdf)
	assert.NotContains(t, crypto.CipherText, string(secret))

	revealed, err := crypto.Decrypt(testPassword)
	require.NoError(t, err)
	assert.Equal(t, secret, revealed)
}

func TestDecryptWithWrongPassword(t *testing.T) {
	crypto, err := NewCrypto(NewCryptoOpts{
		Password:  testPassword,
		PlainText: []byte("secret"),
	})
	require.NoError(t, err)

	_, err = crypto.Decrypt("wrong password")
	assert.Equal(t, ErrInvalidPassword, err)

	_, err = crypto.Decrypt("")
	assert.Equal(t, ErrInvalidPassword, err)

	// a tampered cipher text is indistinguishable from a wrong password
	tampered := *crypto
	tampered.CipherText = "00" + crypto.CipherText[2:]
	_, err = tampered.Decrypt(testPassword)
	assert.Equal(t, ErrInvalidPassword, err)
}

func TestCryptoCustomIterations(t *testing.T) {
	crypto, err := NewCrypto(NewCryptoOpts{
		Password:   testPassword,
		PlainText:  []byte("secret"),
		Iterations: 4096,
	})
	require.NoError(t, err)
	assert.Equal(t, 4096, crypto.KdfParams.C)

	revealed, err := crypto.Decrypt(testPassword)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), revealed)

	_, err = NewCrypto(NewCryptoOpts{
		Password:   testPassword,
		PlainText:  []byte("secret"),
		Iterations: -1,
	})
	assert.Equal(t, ErrCrypto, err)
}

func TestFailingNewCrypto(t *testing.T) {
	tests := []struct {
		opts NewCryptoOpts
		err  error
	}{
		{NewCryptoOpts{Password: "", PlainText: []byte("secret")}, ErrNullPassword},
		{NewCryptoOpts{Password: testPassword, PlainText: nil}, ErrNullPlainText},
	}
	for _, tt := range tests {
		_, err := NewCrypto(tt.opts)
		assert.Equal(t, tt.err, err)
	}
}

func TestEncPairRoundTrip(t *testing.T) {
	crypto, err := NewCrypto(NewCryptoOpts{
		Password:  testPassword,
		PlainText: []byte("primary secret"),
	})
	require.NoError(t, err)

	pair, err := crypto.DeriveEncPair(testPassword, []byte("auxiliary secret"))
	require.NoError(t, err)
	assert.NotEqual(t, pair.Nonce, crypto.CipherParams.IV)

	revealed, err := crypto.DecryptEncPair(testPassword, pair)
	require.NoError(t, err)
	assert.Equal(t, []byte("auxiliary secret"), revealed)

	_, err = crypto.DeriveEncPair("wrong password", []byte("auxiliary secret"))
	assert.Equal(t, ErrInvalidPassword, err)
	_, err = crypto.DecryptEncPair("wrong password", pair)
	assert.Equal(t, ErrInvalidPassword, err)
	_, err = crypto.DecryptEncPair(testPassword, nil)
	assert.Equal(t, ErrInvalidPassword, err)
}

func TestScryptKdf(t *testing.T) {
	crypto, err := NewCrypto(NewCryptoOpts{
		Password:  testPassword,
		PlainText: []byte("secret"),
	})
	require.NoError(t, err)

	// rewrite the envelope with scrypt parameters: decrypting must keep
	// working since the kdf is chosen from the stored document
	secret, err := crypto.Decrypt(testPassword)
	require.NoError(t, err)

	scryptCrypto := &Crypto{
		Cipher:       crypto.Cipher,
		CipherParams: crypto.CipherParams,
		Kdf:          KdfScrypt,
		KdfParams: KdfParams{
			N:     1 << 12,
			R:     8,
			P:     1,
			Dklen: 32,
			Salt:  crypto.KdfParams.Salt,
		},
	}
	derivedKey, err := scryptCrypto.deriveKey(testPassword)
	require.NoError(t, err)
	cipherText, err := aesCTR(derivedKey[:16], mustHex(t, crypto.CipherParams.IV), secret)
	require.NoError(t, err)
	scryptCrypto.CipherText = hexString(cipherText)
	scryptCrypto.Mac = hexString(computeMac(derivedKey, cipherText))

	revealed, err := scryptCrypto.Decrypt(testPassword)
	require.NoError(t, err)
	assert.Equal(t, secret, revealed)
}

func TestCryptoJSONShape(t *testing.T) {
	crypto, err := NewCrypto(NewCryptoOpts{
		Password:  testPassword,
		PlainText: []byte("secret"),
	})
	require.NoError(t, err)

	buf, err := json.Marshal(crypto)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf, &doc))
	for _, field := range []string{
		"cipher", "cipherparams", "ciphertext", "kdf", "kdfparams", "mac",
	} {
		assert.Contains(t, doc, field)
	}
	kdfParams := doc["kdfparams"].(map[string]interface{})
	assert.EqualValues(t, defaultIterations, kdfParams["c"])
	assert.Equal(t, prfHmacSha256, kdfParams["prf"])

	var decoded Crypto
	require.NoError(t, json.Unmarshal(buf, &decoded))
	revealed, err := decoded.Decrypt(testPassword)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), revealed)
}

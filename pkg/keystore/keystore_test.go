package keystore

import (
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletkit/walletkit/pkg/chain"
	"github.com/walletkit/walletkit/pkg/hdkey"
)

const testMnemonic = "inject kidney empty canal shadow pact comfort wife crush horse wife sketch"

func mustLegacyAddress(
	t *testing.T, params *chain.Params, privKey *btcec.PrivateKey,
) string {
	t.Helper()
	addr, err := chain.LegacyAddressFromPublicKey(privKey.PubKey(), params)
	require.NoError(t, err)
	return addr
}

func newTestKeystore(t *testing.T) *HDKeystore {
	t.Helper()
	ks, err := NewHDKeystore(NewHDKeystoreOpts{
		Mnemonic: testMnemonic,
		Password: testPassword,
		Path:     "m/44'/145'/0'/0/0",
		Metadata: DefaultMetadata(),
	})
	require.NoError(t, err)
	return ks
}

func TestNewHDKeystore(t *testing.T) {
	ks := newTestKeystore(t)

	assert.Equal(t, Version, ks.Version)
	assert.NotEmpty(t, ks.ID)
	assert.True(t, ks.IsHD())
	assert.NotNil(t, ks.EncMnemonic)
	assert.Empty(t, ks.ActiveAccounts)

	mnemonic, err := ks.ExportMnemonic(testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)

	_, err = ks.ExportMnemonic("wrong password")
	assert.Equal(t, ErrInvalidPassword, err)
}

func TestFailingNewHDKeystore(t *testing.T) {
	tests := []struct {
		opts NewHDKeystoreOpts
		err  error
	}{
		{
			opts: NewHDKeystoreOpts{Mnemonic: testMnemonic, Password: ""},
			err:  ErrNullPassword,
		},
		{
			opts: NewHDKeystoreOpts{Mnemonic: "not a mnemonic", Password: testPassword},
			err:  hdkey.ErrInvalidMnemonic,
		},
	}
	for _, tt := range tests {
		_, err := NewHDKeystore(tt.opts)
		assert.Equal(t, tt.err, err)
	}
}

func TestDeriveAccount(t *testing.T) {
	ks := newTestKeystore(t)
	params, err := chain.ParamsForCoin("BCH")
	require.NoError(t, err)

	account, err := ks.DeriveAccount(DeriveAccountOpts{
		Password: testPassword,
		Coin: CoinInfo{
			Symbol:         "BCH",
			DerivationPath: params.DerivationPath,
		},
		Net:     params.Net,
		Encoder: params,
	})
	require.NoError(t, err)
	assert.Equal(t, "BCH", account.Coin)
	assert.Equal(t, "m/44'/145'/0'/0/0", account.DerivationPath)
	assert.Equal(t, CurveSecp256k1, account.Curve)
	assert.NotEmpty(t, account.XPub)
	assert.Equal(t, account.Address, ks.Address)

	// lookup is case insensitive, absence is nil
	assert.Equal(t, account, ks.Account("bch"))
	assert.Nil(t, ks.Account("LTC"))

	_, err = ks.DeriveAccount(DeriveAccountOpts{
		Password: testPassword,
		Coin: CoinInfo{
			Symbol:         "BCH",
			DerivationPath: params.DerivationPath,
		},
		Net:     params.Net,
		Encoder: params,
	})
	assert.Equal(t, ErrDuplicateAccount, err)
}

func TestDeriveAccountKnownAddress(t *testing.T) {
	// vector: this mnemonic at m/44'/60'/0'/0/0 hashes to the legacy
	// address below
	ks := newTestKeystore(t)
	params, err := chain.ParamsForCoin("BTC")
	require.NoError(t, err)

	account, err := ks.DeriveAccount(DeriveAccountOpts{
		Password: testPassword,
		Coin: CoinInfo{
			Symbol:         "BTC",
			DerivationPath: "m/44'/60'/0'/0/0",
		},
		Net:     params.Net,
		Encoder: params,
	})
	require.NoError(t, err)
	assert.Equal(t, "16Hp1Ga779iaTe1TxUFDEBqNCGvfh3EHDZ", account.Address)
}

func TestKeyAtPaths(t *testing.T) {
	ks := newTestKeystore(t)

	keys, err := ks.KeyAtPaths(KeyAtPathsOpts{
		Paths:    []string{"m/44'/145'/0'/0/0", "m/44'/145'/0'/0/1"},
		Password: testPassword,
	})
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0].Serialize(), keys[1].Serialize())

	// derivation is deterministic
	again, err := ks.KeyAtPaths(KeyAtPathsOpts{
		Paths:    []string{"m/44'/145'/0'/0/0"},
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, keys[0].Serialize(), again[0].Serialize())

	_, err = ks.KeyAtPaths(KeyAtPathsOpts{
		Paths:    []string{"m/44'/145'/0'/0/0"},
		Password: "wrong password",
	})
	assert.Equal(t, ErrInvalidPassword, err)
}

func TestDerivePublicKeyAtPath(t *testing.T) {
	ks := newTestKeystore(t)
	params, _ := chain.ParamsForCoin("BCH")

	account, err := ks.DeriveAccount(DeriveAccountOpts{
		Password: testPassword,
		Coin: CoinInfo{
			Symbol:         "BCH",
			DerivationPath: params.DerivationPath,
		},
		Net:     params.Net,
		Encoder: params,
	})
	require.NoError(t, err)

	// public derivation from the cached xpub must match private derivation
	// from the master secret
	pub, err := DerivePublicKeyAtPath(account.XPub, "0/1")
	require.NoError(t, err)

	keys, err := ks.KeyAtPaths(KeyAtPathsOpts{
		Paths:    []string{"m/44'/145'/0'/0/1"},
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t,
		keys[0].PubKey().SerializeCompressed(), pub.SerializeCompressed(),
	)

	_, err = DerivePublicKeyAtPath(account.XPub, "0'/1")
	assert.Equal(t, hdkey.ErrHardenedComponent, err)
}

func TestNewV3Keystore(t *testing.T) {
	params, _ := chain.ParamsForCoin("BTC")

	ks, err := NewV3Keystore(NewV3KeystoreOpts{
		WIF:      "L1uyy5qTuGrVXrmrsvHWHgVzW9kKdrp27wBC7Vs6nZDTF2BRUVwy",
		Password: testPassword,
		Net:      params.Net,
		Encoder:  params,
		Metadata: DefaultMetadata(),
	})
	require.NoError(t, err)
	assert.Equal(t, "17XBj6iFEsf8kzDMGQk5ghZipxX49VXuaV", ks.Address)
	assert.Equal(t, SourceWIF, ks.Metadata.Source)
	assert.False(t, ks.IsHD())

	privKey, err := ks.ExportPrivateKey(testPassword)
	require.NoError(t, err)
	assert.Equal(t,
		"17XBj6iFEsf8kzDMGQk5ghZipxX49VXuaV",
		mustLegacyAddress(t, params, privKey),
	)

	_, err = ks.KeyAtPaths(KeyAtPathsOpts{
		Paths:    []string{"m/44'/0'/0'/0/0"},
		Password: testPassword,
	})
	assert.Equal(t, ErrNotHDKeystore, err)
}

func TestKeystoreKdfIterations(t *testing.T) {
	ks, err := NewHDKeystore(NewHDKeystoreOpts{
		Mnemonic:      testMnemonic,
		Password:      testPassword,
		Metadata:      DefaultMetadata(),
		KdfIterations: 4096,
	})
	require.NoError(t, err)
	assert.Equal(t, 4096, ks.Crypto.KdfParams.C)

	// the hardness survives a password change
	require.NoError(t, ks.ChangePassword(testPassword, "new password"))
	assert.Equal(t, 4096, ks.Crypto.KdfParams.C)

	mnemonic, err := ks.ExportMnemonic("new password")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)
}

func TestChangePassword(t *testing.T) {
	ks := newTestKeystore(t)

	require.NoError(t, ks.ChangePassword(testPassword, "new password"))

	mnemonic, err := ks.ExportMnemonic("new password")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)

	_, err = ks.Crypto.Decrypt(testPassword)
	assert.Equal(t, ErrInvalidPassword, err)

	assert.Equal(t, ErrInvalidPassword, ks.ChangePassword("stale password", "other"))
}

func TestKeystoreJSONRoundTrip(t *testing.T) {
	ks := newTestKeystore(t)
	params, _ := chain.ParamsForCoin("BCH")
	_, err := ks.DeriveAccount(DeriveAccountOpts{
		Password: testPassword,
		Coin: CoinInfo{
			Symbol:         "BCH",
			DerivationPath: params.DerivationPath,
		},
		Net:     params.Net,
		Encoder: params,
	})
	require.NoError(t, err)

	buf, err := json.Marshal(ks)
	require.NoError(t, err)

	// wire-stable field names
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf, &doc))
	for _, field := range []string{
		"id", "version", "address", "crypto", "mnemonicPath", "encMnemonic",
		"activeAccounts", "metadata",
	} {
		assert.Contains(t, doc, field)
	}
	// no secret material in the clear
	assert.NotContains(t, string(buf), testMnemonic)

	var decoded HDKeystore
	require.NoError(t, json.Unmarshal(buf, &decoded))
	mnemonic, err := decoded.ExportMnemonic(testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)
	require.NotNil(t, decoded.Account("BCH"))
	assert.Equal(t, ks.Account("BCH").XPub, decoded.Account("BCH").XPub)
}

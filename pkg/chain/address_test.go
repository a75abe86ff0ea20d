package chain

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsForCoin(t *testing.T) {
	for _, symbol := range []string{"BTC", "btc", "BCH", "LTC", "ltc-testnet"} {
		params, err := ParamsForCoin(symbol)
		require.NoError(t, err)
		require.NotNil(t, params.Net)
	}

	_, err := ParamsForCoin("DOGE")
	assert.Equal(t, ErrUnsupportedChain, err)

	bch, _ := ParamsForCoin("BCH")
	assert.EqualValues(t, 0x40, bch.ForkID)
	btc, _ := ParamsForCoin("BTC")
	assert.EqualValues(t, 0, btc.ForkID)
}

func TestAddressFromWIFPublicKey(t *testing.T) {
	wif, err := btcutil.DecodeWIF("L1uyy5qTuGrVXrmrsvHWHgVzW9kKdrp27wBC7Vs6nZDTF2BRUVwy")
	require.NoError(t, err)

	btc, _ := ParamsForCoin("BTC")
	addr, err := AddressFromPublicKey(wif.PrivKey.PubKey(), btc)
	require.NoError(t, err)
	assert.Equal(t, "17XBj6iFEsf8kzDMGQk5ghZipxX49VXuaV", addr)

	// the same key on BCH yields the cash form of the same pubkey hash
	bch, _ := ParamsForCoin("BCH")
	cashAddr, err := AddressFromPublicKey(wif.PrivKey.PubKey(), bch)
	require.NoError(t, err)
	legacy, err := ToLegacyAddress(cashAddr, bch)
	require.NoError(t, err)
	assert.Equal(t, "17XBj6iFEsf8kzDMGQk5ghZipxX49VXuaV", legacy)
}

func TestScriptPubKey(t *testing.T) {
	tests := []struct {
		coin     string
		address  string
		expected string
	}{
		{
			coin:     "BTC",
			address:  "1Gokm82v6DmtwKEB8AiVhm82hyFSsEvBDK",
			expected: "76a914ad618cf4333b3b248f9744e8e81db2964d0ae39788ac",
		},
		{
			coin:     "BCH",
			address:  "17XBj6iFEsf8kzDMGQk5ghZipxX49VXuaV",
			expected: "76a91447862fe165e6121af80d5dde1ecb478ed170565b88ac",
		},
		{
			coin:     "LTC",
			address:  "M7xo1Mi1gULZSwgvu7VVEvrwMRqngmFkVd",
			expected: "a91400aff21f24bc08af58e41e4186d8492a10b84f9e87",
		},
		{
			coin:     "LTC-TESTNET",
			address:  "mrU9pEmAx26HcbKVrABvgL7AwA5fjNFoDc",
			expected: "76a9147821c0a3768aa9d1a37e16cf76002aef5373f1a888ac",
		},
	}

	for _, tt := range tests {
		params, err := ParamsForCoin(tt.coin)
		require.NoError(t, err)
		script, err := ScriptPubKey(tt.address, params)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, hex.EncodeToString(script))
	}
}

func TestScriptPubKeyRejectsForeignAddress(t *testing.T) {
	ltc, _ := ParamsForCoin("LTC")
	_, err := ScriptPubKey("not-an-address", ltc)
	assert.ErrorIs(t, err, ErrAddressEncoding)
}

func TestIsValidAddress(t *testing.T) {
	btc, _ := ParamsForCoin("BTC")
	bch, _ := ParamsForCoin("BCH")
	ltc, _ := ParamsForCoin("LTC")

	assert.True(t, IsValidAddress("1Gokm82v6DmtwKEB8AiVhm82hyFSsEvBDK", btc))
	assert.True(t, IsValidAddress("17XBj6iFEsf8kzDMGQk5ghZipxX49VXuaV", bch))
	assert.True(t, IsValidAddress(
		"bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a", bch,
	))
	assert.True(t, IsValidAddress("MV3hqxhhcGxCdeLXpZKRCabtUApRXixgid", ltc))

	assert.False(t, IsValidAddress("1Gokm82v6DmtwKEB8AiVhm82hyFSsEvBDJ", btc))
	assert.False(t, IsValidAddress(
		"bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6b", bch,
	))
	assert.False(t, IsValidAddress("", btc))
}

func TestAddressLike(t *testing.T) {
	wif, err := btcutil.DecodeWIF("L1uyy5qTuGrVXrmrsvHWHgVzW9kKdrp27wBC7Vs6nZDTF2BRUVwy")
	require.NoError(t, err)
	pub := wif.PrivKey.PubKey()

	// legacy template keeps the change in legacy form
	btc, _ := ParamsForCoin("BTC")
	addr, err := AddressLike("1Gokm82v6DmtwKEB8AiVhm82hyFSsEvBDK", pub, btc)
	require.NoError(t, err)
	assert.Equal(t, "17XBj6iFEsf8kzDMGQk5ghZipxX49VXuaV", addr)

	// script-hash template keeps the change wrapped
	ltc, _ := ParamsForCoin("LTC")
	addr, err = AddressLike("MV3hqxhhcGxCdeLXpZKRCabtUApRXixgid", pub, ltc)
	require.NoError(t, err)
	assert.Equal(t, byte('M'), addr[0])
}

package chain

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrUnsupportedChain ...
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrAddressEncoding ...
	ErrAddressEncoding = errors.New("address encoding failed")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("address is not valid for the chain")
)

// Params bundles everything that distinguishes one Bitcoin-protocol fork
// from another: base58/bech32 constants, extended key version bytes, the
// replay-protection fork id and the coin's default BIP44 derivation path.
type Params struct {
	Name           string
	Symbol         string
	Net            *chaincfg.Params
	ForkID         byte
	UseCashAddr    bool
	CashAddrPrefix string
	DerivationPath string
}

// LitecoinMainNetParams are the serialization parameters of the Litecoin
// main network (Ltpv/Ltub extended keys, L/M address prefixes)
var LitecoinMainNetParams = chaincfg.Params{
	Name:             "ltc-mainnet",
	Net:              wire.BitcoinNet(0xdbb6c0fb),
	DefaultPort:      "9333",
	Bech32HRPSegwit:  "ltc",
	PubKeyHashAddrID: 0x30,
	ScriptHashAddrID: 0x32,
	PrivateKeyID:     0xb0,
	HDPrivateKeyID:   [4]byte{0x01, 0x9d, 0x9c, 0xfe},
	HDPublicKeyID:    [4]byte{0x01, 0x9d, 0xa4, 0x62},
	HDCoinType:       2,
}

// LitecoinTestNet4Params are the serialization parameters of the Litecoin
// test network
var LitecoinTestNet4Params = chaincfg.Params{
	Name:             "ltc-testnet4",
	Net:              wire.BitcoinNet(0xf1c8d2fd),
	DefaultPort:      "19335",
	Bech32HRPSegwit:  "tltc",
	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0x3a,
	PrivateKeyID:     0xef,
	HDPrivateKeyID:   [4]byte{0x04, 0x35, 0x83, 0x94},
	HDPublicKeyID:    [4]byte{0x04, 0x35, 0x87, 0xcf},
	HDCoinType:       1,
}

func init() {
	// hdkeychain needs the HD version bytes registered to neuter keys
	// serialized with non-Bitcoin prefixes
	for _, params := range []*chaincfg.Params{
		&LitecoinMainNetParams, &LitecoinTestNet4Params,
	} {
		if err := chaincfg.Register(params); err != nil &&
			err != chaincfg.ErrDuplicateNet {
			panic(err)
		}
	}
}

var supportedChains = map[string]*Params{
	"BTC": {
		Name:           "Bitcoin",
		Symbol:         "BTC",
		Net:            &chaincfg.MainNetParams,
		DerivationPath: "m/44'/0'/0'/0/0",
	},
	"BTC-TESTNET": {
		Name:           "Bitcoin Testnet",
		Symbol:         "BTC-TESTNET",
		Net:            &chaincfg.TestNet3Params,
		DerivationPath: "m/44'/1'/0'/0/0",
	},
	"BCH": {
		Name:           "Bitcoin Cash",
		Symbol:         "BCH",
		Net:            &chaincfg.MainNetParams,
		ForkID:         0x40,
		UseCashAddr:    true,
		CashAddrPrefix: "bitcoincash",
		DerivationPath: "m/44'/145'/0'/0/0",
	},
	"BCH-TESTNET": {
		Name:           "Bitcoin Cash Testnet",
		Symbol:         "BCH-TESTNET",
		Net:            &chaincfg.TestNet3Params,
		ForkID:         0x40,
		UseCashAddr:    true,
		CashAddrPrefix: "bchtest",
		DerivationPath: "m/44'/1'/0'/0/0",
	},
	"LTC": {
		Name:           "Litecoin",
		Symbol:         "LTC",
		Net:            &LitecoinMainNetParams,
		DerivationPath: "m/44'/2'/0'/0/0",
	},
	"LTC-TESTNET": {
		Name:           "Litecoin Testnet",
		Symbol:         "LTC-TESTNET",
		Net:            &LitecoinTestNet4Params,
		DerivationPath: "m/44'/1'/0'/0/0",
	},
}

// ParamsForCoin returns the chain parameters registered for the given coin
// symbol, case insensitively
func ParamsForCoin(symbol string) (*Params, error) {
	params, ok := supportedChains[strings.ToUpper(symbol)]
	if !ok {
		return nil, ErrUnsupportedChain
	}
	return params, nil
}

// SupportedCoins lists the registered coin symbols
func SupportedCoins() []string {
	coins := make([]string, 0, len(supportedChains))
	for symbol := range supportedChains {
		coins = append(coins, symbol)
	}
	return coins
}

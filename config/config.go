package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/walletkit/walletkit/pkg/chain"
)

const (
	// DatadirKey is the local data directory where keystore documents are stored
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DefaultCoinKey is the coin symbol used when a command does not name one
	DefaultCoinKey = "DEFAULT_COIN"
	// KdfIterationsKey is the pbkdf2 iteration count for new keystore documents
	KdfIterationsKey = "KDF_ITERATIONS"

	KeystoreLocation = "keystores"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("walletkit", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("WALLETKIT")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DefaultCoinKey, "BTC")
	vip.SetDefault(KdfIterationsKey, 10240)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetKeystoreDir returns the directory holding the keystore documents
func GetKeystoreDir() string {
	return filepath.Join(GetDatadir(), KeystoreLocation)
}

// GetDefaultCoin returns the chain parameters of the configured default coin
func GetDefaultCoin() (*chain.Params, error) {
	return chain.ParamsForCoin(GetString(DefaultCoinKey))
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	if _, err := chain.ParamsForCoin(GetString(DefaultCoinKey)); err != nil {
		return fmt.Errorf(
			"default coin must be one of %v", chain.SupportedCoins(),
		)
	}

	if iterations := GetInt(KdfIterationsKey); iterations <= 0 {
		return fmt.Errorf("kdf iterations must be a positive number")
	}
	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(GetKeystoreDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

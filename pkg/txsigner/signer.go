package txsigner

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/walletkit/walletkit/pkg/chain"
	"github.com/walletkit/walletkit/pkg/hdkey"
	"github.com/walletkit/walletkit/pkg/keystore"
)

var (
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("no account derived for the coin")
	// ErrInsufficientFunds ...
	ErrInsufficientFunds = errors.New(
		"total unspent amount must cover amount plus fee",
	)
	// ErrEmptyUnspents ...
	ErrEmptyUnspents = errors.New("unspent list must not be empty")
	// ErrNullDestination ...
	ErrNullDestination = errors.New("destination address must not be null")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must be positive and fee non-negative")
	// ErrKeyCountMismatch ...
	ErrKeyCountMismatch = errors.New(
		"length of tx inputs and private keys must match",
	)
)

// DustThreshold is the smallest change value worth creating as an output.
// Anything at or below it is left to the miners as extra fee.
const DustThreshold = 546

// SignTransactionOpts is the struct given to SignTransaction method
type SignTransactionOpts struct {
	To          string  `json:"to"`
	Amount      int64   `json:"amount"`
	Fee         int64   `json:"fee"`
	Unspents    []*Utxo `json:"unspents"`
	ChangeIndex uint32  `json:"changeIdx"`
	Coin        string  `json:"coin"`
	SegWit      bool    `json:"segWit"`
	Password    string  `json:"password,omitempty"`
}

func (o SignTransactionOpts) validate() error {
	if len(o.To) <= 0 {
		return ErrNullDestination
	}
	if o.Amount <= 0 || o.Fee < 0 {
		return ErrInvalidAmount
	}
	if len(o.Unspents) <= 0 {
		return ErrEmptyUnspents
	}
	if len(o.Password) <= 0 {
		return keystore.ErrInvalidPassword
	}
	return nil
}

// TxSignResult is the outcome of a successful signing call: the serialized
// transaction, its id and, for segwit transactions, the witness id
type TxSignResult struct {
	Signature string `json:"signature"`
	TxHash    string `json:"txHash"`
	WtxID     string `json:"wtxId"`
}

// SignTransaction builds, signs and serializes a transfer spending the
// given unspents. Funds and paths are checked before the keystore is
// unlocked; decrypted key material lives only for the duration of the call.
// Either a fully signed transaction or an error is returned, never partial
// signing state.
func SignTransaction(
	ks *keystore.HDKeystore, opts SignTransactionOpts,
) (*TxSignResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	params, err := chain.ParamsForCoin(opts.Coin)
	if err != nil {
		return nil, err
	}
	account := ks.Account(opts.Coin)
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if totalAmount(opts.Unspents) < opts.Amount+opts.Fee {
		return nil, ErrInsufficientFunds
	}

	paths, err := collectKeyPaths(account.DerivationPath, opts.Unspents)
	if err != nil {
		return nil, err
	}

	privKeys, err := ks.KeyAtPaths(keystore.KeyAtPathsOpts{
		Paths:    paths,
		Password: opts.Password,
		Net:      params.Net,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, privKey := range privKeys {
			privKey.Zero()
		}
	}()

	changeAddr, err := changeAddress(account, params, opts)
	if err != nil {
		return nil, err
	}

	return signWithKeys(params, opts, privKeys, changeAddr)
}

// collectKeyPaths resolves each unspent's two-element relative path against
// the account-level prefix of the given derivation path
func collectKeyPaths(accountDerivationPath string, unspents []*Utxo) ([]string, error) {
	accountPath, err := hdkey.AccountPath(accountDerivationPath)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(unspents))
	for _, unspent := range unspents {
		relativePath, err := unspent.relativePath()
		if err != nil {
			return nil, err
		}
		paths = append(paths, fmt.Sprintf("%s/%s", accountPath, relativePath))
	}
	return paths, nil
}

// changeAddress derives the change public key at 0/<index> from the
// account's cached xpub and encodes it with the same script class as the
// first unspent's (legacy-converted) address
func changeAddress(
	account *keystore.Account, params *chain.Params, opts SignTransactionOpts,
) (string, error) {
	template, err := chain.ToLegacyAddress(opts.Unspents[0].Address, params)
	if err != nil {
		return "", err
	}
	changePubKey, err := keystore.DerivePublicKeyAtPath(
		account.XPub, fmt.Sprintf("0/%d", opts.ChangeIndex),
	)
	if err != nil {
		return "", err
	}
	return chain.AddressLike(template, changePubKey, params)
}

// signWithKeys runs steps 4-8 of the signing pipeline with already-derived
// keys: build outputs and inputs, compute one signature per input with the
// chain's sighash flavor, assemble and serialize
func signWithKeys(
	params *chain.Params,
	opts SignTransactionOpts,
	privKeys []*btcec.PrivateKey,
	changeAddress string,
) (*TxSignResult, error) {
	if len(privKeys) != len(opts.Unspents) {
		return nil, ErrKeyCountMismatch
	}

	version := int32(1)
	if opts.SegWit {
		version = 2
	}
	msgTx := wire.NewMsgTx(version)

	receiveScript, err := chain.ScriptPubKey(opts.To, params)
	if err != nil {
		return nil, err
	}
	msgTx.AddTxOut(wire.NewTxOut(opts.Amount, receiveScript))

	change := totalAmount(opts.Unspents) - opts.Amount - opts.Fee
	if change > DustThreshold {
		changeScript, err := chain.ScriptPubKey(changeAddress, params)
		if err != nil {
			return nil, err
		}
		msgTx.AddTxOut(wire.NewTxOut(change, changeScript))
	}

	for _, unspent := range opts.Unspents {
		prevHash, err := chainhash.NewHashFromStr(unspent.TxHash)
		if err != nil {
			return nil, fmt.Errorf("invalid unspent tx hash: %v", err)
		}
		txIn := wire.NewTxIn(
			wire.NewOutPoint(prevHash, unspent.Vout), nil, nil,
		)
		txIn.Sequence = wire.MaxTxInSequenceNum
		msgTx.AddTxIn(txIn)
	}

	hashType := txscript.SigHashType(
		uint32(txscript.SigHashAll) | uint32(params.ForkID),
	)
	switch {
	case opts.SegWit:
		err = signWitness(msgTx, opts.Unspents, privKeys, hashType)
	case params.ForkID != 0:
		err = signForkID(params, msgTx, opts.Unspents, privKeys, hashType)
	default:
		err = signLegacy(msgTx, privKeys, hashType)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := msgTx.Serialize(&buf); err != nil {
		return nil, err
	}

	wtxID := ""
	if opts.SegWit {
		wtxID = msgTx.WitnessHash().String()
	}
	return &TxSignResult{
		Signature: hex.EncodeToString(buf.Bytes()),
		TxHash:    msgTx.TxHash().String(),
		WtxID:     wtxID,
	}, nil
}

// signLegacy computes the pre-segwit sighash for every input over the
// signer's own P2PKH script. Only for chains without replay protection;
// fork-id chains take the commitment-hash path instead.
func signLegacy(
	msgTx *wire.MsgTx, privKeys []*btcec.PrivateKey, hashType txscript.SigHashType,
) error {
	for i, txIn := range msgTx.TxIn {
		pubKey := privKeys[i].PubKey()
		script, err := p2pkhScript(pubKey)
		if err != nil {
			return err
		}
		sigHash, err := txscript.CalcSignatureHash(script, hashType, msgTx, i)
		if err != nil {
			return err
		}
		sigBytes := signHash(privKeys[i], sigHash, hashType)

		scriptSig, err := txscript.NewScriptBuilder().
			AddData(sigBytes).
			AddData(pubKey.SerializeCompressed()).
			Script()
		if err != nil {
			return err
		}
		txIn.SignatureScript = scriptSig
	}
	return nil
}

// signForkID computes the BIP143-style commitment hash that replay-protected
// chains mandate for every input, segwit or not, over the unspent's own
// locking script and amount. The signature still travels in a plain P2PKH
// unlocking script, without witness data.
func signForkID(
	params *chain.Params,
	msgTx *wire.MsgTx,
	unspents []*Utxo,
	privKeys []*btcec.PrivateKey,
	hashType txscript.SigHashType,
) error {
	scripts := make([][]byte, len(unspents))
	prevOuts := txscript.NewMultiPrevOutFetcher(nil)
	for i, txIn := range msgTx.TxIn {
		script, err := lockingScript(unspents[i], params, privKeys[i].PubKey())
		if err != nil {
			return err
		}
		scripts[i] = script
		prevOuts.AddPrevOut(
			txIn.PreviousOutPoint,
			wire.NewTxOut(unspents[i].Amount, script),
		)
	}
	sigHashes := txscript.NewTxSigHashes(msgTx, prevOuts)

	for i, txIn := range msgTx.TxIn {
		sigHash, err := txscript.CalcWitnessSigHash(
			scripts[i], sigHashes, hashType, msgTx, i, unspents[i].Amount,
		)
		if err != nil {
			return err
		}
		sigBytes := signHash(privKeys[i], sigHash, hashType)

		scriptSig, err := txscript.NewScriptBuilder().
			AddData(sigBytes).
			AddData(privKeys[i].PubKey().SerializeCompressed()).
			Script()
		if err != nil {
			return err
		}
		txIn.SignatureScript = scriptSig
	}
	return nil
}

// lockingScript resolves the script an unspent is locked with: the supplied
// hex when present, the unspent's address otherwise, the signing key's own
// P2PKH script as a last resort
func lockingScript(
	u *Utxo, params *chain.Params, pubKey *btcec.PublicKey,
) ([]byte, error) {
	if u.ScriptPubKey != "" {
		script, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("invalid unspent locking script: %v", err)
		}
		return script, nil
	}
	if u.Address != "" {
		return chain.ScriptPubKey(u.Address, params)
	}
	return p2pkhScript(pubKey)
}

// signWitness computes the BIP143 commitment hash for every input over the
// input's P2PKH script code and amount. The signature travels in the
// witness; the unlocking script carries only the wrapped witness program.
func signWitness(
	msgTx *wire.MsgTx,
	unspents []*Utxo,
	privKeys []*btcec.PrivateKey,
	hashType txscript.SigHashType,
) error {
	prevOuts := txscript.NewMultiPrevOutFetcher(nil)
	for i, txIn := range msgTx.TxIn {
		script, err := p2pkhScript(privKeys[i].PubKey())
		if err != nil {
			return err
		}
		prevOuts.AddPrevOut(
			txIn.PreviousOutPoint,
			wire.NewTxOut(unspents[i].Amount, script),
		)
	}
	sigHashes := txscript.NewTxSigHashes(msgTx, prevOuts)

	for i, txIn := range msgTx.TxIn {
		pubKey := privKeys[i].PubKey()
		script, err := p2pkhScript(pubKey)
		if err != nil {
			return err
		}
		sigHash, err := txscript.CalcWitnessSigHash(
			script, sigHashes, hashType, msgTx, i, unspents[i].Amount,
		)
		if err != nil {
			return err
		}
		sigBytes := signHash(privKeys[i], sigHash, hashType)

		pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
		program := append([]byte{txscript.OP_0, txscript.OP_DATA_20}, pubKeyHash...)
		scriptSig, err := txscript.NewScriptBuilder().AddData(program).Script()
		if err != nil {
			return err
		}
		txIn.SignatureScript = scriptSig
		txIn.Witness = wire.TxWitness{sigBytes, pubKey.SerializeCompressed()}
	}
	return nil
}

// signHash returns the DER signature of the given digest with the hash-type
// byte appended
func signHash(
	privKey *btcec.PrivateKey, sigHash []byte, hashType txscript.SigHashType,
) []byte {
	signature := ecdsa.Sign(privKey, sigHash)
	return append(signature.Serialize(), byte(hashType))
}

func p2pkhScript(pubKey *btcec.PublicKey) ([]byte, error) {
	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

func totalAmount(unspents []*Utxo) int64 {
	total := int64(0)
	for _, unspent := range unspents {
		total += unspent.Amount
	}
	return total
}

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/walletkit/walletkit/config"
	"github.com/walletkit/walletkit/pkg/chain"
	"github.com/walletkit/walletkit/pkg/keystore"
)

var importwallet = cli.Command{
	Name:  "import",
	Usage: "import a keystore from a mnemonic or a WIF private key",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mnemonic",
			Usage: "BIP39 recovery phrase to import",
		},
		&cli.StringFlag{
			Name:  "wif",
			Usage: "private key in wallet import format",
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "password protecting the new keystore",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "display name of the wallet",
			Value: "Unknown",
		},
		&cli.StringFlag{
			Name:  "coin",
			Usage: "coin symbol used to encode the cached address",
		},
	},
	Action: importWalletAction,
}

func importWalletAction(ctx *cli.Context) error {
	mnemonic, wif := ctx.String("mnemonic"), ctx.String("wif")
	if (mnemonic == "") == (wif == "") {
		return &invalidUsageError{ctx, "import"}
	}

	params, err := chain.ParamsForCoin(coinFromCtx(ctx))
	if err != nil {
		return err
	}

	metadata := keystore.DefaultMetadata()
	metadata.Name = ctx.String("name")

	kdfIterations := config.GetInt(config.KdfIterationsKey)

	var ks *keystore.HDKeystore
	if mnemonic != "" {
		metadata.Source = keystore.SourceRecoveredIdentity
		ks, err = keystore.NewHDKeystore(keystore.NewHDKeystoreOpts{
			Mnemonic:      mnemonic,
			Password:      ctx.String("password"),
			Path:          params.DerivationPath,
			Metadata:      metadata,
			KdfIterations: kdfIterations,
		})
	} else {
		ks, err = keystore.NewV3Keystore(keystore.NewV3KeystoreOpts{
			WIF:           wif,
			Password:      ctx.String("password"),
			Net:           params.Net,
			Encoder:       params,
			Metadata:      metadata,
			KdfIterations: kdfIterations,
		})
	}
	if err != nil {
		return err
	}
	if err := saveKeystore(ks); err != nil {
		return err
	}

	fmt.Printf("keystore id: %s\n", ks.ID)
	if ks.Address != "" {
		fmt.Printf("address: %s\n", ks.Address)
	}
	return nil
}

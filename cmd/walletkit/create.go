package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/walletkit/walletkit/config"
	"github.com/walletkit/walletkit/pkg/chain"
	"github.com/walletkit/walletkit/pkg/hdkey"
	"github.com/walletkit/walletkit/pkg/keystore"
)

var create = cli.Command{
	Name:  "create",
	Usage: "create a new HD keystore from a freshly generated mnemonic",
	Flags: []cli.Flag{
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
			Usage: "coin symbol whose default derivation path seeds the keystore",
		},
		&cli.IntFlag{
			Name:  "entropy",
			Usage: "entropy size in bits of the generated mnemonic",
			Value: 128,
		},
	},
	Action: createAction,
}

func createAction(ctx *cli.Context) error {
	params, err := chain.ParamsForCoin(coinFromCtx(ctx))
	if err != nil {
		return err
	}

	mnemonic, err := hdkey.NewMnemonic(hdkey.NewMnemonicOpts{
		EntropySize: ctx.Int("entropy"),
	})
	if err != nil {
		return err
	}

	metadata := keystore.DefaultMetadata()
	metadata.Name = ctx.String("name")
	metadata.Source = keystore.SourceNewIdentity

	ks, err := keystore.NewHDKeystore(keystore.NewHDKeystoreOpts{
		Mnemonic:      mnemonic,
		Password:      ctx.String("password"),
		Path:          params.DerivationPath,
		Metadata:      metadata,
		KdfIterations: config.GetInt(config.KdfIterationsKey),
	})
	if err != nil {
		return err
	}
	if err := saveKeystore(ks); err != nil {
		return err
	}

	fmt.Println("write down the mnemonic, it is shown only once:")
	fmt.Println()
	fmt.Println(mnemonic)
	fmt.Println()
	fmt.Printf("keystore id: %s\n", ks.ID)
	return nil
}

package main

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"

	"github.com/walletkit/walletkit/pkg/chain"
)

var export = cli.Command{
	Name:  "export",
	Usage: "reveal the mnemonic of an HD keystore or the WIF key of an imported one",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "keystore id",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "keystore password",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "coin",
			Usage: "coin symbol selecting the WIF network prefix",
		},
	},
	Action: exportAction,
}

func exportAction(ctx *cli.Context) error {
	ks, err := loadKeystore(ctx.String("id"))
	if err != nil {
		return err
	}

	if ks.IsHD() {
		mnemonic, err := ks.ExportMnemonic(ctx.String("password"))
		if err != nil {
			return err
		}
		fmt.Println(mnemonic)
		return nil
	}

	params, err := chain.ParamsForCoin(coinFromCtx(ctx))
	if err != nil {
		return err
	}
	privKey, err := ks.ExportPrivateKey(ctx.String("password"))
	if err != nil {
		return err
	}
	wif, err := btcutil.NewWIF(privKey, params.Net, true)
	if err != nil {
		return err
	}
	fmt.Println(wif.String())
	return nil
}

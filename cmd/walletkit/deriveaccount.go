package main

import (
	"github.com/urfave/cli/v2"

	"github.com/walletkit/walletkit/pkg/chain"
	"github.com/walletkit/walletkit/pkg/keystore"
)

var deriveaccount = cli.Command{
	Name:  "deriveaccount",
	Usage: "derive the account of a coin on an HD keystore",
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
			Usage: "coin symbol of the account to derive",
		},
		&cli.BoolFlag{
			Name:  "segwit",
			Usage: "encode the account address in P2SH-wrapped segwit form",
		},
	},
	Action: deriveAccountAction,
}

func deriveAccountAction(ctx *cli.Context) error {
	ks, err := loadKeystore(ctx.String("id"))
	if err != nil {
		return err
	}
	params, err := chain.ParamsForCoin(coinFromCtx(ctx))
	if err != nil {
		return err
	}

	var encoder keystore.AddressEncoder = params
	if ctx.Bool("segwit") {
		encoder = chain.SegWitEncoder{Params: params}
	}

	account, err := ks.DeriveAccount(keystore.DeriveAccountOpts{
		Password: ctx.String("password"),
		Coin: keystore.CoinInfo{
			Symbol:         params.Symbol,
			DerivationPath: params.DerivationPath,
		},
		Net:     params.Net,
		Encoder: encoder,
	})
	if err != nil {
		return err
	}
	if err := saveKeystore(ks); err != nil {
		return err
	}

	printRespJSON(account)
	return nil
}

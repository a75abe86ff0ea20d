package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/walletkit/walletkit/pkg/chain"
)

var address = cli.Command{
	Name:  "address",
	Usage: "show the derived address of a coin account",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "keystore id",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "coin",
			Usage: "coin symbol of the account",
		},
		&cli.BoolFlag{
			Name:  "legacy",
			Usage: "show the base58 form of a cash-style address",
		},
	},
	Action: addressAction,
}

func addressAction(ctx *cli.Context) error {
	ks, err := loadKeystore(ctx.String("id"))
	if err != nil {
		return err
	}
	params, err := chain.ParamsForCoin(coinFromCtx(ctx))
	if err != nil {
		return err
	}

	account := ks.Account(params.Symbol)
	if account == nil {
		return fmt.Errorf(
			"no %s account on keystore: run deriveaccount first", params.Symbol,
		)
	}

	addr := account.Address
	if ctx.Bool("legacy") {
		if addr, err = chain.ToLegacyAddress(addr, params); err != nil {
			return err
		}
	}
	fmt.Println(addr)
	return nil
}

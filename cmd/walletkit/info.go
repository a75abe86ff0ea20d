package main

import (
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/walletkit/walletkit/config"
	"github.com/walletkit/walletkit/pkg/chain"
)

var info = cli.Command{
	Name:  "info",
	Usage: "show the supported coins and the engine configuration",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "keystore id to include its accounts in the output",
		},
	},
	Action: infoAction,
}

func infoAction(ctx *cli.Context) error {
	coins := chain.SupportedCoins()
	sort.Strings(coins)

	resp := map[string]interface{}{
		"coins":   coins,
		"datadir": config.GetDatadir(),
	}
	if id := ctx.String("id"); id != "" {
		ks, err := loadKeystore(id)
		if err != nil {
			return err
		}
		resp["accounts"] = ks.ActiveAccounts
		resp["walletType"] = ks.Metadata.WalletType
	}

	printRespJSON(resp)
	return nil
}

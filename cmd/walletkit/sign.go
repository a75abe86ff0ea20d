package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/urfave/cli/v2"

	"github.com/walletkit/walletkit/pkg/txsigner"
)

var sign = cli.Command{
	Name:  "sign",
	Usage: "sign a transfer described by a JSON request file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "keystore id",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "request",
			Usage:    "path of the JSON file describing the transfer",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "keystore password, overrides the one in the request file",
		},
	},
	Action: signAction,
}

func signAction(ctx *cli.Context) error {
	ks, err := loadKeystore(ctx.String("id"))
	if err != nil {
		return err
	}

	buf, err := ioutil.ReadFile(ctx.String("request"))
	if err != nil {
		return fmt.Errorf("cannot read request file: %v", err)
	}
	var opts txsigner.SignTransactionOpts
	if err := json.Unmarshal(buf, &opts); err != nil {
		return fmt.Errorf("malformed request file: %v", err)
	}
	if password := ctx.String("password"); password != "" {
		opts.Password = password
	}

	result, err := txsigner.SignTransaction(ks, opts)
	if err != nil {
		return err
	}

	printRespJSON(result)
	return nil
}

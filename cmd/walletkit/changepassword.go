package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var changepassword = cli.Command{
	Name:  "changepassword",
	Usage: "re-encrypt a keystore under a new password",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "keystore id",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "current keystore password",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "new-password",
			Usage:    "new keystore password",
			Required: true,
		},
	},
	Action: changePasswordAction,
}

func changePasswordAction(ctx *cli.Context) error {
	ks, err := loadKeystore(ctx.String("id"))
	if err != nil {
		return err
	}
	if err := ks.ChangePassword(
		ctx.String("password"), ctx.String("new-password"),
	); err != nil {
		return err
	}
	if err := saveKeystore(ks); err != nil {
		return err
	}

	fmt.Println("password changed")
	return nil
}

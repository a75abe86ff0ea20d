package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/walletkit/walletkit/config"
	"github.com/walletkit/walletkit/pkg/keystore"
)

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "walletkit CLI"
	app.Usage = "Command line interface for the walletkit signing engine"
	app.Commands = append(
		app.Commands,
		&create,
		&importwallet,
		&deriveaccount,
		&address,
		&export,
		&changepassword,
		&sign,
		&info,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func keystorePath(id string) string {
	return filepath.Join(config.GetKeystoreDir(), fmt.Sprintf("%s.json", id))
}

func loadKeystore(id string) (*keystore.HDKeystore, error) {
	buf, err := ioutil.ReadFile(keystorePath(id))
	if err != nil {
		return nil, fmt.Errorf(
			"no keystore with id %s: create or import one first", id,
		)
	}
	ks := &keystore.HDKeystore{}
	if err := json.Unmarshal(buf, ks); err != nil {
		return nil, fmt.Errorf("keystore document is corrupted: %v", err)
	}
	return ks, nil
}

func saveKeystore(ks *keystore.HDKeystore) error {
	buf, err := json.MarshalIndent(ks, "", "\t")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(keystorePath(ks.ID), buf, 0600)
}

func printRespJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to encode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

func coinFromCtx(ctx *cli.Context) string {
	if coin := ctx.String("coin"); coin != "" {
		return strings.ToUpper(coin)
	}
	return config.GetString(config.DefaultCoinKey)
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[walletkit] %v\n", err)
	}
	os.Exit(1)
}

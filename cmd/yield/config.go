package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var (
	rpcFlag = cli.StringFlag{
		Name:  "rpcserver",
		Usage: "yieldd daemon url",
		Value: "http://localhost:9090",
	}

	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "the account operations are made on behalf of",
		Value: "0x00000000000000000000000000000000000a11ce",
	}

	authSecretFlag = cli.StringFlag{
		Name:  "auth_secret",
		Usage: "the secret bearer tokens are signed with, if the daemon requires them",
	}

	callerFlag = cli.StringFlag{
		Name:  "caller",
		Usage: "the account the operation is made on behalf of, defaults to the configured address",
	}
)

var config = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the yield CLI",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:      "set",
			Usage:     "set a <key> <value> in the local state",
			ArgsUsage: "<key> <value>",
			Action:    configSetAction,
		},
		{
			Name:   "init",
			Usage:  "initialize the local state with flags",
			Action: configInitAction,
			Flags: []cli.Flag{
				&rpcFlag,
				&addressFlag,
				&authSecretFlag,
			},
		},
	},
}

func configAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	for key, value := range state {
		fmt.Fprintln(output, key+": "+value)
	}

	return nil
}

func configInitAction(c *cli.Context) error {
	return setState(map[string]string{
		"rpcserver":   c.String("rpcserver"),
		"address":     c.String("address"),
		"auth_secret": c.String("auth_secret"),
	})
}

func configSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("key and value are missing")
	}

	key := c.Args().Get(0)
	value := c.Args().Get(1)

	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Fprintf(output, "%s %s has been set\n", key, value)
	return nil
}

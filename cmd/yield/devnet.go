package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var devnetCmd = cli.Command{
	Name:  "devnet",
	Usage: "interact with the simulated environment of the daemon",
	Subcommands: []*cli.Command{
		{
			Name:  "faucet",
			Usage: "mint some token to an account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "account",
					Usage: "the receiving account, defaults to the configured address",
				},
				&cli.StringFlag{
					Name:  "asset",
					Usage: "the symbol or address of the token",
					Value: "DAI",
				},
				&cli.StringFlag{
					Name:     "amount",
					Usage:    "the amount to mint, in whole units",
					Required: true,
				},
			},
			Action: faucetAction,
		},
		{
			Name:  "approve",
			Usage: "approve a spender over some token of the configured address",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "spender",
					Usage: "the approved account, defaults to the controller",
				},
				&cli.StringFlag{
					Name:  "asset",
					Usage: "the symbol or address of the token",
					Value: "DAI",
				},
				&cli.StringFlag{
					Name:  "amount",
					Usage: "the allowance in whole units, unlimited if omitted",
				},
			},
			Action: approveAction,
		},
		{
			Name:  "advance",
			Usage: "move the devnet clock forward",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:     "duration",
					Usage:    "how much time to skip (ie. 24h)",
					Required: true,
				},
			},
			Action: advanceAction,
		},
		{
			Name:  "pause",
			Usage: "pause or resume supplies to the lending market",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "resume",
					Usage: "resume the market instead",
				},
			},
			Action: pauseAction,
		},
		{
			Name:  "balances",
			Usage: "get the balances of an account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "account",
					Usage: "the account, defaults to the configured address",
				},
			},
			Action: balancesAction,
		},
	},
}

func accountOrDefault(ctx *cli.Context) (string, error) {
	if account := ctx.String("account"); account != "" {
		return account, nil
	}
	return getStateValue("address")
}

func faucetAction(ctx *cli.Context) error {
	account, err := accountOrDefault(ctx)
	if err != nil {
		return err
	}
	return post("/v1/devnet/faucet", map[string]string{
		"account": account,
		"asset":   ctx.String("asset"),
		"amount":  ctx.String("amount"),
	})
}

func approveAction(ctx *cli.Context) error {
	owner, err := getStateValue("address")
	if err != nil {
		return err
	}
	if _, err := doRequest(http.MethodPost, "/v1/devnet/approve", map[string]string{
		"owner":   owner,
		"spender": ctx.String("spender"),
		"asset":   ctx.String("asset"),
		"amount":  ctx.String("amount"),
	}); err != nil {
		return err
	}
	fmt.Fprintln(output, "allowance updated")
	return nil
}

func advanceAction(ctx *cli.Context) error {
	seconds := int64(ctx.Duration("duration").Seconds())
	if seconds <= 0 {
		return fmt.Errorf("duration must be at least one second")
	}
	return post("/v1/devnet/advance", map[string]int64{"seconds": seconds})
}

func pauseAction(ctx *cli.Context) error {
	paused := !ctx.Bool("resume")
	if _, err := doRequest(http.MethodPost, "/v1/devnet/pause", map[string]bool{
		"paused": paused,
	}); err != nil {
		return err
	}
	if paused {
		fmt.Fprintln(output, "market paused")
	} else {
		fmt.Fprintln(output, "market resumed")
	}
	return nil
}

func balancesAction(ctx *cli.Context) error {
	account, err := accountOrDefault(ctx)
	if err != nil {
		return err
	}
	return get("/v1/devnet/balances?account=" + url.QueryEscape(account))
}

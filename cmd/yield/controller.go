package main

import (
	"fmt"
	"net/url"

	"github.com/urfave/cli/v2"
)

var (
	info = cli.Command{
		Name:   "info",
		Usage:  "get the configuration of the controller",
		Action: infoAction,
	}
	position = cli.Command{
		Name:   "position",
		Usage:  "get the current value of the position",
		Action: positionAction,
	}
	operations = cli.Command{
		Name:  "operations",
		Usage: "list the operations made by the controller, most recent first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "the number of the page to return",
			},
			&cli.IntFlag{
				Name:  "page_size",
				Usage: "the size of the page",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "return only the operation with the given id",
			},
		},
		Action: operationsAction,
	}
	deposit = cli.Command{
		Name:  "deposit",
		Usage: "deposit some underlying into the lending market",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "amount",
				Usage:    "the amount of underlying to deposit, in whole units",
				Required: true,
			},
			&callerFlag,
		},
		Action: depositAction,
	}
	withdraw = cli.Command{
		Name:   "withdraw",
		Usage:  "withdraw the whole position",
		Flags:  []cli.Flag{&callerFlag},
		Action: withdrawAction,
	}
	harvest = cli.Command{
		Name:  "harvest",
		Usage: "compound the rewards accrued by the position",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "min_amount_out",
				Usage: "the min amount of underlying the reward swap must return, in whole units",
			},
			&cli.Int64Flag{
				Name:  "deadline",
				Usage: "the unix timestamp after which the reward swap is rejected",
			},
			&callerFlag,
		},
		Action: harvestAction,
	}
)

func infoAction(_ *cli.Context) error {
	return get("/v1/info")
}

func positionAction(_ *cli.Context) error {
	return get("/v1/position")
}

func operationsAction(ctx *cli.Context) error {
	if id := ctx.String("id"); id != "" {
		return get("/v1/operations/" + url.PathEscape(id))
	}

	query := url.Values{}
	if page := ctx.Int("page"); page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if size := ctx.Int("page_size"); size > 0 {
		query.Set("size", fmt.Sprint(size))
	}
	path := "/v1/operations"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return get(path)
}

func depositAction(ctx *cli.Context) error {
	caller, err := callerOrDefault(ctx)
	if err != nil {
		return err
	}
	return post("/v1/deposit", map[string]string{
		"caller": caller,
		"amount": ctx.String("amount"),
	})
}

func withdrawAction(ctx *cli.Context) error {
	caller, err := callerOrDefault(ctx)
	if err != nil {
		return err
	}
	return post("/v1/withdraw", map[string]string{"caller": caller})
}

func harvestAction(ctx *cli.Context) error {
	caller, err := callerOrDefault(ctx)
	if err != nil {
		return err
	}
	return post("/v1/harvest", map[string]interface{}{
		"caller":         caller,
		"min_amount_out": ctx.String("min_amount_out"),
		"deadline":       ctx.Int64("deadline"),
	})
}

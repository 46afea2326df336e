package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/thanhpk/randstr"
	"github.com/urfave/cli/v2"
)

var (
	webhook = cli.Command{
		Name:  "webhook",
		Usage: "add, remove or list webhooks",
		Subcommands: []*cli.Command{
			webhookAddCmd, webhookRemoveCmd, webhookListCmd,
		},
	}

	webhookAddCmd = &cli.Command{
		Name:  "add",
		Usage: "add a (secured) webhook endpoint called whenever a target event occurs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "the endpoint to call",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "event",
				Usage: "the event to notify: DEPOSIT, WITHDRAW, HARVEST or * for any",
				Value: "*",
			},
			&cli.StringFlag{
				Name:  "secret",
				Usage: "the secret to sign the bearer token of the requests",
			},
			&cli.BoolFlag{
				Name:  "random_secret",
				Usage: "generate a random secret for the webhook",
			},
		},
		Action: addWebhookAction,
	}
	webhookRemoveCmd = &cli.Command{
		Name:  "remove",
		Usage: "remove some webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "the id of the webhook to remove",
				Required: true,
			},
		},
		Action: removeWebhookAction,
	}
	webhookListCmd = &cli.Command{
		Name:  "list",
		Usage: "list all webhooks, optionally filtered by target event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "event",
				Usage: "the event to filter webhooks for",
			},
		},
		Action: listWebhooksAction,
	}
)

func addWebhookAction(ctx *cli.Context) error {
	secret := ctx.String("secret")
	if secret == "" && ctx.Bool("random_secret") {
		secret = randstr.Hex(32)
	}

	data, err := doRequest(http.MethodPost, "/v1/webhooks", map[string]string{
		"event":    ctx.String("event"),
		"endpoint": ctx.String("endpoint"),
		"secret":   secret,
	})
	if err != nil {
		return err
	}
	printRespJSON(data)
	if secret != "" && ctx.Bool("random_secret") {
		fmt.Fprintln(output, "secret:", secret)
	}
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	if _, err := doRequest(
		http.MethodDelete, "/v1/webhooks/"+url.PathEscape(ctx.String("id")), nil,
	); err != nil {
		return err
	}
	fmt.Fprintln(output, "webhook removed")
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	path := "/v1/webhooks"
	if event := ctx.String("event"); event != "" {
		path += "?event=" + url.QueryEscape(event)
	}
	return get(path)
}

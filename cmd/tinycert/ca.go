package main

import (
	"context"
	"encoding/json"

	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/api/clients"
	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/urfave/cli/v2"
)

var caIDFlag = &cli.Int64Flag{
	Name:     "id",
	Required: true,
	Usage:    "CA id",
}

var caCommand = &cli.Command{
	Name:  "ca",
	Usage: "Certificate authority operations",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List the CAs of the account",
			Action: func(cCtx *cli.Context) error {
				return withCA(cCtx, func(ctx context.Context, ca *clients.CAClient) error {
					list, err := ca.List(ctx)
					if err != nil {
						return err
					}
					return printRecords(cCtx.App.Writer, list, func(info api.CAInfo) json.RawMessage { return info.Raw })
				})
			},
		},
		{
			Name:  "details",
			Usage: "Show the subject of a CA",
			Flags: []cli.Flag{caIDFlag},
			Action: func(cCtx *cli.Context) error {
				return withCA(cCtx, func(ctx context.Context, ca *clients.CAClient) error {
					details, err := ca.Details(ctx, interfaces.CAID(cCtx.Int64(caIDFlag.Name)))
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, details.Raw)
				})
			},
		},
		{
			Name:  "get",
			Usage: "Download the CA certificate",
			Flags: []cli.Flag{caIDFlag, storeFlag},
			Action: func(cCtx *cli.Context) error {
				return withCA(cCtx, func(ctx context.Context, ca *clients.CAClient) error {
					resp, err := ca.Get(ctx, interfaces.CAID(cCtx.Int64(caIDFlag.Name)))
					if err != nil {
						return err
					}
					return emitPEM(cCtx, interfaces.DataCert, resp.PEM)
				})
			},
		},
		{
			Name:  "delete",
			Usage: "Delete a CA and every certificate it issued",
			Flags: []cli.Flag{caIDFlag},
			Action: func(cCtx *cli.Context) error {
				return withCA(cCtx, func(ctx context.Context, ca *clients.CAClient) error {
					body, err := ca.Delete(ctx, interfaces.CAID(cCtx.Int64(caIDFlag.Name)))
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, body)
				})
			},
		},
		{
			Name:  "new",
			Usage: "Create a CA",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "C", Required: true, Usage: "country, ISO 3166-1 alpha-2"},
				&cli.StringFlag{Name: "O", Required: true, Usage: "organization"},
				&cli.StringFlag{Name: "L", Usage: "locality"},
				&cli.StringFlag{Name: "ST", Usage: "state or province"},
				&cli.StringFlag{Name: "hash", Value: "sha256", Usage: "signature hash: sha1 or sha256"},
			},
			Action: func(cCtx *cli.Context) error {
				req := interfaces.CARequest{
					C:          cCtx.String("C"),
					O:          cCtx.String("O"),
					L:          cCtx.String("L"),
					ST:         cCtx.String("ST"),
					HashMethod: cCtx.String("hash"),
				}
				if err := req.Validate(); err != nil {
					return err
				}

				return withCA(cCtx, func(ctx context.Context, ca *clients.CAClient) error {
					resp, err := ca.Create(ctx, req)
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, resp.Raw)
				})
			},
		},
	},
}

func withCA(cCtx *cli.Context, fn func(ctx context.Context, ca *clients.CAClient) error) error {
	return withSession(cCtx, func(ctx context.Context, s *clients.Session) error {
		ca, err := s.CA()
		if err != nil {
			return err
		}
		return fn(ctx, ca)
	})
}

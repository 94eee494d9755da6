package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/api/clients"
	"github.com/ruteri/tinycert-go/cryptoutils"
	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/urfave/cli/v2"
)

var certIDFlag = &cli.Int64Flag{
	Name:     "id",
	Required: true,
	Usage:    "certificate id",
}

var certCAIDFlag = &cli.Int64Flag{
	Name:     "ca-id",
	Required: true,
	Usage:    "id of the issuing CA",
}

var certCommand = &cli.Command{
	Name:  "cert",
	Usage: "Certificate operations",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List the certificates of a CA",
			Flags: []cli.Flag{
				certCAIDFlag,
				&cli.StringFlag{Name: "states", Value: "all", Usage: "comma separated: expired,good,revoked,hold or all"},
			},
			Action: func(cCtx *cli.Context) error {
				states, err := interfaces.ParseCertStates(cCtx.String("states"))
				if err != nil {
					return err
				}

				return withCert(cCtx, func(ctx context.Context, certs *clients.CertClient) error {
					list, err := certs.List(ctx, interfaces.CAID(cCtx.Int64(certCAIDFlag.Name)), states)
					if err != nil {
						return err
					}
					return printRecords(cCtx.App.Writer, list, func(info api.CertInfo) json.RawMessage { return info.Raw })
				})
			},
		},
		{
			Name:  "details",
			Usage: "Show the subject, SANs and status of a certificate",
			Flags: []cli.Flag{certIDFlag},
			Action: func(cCtx *cli.Context) error {
				return withCert(cCtx, func(ctx context.Context, certs *clients.CertClient) error {
					details, err := certs.Details(ctx, interfaces.CertID(cCtx.Int64(certIDFlag.Name)))
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, details.Raw)
				})
			},
		},
		{
			Name:  "get",
			Usage: "Download certificate material",
			Flags: []cli.Flag{
				certIDFlag,
				&cli.StringFlag{Name: "what", Value: string(interfaces.DataCert), Usage: "cert, chain, csr, key.dec or key.enc"},
				storeFlag,
			},
			Action: func(cCtx *cli.Context) error {
				dataType := interfaces.DataType(cCtx.String("what"))
				if err := dataType.Validate(); err != nil {
					return err
				}

				return withCert(cCtx, func(ctx context.Context, certs *clients.CertClient) error {
					resp, err := certs.Get(ctx, interfaces.CertID(cCtx.Int64(certIDFlag.Name)), dataType)
					if err != nil {
						return err
					}
					return emitPEM(cCtx, dataType, resp.PEM)
				})
			},
		},
		{
			Name:  "verify",
			Usage: "Check that the downloaded key matches the certificate and its common name",
			Flags: []cli.Flag{certIDFlag},
			Action: func(cCtx *cli.Context) error {
				return withCert(cCtx, func(ctx context.Context, certs *clients.CertClient) error {
					id := interfaces.CertID(cCtx.Int64(certIDFlag.Name))

					details, err := certs.Details(ctx, id)
					if err != nil {
						return err
					}
					cert, err := certs.Get(ctx, id, interfaces.DataCert)
					if err != nil {
						return err
					}
					key, err := certs.Get(ctx, id, interfaces.DataKeyDecrypted)
					if err != nil {
						return err
					}

					if err := cryptoutils.VerifyKeyPair([]byte(key.PEM), []byte(cert.PEM), details.CN); err != nil {
						return fmt.Errorf("certificate %d failed verification: %w", id, err)
					}
					_, err = fmt.Fprintf(cCtx.App.Writer, "certificate %d: key matches, CN %s\n", id, details.CN)
					return err
				})
			},
		},
		{
			Name:  "reissue",
			Usage: "Issue a new certificate with the same details",
			Flags: []cli.Flag{certIDFlag},
			Action: func(cCtx *cli.Context) error {
				return withCert(cCtx, func(ctx context.Context, certs *clients.CertClient) error {
					resp, err := certs.Reissue(ctx, interfaces.CertID(cCtx.Int64(certIDFlag.Name)))
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, resp.Raw)
				})
			},
		},
		{
			Name:  "status",
			Usage: "Change the status of a certificate",
			Flags: []cli.Flag{
				certIDFlag,
				&cli.StringFlag{Name: "status", Required: true, Usage: "good, hold or revoked"},
			},
			Action: func(cCtx *cli.Context) error {
				status := interfaces.CertStatus(cCtx.String("status"))
				if err := status.Validate(); err != nil {
					return err
				}

				return withCert(cCtx, func(ctx context.Context, certs *clients.CertClient) error {
					body, err := certs.SetStatus(ctx, interfaces.CertID(cCtx.Int64(certIDFlag.Name)), status)
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, body)
				})
			},
		},
		{
			Name:  "new",
			Usage: "Create a certificate under a CA",
			Flags: []cli.Flag{
				certCAIDFlag,
				&cli.StringFlag{Name: "CN", Required: true, Usage: "common name"},
				&cli.StringFlag{Name: "C", Required: true, Usage: "country, ISO 3166-1 alpha-2"},
				&cli.StringFlag{Name: "O", Required: true, Usage: "organization"},
				&cli.StringFlag{Name: "OU", Usage: "organizational unit"},
				&cli.StringFlag{Name: "L", Usage: "locality"},
				&cli.StringFlag{Name: "ST", Usage: "state or province"},
				&cli.StringSliceFlag{Name: "san", Usage: "subject alternative name as TYPE:value, e.g. DNS:www.example.com (repeatable)"},
			},
			Action: func(cCtx *cli.Context) error {
				req := interfaces.CertRequest{
					C:  cCtx.String("C"),
					CN: cCtx.String("CN"),
					O:  cCtx.String("O"),
					OU: cCtx.String("OU"),
					L:  cCtx.String("L"),
					ST: cCtx.String("ST"),
				}
				for _, raw := range cCtx.StringSlice("san") {
					san, err := interfaces.ParseSAN(raw)
					if err != nil {
						return err
					}
					req.SANs = append(req.SANs, san)
				}
				if err := req.Validate(); err != nil {
					return err
				}

				return withCert(cCtx, func(ctx context.Context, certs *clients.CertClient) error {
					resp, err := certs.Create(ctx, interfaces.CAID(cCtx.Int64(certCAIDFlag.Name)), req)
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, resp.Raw)
				})
			},
		},
	},
}

func withCert(cCtx *cli.Context, fn func(ctx context.Context, certs *clients.CertClient) error) error {
	return withSession(cCtx, func(ctx context.Context, s *clients.Session) error {
		certs, err := s.Cert()
		if err != nil {
			return err
		}
		return fn(ctx, certs)
	})
}

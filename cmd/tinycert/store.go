package main

import (
	"fmt"
	"io"

	"github.com/ruteri/tinycert-go/cryptoutils"
	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/ruteri/tinycert-go/storage"
	"github.com/urfave/cli/v2"
)

var storeFlag = &cli.StringSliceFlag{
	Name:    "store",
	EnvVars: []string{"TINYCERT_STORE"},
	Usage:   "also save the material to a storage backend URI (file://, s3://, vault://, ipfs://; repeatable)",
}

var storeCommand = &cli.Command{
	Name:  "store",
	Usage: "Read certificate material saved with --store",
	Subcommands: []*cli.Command{
		{
			Name:  "fetch",
			Usage: "Print stored material by content id",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "store", Required: true, Usage: "storage backend URI (repeatable)"},
				&cli.StringFlag{Name: "id", Required: true, Usage: "hex content id printed when the material was stored"},
				&cli.StringFlag{Name: "what", Value: string(interfaces.DataCert), Usage: "cert, chain, csr, key.dec or key.enc"},
			},
			Action: func(cCtx *cli.Context) error {
				dataType := interfaces.DataType(cCtx.String("what"))
				if err := dataType.Validate(); err != nil {
					return err
				}
				id, err := interfaces.NewContentIDFromHex(cCtx.String("id"))
				if err != nil {
					return err
				}

				backend, err := openStorage(cCtx.StringSlice("store"))
				if err != nil {
					return err
				}

				data, err := backend.Fetch(cCtx.Context, id, interfaces.ContentTypeFor(dataType))
				if err != nil {
					return fmt.Errorf("could not fetch %s: %w", id, err)
				}
				_, err = cCtx.App.Writer.Write(data)
				return err
			},
		},
	},
}

func openStorage(uris []string) (interfaces.StorageBackend, error) {
	locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
	for _, uri := range uris {
		location, err := interfaces.NewStorageBackendLocation(uri)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}

	factory := storage.NewStorageBackendFactory(logger)
	return factory.CreateMultiBackend(locations)
}

// emitPEM prints downloaded material, checks that certificates parse and
// saves it to the --store backends when given.
func emitPEM(cCtx *cli.Context, dataType interfaces.DataType, material string) error {
	switch dataType {
	case interfaces.DataCert:
		cert, err := cryptoutils.ParseCertificatePEM([]byte(material))
		if err != nil {
			return err
		}
		logger.Info("Downloaded certificate",
			"subject", cert.Subject.String(),
			"not_after", cert.NotAfter,
			"fingerprint", cryptoutils.Fingerprint(cert))
	case interfaces.DataChain:
		chain, err := cryptoutils.ParseChainPEM([]byte(material))
		if err != nil {
			return err
		}
		logger.Info("Downloaded certificate chain", "length", len(chain))
	}

	if uris := cCtx.StringSlice(storeFlag.Name); len(uris) > 0 {
		backend, err := openStorage(uris)
		if err != nil {
			return err
		}
		id, err := backend.Store(cCtx.Context, []byte(material), interfaces.ContentTypeFor(dataType))
		if err != nil {
			return fmt.Errorf("could not store %s: %w", dataType, err)
		}
		logger.Info("Stored material", "content_id", id.String(), "backends", backend.LocationURI())
	}

	_, err := io.WriteString(cCtx.App.Writer, material)
	return err
}

package clients

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/ruteri/tinycert-go/interfaces"
)

// WithSession connects a new session, runs fn and disconnects on every exit
// path, including a panic in fn, unless fn already disconnected. A disconnect
// failure is combined with the error returned by fn.
//
//	err := clients.WithSession(ctx, cfg, account, passphrase, func(s *clients.Session) error {
//		ca, err := s.CA()
//		if err != nil {
//			return err
//		}
//		_, err = ca.List(ctx)
//		return err
//	})
func WithSession(ctx context.Context, cfg *Config, account, passphrase string, fn func(*Session) error) (err error) {
	session := NewSession(cfg)
	if err := session.Connect(ctx, account, passphrase); err != nil {
		return err
	}

	defer func() {
		if session.State() != interfaces.Authenticated {
			return
		}
		// The token must be retired even if ctx was cancelled inside fn.
		if dErr := session.Disconnect(context.WithoutCancel(ctx)); dErr != nil {
			err = multierror.Append(err, dErr).ErrorOrNil()
		}
	}()

	return fn(session)
}

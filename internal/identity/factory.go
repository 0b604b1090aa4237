package identity

import (
	"context"
	"fmt"

	"github.com/Veraticus/skinscope/internal/common"
	"github.com/Veraticus/skinscope/internal/config"
)

// New creates the provider selected by cfg.
func New(ctx context.Context, cfg config.IdentityConfig, store Store) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderLocal, "":
		return NewLocalProvider(ctx, store,
			WithSecret(cfg.Local.Secret),
			WithSessionTTL(cfg.Local.SessionTTL),
		)
	case config.ProviderFirebase:
		var opts []FirebaseOption
		if cfg.Firebase.Endpoint != "" {
			opts = append(opts, WithEndpoint(cfg.Firebase.Endpoint))
		}
		if cfg.Firebase.TokenURL != "" {
			opts = append(opts, WithTokenURL(cfg.Firebase.TokenURL))
		}
		return NewFirebaseProvider(ctx, cfg.Firebase.APIKey, store, opts...)
	default:
		return nil, fmt.Errorf("%w: unsupported identity provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}

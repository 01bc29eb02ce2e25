package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/surf-cli/surf/pkg/cache"
	"github.com/surf-cli/surf/pkg/config"
	"github.com/surf-cli/surf/pkg/logging"
	"github.com/surf-cli/surf/pkg/optname"
)

// NewReconciler opens the configuration cache at --cache-file, or at the
// default location under the user config directory.
func NewReconciler() (*cache.Reconciler, error) {
	path := viper.GetString(optname.CacheFile)
	if path == "" {
		var err error
		if path, err = cache.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return cache.NewReconciler(cache.NewStore(path), logging.GetLogger()), nil
}

// ResolveFlags reconciles the flags of cmd with the cached configuration of
// kind. It runs before any request so conflicts abort the command early.
func ResolveFlags(cmd *cobra.Command, kind cache.Kind, r *cache.Reconciler) (cache.Config, error) {
	schema, ok := config.SchemaFor(kind)
	if !ok {
		return cache.Config{}, fmt.Errorf("no schema for %s", kind)
	}
	fields, err := config.FieldsFromFlags(viper.GetViper(), cmd.Flags(), schema)
	if err != nil {
		return cache.Config{}, err
	}
	return r.Resolve(cache.Request{
		Kind:     kind,
		Schema:   schema,
		Fields:   fields,
		UseCache: viper.GetBool(optname.UseCache),
	})
}

// Persist saves cfg after a successful run. Failures are logged by the
// reconciler and do not fail the command.
func Persist(r *cache.Reconciler, cfg cache.Config) {
	_ = r.Persist(cfg, viper.GetBool(optname.NoSave))
}

// RunLogger tags every log line of one run.
func RunLogger(cfg cache.Config) zerolog.Logger {
	ctx := logging.GetLogger().With().
		Str("run_id", uuid.NewString()).
		Str("kind", string(cfg.Kind()))
	if profile := cfg.String(optname.Profile); profile != "" {
		ctx = ctx.Str("profile", profile)
	}
	return ctx.Logger()
}

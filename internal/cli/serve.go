package cli

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/wildlens/internal/logging"
	"github.com/ppiankov/wildlens/internal/pipeline"
	"github.com/ppiankov/wildlens/internal/server"
	"github.com/ppiankov/wildlens/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web backend",
	Long: `Serve the upload page and the JSON API:

  GET  /                 upload page
  POST /predict          multipart "file" → prediction with facts
  GET  /api/v1/facts     ?label=<animal> → facts without an image
  GET  /health           classifier readiness
  GET  /metrics          Prometheus metrics

Example:
  wildlens serve --addr :8080
  wildlens serve --provider openai --model gpt-4o-mini`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := telemetry.NewMetrics()
	p, err := pipeline.Build(cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	log.Info("wildlens starting",
		logging.String("version", Version),
		logging.String("classifier", p.Classifier().Name()),
		logging.Bool("cache", cfg.Cache.Enabled),
	)

	srv := server.NewServer(cfg.Server, p, log.With(logging.String("component", "http")), metrics)
	return srv.Run(context.Background())
}

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"deepcut-desktop/internal/api"
	"deepcut-desktop/internal/config"
	"deepcut-desktop/internal/domain"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	settingsPath string
	apiURL       string
	logDir       string
	verbose      bool
}

// NewRootCmd builds the deepcutctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "deepcutctl",
		Short: "Headless client for the deep cut processing service",
		Long: `deepcutctl submits deep cut batches, lists books under parent organizations,
and inspects processed question pairs without opening the desktop app.

Settings are read from the desktop app's settings file, then DEEPCUT_* environment
variables (including a .env file), then flags.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	defaultSettings := ""
	if home, err := os.UserHomeDir(); err == nil {
		defaultSettings = config.DefaultSettingsPath(home)
	}
	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", defaultSettings, "Path to the desktop settings file")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Processing service base URL (overrides settings)")
	cmd.PersistentFlags().StringVar(&opts.logDir, "log-dir", "", "Directory for saved processing logs (overrides settings)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newSubmitCmd(opts))
	cmd.AddCommand(newBooksCmd(opts))
	cmd.AddCommand(newPreviewCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	cmd.AddCommand(newSurveyCmd(opts))

	return cmd
}

// settings resolves file, environment, and flag configuration in that order.
func (o *options) settings() (domain.Settings, error) {
	settings := config.DefaultSettings()
	if o.settingsPath != "" {
		loaded, err := config.NewJSONStore(o.settingsPath).Load()
		if err != nil {
			return domain.Settings{}, fmt.Errorf("load settings: %w", err)
		}
		settings = loaded
	}
	settings = config.ApplyEnv(settings)
	if o.apiURL != "" {
		settings.APIBaseURL = o.apiURL
	}
	if o.logDir != "" {
		settings.LogDir = o.logDir
	}
	return config.Normalize(settings), nil
}

func (o *options) client() (*api.Client, domain.Settings, error) {
	settings, err := o.settings()
	if err != nil {
		return nil, domain.Settings{}, err
	}
	return api.NewClient(settings.APIBaseURL), settings, nil
}

// userError turns service errors into the operator-facing sentence.
func userError(err error) error {
	return fmt.Errorf("%s", api.Describe(err))
}

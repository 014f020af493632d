package cmd

import (
	"github.com/spf13/cobra"

	"github.com/medvision/dicom2yolo/internal/config"
)

// rootOptions holds flag values shared by the commands.
type rootOptions struct {
	configPath string
	verbose    bool
	logFile    string

	workers  int
	maxSize  int
	report   string
	manifest string
}

func (o *rootOptions) bindPersistent(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "Path to a YAML config file")
	flags.BoolVar(&o.verbose, "verbose", false, "Verbose logging")
	flags.StringVar(&o.logFile, "log-file", "", "Write logs to this file instead of stderr")
}

func (o *rootOptions) bindConvert(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&o.workers, "workers", 0, "Number of concurrent image renders per sample (default: number of CPUs)")
	flags.IntVar(&o.maxSize, "max-size", 0, "Downscale images so the long side is at most this many pixels (0 keeps original size)")
	flags.StringVar(&o.report, "report", "", "Path to write a YAML run report")
	flags.StringVar(&o.manifest, "manifest", "", "Path to write a Parquet manifest of generated images")
}

// load resolves the configuration; flags set on the command line win over
// the config file and environment.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("max-size") {
		cfg.MaxSize = o.maxSize
	}
	if flags.Changed("report") {
		cfg.ReportPath = o.report
	}
	if flags.Changed("manifest") {
		cfg.ManifestPath = o.manifest
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

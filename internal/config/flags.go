package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagSource    = flag.String("source", "", "Source directory")
	flagOut       = flag.String("out", "", "Output pack path")
	flagTextures  = flag.String("textures", "", "Texture path prefix")
	flagTarget    = flag.String("target", "", "Geometry id to import")
	flagWorkers   = flag.Int("workers", 0, "Parallel imports")
	flagKeepGoing = flag.Bool("keep-going", false, "Continue a batch after failures")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSource != "" {
		cfg.Import.SourceDir = *flagSource
	}
	if *flagOut != "" {
		cfg.Import.Output = *flagOut
	}
	if *flagTextures != "" {
		cfg.Import.TexturePrefix = *flagTextures
	}
	if *flagTarget != "" {
		cfg.Import.Target = *flagTarget
	}
	if *flagWorkers > 0 {
		cfg.Import.Workers = *flagWorkers
	}
	if *flagKeepGoing {
		cfg.Import.KeepGoing = true
	}
}

package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagOut      = flag.String("out", "", "Output directory")
	flagBase     = flag.String("base", "", "Base layer STL")
	flagMid      = flag.String("mid", "", "Mid layer STL")
	flagTop      = flag.String("top", "", "Top layer STL")
	flagRef      = flag.String("ref", "", "Reference surface STL")
	flagPasses   = flag.Int("passes", 0, "Number of schedule iterations")
	flagSchedule = flag.String("schedule", "", "Comma separated passes, e.g. split,flip")
	flagDistort  = flag.Float64("distortion", 0, "Distortion bound")
	flagTarget   = flag.Float64("target", 0, "Target edge length")
	flagNoGrid   = flag.Bool("nogrid", false, "Disable the broad phase grid")
	flagPreview  = flag.Bool("preview", false, "Write PNG previews of the layers")
	flagPlot     = flag.Bool("plot", false, "Write quality and rejection plots")
	flagImproveQ = flag.Bool("improve-quality", false, "Reject splits that worsen triangle quality")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	for dst, src := range map[*string]string{
		&cfg.Input.Base:      *flagBase,
		&cfg.Input.Mid:       *flagMid,
		&cfg.Input.Top:       *flagTop,
		&cfg.Input.Reference: *flagRef,
		&cfg.Remesh.Schedule: *flagSchedule,
	} {
		if src != "" {
			*dst = src
		}
	}
	if *flagPasses > 0 {
		cfg.Remesh.Passes = *flagPasses
	}
	if *flagDistort > 0 {
		cfg.Remesh.DistortionBound = *flagDistort
	}
	if *flagTarget > 0 {
		cfg.Remesh.TargetEdgeLength = *flagTarget
	}
	if *flagNoGrid {
		cfg.Grid.Enabled = false
	}
	if *flagPreview {
		cfg.Output.Preview = true
	}
	if *flagPlot {
		cfg.Output.Plot = true
	}
	if *flagImproveQ {
		cfg.Remesh.SplitImproveQuality = true
	}
}

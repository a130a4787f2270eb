package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocollider/internal/compare"
	"github.com/sells-group/geocollider/internal/config"
	"github.com/sells-group/geocollider/internal/index"
	"github.com/sells-group/geocollider/internal/normalize"
	"github.com/sells-group/geocollider/internal/output"
	"github.com/sells-group/geocollider/internal/source"
)

var (
	compareThreshold       float64
	compareMode            string
	compareNormalizer      string
	compareReferencePreset string
	compareCandidatePreset string
	compareOutputFormat    string
	compareRefSources      []string
)

var compareCmd = &cobra.Command{
	Use:   "compare <output-file> <reference-files...> -- <candidate-files...>",
	Short: "Match a candidate gazetteer against a reference gazetteer",
	Long: `Builds name and place indexes from the reference files, then streams the
candidate files through the comparator and writes one (reference id,
candidate id) row per match.

Without "--" the second argument is the only reference file and every
following argument is a candidate file. Flags go before "--".

Reference files with a different layout are added with
--reference-source preset=path[,path]. Their records join the others on id.

Examples:
  # Pleiades places, names and locations against a GeoNames dump
  geocollider compare --reference-preset pleiades --candidate-preset geonames \
    --reference-source pleiades-names=pleiades-names-latest.csv \
    --reference-source pleiades-locations=pleiades-locations-latest.csv \
    matches.csv pleiades-places-latest.csv -- allCountries.txt

  # Name-only matching, results as a workbook
  geocollider compare matches.xlsx ref.csv cand.csv --mode name`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, refs, cands, err := splitCompareArgs(args, cmd.ArgsLenAtDash())
		if err != nil {
			return err
		}
		if err := applyCompareFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		_, err = runCompare(cmd.Context(), cfg, logger, out, refs, cands)
		return err
	},
}

func init() {
	f := compareCmd.Flags()
	f.Float64Var(&compareThreshold, "threshold", 0, "match radius in km (default from config, 8)")
	f.StringVar(&compareMode, "mode", "", "comparator: combined, name or spatial")
	f.StringVar(&compareNormalizer, "normalizer", "", "name normalizer: whitespace or fold")
	f.StringVar(&compareReferencePreset, "reference-preset", "", "reference source preset (pleiades, geonames)")
	f.StringVar(&compareCandidatePreset, "candidate-preset", "", "candidate source preset (pleiades, geonames)")
	f.StringVar(&compareOutputFormat, "output-format", "", "csv or xlsx (default by extension)")
	f.StringArrayVar(&compareRefSources, "reference-source", nil, "extra reference files as preset=path[,path] (repeatable)")
	rootCmd.AddCommand(compareCmd)
}

// splitCompareArgs separates the output path, reference files and candidate
// files. dash is cobra's ArgsLenAtDash.
func splitCompareArgs(args []string, dash int) (string, []string, []string, error) {
	if len(args) < 3 {
		return "", nil, nil, eris.New("compare: need an output file, a reference file and a candidate file")
	}
	if dash < 0 {
		return args[0], args[1:2], args[2:], nil
	}
	if dash < 2 {
		return "", nil, nil, eris.New("compare: no reference files before --")
	}
	if dash >= len(args) {
		return "", nil, nil, eris.New("compare: no candidate files after --")
	}
	for _, a := range args[dash:] {
		if strings.HasPrefix(a, "-") {
			return "", nil, nil, eris.Errorf("compare: %q after -- is not a file; put flags before --", a)
		}
	}
	return args[0], args[1:dash], args[dash:], nil
}

// applyCompareFlags copies explicitly set flags over the loaded config.
func applyCompareFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		c.Match.ThresholdKM = compareThreshold
	}
	if flags.Changed("mode") {
		c.Match.Mode = compareMode
	}
	if flags.Changed("normalizer") {
		c.Match.Normalizer = compareNormalizer
	}
	if flags.Changed("reference-preset") {
		c.Reference.Preset = compareReferencePreset
	}
	if flags.Changed("candidate-preset") {
		c.Candidate.Preset = compareCandidatePreset
	}
	if flags.Changed("output-format") {
		c.Output.Format = compareOutputFormat
	}
	if flags.Changed("reference-source") {
		for _, spec := range compareRefSources {
			rs, err := config.ParseReferenceSource(spec)
			if err != nil {
				return err
			}
			c.ReferenceSources = append(c.ReferenceSources, rs)
		}
	}
	return nil
}

// runCompare builds the reference index, then streams candidates into the
// output file. The output is only created once the index is complete.
func runCompare(ctx context.Context, c *config.Config, log *zap.Logger, outPath string, refs, cands []string) (stats compare.Stats, err error) {
	norm, err := normalize.Lookup(c.Match.Normalizer)
	if err != nil {
		return stats, err
	}
	mode, err := compare.ParseMode(c.Match.Mode)
	if err != nil {
		return stats, err
	}

	refSrc, err := source.Open(c.Reference, refs, source.WithLogger(log))
	if err != nil {
		return stats, eris.Wrap(err, "compare: open reference")
	}
	refSources := []source.Source{refSrc}
	for i, rs := range c.ReferenceSources {
		src, err := source.Open(rs.SourceConfig, rs.Paths, source.WithLogger(log))
		if err != nil {
			return stats, eris.Wrapf(err, "compare: open reference source %d", i)
		}
		refSources = append(refSources, src)
	}
	candSrc, err := source.Open(c.Candidate, cands, source.WithLogger(log))
	if err != nil {
		return stats, eris.Wrap(err, "compare: open candidates")
	}

	idx, err := index.Build(ctx, norm, log, refSources...)
	if err != nil {
		return stats, err
	}
	log.Info("reference index built",
		zap.Int("names", idx.Names.Len()),
		zap.Int("places", idx.Places.Len()),
	)

	w, err := output.Create(outPath, c.Output.Format)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cmp, err := compare.New(mode, compare.Deps{
		Index:       idx,
		Sink:        w,
		ThresholdKM: c.Match.ThresholdKM,
		Logger:      log,
	})
	if err != nil {
		return stats, err
	}

	stats, err = compare.Run(ctx, candSrc, cmp, compare.WithDriverLogger(log))
	if err != nil {
		return stats, err
	}

	log.Info("compare complete",
		zap.String("mode", string(mode)),
		zap.String("output", outPath),
		zap.Int("candidates", stats.Records),
		zap.Int("matches", stats.Matches),
	)
	return stats, nil
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rushteam/carprice/config"
	"github.com/rushteam/carprice/config/builders"
	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/feature"
	"github.com/rushteam/carprice/model"
	"github.com/rushteam/carprice/pkg/format"
	"github.com/rushteam/carprice/pricing"
)

func newPredictCmd() *cobra.Command {
	var (
		artifactPath string
		recordArg    string
		lang         string
		explain      bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "estimate the price of one car record (JSON)",
		Long:  "Record is read from --record (inline JSON, @file, or - for stdin). Without --record the form defaults are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := model.LoadArtifact(artifactPath)
			if err != nil {
				return err
			}
			record, err := readRecord(recordArg, cmd.InOrStdin())
			if err != nil {
				return err
			}
			e, err := pricing.NewEstimator(a)
			if err != nil {
				return err
			}
			var res *pricing.Result
			if explain {
				res, err = e.Explain(cmd.Context(), record)
			} else {
				res, err = e.Predict(cmd.Context(), record)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Примерная стоимость автомобиля: %s\n", format.Price(res.Price, lang))
			for _, fb := range res.Fallbacks {
				fmt.Fprintf(out, "warning: %s=%q is unknown to the model, encoded as reference category\n", fb.Field, fb.Value)
			}
			if explain {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "FEATURE\tVALUE\tCOEF\tCONTRIBUTION")
				for _, c := range res.Contributions {
					fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", c.Feature, c.Value, c.Coefficient, c.Contribution)
				}
				return tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&artifactPath, "artifact", "model_artifacts.json", "model artifact file (json or yaml)")
	cmd.Flags().StringVar(&recordArg, "record", "", "record JSON, @file or -")
	cmd.Flags().StringVar(&lang, "lang", "ru", "display language for number grouping")
	cmd.Flags().BoolVar(&explain, "explain", false, "print per-feature contributions")
	return cmd
}

func newCoefCmd() *cobra.Command {
	var (
		artifactPath string
		top          int
	)
	cmd := &cobra.Command{
		Use:   "coef",
		Short: "show the largest model coefficients by absolute value",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := model.LoadArtifact(artifactPath)
			if err != nil {
				return err
			}
			s := model.Summarize(a)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\nintercept: %.4f\ncoefficients: %d\n\n", s.Version, s.Intercept, s.CoefficientCount)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FEATURE\tCOEF")
			for _, c := range model.TopCoefficients(a, top) {
				fmt.Fprintf(tw, "%s\t%.4f\n", c.Feature, c.Value)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&artifactPath, "artifact", "model_artifacts.json", "model artifact file (json or yaml)")
	cmd.Flags().IntVar(&top, "top", 30, "number of coefficients, 0 for all")
	return cmd
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "print the published input options as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(feature.DefaultOptions())
		},
	}
}

func newPublishCmd() *cobra.Command {
	var (
		configPath   string
		artifactPath string
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "validate a local artifact and publish it to the configured redis/s3 store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a, err := model.LoadArtifact(artifactPath)
			if err != nil {
				return err
			}
			s, err := builders.NewStore(cmd.Context(), cfg.Artifact)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := model.Publish(cmd.Context(), s, cfg.Artifact.Location, a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s (version %s) to %s:%s\n",
				artifactPath, a.Version(), cfg.Artifact.Source, cfg.Artifact.Location)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config (yaml or json)")
	cmd.Flags().StringVar(&artifactPath, "artifact", "model_artifacts.json", "model artifact file to publish")
	return cmd
}

// readRecord 解析记录：空值使用表单默认值，@path 读文件，- 读标准输入。
func readRecord(arg string, stdin io.Reader) (core.Record, error) {
	var data []byte
	switch {
	case arg == "":
		return core.Record(feature.DefaultRecord()), nil
	case arg == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		data = b
	case arg[0] == '@':
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
		data = b
	default:
		data = []byte(arg)
	}
	var record core.Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("record must be a JSON object")
	}
	return record, nil
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/snn/autodiff"
	"github.com/born-ml/snn/surrogate"
	"github.com/born-ml/snn/tensor"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snn %s\n", version)
		},
	}
}

func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which operator libraries are present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			st := surrogate.Status(cfg)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "install dir: %s\n", cfg.InstallDir)
			for _, a := range st.Present {
				fmt.Fprintf(out, "  present  %s\n", a)
			}
			for _, a := range st.Missing {
				fmt.Fprintf(out, "  missing  %s\n", a)
			}
			if !st.Complete() {
				return errors.Errorf("%d of %d libraries missing", len(st.Missing), len(st.Missing)+len(st.Present))
			}
			return nil
		},
	}
}

func newBuildCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build missing operator libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			res, err := surrogate.Build(cmd.Context(), cfg, surrogate.WithLogger(c.log))
			if err != nil {
				return err
			}
			if res.Built {
				fmt.Fprintln(cmd.OutOrStdout(), "built")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "up to date")
			}
			return nil
		},
	}
}

func newOpsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List registered operators and what backs them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.open(cmd)
			if err != nil {
				return err
			}
			for _, reg := range rt.SupportedOps() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", reg.ID, reg.Source)
			}
			return nil
		},
	}
}

func newEvalCommand(c *cli) *cobra.Command {
	var (
		op        string
		slope     float64
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "eval [flags] -- U...",
		Short: "Apply an operator to membrane potentials and print spikes and dS/dU",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := parseValues(args)
			if err != nil {
				return err
			}
			rt, err := c.open(cmd)
			if err != nil {
				return err
			}

			var opts []surrogate.OpOption
			if cmd.Flags().Changed("slope") {
				opts = append(opts, surrogate.WithSlope(slope))
			}
			if cmd.Flags().Changed("threshold") {
				opts = append(opts, surrogate.WithThreshold(threshold))
			}

			backend := rt.Backend()
			backend.Tape().StartRecording()
			x, err := tensor.FromSlice(u, tensor.Shape{len(u)}, backend)
			if err != nil {
				return err
			}
			spikes, err := surrogate.Apply(rt.Bind(op, opts...), x)
			if err != nil {
				return err
			}
			grads := autodiff.Backward(spikes, backend)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "U:     %s\n", formatValues(u))
			fmt.Fprintf(out, "S:     %s\n", formatValues(spikes.Data()))
			fmt.Fprintf(out, "dS/dU: %s\n", formatValues(grads[x.Raw()].AsFloat32()))
			return nil
		},
	}
	cmd.Flags().StringVar(&op, "op", "FastSigmoid", "operator name")
	cmd.Flags().Float64Var(&slope, "slope", 25, "surrogate slope k")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "firing threshold")
	return cmd
}

func parseValues(args []string) ([]float32, error) {
	out := make([]float32, 0, len(args))
	for _, a := range args {
		for _, f := range strings.FieldsFunc(a, func(r rune) bool { return r == ',' }) {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
			if err != nil {
				return nil, errors.Wrapf(err, "parse %q", f)
			}
			out = append(out, float32(v))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no values")
	}
	return out, nil
}

func formatValues(vs []float32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(float64(v), 'g', 6, 32)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

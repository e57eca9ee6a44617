/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/quadgeom/InputParameters"
	"github.com/notargets/quadgeom/integration"
	"github.com/notargets/quadgeom/types"
	"github.com/notargets/quadgeom/utils"
	"github.com/notargets/quadgeom/workset"
)

const exampleFile = `
########################################
Title: "Unit Square"
Mesh:
  Generator:
    Type: rect        # line, rect or box
    Element: triangle # rect: quad or triangle, box: hex or tet
    N: [1, 1]
    Bounds: [0, 1, 0, 1]
Integrations:
  - Kind: volume
    Order: 2
  - Kind: surface
    Order: 2
VirtualCells: false
########################################
`

// metricTol is the largest |g^-1 g - I| reported as ok
const metricTol = 1.e-10

// EvalCmd represents the eval command
var EvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate integration rules on a mesh and summarize their geometry",
	Long: `
Reads a YAML input file naming a mesh and a list of integration rules, evaluates every rule on the
whole mesh and prints, per rule, the points per cell, the total weighted measure of the owned cells
and the worst metric tensor residual.

quadgeom eval -I input.yaml`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			inputFile = viper.GetString("eval.input")
			ip        *InputParameters.EvalParameters
		)
		if viper.GetBool("eval.profile") {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}
		if ip, err = processInput(inputFile); err != nil {
			return
		}
		if np := viper.GetInt("eval.parallel"); np > 0 {
			ip.ParallelDegree = np
		}
		ip.Print(os.Stderr)
		return RunEval(cmd.OutOrStdout(), ip)
	},
}

func init() {
	rootCmd.AddCommand(EvalCmd)
	EvalCmd.Flags().StringP("inputFile", "I", "", "YAML file naming the mesh and the integration rules")
	EvalCmd.Flags().Bool("profile", false, "write a CPU profile to the current directory")
	EvalCmd.Flags().Int("parallel", 0, "number of parallel buckets, 0 uses all CPUs")
	_ = viper.BindPFlag("eval.input", EvalCmd.Flags().Lookup("inputFile"))
	_ = viper.BindPFlag("eval.profile", EvalCmd.Flags().Lookup("profile"))
	_ = viper.BindPFlag("eval.parallel", EvalCmd.Flags().Lookup("parallel"))
}

func processInput(inputFile string) (ip *InputParameters.EvalParameters, err error) {
	if len(inputFile) == 0 {
		fmt.Fprintf(os.Stderr, "Example File:%s\n", exampleFile)
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputFile)")
	}
	var data []byte
	if data, err = os.ReadFile(inputFile); err != nil {
		return
	}
	ip = &InputParameters.EvalParameters{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", inputFile, err)
	}
	return
}

// RunEval builds the mesh and the workset of ip and writes one summary line per integration rule
func RunEval(w io.Writer, ip *InputParameters.EvalParameters) (err error) {
	var (
		descs []integration.Descriptor
		p     *workset.LocalMeshPartition
		ws    *workset.Workset
	)
	if descs, err = ip.Descriptors(); err != nil {
		return
	}
	m, err := ip.BuildMesh()
	if err != nil {
		return
	}
	if ip.ParallelDegree > 0 {
		utils.SetParallelDegree(ip.ParallelDegree)
		defer utils.SetParallelDegree(0)
	}
	cells := make([]int, m.NumElements)
	for i := range cells {
		cells[i] = i
	}
	if p, err = workset.NewLocalMeshPartition(m, cells, ip.VirtualCells); err != nil {
		return
	}
	if ws, err = workset.New(p, workset.Options{}); err != nil {
		return
	}
	slog.Debug("workset ready", "cells", p.NumCells(), "virtual", p.NumVirtualCells)

	fmt.Fprintf(w, "%s: %d %s cells, %d virtual\n", ip.Title, p.NumOwnedCells, p.ElementType, p.NumVirtualCells)
	fmt.Fprintf(w, "%-12s %5s %4s %8s %14s %8s\n", "kind", "order", "side", "points", "measure", "metric")
	for _, desc := range descs {
		var iv *integration.Values
		if iv, err = ws.GetIntegrationValues(desc); err != nil {
			return fmt.Errorf("%s: %w", desc, err)
		}
		side := "-"
		if desc.Side >= 0 {
			side = fmt.Sprint(desc.Side)
		}
		metric := "ok"
		if res := metricResidual(iv, p.NumOwnedCells); !(res <= metricTol) {
			metric = fmt.Sprintf("%.2e", res)
		}
		fmt.Fprintf(w, "%-12s %5d %4s %8d %14.6f %8s\n",
			desc.Kind, desc.Order, side, iv.Rule.NumPoints, ownedMeasure(iv, p.NumOwnedCells), metric)
	}
	return
}

// ownedMeasure sums the weighted measure of the owned cells, control volume sides sum the weighted normal lengths
func ownedMeasure(iv *integration.Values, numOwned int) (sum float64) {
	for c := 0; c < numOwned; c++ {
		for p := 0; p < iv.Rule.NumPoints; p++ {
			if iv.Rule.Kind == types.INT_CVSide {
				sum += utils.Norm(iv.WeightedNormals.Slab(c, p))
			} else {
				sum += iv.WeightedMeasure.At(c, p)
			}
		}
	}
	return
}

// metricResidual is the largest Frobenius norm of Contravariant*Covariant - I over the owned cells
func metricResidual(iv *integration.Values, numOwned int) (res float64) {
	D := iv.Rule.SpatialDimension
	for c := 0; c < numOwned; c++ {
		for p := 0; p < iv.Rule.NumPoints; p++ {
			var (
				g    = iv.Covariant.Slab(c, p)
				gInv = iv.Contravariant.Slab(c, p)
				frob float64
			)
			for i := 0; i < D; i++ {
				for j := 0; j < D; j++ {
					var e float64
					for k := 0; k < D; k++ {
						e += gInv[i*D+k] * g[k*D+j]
					}
					if i == j {
						e -= 1
					}
					frob += e * e
				}
			}
			res = math.Max(res, math.Sqrt(frob))
		}
	}
	return
}

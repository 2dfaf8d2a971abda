// Command novabench is a smoke-test CLI exercising the engine end to
// end: construct tensors, run a handful of ops and a backward pass, and
// print timing — just one run, no statistical timing or regression
// tracking.
package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xtgo/set"

	"github.com/csotherden/nova/internal/autograd/graph"
	"github.com/csotherden/nova/internal/autograd/ops"
	"github.com/csotherden/nova/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/csotherden/nova"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#42"))
)

var rootCmd = &cobra.Command{
	Use:           "novabench",
	Short:         "Smoke-test the nova tensor and autodiff engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(runCmd, graphCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a small computation graph, run forward and backward, print timing",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	runID := uuid.New()
	fmt.Println(headerStyle.Render(fmt.Sprintf("novabench run %s", runID)))

	eng := nova.NewEngine()

	a, err := nova.FromFloat32([]int64{2, 2}, []float32{1, 2, 3, 4})
	if err != nil {
		return err
	}
	defer a.Release()
	b, err := nova.FromFloat32([]int64{2, 2}, []float32{5, 6, 7, 8})
	if err != nil {
		return err
	}
	defer b.Release()

	aID := eng.TrackInput(a, true)
	bID := eng.TrackInput(b, true)

	mulOp, _ := ops.Get("Mul")
	matmulOp, _ := ops.Get("MatMul")
	sumOp, _ := ops.Get("Sum")

	start := time.Now()

	prodID, err := eng.Apply(mulOp, nil, []graph.ValueID{aID, bID})
	if err != nil {
		return err
	}
	mmID, err := eng.Apply(matmulOp, nil, []graph.ValueID{aID, bID})
	if err != nil {
		return err
	}
	lossID, err := eng.Apply(sumOp, ops.ReduceParam{Axis: 0, Keepdim: false}, []graph.ValueID{mmID})
	if err != nil {
		return err
	}

	forwardElapsed := time.Since(start)

	loss, err := eng.Materialise(lossID)
	if err != nil {
		return err
	}
	defer loss.Release()

	backStart := time.Now()
	result, err := eng.Backward(lossID, true, false)
	if err != nil {
		return err
	}
	backwardElapsed := time.Since(backStart)

	opsRun := uniqueOpNames(mulOp.Name(), matmulOp.Name(), sumOp.Name())

	fmt.Printf("%s %v\n", labelStyle.Render("forward:"), forwardElapsed)
	fmt.Printf("%s %v\n", labelStyle.Render("backward:"), backwardElapsed)
	fmt.Printf("%s %d\n", labelStyle.Render("leaves with gradients:"), len(result.Leaves()))
	fmt.Printf("%s %v\n", labelStyle.Render("distinct ops run:"), opsRun)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	collector.ObservePool(a.Pool())
	collector.ObserveGraph(eng.NodeCount(), eng.ValueCount())

	_ = prodID
	fmt.Println(okStyle.Render("ok"))
	return nil
}

// uniqueOpNames dedupes and sorts op names via xtgo/set's in-place
// Uniq over a sort.Interface, rather than a map-based dedupe.
func uniqueOpNames(names ...string) []string {
	s := sort.StringSlice(names)
	s.Sort()
	n := set.Uniq(s)
	return []string(s)[:n]
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build the same small graph as run and print its Graphviz DOT dump",
	RunE:  runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	eng := nova.NewEngine()

	a, err := nova.FromFloat32([]int64{2, 2}, []float32{1, 2, 3, 4})
	if err != nil {
		return err
	}
	defer a.Release()
	b, err := nova.FromFloat32([]int64{2, 2}, []float32{5, 6, 7, 8})
	if err != nil {
		return err
	}
	defer b.Release()

	aID := eng.TrackInput(a, true)
	bID := eng.TrackInput(b, true)

	matmulOp, _ := ops.Get("MatMul")
	if _, err := eng.Apply(matmulOp, nil, []graph.ValueID{aID, bID}); err != nil {
		return err
	}

	fmt.Print(eng.Graph())
	return nil
}

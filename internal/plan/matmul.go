package plan

import "github.com/csotherden/nova/internal/xerr"

// reserved (private-use) runes for M/K/N so they never collide with the
// ASCII batch-axis labels generated below.
const (
	labelM rune = 0xE000 + iota
	labelK
	labelN
)

// BuildMatMulPlan is a convenience over BuildContractionPlan for the
// batched-matmul case used by tensor.MatMul: a of shape (...batch, M, K)
// and b of shape (...batch, K, N) produce out of shape (...batch, M, N).
// Both operands must have the same rank; their leading batch dims must be
// equal or broadcast (size 1 against any extent).
func BuildMatMulPlan(op string, a, b Descriptor, out Descriptor) (*ContractionPlan, error) {
	if a.Rank() < 2 || b.Rank() < 2 {
		return nil, xerr.Newf(xerr.RankTooLow, op, "matmul requires rank >= 2, got %d and %d", a.Rank(), b.Rank())
	}
	if a.Rank() != b.Rank() {
		return nil, xerr.Newf(xerr.IncompatibleShapes, op, "matmul operand ranks differ: %d vs %d", a.Rank(), b.Rank())
	}
	batchRank := a.Rank() - 2

	batchLabels := make([]rune, batchRank)
	for i := 0; i < batchRank; i++ {
		batchLabels[i] = rune('a' + i)
	}

	la := string(batchLabels) + string([]rune{labelM, labelK})
	lb := string(batchLabels) + string([]rune{labelK, labelN})
	lo := string(batchLabels) + string([]rune{labelM, labelN})

	return BuildContractionPlan(op, []Descriptor{a, b}, []string{la, lb}, lo, out)
}

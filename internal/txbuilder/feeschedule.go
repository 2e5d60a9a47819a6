package txbuilder

// FeeSchedule computes the fee for a transaction with the given number of
// spends and outputs. It is an interface (spec §14 open question 1) so a
// ZIP-317-compatible schedule can be swapped in without touching the
// builder.
type FeeSchedule interface {
	Compute(spends, outputs int) uint64
}

// Fixed is a flat per-action fee schedule: a base fee covering the first
// two logical actions (one spend, one output, or any mix) plus a fixed
// charge for every action beyond that. It is explicitly not claimed to be
// ZIP-317-compatible.
type Fixed struct {
	Base           uint64
	PerExtraAction uint64
}

// DefaultFeeSchedule is the schedule used when the caller supplies none:
// 5000 arrrtoshi base, 5000 per logical action beyond the first two.
func DefaultFeeSchedule() FeeSchedule {
	return Fixed{Base: 5000, PerExtraAction: 5000}
}

// Compute implements FeeSchedule.
func (f Fixed) Compute(spends, outputs int) uint64 {
	actions := spends + outputs
	if actions <= 2 {
		return f.Base
	}
	return f.Base + uint64(actions-2)*f.PerExtraAction
}

// DustThreshold is the minimum change value worth creating an output for
// (spec §4.6 step 7).
const DustThreshold = 10_000

package pass

import (
	"irguard/internal/ir"
)

// Walk visits op and every operation nested in it in pre-order.
func Walk(op ir.Operation, fn func(ir.Operation) error) error {
	if err := fn(op); err != nil {
		return err
	}
	regions, err := op.Regions()
	if err != nil {
		return err
	}
	for _, r := range regions {
		blocks, err := r.Blocks()
		if err != nil {
			return err
		}
		for _, b := range blocks {
			ops, err := b.Operations()
			if err != nil {
				return err
			}
			for _, nested := range ops {
				if err := Walk(nested, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

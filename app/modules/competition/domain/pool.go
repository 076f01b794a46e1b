package competitiondomain

import "fmt"

// PoolInput is the creator-supplied definition of a prize pool.
type PoolInput struct {
	PoolType        PoolType
	TotalAmount     Cents
	BuyInAmount     Cents
	PayoutStructure PayoutStructure
}

// Validate checks the pool definition. Fixed pools carry their full total up
// front; buy-in pools start empty and grow as captures are recorded.
func (in PoolInput) Validate() error {
	switch in.PoolType {
	case PoolTypeFixed:
		if in.TotalAmount <= 0 {
			return fmt.Errorf("%w: fixed pool needs a positive total", ErrInvalidPoolAmount)
		}
	case PoolTypeBuyIn:
		if in.BuyInAmount <= 0 {
			return fmt.Errorf("%w: buy-in pool needs a positive buy-in", ErrInvalidPoolAmount)
		}
		if in.TotalAmount != 0 {
			return fmt.Errorf("%w: buy-in pool total is funded by captures", ErrInvalidPoolAmount)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPoolType, in.PoolType)
	}
	return in.PayoutStructure.Validate()
}

// InitialTotal is the pool total at creation.
func (in PoolInput) InitialTotal() Cents {
	if in.PoolType == PoolTypeBuyIn {
		return 0
	}
	return in.TotalAmount
}

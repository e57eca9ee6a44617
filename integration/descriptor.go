package integration

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/notargets/quadgeom/types"
)

// Descriptor identifies an integration rule independent of the cells it will be applied to
type Descriptor struct {
	Kind  types.IntegrationType
	Order int
	Side  int // -1 unless Kind is INT_Side or INT_CVBoundary
}

func NewDescriptor(kind types.IntegrationType, order int, side ...int) (d Descriptor, err error) {
	d = Descriptor{Kind: kind, Order: order, Side: -1}
	if len(side) > 0 {
		d.Side = side[0]
	}
	err = d.Validate()
	return
}

func (d Descriptor) Validate() error {
	switch d.Kind {
	case types.INT_Volume, types.INT_Surface, types.INT_CVVolume, types.INT_CVSide:
		if d.Side != -1 {
			return fmt.Errorf("%w: %s rules do not take a side, have side %d", ErrConfiguration, d.Kind, d.Side)
		}
	case types.INT_Side, types.INT_CVBoundary:
		if d.Side < 0 {
			return fmt.Errorf("%w: %s rules need a side index >= 0", ErrConfiguration, d.Kind)
		}
	case types.INT_None:
		return fmt.Errorf("%w: integration kind NONE cannot be evaluated", ErrConfiguration)
	default:
		return fmt.Errorf("%w: unknown integration kind %d", ErrConfiguration, uint8(d.Kind))
	}
	if d.Order < 0 {
		return fmt.Errorf("%w: negative integration order %d", ErrConfiguration, d.Order)
	}
	return nil
}

func (d Descriptor) String() string {
	if d.Kind.HasSide() {
		return fmt.Sprintf("%s(order=%d,side=%d)", d.Kind, d.Order, d.Side)
	}
	return fmt.Sprintf("%s(order=%d)", d.Kind, d.Order)
}

// Key is a stable hash of the descriptor, equal descriptors have equal keys
func (d Descriptor) Key() uint64 {
	return xxhash.Sum64String(d.String())
}

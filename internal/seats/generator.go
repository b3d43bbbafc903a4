package seats

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"travelhub/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type priceBand struct {
	min, max int64
}

func (b priceBand) draw(r *rand.Rand) decimal.Decimal {
	return decimal.NewFromInt(b.min + r.Int64N(b.max-b.min+1))
}

var (
	flightBand     = priceBand{500, 1500}
	busSeaterBand  = priceBand{500, 1000}
	busSleeperBand = priceBand{800, 1300}

	movieCategories = []struct {
		name  string
		rows  string
		price int64
	}{
		{"regular", "ABCDEF", 250},
		{"premium", "GH", 400},
		{"recliner", "IJ", 600},
	}

	trainClasses = []struct {
		code  string
		band  priceBand
		berth int
	}{
		{"SL", priceBand{400, 700}, 24},
		{"3A", priceBand{800, 1200}, 24},
		{"2A", priceBand{1200, 1600}, 16},
		{"1A", priceBand{1600, 2000}, 8},
	}

	trainBerths = []string{"lower", "middle", "upper", "lower", "middle", "upper", "side_lower", "side_upper"}
)

// Generator synthesises seat layouts for the verticals without persisted inventory.
// A layout depends only on the seed and the item, so it can be re-derived at checkout.
type Generator struct {
	seed  uint64
	ratio float64
}

func NewGenerator(seed uint64, availabilityRatio float64) *Generator {
	if availabilityRatio <= 0 || availabilityRatio > 1 {
		availabilityRatio = 0.7
	}
	return &Generator{seed: seed, ratio: availabilityRatio}
}

func (g *Generator) rng(kind catalog.Kind, itemID uuid.UUID) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write(itemID[:])
	return rand.New(rand.NewPCG(g.seed, h.Sum64()))
}

func (g *Generator) available(r *rand.Rand) bool {
	return r.Float64() < g.ratio
}

func (g *Generator) unit(r *rand.Rand, id string, price decimal.Decimal) Unit {
	u := Unit{ID: id, Number: id, Price: price, Available: g.available(r)}
	u.Status = StatusAvailable
	if !u.Available {
		u.Status = StatusBooked
	}
	return u
}

// Generate returns the synthetic layout for item. Events are not generated.
func (g *Generator) Generate(item *catalog.Item) (*Layout, error) {
	r := g.rng(item.Kind, item.ID)
	layout := &Layout{Kind: item.Kind, ItemID: item.ID}

	switch item.Kind {
	case catalog.KindFlight:
		for row := 1; row <= 20; row++ {
			for _, col := range "ABCDEF" {
				u := g.unit(r, fmt.Sprintf("%d%c", row, col), flightBand.draw(r))
				switch col {
				case 'A', 'F':
					u.Position = "window"
				case 'C', 'D':
					u.Position = "aisle"
				default:
					u.Position = "middle"
				}
				layout.Units = append(layout.Units, u)
			}
		}

	case catalog.KindBus:
		if item.BusType == catalog.BusSleeper {
			for _, deck := range []string{"L", "U"} {
				for n := 1; n <= 15; n++ {
					u := g.unit(r, fmt.Sprintf("%s%d", deck, n), busSleeperBand.draw(r))
					u.Type = "sleeper"
					u.Position = map[string]string{"L": "lower", "U": "upper"}[deck]
					layout.Units = append(layout.Units, u)
				}
			}
		} else {
			for n := 1; n <= 40; n++ {
				u := g.unit(r, fmt.Sprintf("S%d", n), busSeaterBand.draw(r))
				u.Type = "seater"
				layout.Units = append(layout.Units, u)
			}
		}

	case catalog.KindMovie:
		for _, cat := range movieCategories {
			price := decimal.NewFromInt(cat.price)
			for _, row := range cat.rows {
				for n := 1; n <= 12; n++ {
					u := g.unit(r, fmt.Sprintf("%c%d", row, n), price)
					u.Category = cat.name
					layout.Units = append(layout.Units, u)
				}
			}
		}

	case catalog.KindTrain:
		for _, class := range trainClasses {
			for n := 1; n <= class.berth; n++ {
				u := g.unit(r, fmt.Sprintf("%s-%d", class.code, n), class.band.draw(r))
				u.Class = class.code
				u.Type = trainBerths[(n-1)%len(trainBerths)]
				u.Position = fmt.Sprintf("%d", n)
				layout.Units = append(layout.Units, u)
			}
		}

	default:
		return nil, fmt.Errorf("no synthetic layout for %q", item.Kind)
	}

	return layout, nil
}

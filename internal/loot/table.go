package loot

import (
	"github.com/osse101/LabRewards_Go/internal/domain"
)

// flatEntry is one active drop entry with its cumulative weight
type flatEntry struct {
	Entry       domain.ChestDropEntry
	CumulWeight int // cumulative weight up to and including this entry
}

// flatChest is the pre-computed runtime representation of a chest.
// Built on cache miss, read-only thereafter.
type flatChest struct {
	Chest       domain.ChestDefinition
	Entries     []flatEntry
	TotalWeight int
}

// buildFlatChest keeps the active entries of a drop table and accumulates their weights
func buildFlatChest(chest domain.ChestDefinition, entries []domain.ChestDropEntry) *flatChest {
	fc := &flatChest{Chest: chest}
	for _, e := range entries {
		if !e.Active || e.Weight <= 0 {
			continue
		}
		fc.TotalWeight += e.Weight
		fc.Entries = append(fc.Entries, flatEntry{Entry: e, CumulWeight: fc.TotalWeight})
	}
	return fc
}

// roller is the randomness a chest open consumes. Float64 returns [0, 1).
type roller func() float64

// intBetween returns an integer in [lo, hi], lo when hi < lo
func (r roller) intBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n := lo + int(r()*float64(hi-lo+1))
	if n > hi {
		n = hi
	}
	return n
}

// selectEntry returns the entry chosen by a weighted roll in [0, TotalWeight)
func selectEntry(fc *flatChest, rnd float64) *flatEntry {
	roll := int(rnd * float64(fc.TotalWeight))
	lo, hi := 0, len(fc.Entries)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if fc.Entries[mid].CumulWeight <= roll {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return &fc.Entries[lo]
}

// roll draws the slots of one chest
func (fc *flatChest) roll(r roller) []domain.Drop {
	k := r.intBetween(fc.Chest.MinDrops, fc.Chest.MaxDrops)
	drops := make([]domain.Drop, 0, k)
	for i := 0; i < k; i++ {
		e := selectEntry(fc, r()).Entry
		drops = append(drops, domain.Drop{
			ItemKey:  e.ItemKey,
			ItemName: e.ItemName,
			Rarity:   e.Rarity,
			Quantity: r.intBetween(e.QtyMin, e.QtyMax),
		})
	}
	return drops
}

// mergeDrops folds drops of the same item together, keeping first-seen order
func mergeDrops(into []domain.Drop, drops []domain.Drop) []domain.Drop {
	for _, d := range drops {
		merged := false
		for i := range into {
			if into[i].ItemKey == d.ItemKey {
				into[i].Quantity += d.Quantity
				merged = true
				break
			}
		}
		if !merged {
			into = append(into, d)
		}
	}
	return into
}

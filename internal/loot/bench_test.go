package loot

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

func BenchmarkSelectEntry(b *testing.B) {
	entries := make([]domain.ChestDropEntry, 200)
	for i := range entries {
		entries[i] = domain.ChestDropEntry{ItemKey: fmt.Sprintf("item_%d", i), Weight: i%7 + 1, Active: true}
	}
	fc := buildFlatChest(domain.ChestDefinition{Name: "big"}, entries)
	rolls := make([]float64, 1024)
	for i := range rolls {
		rolls[i] = rand.Float64()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = selectEntry(fc, rolls[i%len(rolls)])
	}
}

func BenchmarkOpenChest(b *testing.B) {
	env := newTestEnv(b)
	chest := seedChest(b, env, 1, 1, 3,
		entry("gem", 1, 1, 1),
		entry("scrap", 8, 1, 5),
		entry("key", 1, 1, 1),
	)
	ctx := context.Background()
	if _, err := env.wallet.Credit(ctx, "bench", int64(b.N)+1, "bench"); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.svc.OpenChest(ctx, "bench", chest.ID, 1); err != nil {
			b.Fatal(err)
		}
	}
}

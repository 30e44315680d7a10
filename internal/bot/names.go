package bot

import (
	"fmt"
	"math/rand"
)

// Names is the pool bot seats are named from.
var Names = []string{"Ironclad", "Shadow", "Viper", "Raven", "Storm", "Crimson", "Azure", "Onyx"}

// PickNames draws n distinct names. Past the size of the pool names get a numeric suffix.
func PickNames(n int, r *rand.Rand) []string {
	pool := append([]string(nil), Names...)
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := pool[i%len(pool)]
		if i >= len(pool) {
			name = fmt.Sprintf("%s %d", name, i/len(pool)+1)
		}
		out = append(out, name)
	}
	return out
}

// Package keys generates short, human-readable session identifiers so a
// host can read one out loud to friends in the room. Ids follow the pattern
// "word-word-number" (e.g. "apple-river-42").
package keys

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/tyler-smith/go-bip39/wordlists"
)

// wordlist is the BIP39 English wordlist (2048 words). Two words plus a
// number gives 2048 × 2048 × 100 = 419 million combinations, plenty for a
// single-process session map where the store retries collisions.
var wordlist = wordlists.English

// Generator produces session ids from its own random source. Safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator seeded from the wall clock.
func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SessionID returns a new candidate session id. Uniqueness is the caller's
// concern (the store checks and retries).
func (g *Generator) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	word1 := wordlist[g.rng.Intn(len(wordlist))]
	word2 := wordlist[g.rng.Intn(len(wordlist))]
	num := g.rng.Intn(100)
	return fmt.Sprintf("%s-%s-%d", word1, word2, num)
}

package policy

import (
	"log"
	randv2 "math/rand/v2"
	"sync"

	"github.com/riftholm/riftholm/internal/random"
)

// streams owns the character-keyed random sources. Access is
// mutex-guarded: the map may be touched by concurrent turns in a
// multi-goroutine host.
//
// Note the stream cursor for a character advances only on eligible
// evaluations. Changing eligibility logic therefore shifts every
// subsequent draw for that character under a fixed seed.
type streams struct {
	mu          sync.Mutex
	seed        string
	byCharacter map[string]*randv2.Rand
}

func newStreams(seed string) *streams {
	return &streams{
		seed:        seed,
		byCharacter: make(map[string]*randv2.Rand),
	}
}

// roll draws one uniform value in [0,1) from the character's stream,
// creating the stream on first use.
func (s *streams) roll(characterID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	rng, ok := s.byCharacter[characterID]
	if !ok {
		rng = s.newStream(characterID)
		s.byCharacter[characterID] = rng
	}
	return rng.Float64()
}

// newStream builds the character's source. Seeded engines derive a
// stable PCG stream from seed:characterID; unseeded engines use a
// ChaCha8 source keyed from crypto/rand.
func (s *streams) newStream(characterID string) *randv2.Rand {
	if s.seed != "" {
		hi, lo := random.DeriveStreamSeed(s.seed, characterID)
		return randv2.New(randv2.NewPCG(hi, lo))
	}

	key, err := random.NewChaChaSeed()
	if err != nil {
		// crypto/rand failure leaves no good option; log loudly and
		// degrade to a derived stream.
		log.Printf("policy: chacha seed: %v", err)
		hi, lo := random.DeriveStreamSeed("fallback", characterID)
		return randv2.New(randv2.NewPCG(hi, lo))
	}
	return randv2.New(randv2.NewChaCha8(key))
}

// ephemeralRoll draws one value from an independently seeded generator
// without touching any character stream.
func ephemeralRoll(seed int64) float64 {
	rng := randv2.New(randv2.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	return rng.Float64()
}

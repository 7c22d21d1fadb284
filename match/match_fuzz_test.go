package match

// Fuzz patterns and subjects.  Match each pair with differently sized
// pools and verify that the results agree and nothing leaks.

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/parley/core"
	. "github.com/Comcast/parley/util/testutil"
)

// Fuzz has parameters used to generate random patterns and subjects.
type Fuzz struct {
	Alphabet    []string
	GroupWidth  int
	ListWidth   int
	SubjectSize int

	Words     float64
	Choices   float64
	Optionals float64
	Stars     float64
	Refs      float64

	// generated counts the number of nodes generated.
	generated int64
}

// NewFuzz returns a reasonable, general-purpose Fuzz.
func NewFuzz() *Fuzz {
	return &Fuzz{
		Alphabet:    []string{"a", "b", "ab", "key", "the"},
		GroupWidth:  3,
		ListWidth:   3,
		SubjectSize: 5,

		Words:     6,
		Choices:   1,
		Optionals: 1,
		Stars:     0.5,
		Refs:      0.5,
	}
}

// Gen generates a random pattern.
func (f *Fuzz) Gen(r *rand.Rand, d int) string {
	n := r.Intn(f.ListWidth) + 1
	parts := make([]string, n)
	for i := range parts {
		parts[i] = f.genElement(r, d)
	}
	return strings.Join(parts, " ")
}

func (f *Fuzz) genElement(r *rand.Rand, d int) string {
	f.generated++

	m := f.Words + f.Stars + f.Refs
	if 0 < d {
		m += f.Choices + f.Optionals
	}

	t := r.Float64() * m
	if t < f.Words {
		return f.Alphabet[r.Intn(len(f.Alphabet))]
	} else if t < f.Words+f.Stars {
		return "*"
	} else if t < f.Words+f.Stars+f.Refs {
		return []string{"%object%", "%character%", "%number%", "%text%"}[r.Intn(4)]
	} else if t < f.Words+f.Stars+f.Refs+f.Choices {
		return "[" + f.genAlts(r, d-1) + "]"
	}
	return "{" + f.genAlts(r, d-1) + "}"
}

func (f *Fuzz) genAlts(r *rand.Rand, d int) string {
	alts := make([]string, r.Intn(f.GroupWidth)+1)
	for i := range alts {
		alts[i] = f.Gen(r, d)
	}
	return strings.Join(alts, "/")
}

// Subject generates random player input.
func (f *Fuzz) Subject(r *rand.Rand) string {
	words := make([]string, r.Intn(f.SubjectSize))
	for i := range words {
		if r.Intn(8) == 0 {
			words[i] = "12"
		} else {
			words[i] = f.Alphabet[r.Intn(len(f.Alphabet))]
		}
	}
	return strings.Join(words, " ")
}

// TestMatchFuzz matches a bunch of patterns against a bunch of subjects.
func TestMatchFuzz(t *testing.T) {
	var (
		pats           = 300
		subjectsPerPat = 20

		d = 2
		r = rand.New(rand.NewSource(42))
		f = NewFuzz()

		heap  = &Matcher{StepLimit: 100000}
		large = &Matcher{NodePoolSize: 1024, WordPoolSize: 1024, StepLimit: 100000}

		world = &core.World{
			Characters: []*core.Entity{{Name: "ab"}},
			Objects:    []*core.Entity{{Name: "key"}, {Name: "b key"}, {Name: "key"}},
		}

		attempted = 0
		matched   = 0
		limited   = 0
	)

	then := time.Now()
	for i := 0; i < pats; i++ {
		pat := f.Gen(r, d)
		for j := 0; j < subjectsPerPat; j++ {
			subject := f.Subject(r)
			attempted++

			v1, v2 := core.NewVars(), core.NewVars()
			r1, err1 := heap.Match(context.Background(), pat, subject, v1, world)
			r2, err2 := large.Match(context.Background(), pat, subject, v2, world)
			if err1 != err2 {
				t.Fatalf("%q %q: %v != %v", pat, subject, err1, err2)
			}
			if err1 == ErrStepLimit {
				limited++
				continue
			}
			if err1 != nil {
				t.Fatalf("%q %q: %s", pat, subject, err1)
			}
			if JS(r1) != JS(r2) || JS(v1) != JS(v2) {
				t.Fatalf("%q %q: %s %s != %s %s", pat, subject, JS(r1), JS(v1), JS(r2), JS(v2))
			}
			if r1.Matched {
				matched++
			}
		}
	}

	for _, m := range []*Matcher{heap, large} {
		if n := m.PoolStats().Live(); n != 0 {
			t.Fatalf("%d live", n)
		}
	}

	t.Logf("attempted %d, matched %d, limited %d, generated %d, elapsed %v",
		attempted, matched, limited, f.generated, time.Now().Sub(then))
}

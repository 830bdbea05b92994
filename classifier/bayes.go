package classifier

import (
	"math"
	"sort"
	"sync"

	"go.uber.org/atomic"
)

// ExtractFeatures builds the five-element feature vector spec.md §4.15
// names for the Bayes classifier: packet size, source port, destination
// port, Shannon entropy of the payload, and printable-ASCII ratio.
func ExtractFeatures(payload []byte, srcPort, dstPort uint16) []float64 {
	return []float64{
		float64(len(payload)),
		float64(srcPort),
		float64(dstPort),
		ShannonEntropy(payload),
		PrintableASCIIRatio(payload),
	}
}

// ShannonEntropy computes the byte-value entropy of data in bits, 0 for an
// empty slice. Grounded on protocol_detector.cpp's calculate_entropy.
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	n := float64(len(data))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// PrintableASCIIRatio is the fraction of bytes in the printable ASCII range
// 0x20-0x7E. Grounded on protocol_detector.cpp's calculate_ascii_ratio.
func PrintableASCIIRatio(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var printable int
	for _, b := range data {
		if b >= 32 && b <= 126 {
			printable++
		}
	}
	return float64(printable) / float64(len(data))
}

// OnlineGaussian tracks a running per-feature mean and variance for one
// protocol class, updated incrementally via Welford's algorithm rather than
// recomputed from a stored sample history. This is an enrichment over the
// source, which only tracked a running mean (classify_naive_bayes's score
// is a bare negative squared distance, with no variance normalization) —
// here LogLikelihood uses the accumulated variance to get an actual
// Gaussian log-density per feature, falling back to the source's
// unit-variance behavior until at least two samples have been seen.
type OnlineGaussian struct {
	mu    sync.Mutex
	count *atomic.Uint64
	mean  []float64
	m2    []float64 // sum of squared deviations from the running mean
}

// NewOnlineGaussian creates an empty per-class running statistic.
func NewOnlineGaussian() *OnlineGaussian {
	return &OnlineGaussian{count: atomic.NewUint64(0)}
}

// Update folds one observed feature vector into the running statistics.
// Concurrent callers must serialize their own updates (spec §5): the
// Classifier never calls this from more than one goroutine on the same
// instance, but OnlineGaussian does not self-synchronize calls beyond
// making its own internal mutation atomic.
func (g *OnlineGaussian) Update(features []float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.mean == nil {
		g.mean = make([]float64, len(features))
		g.m2 = make([]float64, len(features))
	}

	n := g.count.Inc()
	for i, x := range features {
		if i >= len(g.mean) {
			break
		}
		delta := x - g.mean[i]
		g.mean[i] += delta / float64(n)
		delta2 := x - g.mean[i]
		g.m2[i] += delta * delta2
	}
}

// Samples returns how many observations have been folded in.
func (g *OnlineGaussian) Samples() uint64 { return g.count.Load() }

// variance returns feature i's running variance, floored to avoid a
// degenerate zero-variance Gaussian collapsing the log-density to
// infinity on the first duplicate observation.
func (g *OnlineGaussian) variance(i int) float64 {
	n := g.count.Load()
	if n < 2 {
		return 1
	}
	v := g.m2[i] / float64(n-1)
	if v < 1e-6 {
		return 1e-6
	}
	return v
}

// LogLikelihood returns the summed per-feature Gaussian log-density of
// features under this class's running statistics, or math.Inf(-1) if no
// samples have been observed yet.
func (g *OnlineGaussian) LogLikelihood(features []float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.count.Load() == 0 {
		return math.Inf(-1)
	}

	var ll float64
	for i, x := range features {
		if i >= len(g.mean) {
			break
		}
		v := g.variance(i)
		diff := x - g.mean[i]
		ll += -0.5*math.Log(2*math.Pi*v) - (diff*diff)/(2*v)
	}
	return ll
}

// Bayes is the Gaussian-naive-Bayes classifier (spec.md §4.15): one
// OnlineGaussian per protocol label, fitted online via Update and scored
// via Classify.
type Bayes struct {
	mu      sync.RWMutex
	classes map[string]*OnlineGaussian
}

// NewBayes creates an empty Bayes classifier with no trained classes;
// Update must be called (directly, or via the config-driven bootstrap) for
// Classify to return anything but "unknown".
func NewBayes() *Bayes {
	return &Bayes{classes: make(map[string]*OnlineGaussian)}
}

// Update folds an observed feature vector into protocol's running
// statistics, creating the class's OnlineGaussian on first use.
func (b *Bayes) Update(protocol string, features []float64) {
	b.mu.Lock()
	g, ok := b.classes[protocol]
	if !ok {
		g = NewOnlineGaussian()
		b.classes[protocol] = g
	}
	b.mu.Unlock()
	g.Update(features)
}

// Classify scores features against every trained class and returns the
// best match. Confidence is the best log-likelihood normalized per feature
// and squashed into (0, 1) via exp, matching the source's
// `exp(best_score / features.size()) * 0.8` normalization, capped so a
// perfect match never claims more confidence than the signature scanner's
// fixed 0.9.
func (b *Bayes) Classify(features []float64) Candidate {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.classes) == 0 || len(features) == 0 {
		return Candidate{Protocol: "unknown", Confidence: 0.1, Method: "bayes"}
	}

	names := make([]string, 0, len(b.classes))
	for name := range b.classes {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic tie-break, unlike the source's map iteration

	best := math.Inf(-1)
	bestName := ""
	for _, name := range names {
		ll := b.classes[name].LogLikelihood(features)
		if ll > best {
			best = ll
			bestName = name
		}
	}
	if bestName == "" {
		return Candidate{Protocol: "unknown", Confidence: 0.1, Method: "bayes"}
	}

	confidence := math.Exp(best/float64(len(features))) * 0.8
	if confidence > 0.89 {
		confidence = 0.89
	}
	return Candidate{Protocol: bestName, Confidence: confidence, Method: "bayes"}
}

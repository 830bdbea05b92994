// Package classifier implements the heuristic protocol classifier
// (confidence-scored guesses about a window's protocol when no dissector
// claims it): port-map lookup, byte-signature scan, and a Gaussian-naive-Bayes
// model over a handful of structural features, combined and filtered by a
// confidence threshold. Grounded on original_source's
// src/ai/protocol_detector.cpp, re-expressed as three independently callable
// classifiers fanned out concurrently rather than one monolithic method.
package classifier

import (
	"sort"

	"github.com/sourcegraph/conc"
)

// Candidate is one classifier's guess about what protocol a window holds.
type Candidate struct {
	Protocol   string
	Confidence float64
	Method     string
}

// DefaultThreshold matches the source's confidence_threshold_ default.
const DefaultThreshold = 0.7

// Classifier combines the port-map, signature, and Bayes classifiers and
// filters their output by a confidence threshold. The zero value is not
// usable; construct one with New.
type Classifier struct {
	Threshold float64
	ports     *PortMap
	sigs      *SignatureTable
	bayes     *Bayes
}

// New creates a Classifier with the default threshold and empty component
// tables; callers populate PortMap/Signatures/Bayes via their accessors or
// build their own and pass them to NewWithComponents.
func New() *Classifier {
	return &Classifier{
		Threshold: DefaultThreshold,
		ports:     NewPortMap(),
		sigs:      NewSignatureTable(),
		bayes:     NewBayes(),
	}
}

// NewWithComponents builds a Classifier from already-configured component
// tables, e.g. ones loaded from `dissect.yml` (spec §3 config).
func NewWithComponents(threshold float64, ports *PortMap, sigs *SignatureTable, bayes *Bayes) *Classifier {
	return &Classifier{Threshold: threshold, ports: ports, sigs: sigs, bayes: bayes}
}

func (c *Classifier) PortMap() *PortMap          { return c.ports }
func (c *Classifier) Signatures() *SignatureTable { return c.sigs }
func (c *Classifier) Bayes() *Bayes              { return c.bayes }

// Classify runs the three pluggable classifiers concurrently (spec §4.15)
// and returns every candidate at or above the configured threshold, sorted
// by descending confidence. A panic inside one classifier is recovered by
// conc.WaitGroup and surfaces as that classifier contributing no candidate,
// rather than taking the whole call down.
func (c *Classifier) Classify(payload []byte, srcPort, dstPort uint16) []Candidate {
	var (
		portResult Candidate
		sigResult  Candidate
		bayesResult Candidate
	)

	var wg conc.WaitGroup
	wg.Go(func() { portResult = c.ports.Classify(srcPort, dstPort) })
	wg.Go(func() { sigResult = c.sigs.Classify(payload) })
	wg.Go(func() { bayesResult = c.bayes.Classify(ExtractFeatures(payload, srcPort, dstPort)) })
	wg.WaitAndRecover()

	out := make([]Candidate, 0, 4)
	for _, cand := range []Candidate{portResult, sigResult, bayesResult} {
		if cand.Confidence >= c.Threshold {
			out = append(out, cand)
		}
	}

	if dga := ClassifyDGA(payload); dga != nil {
		out = append(out, *dga)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

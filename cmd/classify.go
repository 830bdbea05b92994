package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"

	"firestige.xyz/dissect/adapter"
	"firestige.xyz/dissect/classifier"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <pcap-file>",
	Short: "Run the heuristic classifier over every packet in a pcap file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return classifyPcap(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func classifyPcap(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pr, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("read pcap header: %w", err)
	}
	src := adapter.NewOfflineSource(pr, nil)

	threshold := classifier.DefaultThreshold
	if cfg != nil && cfg.Classifier.Threshold > 0 {
		threshold = cfg.Classifier.Threshold
	}
	c := classifier.NewWithComponents(threshold, classifier.NewPortMap(), classifier.NewSignatureTable(), classifier.NewBayes())

	out := cmd.OutOrStdout()
	count := 0
	for {
		win, hints, err := src.Next()
		if err != nil {
			break
		}
		count++

		candidates := c.Classify(win.Bytes(), hints.SrcPort, hints.DstPort)
		printCandidates(out, count, candidates)
	}

	fmt.Fprintf(out, "\n%d packets classified\n", count)
	return nil
}

func printCandidates(out io.Writer, index int, candidates []classifier.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintf(out, "#%d: no candidate above threshold\n", index)
		return
	}
	best := candidates[0]
	fmt.Fprintf(out, "#%d: %s (%s, confidence %.2f)\n", index, best.Protocol, best.Method, best.Confidence)
}

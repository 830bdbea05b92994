package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"firestige.xyz/dissect/adapter"
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/dissectors"
	"firestige.xyz/dissect/registry"
)

var runCmd = &cobra.Command{
	Use:   "run <pcap-file>",
	Short: "Dissect every packet in a pcap file against the registered decoders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPcap(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPcap(cmd *cobra.Command, path string) error {
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

	r := registry.New()
	dissectors.RegisterAll(r)

	out := cmd.OutOrStdout()
	count, matched := 0, 0
	for {
		win, hints, err := src.Next()
		if err != nil {
			break
		}
		count++

		candidates := r.Candidates(registry.KindEtherType, win)
		if hints.EtherType == 0 {
			continue
		}
		for _, d := range candidates {
			ctx := dissect.NewContext(win)
			result := d.Parse(ctx)
			reportProgress(out, d.Descriptor().Name, d.Progress())
			if result.Ok() {
				matched++
				fmt.Fprintf(out, "#%d: %s matched (%s)\n", count, d.Descriptor().Name, result)
			}
		}
	}

	fmt.Fprintf(out, "\n%d packets read, %d dissector matches\n", count, matched)
	return nil
}

// reportProgress renders a single-line progress bar sized to the terminal
// width, or is silently skipped when stdout isn't a terminal (piped output,
// CI logs) — golang.org/x/term.GetSize fails in that case.
func reportProgress(out io.Writer, name string, fraction float64) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return
	}

	barWidth := width - len(name) - 10
	if barWidth < 10 {
		return
	}
	filled := int(fraction * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}

	bar := make([]byte, barWidth)
	for i := range bar {
		if i < filled {
			bar[i] = '='
		} else {
			bar[i] = ' '
		}
	}
	fmt.Fprintf(out, "\r%s [%s] %3.0f%%", name, bar, fraction*100)
}

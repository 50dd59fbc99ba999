package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/segment"
)

var (
	paragraphSize int
	windowSize    int
	segmentJSON   bool
)

// segmentCmd represents the segment command
var segmentCmd = &cobra.Command{
	Use:   "segment <file>",
	Short: "Show how a transcript is split into sentences, paragraphs and chunks",
	Long: `Segment splits transcript text the same way the citation check does:
sentences on ". ", paragraphs of consecutive sentences and sliding-window
chunks with stride 1.

Example:
  groundcheck segment transcripts/meeting-42.txt
  groundcheck segment transcripts/meeting-42.txt --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	segmentCmd.Flags().IntVar(&paragraphSize, "paragraph-size", segment.DefaultParagraphSize, "sentences per paragraph")
	segmentCmd.Flags().IntVar(&windowSize, "window-size", segment.DefaultWindowSize, "sentences per sliding-window chunk")
	segmentCmd.Flags().BoolVar(&segmentJSON, "json", false, "print the segmentation as JSON")
}

func runSegment(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	seg := segment.SegmentWith(string(data), segment.Options{
		ParagraphSize: paragraphSize,
		WindowSize:    windowSize,
	})

	if segmentJSON {
		out, err := json.MarshalIndent(seg, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal segmentation: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	for _, g := range model.Granularities {
		units := seg.Units(g)
		fmt.Printf("── %s (%d) ──\n", g, len(units))
		for _, u := range units {
			fmt.Printf("[%d] %s\n", u.Index, u.Text)
		}
		fmt.Println()
	}

	return nil
}

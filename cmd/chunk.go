package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pansum/panelpipe/pipeline"
)

var chunkOut string

var chunkCmd = &cobra.Command{
	Use:   "chunk <transcript.json>",
	Short: "Re-chunk a persisted transcript without re-running transcription",
	Long: `chunk reloads a speaker-attributed transcript JSON (either a bare
segment array or an object with a "segments" key) and re-runs turn grouping
and token-bounded chunking only.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		segments, err := pipeline.LoadSegments(args[0])
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, nil, nil, nil, log)
		chunks, err := p.ChunkSegments(segments)
		if err != nil {
			return err
		}

		out := chunkOut
		if out == "" {
			base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			out = base + "_chunks.json"
		}
		if err := pipeline.WriteChunks(out, chunks); err != nil {
			return err
		}

		log.WithField("chunks", len(chunks)).Info("re-chunking complete")
		fmt.Printf("chunks: %s (%d chunks)\n", out, len(chunks))
		return nil
	},
}

func init() {
	chunkCmd.Flags().StringVarP(&chunkOut, "output", "o", "", "output chunks JSON path (default <input>_chunks.json)")
	rootCmd.AddCommand(chunkCmd)
}

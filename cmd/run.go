package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pansum/panelpipe/clients"
	"github.com/pansum/panelpipe/media"
	"github.com/pansum/panelpipe/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <audio-file>",
	Short: "Run the full pipeline on an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if cfg.Services.Transcription.URL == "" {
			return errors.New("services.transcription.url is required")
		}

		ctx := cmd.Context()
		http := clients.NewHTTP(cfg.CallTimeout())

		seg := media.NewSegmenter(cfg.Audio.SegmentSeconds, cfg.Audio.OverlapSeconds, cfg.Paths.Tmp, log)
		asr := clients.NewTranscription(http, cfg.Services.Transcription.URL)

		var diar pipeline.Diarizer
		if cfg.Services.Diarization.URL != "" {
			diar = clients.NewDiarization(http, cfg.Services.Diarization.URL)
		} else {
			log.Warn("no diarization service configured, speakers will be UNKNOWN")
		}

		p := pipeline.New(cfg, seg, asr, diar, log)
		res, err := p.Run(ctx, args[0])
		if err != nil {
			return err
		}

		arts, err := pipeline.Persist(cfg.Paths.Outputs, res)
		if err != nil {
			return fmt.Errorf("persist artifacts: %w", err)
		}

		for _, w := range res.Warnings {
			log.WithField("window", w.Window).WithField("component", w.Component).Warn(w.Message)
		}
		fmt.Printf("session:    %s\n", res.SessionID)
		fmt.Printf("transcript: %s\n", arts.TranscriptJSON)
		fmt.Printf("chunks:     %s (%d chunks)\n", arts.ChunksJSON, len(res.Chunks))
		fmt.Printf("report:     %s\n", arts.ReportJSON)

		if cfg.Services.Indexer.URL != "" {
			ix := clients.NewIndexer(http, cfg.Services.Indexer.URL)
			resp, err := ix.Index(ctx, res.SessionID, res.Chunks)
			if err != nil {
				log.WithError(err).Warn("indexer hand-off failed, chunks remain in chunks.json")
			} else {
				log.WithField("indexed", resp.Indexed).Info("chunks handed to indexer")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

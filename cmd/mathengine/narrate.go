package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/narrate"
)

var narrateCmd = &cobra.Command{
	Use:   "narrate <result-id> <at-seconds>:<text> [...]",
	Short: "Narrate a rendered video with synthesized speech (no server needed)",
	Long: `Narrate a stored result's video with synthesized speech.

Each cue is given as OFFSET:TEXT, where OFFSET is seconds from the
start of the video:

  mathengine narrate 4f1c... "0:We start with the equation" "5.5:Subtract five"

Requires ffmpeg on PATH and a configured TTS provider.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cues := make([]narrate.Cue, 0, len(args)-1)
		for _, arg := range args[1:] {
			at, text, ok := strings.Cut(arg, ":")
			if !ok {
				return fmt.Errorf("invalid cue %q, want OFFSET:TEXT", arg)
			}
			offset, err := strconv.ParseFloat(at, 64)
			if err != nil {
				return fmt.Errorf("invalid cue offset %q: %w", at, err)
			}
			cues = append(cues, narrate.Cue{AtSeconds: offset, Text: text})
		}

		env, err := newLocalEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ttsName := env.Config.Defaults.TTSProvider
		synth, err := env.Registry.GetTTS(ttsName)
		if err != nil {
			return err
		}

		muxer := narrate.NewMuxer("", "")
		if err := muxer.CheckAvailable(); err != nil {
			return err
		}

		ttsCfg := env.Config.TTSProviders[ttsName]
		narrator, err := narrate.New(narrate.Config{
			Synthesizer: synth,
			Muxer:       muxer,
			Voice:       ttsCfg.Voice,
			Speed:       ttsCfg.Speed,
			Logger:      env.Logger,
		})
		if err != nil {
			return err
		}

		rec, err := env.Store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !rec.Success || rec.ArtifactPath == "" {
			return fmt.Errorf("result %s has no rendered video", rec.ID)
		}

		result, runErr := narrator.Narrate(cmd.Context(), rec.ArtifactPath, cues, env.Home.NarratedPath(rec.ID))
		if runErr != nil {
			return runErr
		}
		return api.Output(result)
	},
}

func init() {
	rootCmd.AddCommand(narrateCmd)
}

package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/engine"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
)

var (
	genRequirements string
	genAudience     string
	genStyle        string
	genModel        string
	genQuality      string
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate an animation from a math topic (no server needed)",
	Long: `Generate a Manim animation for a free-text math topic.

This runs the generate-validate-render loop in-process using the local
config. To go through a running server instead, use:

  mathengine api generate <topic>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newLocalEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		gen, err := env.Registry.GetLLM(env.Config.Defaults.LLMProvider)
		if err != nil {
			return err
		}

		q := genQuality
		if q == "" {
			q = env.Config.Renderer.Quality
		}
		quality, err := render.ParseQuality(q)
		if err != nil {
			return err
		}

		eng, err := engine.New(engine.Config{
			Generator:   gen,
			Renderer:    env.Renderer,
			MaxAttempts: env.Config.Engine.MaxAttempts,
			Model:       env.Config.Engine.Model,
			Quality:     quality,
			Logger:      env.Logger,
		})
		if err != nil {
			return err
		}

		id := uuid.New().String()
		result, runErr := eng.Run(cmd.Context(), &engine.Request{
			ID:           id,
			Topic:        args[0],
			Requirements: genRequirements,
			Audience:     genAudience,
			Style:        genStyle,
			Model:        genModel,
			Quality:      quality,
			OutputPath:   env.Home.OutputPath(id),
		})
		if result == nil {
			return runErr
		}

		if err := env.Store.Save(cmd.Context(), &store.Record{
			ID:           result.ID,
			Mode:         store.ModeGenerate,
			Topic:        result.Topic,
			Success:      result.Success,
			Attempts:     result.AttemptCount(),
			Source:       result.Source,
			SceneName:    result.SceneName,
			ArtifactPath: result.ArtifactPath,
			ErrorMessage: result.ErrorMessage,
			DurationMS:   result.Duration.Milliseconds(),
		}); err != nil {
			env.Logger.Error("failed to persist result", "id", result.ID, "error", err)
		}

		if runErr != nil {
			return runErr
		}
		return api.Output(result)
	},
}

func init() {
	generateCmd.Flags().StringVar(&genRequirements, "requirements", "", "Extra requirements for the animation")
	generateCmd.Flags().StringVar(&genAudience, "audience", "", "Audience level (e.g. \"middle school\")")
	generateCmd.Flags().StringVar(&genStyle, "style", "", "Style preferences")
	generateCmd.Flags().StringVar(&genModel, "model", "", "LLM model override")
	generateCmd.Flags().StringVar(&genQuality, "quality", "", "Render quality: low, medium, high, 4k")

	rootCmd.AddCommand(generateCmd)
}

package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/templates"
)

var answerQuality string

var answerCmd = &cobra.Command{
	Use:   "answer <question>",
	Short: "Answer a concrete math question with a templated animation (no server needed)",
	Long: `Answer a concrete math question by matching it against the template
library and rendering a parameterized scene.

The regex parser handles well-formed questions without any LLM. When it
cannot match and an LLM provider is configured, the LLM extracts the
template and parameters instead.

  mathengine answer "Solve 3x + 5 = 14"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newLocalEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		registry, err := templates.NewLibraryRegistry()
		if err != nil {
			return err
		}
		parser, err := templates.NewLibraryParser(registry)
		if err != nil {
			return err
		}

		// The LLM fallback is optional; answering works without it.
		var llmParser *templates.LLMParser
		if gen, err := env.Registry.GetLLM(env.Config.Defaults.LLMProvider); err == nil {
			llmParser, err = templates.NewLLMParser(gen, registry)
			if err != nil {
				return err
			}
		}

		q := answerQuality
		if q == "" {
			q = env.Config.Renderer.Quality
		}
		quality, err := render.ParseQuality(q)
		if err != nil {
			return err
		}

		eng, err := templates.NewEngine(templates.EngineConfig{
			Registry:  registry,
			Parser:    parser,
			LLMParser: llmParser,
			Renderer:  env.Renderer,
			Quality:   quality,
			Logger:    env.Logger,
		})
		if err != nil {
			return err
		}

		id := uuid.New().String()
		result, runErr := eng.Answer(cmd.Context(), &templates.AnswerRequest{
			ID:         id,
			Question:   args[0],
			Quality:    quality,
			OutputPath: env.Home.OutputPath(id),
		})
		if result == nil {
			return runErr
		}

		if err := env.Store.Save(cmd.Context(), &store.Record{
			ID:           result.ID,
			Mode:         store.ModeAnswer,
			Question:     result.Question,
			TemplateID:   result.TemplateID,
			Success:      result.Success,
			Source:       result.Source,
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
	answerCmd.Flags().StringVar(&answerQuality, "quality", "", "Render quality: low, medium, high, 4k")

	rootCmd.AddCommand(answerCmd)
}

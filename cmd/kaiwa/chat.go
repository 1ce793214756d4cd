package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrygo/kaiwa/ai/cache"
	"github.com/hrygo/kaiwa/ai/core/llm"
	"github.com/hrygo/kaiwa/ai/scenario"
)

func newChatCommand() *cobra.Command {
	var (
		scenarioID   string
		userID       string
		difficulty   int
		threshold    float64
		adaptive     bool
		noLearning   bool
		scenarioDir  string
		systemPrompt string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive practice session against the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), terminationSignals...)
			defer cancel()

			rt, err := newRuntime(ctx, adaptive)
			if err != nil {
				return err
			}
			defer rt.Close()

			enableLearning := !noLearning
			if scenarioDir != "" {
				registry, err := scenario.LoadRegistry(scenarioDir)
				if err != nil {
					return err
				}
				sc, ok := registry.Get(scenarioID)
				if !ok {
					return fmt.Errorf("scenario %q not found under %s", scenarioID, scenarioDir)
				}
				if systemPrompt == "" {
					systemPrompt = sc.SystemPrompt
				}
				if difficulty <= 0 {
					difficulty = sc.DefaultDifficulty
				}
				if sc.DisableLearning {
					enableLearning = false
				}
			}
			if difficulty <= 0 {
				difficulty = 1
			}

			rt.generator.Warmup(ctx)
			fmt.Printf("kaiwa %s — scenario %s, difficulty %d. Empty line or Ctrl-D quits.\n",
				rt.profile.Version, scenarioID, difficulty)

			runChatLoop(ctx, rt.orchestrator, chatParams{
				scenarioID:     scenarioID,
				userID:         userID,
				difficulty:     difficulty,
				threshold:      threshold,
				systemPrompt:   systemPrompt,
				enableLearning: enableLearning,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioID, "scenario", "free-talk", "scenario identifier")
	cmd.Flags().StringVar(&userID, "user", "local", "user identifier for analytics")
	cmd.Flags().IntVar(&difficulty, "difficulty", 0, "difficulty level 1-5 (0 uses the scenario default)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "similarity threshold override in (0,1]")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "derive the threshold from the conversation turn")
	cmd.Flags().BoolVar(&noLearning, "no-learning", false, "do not absorb generated replies into the cache")
	cmd.Flags().StringVar(&scenarioDir, "scenario-dir", "", "directory holding scenarios/*.yaml definitions")
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "explicit system prompt for the generator")

	return cmd
}

type chatParams struct {
	scenarioID     string
	userID         string
	difficulty     int
	threshold      float64
	systemPrompt   string
	enableLearning bool
}

func runChatLoop(ctx context.Context, orchestrator *cache.Orchestrator, params chatParams) {
	scanner := bufio.NewScanner(os.Stdin)
	var history []llm.Turn
	turn := 1

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			return
		}

		result := orchestrator.GetResponse(ctx, cache.Request{
			Input:          input,
			ScenarioID:     params.scenarioID,
			Difficulty:     params.difficulty,
			Turn:           turn,
			UserID:         params.userID,
			History:        history,
			SystemPrompt:   params.systemPrompt,
			Threshold:      params.threshold,
			EnableLearning: params.enableLearning,
		})

		switch result.Kind {
		case cache.KindHit:
			fmt.Printf("%s\n  (cached, similarity %.2f)\n", result.Text, result.Similarity)
		case cache.KindMiss:
			fmt.Printf("%s\n  (generated)\n", result.Text)
		case cache.KindError:
			fmt.Fprintf(os.Stderr, "error: %v\n", result.Err)
			continue
		}

		history = append(history,
			llm.Turn{Text: input, IsUser: true},
			llm.Turn{Text: result.Text, IsUser: false},
		)
		turn++
	}
}

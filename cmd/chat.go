package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidbz/chatstream/internal/domain"
)

type chatOptions struct {
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int
	noStream     bool
}

func newChatCommand() *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message and print the reply; Ctrl-C stops a streaming reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := buildContainer()
			if err != nil {
				return err
			}

			return container.Invoke(func(
				logger *zap.Logger,
				client domain.CompletionClient,
				router domain.UpstreamRouter,
				up *upstreams,
			) error {
				defer func() {
					_ = up.Close(context.Background())
					_ = logger.Sync()
				}()

				req := opts.request(strings.Join(args, " "), cmd.Flags().Changed("temperature"))

				upstream, err := router.Route(cmd.Context(), req.Model)
				if err != nil {
					return err
				}

				if opts.noStream {
					return runCompletion(cmd.Context(), cmd.OutOrStdout(), client, upstream, req)
				}
				return runStream(cmd.Context(), cmd.OutOrStdout(), client, upstream, req)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "gpt-4o-mini", "model identifier")
	cmd.Flags().StringVarP(&opts.systemPrompt, "system", "s", "", "system prompt")
	cmd.Flags().Float64VarP(&opts.temperature, "temperature", "t", 0, "sampling temperature")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "completion token limit (0 for the model default)")
	cmd.Flags().BoolVar(&opts.noStream, "no-stream", false, "wait for the whole reply")

	return cmd
}

func (o chatOptions) request(content string, withTemperature bool) *domain.CompletionRequest {
	req := &domain.CompletionRequest{Model: o.model}

	if o.systemPrompt != "" {
		req.Messages = append(req.Messages, domain.Message{Role: domain.RoleSystem, Content: o.systemPrompt})
	}
	req.Messages = append(req.Messages, domain.Message{Role: domain.RoleUser, Content: content})

	if withTemperature {
		req.Temperature = domain.Float(o.temperature)
	}
	if o.maxTokens > 0 {
		req.MaxTokens = domain.Int(o.maxTokens)
	}

	return req
}

func runCompletion(
	ctx context.Context,
	out io.Writer,
	client domain.CompletionClient,
	upstream *domain.Upstream,
	req *domain.CompletionRequest,
) error {
	result, err := client.SendCompletion(ctx, upstream.BaseURL, upstream.Credential, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, result.Response.Content)
	printMetrics(result.Metrics)
	return nil
}

func runStream(
	ctx context.Context,
	out io.Writer,
	client domain.CompletionClient,
	upstream *domain.Upstream,
	req *domain.CompletionRequest,
) error {
	token := domain.NewCancellationToken(ctx)
	defer token.Release()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	go func() {
		select {
		case <-interrupts:
			token.Cancel()
		case <-token.Context().Done():
		}
	}()

	printed := 0
	handler := domain.StreamHandler{
		OnChunk: func(content string, _ bool, _ *time.Duration) {
			if len(content) > printed {
				fmt.Fprint(out, content[printed:])
				printed = len(content)
			}
		},
		OnComplete: printMetrics,
	}

	err := client.SendStreamingCompletion(ctx, upstream.BaseURL, upstream.Credential, req, handler, token)
	fmt.Fprintln(out)

	if domain.IsAborted(err) {
		fmt.Fprintln(os.Stderr, "(stopped)")
		return nil
	}

	var chatErr *domain.ChatError
	if errors.As(err, &chatErr) && chatErr.Retryable {
		return fmt.Errorf("%w (retryable)", chatErr)
	}
	return err
}

func printMetrics(m *domain.ResponseMetrics) {
	ttft := "n/a"
	if m.TimeToFirstToken != nil {
		ttft = m.TimeToFirstToken.Round(time.Millisecond).String()
	}

	fmt.Fprintf(os.Stderr, "tokens=%d (prompt %d, completion %d) cost=$%.4f time=%s ttft=%s\n",
		m.Tokens.TotalTokens,
		m.Tokens.PromptTokens,
		m.Tokens.CompletionTokens,
		m.EstimatedCost,
		m.ResponseTime.Round(time.Millisecond),
		ttft,
	)
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minhyannv/github-mcp-agent/pkg/agent"
	"github.com/minhyannv/github-mcp-agent/pkg/llm"
)

// exampleKeys fixes the menu order.
var exampleKeys = []string{"1", "2", "3", "4"}

// examples maps menu keys to the literal queries submitted to the agent.
var examples = map[string]string{
	"1": "Can you find the typo in the README of TheMimikyu/spring-into-haystack and open an issue about how to fix it? Be clear in the details provided in the typo.",
	"2": "List all open issues containing 'async pipelines' in deepset-ai/haystack and deepset-ai/haystack-core-integrations.",
	"3": "Show me all open issues labelled 'Contributions wanted!' in deepset-ai/haystack and deepset-ai/haystack-core-integrations.",
	"4": "Fork the deepset-ai/haystack repository into my account.",
}

const invalidSelection = "⚠️  Invalid selection. Please choose 1, 2, 3, or 4."

// queryRunner is the part of the agent the menu needs.
type queryRunner interface {
	Run(ctx context.Context, messages []llm.Message) (*agent.Result, error)
}

// runMenu shows the example menu, reads one selection and runs it once.
// An invalid selection prints a warning and returns nil without calling the agent.
func runMenu(ctx context.Context, runner queryRunner, in io.Reader, out io.Writer) error {
	if runner == nil {
		return errors.New("agent is required")
	}
	if in == nil {
		return errors.New("input reader is required")
	}
	if out == nil {
		out = io.Discard
	}

	printMenu(out)
	_, _ = fmt.Fprint(out, "Select an example to run (1–4): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read input: %w", err)
	}

	query, ok := examples[strings.TrimSpace(line)]
	if !ok {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, invalidSelection)
		return nil
	}

	_, _ = fmt.Fprintf(out, "\n> Running query: %s\n\n", query)

	result, err := runner.Run(ctx, []llm.Message{llm.UserMessage(query)})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "\n=== Agent Trace ===")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, result)
	_, _ = fmt.Fprintln(out, "\n=== Final Response ===")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, result.Text())
	return nil
}

func printMenu(out io.Writer) {
	_, _ = fmt.Fprintln(out, "\n=== AGENTIC GITHUB DEMO - MCP x Go ===")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "NOTE: Fixed input queries due to scope of work.")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "=== Example Queries ===")
	_, _ = fmt.Fprintln(out, "You can run the following example queries to test the agent.")
	for _, key := range exampleKeys {
		_, _ = fmt.Fprintf(out, "[%s] %s\n", key, examples[key])
	}
	_, _ = fmt.Fprintln(out)
}

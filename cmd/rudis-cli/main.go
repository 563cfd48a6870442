// Command rudis-cli is a minimal interactive client (spec.md §4.L),
// generalized from the teacher's internal/cli subcommand dispatcher
// down to the one thing left once migration subcommands are gone: a
// REPL that reads a line, sends it as a RESP2 command, and prints the
// reply.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"rudis/internal/rtclient"
)

func main() {
	addr := pflag.StringP("addr", "a", "127.0.0.1:6379", "server address")
	timeout := pflag.Duration("timeout", 3*time.Second, "per-command timeout")
	pflag.Parse()

	client := rtclient.Dial(*addr, *timeout)
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "could not reach %s: %v\n", *addr, err)
		os.Exit(1)
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Printf("rudis-cli connected to %s\n", *addr)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return
		}

		args := splitArgs(line)
		anyArgs := make([]any, len(args))
		for i, a := range args {
			anyArgs[i] = a
		}

		reply, err := client.Do(ctx, anyArgs...)
		if err != nil {
			fmt.Printf("(error) %v\n", err)
			continue
		}
		fmt.Println(formatReply(reply))
	}
}

// splitArgs is a minimal whitespace tokenizer with double-quote
// support, enough for interactive use; it does not aim to be a full
// shell-quoting parser.
func splitArgs(line string) []string {
	var args []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if cur.Len() > 0 {
				args = append(args, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		args = append(args, cur.String())
	}
	return args
}

func formatReply(v any) string {
	switch r := v.(type) {
	case nil:
		return "(nil)"
	case []interface{}:
		if len(r) == 0 {
			return "(empty array)"
		}
		parts := make([]string, len(r))
		for i, item := range r {
			parts[i] = fmt.Sprintf("%d) %s", i+1, formatReply(item))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprintf("%v", r)
	}
}

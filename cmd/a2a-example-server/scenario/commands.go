// Package scenario implements a scripted AgentExecutor for the example
// server: incoming message text is parsed as a small sequence of
// commands (wait, respond, stream, error, ask), executed in order,
// generalized from the teacher's free-form command parser
// (server/cmd/a2a-example-server/agent/parser.go and agent.go) into a
// semicolon-separated command grammar that doesn't need positional
// lookahead bookkeeping to find where one command's payload ends and
// the next command begins.
package scenario

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Command is one scripted step parsed from an incoming message.
type Command struct {
	Type string
	// Kind distinguishes "respond text" from "respond data"; unused by
	// every other command type.
	Kind    string
	Payload string
	N       int
}

var (
	waitRe    = regexp.MustCompile(`(?i)^wait\s+(\d+)\s*(?:seconds?)?$`)
	streamRe  = regexp.MustCompile(`(?i)^stream\s+(\d+)\s*(?:chunks?)?$`)
	errorRe   = regexp.MustCompile(`(?i)^(?:trigger\s+)?error\s+(-?\d+|fail)$`)
	respondRe = regexp.MustCompile(`(?i)^respond\s+(?:with\s+)?(text|data)\s+(.+)$`)
	askRe     = regexp.MustCompile(`(?i)^ask(?:\s+for\s+input)?(?:\s+(.+))?$`)
)

// ParseCommands splits text on ';' and parses each segment into a
// Command. A segment matching none of the known verbs becomes a
// "respond text" command echoing that segment verbatim, so a plain
// message without any scripted command still produces a reply.
func ParseCommands(text string) []Command {
	segments := strings.Split(text, ";")
	commands := make([]Command, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		commands = append(commands, parseSegment(seg))
	}
	if len(commands) == 0 {
		commands = append(commands, Command{Type: "respond", Payload: "OK"})
	}
	return commands
}

func parseSegment(seg string) Command {
	if m := waitRe.FindStringSubmatch(seg); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Command{Type: "wait", N: n}
	}
	if m := streamRe.FindStringSubmatch(seg); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Command{Type: "stream", N: n}
	}
	if m := errorRe.FindStringSubmatch(seg); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			return Command{Type: "error", N: code}
		}
		return Command{Type: "error", Payload: "fail"}
	}
	if m := respondRe.FindStringSubmatch(seg); m != nil {
		return Command{Type: "respond", Kind: strings.ToLower(m[1]), Payload: m[2]}
	}
	if m := askRe.FindStringSubmatch(seg); m != nil {
		prompt := strings.TrimSpace(m[1])
		if prompt == "" {
			prompt = "Please provide input:"
		}
		return Command{Type: "ask", Payload: prompt}
	}
	return Command{Type: "respond", Kind: "text", Payload: seg}
}

func (c Command) String() string {
	return fmt.Sprintf("%s(kind=%s, n=%d, payload=%q)", c.Type, c.Kind, c.N, c.Payload)
}

/**
 * @description
 * Parser for the cumulative USSD input string. The aggregator resends the
 * whole keystroke history on every request as a delimiter-separated string;
 * this file turns it into an ordered token sequence.
 *
 * @notes
 * - The answer to the current prompt is ALWAYS the last token. Indexing by
 *   absolute position desyncs as soon as an earlier answer has variable
 *   length, so nothing outside the router's first-token dispatch may index
 *   positionally.
 */
package engine

import "strings"

// Delimiter used by the aggregator between keystroke groups.
const Delimiter = "*"

// Input is the parsed form of one request's cumulative text.
type Input struct {
	Tokens []string
	Level  int
}

// ParseInput splits the cumulative text into ordered tokens. Empty text
// yields zero tokens and level 0.
func ParseInput(text string) Input {
	if text == "" {
		return Input{}
	}
	tokens := strings.Split(text, Delimiter)
	return Input{Tokens: tokens, Level: len(tokens)}
}

// Empty reports whether the user has entered nothing yet, i.e. this request
// opens a fresh conversation.
func (in Input) Empty() bool {
	return in.Level == 0
}

// Choice returns the first token: the top-level menu selection that routed
// the conversation into its current flow.
func (in Input) Choice() string {
	if in.Level == 0 {
		return ""
	}
	return in.Tokens[0]
}

// Answer returns the most recently entered token, the user's answer to the
// prompt issued by the previous request.
func (in Input) Answer() string {
	if in.Level == 0 {
		return ""
	}
	return in.Tokens[in.Level-1]
}

/**
 * @description
 * The two-valued USSD response type. Every handler path in the engine ends in
 * either a continue response (the aggregator prompts for more input) or a
 * terminal response (the conversation ends).
 */
package engine

// Response is the engine's answer to one USSD request.
type Response struct {
	Terminal bool
	Text     string
}

// Continue builds a response that keeps the conversation open.
func Continue(text string) Response {
	return Response{Terminal: false, Text: text}
}

// End builds a response that terminates the conversation.
func End(text string) Response {
	return Response{Terminal: true, Text: text}
}

// Render produces the wire form expected by the aggregator: the literal
// prefix "CON " or "END " followed by the prompt text.
func (r Response) Render() string {
	if r.Terminal {
		return "END " + r.Text
	}
	return "CON " + r.Text
}

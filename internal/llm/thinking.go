package llm

// Markers wrapped around reasoning text inside an assistant message body,
// so the client can render the "thinking" block collapsed and separate
// from the final answer.
const (
	ThinkingOpen  = "<think>"
	ThinkingClose = "</think>"
)

// ThinkingSplitter transforms a stream of reasoning/content deltas into one
// interleaved text stream where every maximal run of reasoning deltas is
// wrapped in exactly one pair of thinking markers.
//
// A splitter is stateful per stream: create a fresh one for each completion
// call and call Close when the stream ends.
type ThinkingSplitter struct {
	inThinking bool
}

// Reasoning returns the text to emit for a reasoning delta, opening a
// thinking block if one is not already open.
func (s *ThinkingSplitter) Reasoning(text string) string {
	if text == "" {
		return ""
	}
	if !s.inThinking {
		s.inThinking = true
		return ThinkingOpen + text
	}
	return text
}

// Content returns the text to emit for a content delta, closing the open
// thinking block first if there is one.
func (s *ThinkingSplitter) Content(text string) string {
	if s.inThinking {
		s.inThinking = false
		return ThinkingClose + text
	}
	return text
}

// Close returns the closing marker if the stream ended mid-thinking, and
// the empty string otherwise.
func (s *ThinkingSplitter) Close() string {
	if s.inThinking {
		s.inThinking = false
		return ThinkingClose
	}
	return ""
}

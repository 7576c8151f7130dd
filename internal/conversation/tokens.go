package conversation

// imageTokenCost is the flat token charge for an image part. Images are
// not tokenized; a fixed approximation is enough to trigger trimming.
const imageTokenCost = 100

// estimateTokens approximates the token count of a text string. It does
// not match any real tokenizer; it only needs to be monotonic in content
// length and consistent within a run, since its sole job is to trim the
// history before a hard request-size limit is hit.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}

// messageTokens approximates the token cost of a whole message: the role
// label plus each content part.
func messageTokens(msg Message) int {
	total := estimateTokens(msg.Role)

	if len(msg.Parts) > 0 {
		for _, part := range msg.Parts {
			switch part.Type {
			case PartTypeImage:
				total += imageTokenCost
			default:
				total += estimateTokens(part.Text)
			}
		}
		return total
	}

	return total + estimateTokens(msg.Content)
}

package emotion

// MoodInstruction returns a short behavior guideline for the given state.
func MoodInstruction(s State) string {
	switch s {
	case StateHappy:
		return "语气温柔积极，适度亲昵。"
	case StateExcited:
		return "语气高昂，多用感叹，节奏轻快。"
	case StateSad:
		return "语气低落克制，表达轻微委屈。"
	case StateAngry:
		return "语气冷淡简短，避免亲昵表达。"
	case StateShy:
		return "说话有些害羞，偶尔支支吾吾。"
	case StateConfident:
		return "语气自信大方，乐于展现自己。"
	default:
		return ""
	}
}

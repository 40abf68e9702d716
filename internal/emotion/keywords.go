package emotion

type category struct {
	label    Label
	keywords []string
}

// keywordTable is evaluated top to bottom; the first match becomes the base emotion.
var keywordTable = []category{
	{Happy, []string{"happy", "joyful", "excited", "love", "amazing", "wonderful", "great", "awesome", "fantastic"}},
	{Sad, []string{"sad", "depressed", "unhappy", "miserable", "terrible", "awful", "hate", "disappointed"}},
	{Angry, []string{"angry", "furious", "mad", "frustrated", "annoyed", "irritated", "disgusted"}},
	{Anxious, []string{"anxious", "worried", "nervous", "afraid", "scared", "stressed", "panicked"}},
	{Neutral, []string{"ok", "fine", "alright", "normal", "usual", "regular"}},
}

var (
	positiveWords = []string{"love", "great", "amazing", "wonderful", "excellent", "fantastic", "good"}
	negativeWords = []string{"hate", "terrible", "awful", "bad", "horrible", "disgusting", "poor"}
)

// Keywords returns a copy of the trigger words for a label.
func Keywords(l Label) []string {
	for _, cat := range keywordTable {
		if cat.label == l {
			out := make([]string, len(cat.keywords))
			copy(out, cat.keywords)
			return out
		}
	}
	return nil
}

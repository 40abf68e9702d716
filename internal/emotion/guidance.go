package emotion

var guidance = map[Label]string{
	Sad: "The student seems sad or down. Respond with empathy and encouragement. " +
		"Use gentle language, acknowledge their feelings and remind them that " +
		"learning takes time. Offer simple steps to build confidence.",
	Happy: "The student appears joyful and excited. Mirror their positivity and keep the " +
		"momentum going. Reinforce the fun aspects of learning and suggest small " +
		"challenges to sustain engagement.",
	Angry: "The student seems frustrated or angry. Remain calm and patient. Validate " +
		"their frustration and offer to revisit the concepts step by step. Reassure " +
		"them that struggles are a normal part of learning.",
	Anxious: "The student expresses fear or anxiety. Use a reassuring tone, emphasise " +
		"safety and support. Break tasks into manageable pieces and remind them " +
		"that they have your full support.",
	Neutral: "The student's tone is even. Clarify any misunderstandings, provide more " +
		"context and invite them to ask follow-up questions.",
}

// Guidance returns the tone instruction for replying to a student in the given mood.
// Unknown labels yield an empty string.
func Guidance(l Label) string {
	return guidance[l]
}

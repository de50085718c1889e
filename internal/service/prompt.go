package service

import "fmt"

// analysisSystemPrompt pins the model to its coaching role and to JSON-only
// output. Models behind the gateway still wrap replies in prose or code
// fences often enough that the parser keeps its extraction fallbacks.
const analysisSystemPrompt = "You are an expert public speaking coach. Always respond with valid JSON only."

// defaultPromptUsed stands in when a speech was recorded without a prompt.
const defaultPromptUsed = "General speaking practice"

// BuildAnalysisPrompt constructs the feedback instruction for one transcript.
// Pure and deterministic: the transcript and originating prompt are embedded
// verbatim, and the output schema spelled out here is the exact contract
// ParseAnalysis validates against.
func BuildAnalysisPrompt(transcript, promptUsed string) string {
	if promptUsed == "" {
		promptUsed = defaultPromptUsed
	}

	return fmt.Sprintf(`You are an expert public speaking coach analyzing a speech transcript. The speaker was responding to this prompt: "%s"

Transcript:
"%s"

Analyze this speech and provide detailed feedback in the following JSON structure:
{
  "confidence_score": <number 0-100>,
  "pace_rating": "<too_fast|good|too_slow>",
  "clarity_rating": "<poor|fair|good|excellent>",
  "filler_words_count": <number>,
  "strengths": [<array of 2-4 specific strengths as strings>],
  "improvements": [<array of 2-4 actionable improvements as strings>],
  "ai_summary": "<2-3 sentence encouraging summary of overall performance>"
}

Focus on:
- Confidence and tone
- Speaking pace and rhythm
- Clarity of message
- Use of filler words ("um", "uh", "like", etc.)
- Structure and flow
- Engagement and delivery

Be specific, encouraging, and actionable in your feedback.`, promptUsed, transcript)
}

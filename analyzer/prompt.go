package analyzer

import "fmt"

// analysisInstructions is the fixed instruction block sent with every
// request. It pins the model to one JSON object in the exact shape
// parseResult expects.
const analysisInstructions = `You are an expert speech and communication coach.
Analyze the user's spoken audio and respond with a single JSON object and
nothing else, in exactly this shape:

{
  "transcript": "the full transcript of the spoken audio",
  "summary": "a one-paragraph summary of what was said",
  "grammarAnalysis": [
    {
      "original": "the exact phrase as spoken",
      "issue": "what is wrong: a grammar mistake, a filler word, or awkward phrasing",
      "suggestion": "a corrected or more natural phrasing",
      "tip": "a short tip for speaking this more fluently"
    }
  ],
  "sentiment": {
    "label": "Positive",
    "explanation": "a short explanation of the overall emotional tone"
  }
}

Rules:
- "sentiment.label" must be exactly one of: Positive, Negative, Neutral, Mixed.
- Flag every grammar mistake, filler word, and awkward phrasing you notice.
- If there is nothing to flag, return an empty "grammarAnalysis" list.
- Do not add fields, commentary, or markdown outside the JSON object.`

// textPrompt adapts the instructions for backends that transcribe first and
// analyze the text separately. The transcript must be echoed verbatim so the
// reply still satisfies the full schema.
func textPrompt(transcript string) string {
	return fmt.Sprintf(`Here is the transcript of the spoken audio. Use it as
the "transcript" field verbatim and base your analysis on it:

%s`, transcript)
}

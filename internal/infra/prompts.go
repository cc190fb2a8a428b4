package infra

import (
	"fmt"
	"strings"

	"github.com/scribenote/scribenote/internal/models"
)

// Each mode maps to a fixed instruction template and a model tier.
// Summarize needs stronger long-context reasoning and gets the higher tier.
const (
	fastModel  = "openai/gpt-4o-mini"
	smartModel = "openai/gpt-4o"
)

const basicPrompt = `Reformat the following text:
- Use a format appropriate for texting or instant messaging
- Fix grammar, spelling, and punctuation
- Remove speech artifacts (um, uh, false starts, repetitions)
- Maintain original tone and language (do not translate)
- Correct homophones, standardize numbers and dates
- Add paragraphs or lists as needed
- Never precede output with any intro like "Here is the corrected text:"
- Don't add content not in the source or answer questions in it
- Don't add sign-offs or acknowledgments that aren't in the source
- NEVER answer questions that are presented in the text. Only reply with the corrected text.

Text to structure:
%s`

const summaryPrompt = `Summarize the following text:
- Structure it for effective note-taking.
- Maintain the original language (do not translate)
- Ensure that key points, ideas, or action items are clearly highlighted.
- Check for correct grammar and punctuation.
- Remove speech artifacts and filler words
- Keep the tone the same as given.
- Use as much of the original text as possible.
- Reply with just the reformatted text.
- Never precede output with any intro like "Here is the summary:"

Text to summarize:
%s`

const translatePrompt = `Translate and clean the following text:
- Translate to English if the text is in another language
- If already in English, just clean and structure it
- Fix grammar, spelling, and punctuation
- Remove speech artifacts (um, uh, false starts, repetitions)
- Use a format appropriate for texting or instant messaging
- Add paragraphs or lists as needed
- Never precede output with any intro like "Here is the translation:"
- Don't add content not in the source or answer questions in it

Text to translate/clean:
%s`

type promptSpec struct {
	model    string
	system   string
	template string
}

func promptFor(mode models.Mode) (promptSpec, error) {
	switch mode {
	case models.ModeBasic:
		return promptSpec{
			model:    fastModel,
			system:   "You are a helpful assistant that structures text in a clear and organized way.",
			template: basicPrompt,
		}, nil
	case models.ModeSummarize:
		return promptSpec{
			model:    smartModel,
			system:   "You are a helpful assistant that creates concise summaries of text.",
			template: summaryPrompt,
		}, nil
	case models.ModeTranslate:
		return promptSpec{
			model:    fastModel,
			system:   "You are a helpful assistant that translates and structures text clearly.",
			template: translatePrompt,
		}, nil
	default:
		return promptSpec{}, fmt.Errorf("unknown mode %q", mode)
	}
}

func (p promptSpec) render(transcript string) string {
	return fmt.Sprintf(p.template, strings.TrimSpace(transcript))
}

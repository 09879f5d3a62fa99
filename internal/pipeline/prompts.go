package pipeline

import "fmt"

// stagePrompts carries the system prompt for each model-calling stage.
type stagePrompts struct {
	analysis     string
	planning     string
	drafting     string
	verification string
}

func loadStagePrompts() (stagePrompts, error) {
	var p stagePrompts
	for _, entry := range []struct {
		name string
		dst  *string
	}{
		{"analysis_system.txt", &p.analysis},
		{"planning_system.txt", &p.planning},
		{"drafting_system.txt", &p.drafting},
		{"verification_system.txt", &p.verification},
	} {
		data, err := embeddedPrompts.ReadFile("prompts/" + entry.name)
		if err != nil {
			return stagePrompts{}, fmt.Errorf("load prompt %s: %w", entry.name, err)
		}
		*entry.dst = string(data)
	}
	return p, nil
}

// noChangesMarker is the exact reply the drafting prompt requests for files
// that need no modification.
const noChangesMarker = "NO CHANGES"

func fileAnalysisPrompt(f FileRecord, contextSoFar string) string {
	return fmt.Sprintf(`CODE BASE CONTEXT SO FAR:

%s

_________________

REPO FILE PATH:
%s

FILE CONTENT:
`+"```"+`
%s
`+"```"+`

Summarize this file's purpose and its relationships to the files described
in the context above.`, contextSoFar, f.Path, f.Content)
}

func planningPrompt(contextDoc, userPrompt string) string {
	return fmt.Sprintf(`CODE BASE:

%s

_________________

USER PROMPT
Analyze changes to be made to this code base based on this prompt:
%s`, contextDoc, userPrompt)
}

func draftingPrompt(f FileRecord, contextDoc, plan, userPrompt string) string {
	return fmt.Sprintf(`CODE BASE CONTEXT:

%s

CHANGE PLAN:

%s

_________________

REPO FILE PATH:
%s

FILE CONTENT:
`+"```"+`
%s
`+"```"+`

USER PROMPT: %s

Decide whether this file needs modification. Reply NO CHANGES or a single
fenced diff for this file.`, contextDoc, plan, f.Path, f.Content, userPrompt)
}

func verificationPrompt(contextDoc, plan, draft, userPrompt string) string {
	return fmt.Sprintf(`CODE BASE CONTEXT:

%s

CHANGE PLAN:

%s

SUGGESTED DIFF:
`+"```bash"+`
%s
`+"```"+`

USER PROMPT: %s

Verify the diff and rewrite it in its final form.`, contextDoc, plan, draft, userPrompt)
}

package llm

import "fmt"

// Task names a system prompt in the analysis catalog.
type Task string

const (
	TaskGenerateQA      Task = "generate_qa"
	TaskExtractConcepts Task = "extract_concepts"
	TaskExtractPearls   Task = "extract_pearls"
	TaskFindReferences  Task = "find_references"
)

// prompts is the catalog of system prompts keyed by task. All prompts
// target an expert colorectal-surgery audience.
var prompts = map[Task]string{
	TaskGenerateQA: "Generate high-quality question-answer pairs from this medical " +
		"lecture segment. Each pair should test important concepts, techniques, " +
		"or decision-making points. Format each pair as a JSON object with " +
		"fields: question, answer, context (relevant text), concepts (list of " +
		"key terms), and confidence (0-1 score). Separate pairs with a blank line.",
	TaskExtractConcepts: "Extract key medical concepts, anatomical terms, surgical " +
		"techniques, and important terminology from this text. Return as a list " +
		"with one concept per line.",
	TaskExtractPearls: "Identify clinical pearls, expert tips, and critical insights " +
		"from this surgical lecture segment. Focus on practical wisdom that " +
		"enhances surgical technique and decision-making. Return one pearl per line.",
	TaskFindReferences: "Identify relevant medical literature, guidelines, or evidence " +
		"that supports the concepts discussed in this segment. Format as a list " +
		"of citations, one per line.",
}

// SystemPrompt returns the system prompt for a task.
func SystemPrompt(task Task) (string, error) {
	p, ok := prompts[task]
	if !ok {
		return "", fmt.Errorf("no prompt for task %q", task)
	}
	return p, nil
}

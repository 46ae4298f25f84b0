package openai

import (
	"fmt"
	"strings"
)

// entityTypes is the vocabulary the extraction prompt offers the model.
var entityTypes = []string{
	"person",
	"place",
	"organization",
	"work",
	"event",
	"technology",
	"concept",
	"other",
}

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "term": {
            "type": "string"
          },
          "type": {
            "type": "string"
          },
          "importance": {
            "type": "integer",
            "minimum": 1,
            "maximum": 10
          }
        },
        "required": ["term", "type", "importance"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract the entities and key topics from the given note that would make good web search queries, and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Terms must appear in the note or be clearly implied by it. Do not hallucinate.
- Prefer proper nouns, technical terms, and concrete topics over generic words.
- Type field must match exactly one of the listed values: %s.
- Importance is an integer from 1 (least relevant) to 10 (most central). Rate based on how essential the term is for understanding the note.
- If no entities can be identified, return "entities": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "The Eiffel Tower was completed in 1889 for the World's Fair in Paris."
Output:
{
  "entities": [
    {"term":"Eiffel Tower","type":"place","importance":9},
    {"term":"World's Fair","type":"event","importance":7},
    {"term":"Paris","type":"place","importance":6}
  ]
}

Example (informal, no punctuation):
Input: "reading about rust async runtimes tokio mostly"
Output:
{
  "entities": [
    {"term":"tokio","type":"technology","importance":9},
    {"term":"rust async runtime","type":"technology","importance":8}
  ]
}`

const analysisResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "passages": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "text": {
            "type": "string"
          },
          "relevance": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["text", "relevance"],
        "additionalProperties": false
      }
    },
    "summary": {
      "type": "object",
      "properties": {
        "text": {
          "type": "string"
        },
        "relevance": {
          "type": "number",
          "minimum": 0,
          "maximum": 1
        }
      },
      "required": ["text", "relevance"],
      "additionalProperties": false
    }
  },
  "required": ["passages", "summary"],
  "additionalProperties": false
}`

const analysisPromptTemplate = `You are given a note and the text content of a web page. Select the passages from the page that add the most useful context to the note, and summarize the page, returning everything as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Return at most %d passages, quoted or lightly condensed from the page. Do not invent content.
- Relevance is a number from 0 (unrelated) to 1 (directly about the note's subject).
- The summary is one or two sentences covering the page as a whole, with its own relevance to the note.
- Skip navigation text, boilerplate, and advertising.
- If nothing on the page relates to the note, return "passages": [] and still provide the summary.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

// buildExtractionPrompt creates the system prompt with entity types embedded.
func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(entityTypes, ", "))
}

// buildAnalysisPrompt creates the system prompt with the passage cap
// embedded.
func buildAnalysisPrompt(maxPassages int) string {
	return fmt.Sprintf(analysisPromptTemplate,
		analysisResponseSchema,
		maxPassages)
}

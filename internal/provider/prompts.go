package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/extract"
)

const chatSystemPrompt = `You are an expert software engineer helping a user build an application.
Answer concisely. When you propose code, put the complete file in a single fenced code block.`

const codeSystemPrompt = `You are an expert software engineer. Generate a complete, runnable application for the user's request.
Respond with a single JSON object and nothing else, with these keys:
  "code": the full source code as one file,
  "setup_instructions": how to install and run it,
  "explanation": a short description of how it works.`

var languageHints = map[string]string{
	"web3":      "Target a Web3 stack: Solidity smart contracts with a minimal JavaScript front end.",
	"ai":        "Target an AI application in Python; list every package the user must install.",
	"fullstack": "Target a full-stack web application in a single HTML file with inline JavaScript and CSS.",
}

func codeSystemPromptFor(language string) string {
	hint, ok := languageHints[strings.ToLower(language)]
	if !ok {
		return codeSystemPrompt
	}
	return codeSystemPrompt + "\n" + hint
}

// parseCodeResponse reads the JSON object requested by codeSystemPrompt.
// Models sometimes wrap it in a fence or ignore the format entirely; in the
// latter case the whole text becomes both code candidate and explanation.
func parseCodeResponse(text string) generation.CodeResponse {
	body := strings.TrimSpace(text)
	if fenced, ok := extract.ExtractCode(body); ok && strings.HasPrefix(strings.TrimSpace(fenced), "{") {
		body = fenced
	}

	var out struct {
		Code              string `json:"code"`
		SetupInstructions string `json:"setup_instructions"`
		SetupCamel        string `json:"setupInstructions"`
		Explanation       string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(body), &out); err == nil && out.Code != "" {
		setup := out.SetupInstructions
		if setup == "" {
			setup = out.SetupCamel
		}
		return generation.CodeResponse{Code: out.Code, SetupInstructions: setup, Explanation: out.Explanation}
	}
	return generation.CodeResponse{Code: text, Explanation: text}
}

func codeUserPrompt(req generation.CodeRequest) string {
	if req.Language == "" {
		return req.Prompt
	}
	return fmt.Sprintf("Language: %s\n\n%s", req.Language, req.Prompt)
}

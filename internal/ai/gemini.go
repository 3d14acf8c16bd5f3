package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"safeparking/internal/types"
)

// GeminiProvider implements Classifier and Responder on Google's Gemini models.
// Classification runs on a JSON-mode model; replies on a plain-text one.
type GeminiProvider struct {
	client   *genai.Client
	classify *genai.GenerativeModel
	answer   *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey, classifyModel, answerModel string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	cm := client.GenerativeModel(classifyModel)
	// Force JSON response for structured parsing.
	cm.ResponseMIMEType = "application/json"
	cm.SetTemperature(0.1)

	am := client.GenerativeModel(answerModel)
	am.SetTemperature(0.6)

	return &GeminiProvider{
		client:   client,
		classify: cm,
		answer:   am,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

// Classify extracts the untyped classification for one utterance. Malformed
// model output degrades to an empty map so the caller can fall through to the
// general-intent path instead of failing the turn.
func (p *GeminiProvider) Classify(ctx context.Context, utterance, contextSummary string) (map[string]any, error) {
	prompt := classifySystemPrompt
	if contextSummary != "" {
		prompt += "\n\n대화 맥락:\n" + contextSummary
	}
	prompt += "\n\n사용자 발화: " + utterance

	resp, err := p.classify.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini classification error: %w", err)
	}

	raw := cleanJSONString(responseText(resp))
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("unparseable classification, treating as empty: %v (raw: %.120s)", err, raw)
		return map[string]any{}, nil
	}
	return out, nil
}

// Compose phrases the user-facing reply from the turn summary.
func (p *GeminiProvider) Compose(ctx context.Context, summary ReplySummary) (string, error) {
	prompt := answerSystemPrompt + "\n\n" + renderSummary(summary)

	resp, err := p.answer.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini answer error: %w", err)
	}
	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", fmt.Errorf("empty answer from model")
	}
	return text, nil
}

// renderSummary flattens the turn outcome into the compact Korean block the
// answer prompt expects.
func renderSummary(s ReplySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "사용자 발화: %s\n의도: %s\n", s.Utterance, s.Intent)

	if s.RolledBack {
		if s.Restored {
			b.WriteString("처리 결과: 직전 요청으로 되돌림\n")
		} else {
			b.WriteString("처리 결과: 되돌릴 이전 요청 없음\n")
		}
	}
	if s.Clarify != "" {
		fmt.Fprintf(&b, "되묻기 필요: %s\n", clarifyText(s.Clarify))
	}

	if len(s.Entities) > 0 {
		b.WriteString("추천 목록:\n")
		for i, e := range s.Entities {
			fmt.Fprintf(&b, "%d. %s", i+1, e.Name)
			if e.DistanceKm > 0 {
				fmt.Fprintf(&b, " (%s)", types.FormatDistance(e.DistanceKm*1000))
			}
			if e.Fee != "" {
				fmt.Fprintf(&b, " 요금: %s", e.Fee)
			}
			if e.Address != "" {
				fmt.Fprintf(&b, " / %s", e.Address)
			}
			b.WriteString("\n")
		}
	}

	if r := s.Route; r != nil {
		if r.Failed {
			fmt.Fprintf(&b, "경로: %s까지의 경로 탐색 실패\n", r.DestinationName)
		} else {
			fmt.Fprintf(&b, "경로: %s까지 %s, 약 %s\n",
				r.DestinationName,
				types.FormatDistance(float64(r.DistanceMeters)),
				types.FormatDuration(r.DurationSeconds))
		}
	}
	return b.String()
}

func clarifyText(reason string) string {
	switch reason {
	case "no_destination":
		return "경로 목적지가 없음 — 어디로 갈지 물어볼 것"
	case "no_prior_results":
		return "번호로 고를 이전 추천 목록이 없음 — 먼저 검색을 권할 것"
	case "location_not_found":
		return "말한 장소를 찾지 못함 — 장소명을 다시 확인할 것"
	default:
		return reason
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

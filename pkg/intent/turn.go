package intent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Action is what the model decided the customer wants this turn.
type Action string

const (
	ActionAdd            Action = "add"
	ActionRemove         Action = "remove"
	ActionClear          Action = "clear"
	ActionFinalize       Action = "finalize"
	ActionGreeting       Action = "greeting"
	ActionMenuInquiry    Action = "menu_inquiry"
	ActionQuestion       Action = "question"
	ActionLanguageChange Action = "language_change"
)

// FallbackResponse is spoken when the model output cannot be used.
const FallbackResponse = "I'm sorry, could you please repeat that?"

// ErrInvalidTurn is returned when model output is not a valid turn result.
var ErrInvalidTurn = errors.New("intent: invalid turn result")

// ItemRequest names an item as the model wrote it. Quantity 0 means unspecified.
type ItemRequest struct {
	Name     string
	Quantity int
}

// TurnResult is the validated, typed interpretation of one utterance.
type TurnResult struct {
	ItemsToAdd    []ItemRequest
	ItemsToRemove []ItemRequest
	Action        Action
	Response      string
	DetectedItems []string
	IsFinal       bool

	// Language is the response language code, empty when the model omitted it.
	Language string
}

// Fallback returns the result used when interpretation fails: no items,
// a question asking the customer to repeat, not final.
func Fallback() *TurnResult {
	return &TurnResult{
		Action:   ActionQuestion,
		Response: FallbackResponse,
	}
}

//go:embed turn.schema.json
var turnSchemaJSON string

const turnSchemaURL = "https://drivethru.local/schemas/turn.schema.json"

var turnSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(turnSchemaURL, strings.NewReader(turnSchemaJSON)); err != nil {
		return nil, fmt.Errorf("intent: load schema: %w", err)
	}
	return c.Compile(turnSchemaURL)
})

type wireItem struct {
	ItemName string   `json:"item_name"`
	Quantity *float64 `json:"quantity"`
}

type wireTurn struct {
	Items         []wireItem `json:"items"`
	RemoveItems   []wireItem `json:"remove_items"`
	Action        string     `json:"action"`
	Response      string     `json:"response"`
	DetectedItems []string   `json:"detected_items"`
	IsFinal       *bool      `json:"is_final"`
	Language      *string    `json:"language"`
}

// Parse validates raw model output against the turn schema and decodes it.
// Markdown code fences around the object are tolerated.
func Parse(raw []byte) (*TurnResult, error) {
	raw = stripFences(raw)

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: not JSON: %v", ErrInvalidTurn, err)
	}

	schema, err := turnSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTurn, err)
	}

	var w wireTurn
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTurn, err)
	}

	tr := &TurnResult{
		ItemsToAdd:    convertItems(w.Items),
		ItemsToRemove: convertItems(w.RemoveItems),
		Action:        Action(w.Action),
		Response:      w.Response,
		DetectedItems: w.DetectedItems,
	}
	if w.IsFinal != nil {
		tr.IsFinal = *w.IsFinal
	}
	if w.Language != nil {
		tr.Language = strings.ToLower(strings.TrimSpace(*w.Language))
	}
	return tr, nil
}

func convertItems(in []wireItem) []ItemRequest {
	if len(in) == 0 {
		return nil
	}
	out := make([]ItemRequest, 0, len(in))
	for _, it := range in {
		qty := 0
		if it.Quantity != nil && *it.Quantity >= 1 {
			qty = int(math.Round(*it.Quantity))
		}
		out = append(out, ItemRequest{Name: it.ItemName, Quantity: qty})
	}
	return out
}

func stripFences(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if !bytes.HasPrefix(raw, []byte("```")) {
		return raw
	}
	raw = bytes.TrimPrefix(raw, []byte("```"))
	raw = bytes.TrimPrefix(raw, []byte("json"))
	raw = bytes.TrimSuffix(bytes.TrimSpace(raw), []byte("```"))
	return bytes.TrimSpace(raw)
}

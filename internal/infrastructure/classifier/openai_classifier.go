package classifier

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"reviewflow/internal/bootstrap/config"
	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
)

// OpenAIClassifier calls the Responses API once per Classify. It never
// retries; callers decide what a failed classification means.
type OpenAIClassifier struct {
	client      openai.Client
	instruction string
	model       string
	serviceTier string
	timeout     time.Duration
}

var _ ports.Classifier = (*OpenAIClassifier)(nil)

func NewOpenAIClassifier(cfg config.ClassifierConfig) (*OpenAIClassifier, error) {
	instruction, err := LoadInstruction(cfg.PromptFile)
	if err != nil {
		return nil, errs.Wrap(err, "load instruction")
	}

	opts := []option.RequestOption{}
	if key := os.Getenv(cfg.APIKeyEnv); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}

	return &OpenAIClassifier{
		client:      openai.NewClient(opts...),
		instruction: instruction,
		model:       cfg.Model,
		serviceTier: cfg.ServiceTier,
		timeout:     cfg.Timeout(),
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, req ports.ClassifyRequest) (ports.ClassifyResult, error) {
	if ctx == nil {
		return ports.ClassifyResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.ClassifyResult{}, errs.Wrap(err, "check context")
	}

	params := responses.ResponseNewParams{
		Model:       shared.ResponsesModel(c.model),
		ServiceTier: responses.ResponseNewParamsServiceTier(c.serviceTier),
	}
	if req.ContinuationToken != "" {
		// Continue the service-side conversation; instruction and text
		// are already part of it and must not be resent.
		params.PreviousResponseID = openai.String(req.ContinuationToken)
	} else {
		params.Instructions = openai.String(c.instruction)
		params.Input = responses.ResponseNewParamsInputUnion{OfString: openai.String(req.ReviewText)}
	}

	resp, err := c.client.Responses.New(ctx, params, option.WithRequestTimeout(c.timeout))
	if err != nil {
		return ports.ClassifyResult{}, errs.Wrap(err, "create reasoning response")
	}

	return ports.ClassifyResult{
		OutputText:        resp.OutputText(),
		ContinuationToken: resp.ID,
	}, nil
}

// LoadInstruction reads the prompt file, dropping markdown heading lines
// so only the instruction body reaches the service.
func LoadInstruction(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrapf(err, "read prompt file %q", path)
	}

	lines := strings.Split(string(raw), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}

	instruction := strings.TrimSpace(strings.Join(kept, "\n"))
	if instruction == "" {
		return "", errs.Wrapf(errors.New("instruction is empty"), "prompt file %q", path)
	}
	return instruction, nil
}

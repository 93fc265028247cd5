// Package generator turns a project brief into slideshow or carousel content
// by prompting a text model and decoding its answer.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/models"
)

// DefaultTimeout bounds a single generation when none is configured.
const DefaultTimeout = 45 * time.Second

// Outcome tells how the content of a Result was obtained.
type Outcome string

const (
	// Generated means the model answer was decoded successfully.
	Generated Outcome = "generated"
	// Malformed means the model answered with something that is not the expected JSON array.
	Malformed Outcome = "malformed"
	// ProviderError means the model could not be reached or refused the call.
	ProviderError Outcome = "provider_error"
	// Timeout means the generation deadline expired.
	Timeout Outcome = "timeout"
)

// Fallback reports whether the outcome produced placeholder content.
func (o Outcome) Fallback() bool { return o != Generated }

// TextGenerator sends a prompt to a language model and returns its raw text answer.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Request is the brief a project is generated from.
type Request struct {
	Title       string
	Description string
	Template    string
	Count       int
	Type        models.ProjectType
}

// Result carries the content list matching the request type.
type Result struct {
	Images  []models.CarouselImage
	Slides  []models.Slide
	Outcome Outcome
	// Err is the cause of a fallback outcome.
	Err error
}

// Len returns the number of produced items.
func (r *Result) Len() int {
	if r.Slides != nil {
		return len(r.Slides)
	}
	return len(r.Images)
}

// Pipeline runs prompt, call and decode for one request.
// It never writes anything; persisting the result is up to the caller.
type Pipeline struct {
	gen      TextGenerator
	timeout  time.Duration
	validate *validator.Validate
	logger   *zap.Logger
}

// NewPipeline creates a Pipeline. A non-positive timeout means DefaultTimeout.
func NewPipeline(gen TextGenerator, timeout time.Duration, logger *zap.Logger) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{gen: gen, timeout: timeout, validate: validator.New(), logger: logger}
}

// Generate produces content for req. Failures of the model call or of the
// decode step are absorbed into a single fallback item and reported through
// Result.Outcome. Only cancellation of ctx itself is returned as an error.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		text, err := p.gen.GenerateText(tctx, BuildPrompt(req))
		done <- answer{text: text, err: err}
	}()

	var got answer
	select {
	case got = <-done:
	case <-tctx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return p.fallback(req, Timeout, tctx.Err()), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if got.err != nil {
		outcome := ProviderError
		if errors.Is(got.err, context.DeadlineExceeded) || errors.Is(tctx.Err(), context.DeadlineExceeded) {
			outcome = Timeout
		}
		return p.fallback(req, outcome, got.err), nil
	}

	res, err := p.Decode(got.text, req.Type, req.Count)
	if err != nil {
		return p.fallback(req, Malformed, err), nil
	}
	return res, nil
}

func (p *Pipeline) fallback(req Request, outcome Outcome, cause error) *Result {
	p.logger.Warn("generation fell back to placeholder content",
		zap.String("type", string(req.Type)),
		zap.String("outcome", string(outcome)),
		zap.Error(cause),
	)
	res := Fallback(req)
	res.Outcome = outcome
	res.Err = cause
	return res
}

// Fallback returns the single item used when generation fails: the project
// title with the description as its body.
func Fallback(req Request) *Result {
	if req.Type == models.Slideshow {
		return &Result{Slides: []models.Slide{{Title: req.Title, Content: []string{req.Description}}}}
	}
	return &Result{Images: []models.CarouselImage{{Title: req.Title, Caption: req.Description}}}
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(req Request) string {
	if req.Type == models.Slideshow {
		return fmt.Sprintf("Create a professional slideshow presentation titled %q based on this description: %q. "+
			"Generate content for %d slides. For each slide, provide a title and bullet points or paragraphs of content. "+
			"Format the response as a JSON array of slide objects, each with a \"title\" and \"content\" property. "+
			"The content should be an array of strings, each representing a bullet point or paragraph.",
			req.Title, req.Description, req.Count)
	}
	return fmt.Sprintf("Create a social media carousel titled %q based on this description: %q. "+
		"Generate content for %d images. For each image, provide a title and a short caption or description. "+
		"Format the response as a JSON array of image objects, each with a \"title\" and \"caption\" property.",
		req.Title, req.Description, req.Count)
}

// stripFence removes a Markdown code fence around text, if present.
func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// Decode parses a model answer into a Result of type t. The answer must be a
// non-empty JSON array. At most limit items are kept when limit is positive,
// and every kept element must have the expected shape.
func (p *Pipeline) Decode(text string, t models.ProjectType, limit int) (*Result, error) {
	body := []byte(stripFence(text))

	var res Result
	var n int
	switch t {
	case models.Slideshow:
		if err := json.Unmarshal(body, &res.Slides); err != nil {
			return nil, fmt.Errorf("decode slides: %w", err)
		}
		if limit > 0 && len(res.Slides) > limit {
			res.Slides = res.Slides[:limit]
		}
		n = len(res.Slides)
		for i := range res.Slides {
			if err := p.validate.Struct(res.Slides[i]); err != nil {
				return nil, fmt.Errorf("slide %d: %w", i, err)
			}
		}
	case models.Carousel:
		if err := json.Unmarshal(body, &res.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
		if limit > 0 && len(res.Images) > limit {
			res.Images = res.Images[:limit]
		}
		n = len(res.Images)
		for i := range res.Images {
			if err := p.validate.Struct(res.Images[i]); err != nil {
				return nil, fmt.Errorf("image %d: %w", i, err)
			}
		}
	default:
		return nil, fmt.Errorf("unknown project type %q", t)
	}
	if n == 0 {
		return nil, errors.New("model returned no items")
	}
	res.Outcome = Generated
	return &res, nil
}

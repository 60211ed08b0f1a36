package extraction_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contractinvoice/internal/domain"
	"contractinvoice/internal/extraction"
	"contractinvoice/internal/port"
	"contractinvoice/internal/prompt"
	"contractinvoice/mocks"
)

// cannedBackend answers the primary prompt with a fixed summary and every
// secondary prompt with {"category": "<name>"} keyed off the prompt title.
type cannedBackend struct {
	mu       sync.Mutex
	requests []port.ChatRequest
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	failOn   domain.Category

	cancelled atomic.Int32
}

func (b *cannedBackend) Name() string { return "canned" }

func (b *cannedBackend) Chat(ctx context.Context, req port.ChatRequest) (string, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if req.Mode == domain.OutputFreeText {
		return "PRIMARY SUMMARY", nil
	}
	var cat domain.Category
	for _, c := range domain.AllCategories() {
		p, _ := prompt.Default().Secondary(c)
		if strings.Contains(req.Prompt, p.Title) {
			cat = c
			break
		}
	}
	if cat == "" {
		return "", errors.New("unexpected prompt")
	}
	if cat == b.failOn {
		return "", errors.New("connection refused")
	}
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			b.cancelled.Add(1)
			return "", ctx.Err()
		}
	}
	return `{"category":"` + string(cat) + `"}`, nil
}

func TestNew_Validation(t *testing.T) {
	_, err := extraction.New(nil, nil, extraction.Config{Model: "m"}, nil)
	assert.Error(t, err)

	_, err = extraction.New(&cannedBackend{}, nil, extraction.Config{Model: "  "}, nil)
	assert.ErrorContains(t, err, "model name is required")

	o, err := extraction.New(&cannedBackend{}, nil, extraction.Config{Model: "llama3.1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", o.Model())
}

func TestRunPrimary_FreeTextWithContract(t *testing.T) {
	backend := new(mocks.MockModelBackend)
	backend.On("Chat", mock.Anything, mock.MatchedBy(func(req port.ChatRequest) bool {
		return req.Model == "mistral" &&
			req.Mode == domain.OutputFreeText &&
			strings.HasPrefix(req.Prompt, prompt.Default().Primary()) &&
			strings.Contains(req.Prompt, "Client: Acme Ltd")
	})).Return("categorised contract", nil).Once()

	o, err := extraction.New(backend, nil, extraction.Config{Model: "mistral"}, nil)
	require.NoError(t, err)

	out, err := o.RunPrimary(context.Background(), domain.ExtractionRequest{RawText: "Client: Acme Ltd"})
	require.NoError(t, err)
	assert.Equal(t, domain.PrimaryResult("categorised contract"), out)
	backend.AssertExpectations(t)
}

func TestRunPrimary_EmptyDocument(t *testing.T) {
	backend := new(mocks.MockModelBackend)
	o, err := extraction.New(backend, nil, extraction.Config{Model: "m"}, nil)
	require.NoError(t, err)

	_, err = o.RunPrimary(context.Background(), domain.ExtractionRequest{RawText: " \n\t"})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestRunPrimary_ModelCallError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	backend := new(mocks.MockModelBackend)
	backend.On("Chat", mock.Anything, mock.Anything).Return("", cause).Once()
	backend.On("Name").Return("ollama")

	o, err := extraction.New(backend, nil, extraction.Config{Model: "llama3.1"}, nil)
	require.NoError(t, err)

	_, err = o.RunPrimary(context.Background(), domain.ExtractionRequest{RawText: "contract"})
	var mce *domain.ModelCallError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "ollama", mce.Provider)
	assert.Equal(t, "llama3.1", mce.Model)
	assert.Equal(t, "primary", mce.Stage)
	assert.ErrorIs(t, err, cause)
	backend.AssertNumberOfCalls(t, "Chat", 1)
}

func TestRunSecondary_JSONModeWithPrimary(t *testing.T) {
	backend := new(mocks.MockModelBackend)
	backend.On("Chat", mock.Anything, mock.MatchedBy(func(req port.ChatRequest) bool {
		return req.Mode == domain.OutputJSON &&
			strings.Contains(req.Prompt, "3. Calculation Details") &&
			strings.Contains(req.Prompt, prompt.InstallmentScoping) &&
			strings.HasSuffix(req.Prompt, "PRIMARY")
	})).Return(`{"calculation_details":{}}`, nil).Once()

	o, err := extraction.New(backend, nil, extraction.Config{Model: "m"}, nil)
	require.NoError(t, err)

	frag, err := o.RunSecondary(context.Background(), domain.CategoryCalculationDetails, "PRIMARY")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCalculationDetails, frag.Category)
	assert.Equal(t, `{"calculation_details":{}}`, frag.Text)
	backend.AssertExpectations(t)
}

func TestRunSecondary_UnknownCategory(t *testing.T) {
	o, err := extraction.New(new(mocks.MockModelBackend), nil, extraction.Config{Model: "m"}, nil)
	require.NoError(t, err)

	_, err = o.RunSecondary(context.Background(), domain.Category("shipping"), "PRIMARY")
	assert.Error(t, err)
}

func TestRunAll_CollectsEveryCategory(t *testing.T) {
	backend := &cannedBackend{}
	o, err := extraction.New(backend, nil, extraction.Config{Model: "m"}, nil)
	require.NoError(t, err)

	res, err := o.RunAll(context.Background(), domain.ExtractionRequest{RawText: "contract"})
	require.NoError(t, err)

	assert.Equal(t, domain.PrimaryResult("PRIMARY SUMMARY"), res.Primary)
	require.Len(t, res.Fragments, 7)
	for _, cat := range domain.AllCategories() {
		assert.Equal(t, cat, res.Fragments[cat].Category)
		assert.Equal(t, `{"category":"`+string(cat)+`"}`, res.Fragments[cat].Text)
	}

	require.Len(t, backend.requests, 8)
	assert.Equal(t, domain.OutputFreeText, backend.requests[0].Mode)
	for _, req := range backend.requests[1:] {
		assert.Equal(t, domain.OutputJSON, req.Mode)
		assert.True(t, strings.HasSuffix(req.Prompt, "PRIMARY SUMMARY"))
	}
}

func TestRunAll_ConcurrencyLimit(t *testing.T) {
	backend := &cannedBackend{delay: 20 * time.Millisecond}
	o, err := extraction.New(backend, nil, extraction.Config{Model: "m", MaxConcurrency: 2}, nil)
	require.NoError(t, err)

	_, err = o.RunAll(context.Background(), domain.ExtractionRequest{RawText: "contract"})
	require.NoError(t, err)
	assert.LessOrEqual(t, backend.peak.Load(), int32(2))
}

func TestRunAll_SecondaryFailureIsTerminal(t *testing.T) {
	backend := &cannedBackend{failOn: domain.CategoryPaymentInstructions}
	o, err := extraction.New(backend, nil, extraction.Config{Model: "m"}, nil)
	require.NoError(t, err)

	res, err := o.RunAll(context.Background(), domain.ExtractionRequest{RawText: "contract"})
	assert.Nil(t, res)

	var mce *domain.ModelCallError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "payment_instructions", mce.Stage)
	assert.Equal(t, "canned", mce.Provider)
}

func TestRunAll_FailureLetsStartedCallsFinish(t *testing.T) {
	backend := &cannedBackend{delay: 30 * time.Millisecond, failOn: domain.CategoryInvoiceInformation}
	o, err := extraction.New(backend, nil, extraction.Config{Model: "m", MaxConcurrency: 7}, nil)
	require.NoError(t, err)

	_, err = o.RunAll(context.Background(), domain.ExtractionRequest{RawText: "contract"})
	var mce *domain.ModelCallError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "invoice_information", mce.Stage)

	assert.Len(t, backend.requests, 8)
	assert.Zero(t, backend.cancelled.Load())
}

func TestRunAll_FailureSkipsCallsNotYetStarted(t *testing.T) {
	backend := &cannedBackend{failOn: domain.AllCategories()[0]}
	o, err := extraction.New(backend, nil, extraction.Config{Model: "m", MaxConcurrency: 1}, nil)
	require.NoError(t, err)

	_, err = o.RunAll(context.Background(), domain.ExtractionRequest{RawText: "contract"})
	require.Error(t, err)
	assert.Len(t, backend.requests, 2)
}

func TestRunAll_PrimaryFailureSkipsSecondaries(t *testing.T) {
	backend := new(mocks.MockModelBackend)
	backend.On("Chat", mock.Anything, mock.MatchedBy(func(req port.ChatRequest) bool {
		return req.Mode == domain.OutputFreeText
	})).Return("", errors.New("timeout")).Once()
	backend.On("Name").Return("ollama")

	o, err := extraction.New(backend, nil, extraction.Config{Model: "m"}, nil)
	require.NoError(t, err)

	_, err = o.RunAll(context.Background(), domain.ExtractionRequest{RawText: "contract"})
	var mce *domain.ModelCallError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "primary", mce.Stage)
	backend.AssertNumberOfCalls(t, "Chat", 1)
}

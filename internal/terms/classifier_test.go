package terms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	out string
	err error
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.out, f.err
}

func TestLLMClassifier_ParsesClassification(t *testing.T) {
	c := NewLLMClassifier(&fakeCompleter{
		out: `{"category": "techniques", "definition": "careful tissue separation", "confidence": 0.85}`,
	})

	info, err := c.Classify(context.Background(), "blunt dissection")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, CategoryTechniques, info.Category)
	assert.Equal(t, "careful tissue separation", info.Definition)
	assert.Equal(t, 0.85, info.Confidence)
}

func TestLLMClassifier_UnknownCategoryMeansNotMedical(t *testing.T) {
	c := NewLLMClassifier(&fakeCompleter{
		out: `{"category": "unknown", "definition": "", "confidence": 0.1}`,
	})

	info, err := c.Classify(context.Background(), "whiteboard")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLLMClassifier_MalformedResponse(t *testing.T) {
	c := NewLLMClassifier(&fakeCompleter{out: "Sure! The term is anatomical."})

	_, err := c.Classify(context.Background(), "cecum")
	assert.Error(t, err)
}

func TestLLMClassifier_ServiceError(t *testing.T) {
	c := NewLLMClassifier(&fakeCompleter{err: errors.New("timeout")})

	_, err := c.Classify(context.Background(), "cecum")
	assert.Error(t, err)
}
